package onboarding

import (
	"fmt"
	"strings"

	"github.com/openbank/onboarding/pkg/vars"
)

// DefaultPreconditions returns the standard set of payload checks wired into
// the orchestrator at startup.
func DefaultPreconditions(cfg Config) []Precondition {
	return []Precondition{
		VoiceScoreSatisfied{Threshold: cfg.MinVoiceScore},
		KYCResultPresent{},
		OwnersReady{},
		ParentConsentPresent{},
		MinorIDLinked{},
		AccountActivitiesRequired{},
		InformationActivitiesRequired{},
		TranscriptionRequired{},
		VideoSubmitRequired{},
		CustomerValidationStatusRequired{},
		WarningsAcknowledgeRequired{},
	}
}

// VoiceScoreSatisfied allows the finalizing transition of each flow only when
// the resolved voice score is strictly greater than the threshold. The score
// is read from the payload first, then from the process variables.
type VoiceScoreSatisfied struct {
	Threshold float64
}

func (p VoiceScoreSatisfied) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return (t == TypeSingleOwner && s == StateBiometryVerified && e == EventCreateAccount) ||
		(t == TypeMultiOwner && s == StateWaitingForAllOwners && e == EventConfirmAllOwners) ||
		(t == TypeMinor && s == StateWaitingForParentConsent && e == EventParentApproved) ||
		(t == TypeMinorToRegular && s == StateWaitingForConversionConfirmation && e == EventCompleteConversion)
}

func (p VoiceScoreSatisfied) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	score, ok := vars.ToFloat(readVar(payload, pi, VarVoiceScore))
	if !ok || !(score > p.Threshold) {
		return []CheckError{{
			Code:    "VOICE_SCORE_TOO_LOW",
			Message: fmt.Sprintf("voiceScore must be > %v before finalization", p.Threshold),
		}}
	}
	return nil
}

// KYCResultPresent requires an APPROVED KYC status whenever KYC_VERIFIED is
// attempted, for every process type.
type KYCResultPresent struct{}

func (p KYCResultPresent) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return e == EventKYCVerified
}

func (p KYCResultPresent) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	status := readVar(payload, pi, VarKYCStatus)
	if status == nil {
		return []CheckError{{Code: "KYC_RESULT_PRESENT", Message: "KYC result not found"}}
	}
	if s, ok := vars.ToString(status); !ok || !strings.EqualFold(s, "APPROVED") {
		return []CheckError{{Code: "KYC_NOT_APPROVED", Message: "KYC status must be APPROVED"}}
	}
	return nil
}

// OwnersReady requires the owner roster to be complete before a multi-owner
// account is confirmed: both totals present and shares summing to exactly 100.
type OwnersReady struct{}

func (p OwnersReady) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return t == TypeMultiOwner && e == EventConfirmAllOwners
}

func (p OwnersReady) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	var errs []CheckError

	totalOwners := readVar(payload, pi, VarTotalOwners)
	totalShare := readVar(payload, pi, VarTotalShare)

	if totalOwners == nil {
		errs = append(errs, CheckError{Code: "OWNERS_COUNT_REQUIRED", Message: "Total owners is required"})
	}
	if totalShare == nil {
		errs = append(errs, CheckError{Code: "OWNERS_SHARE_REQUIRED", Message: "Total share is required"})
	} else if share, ok := vars.ToFloat(totalShare); !ok || share != 100 {
		errs = append(errs, CheckError{Code: "INVALID_TOTAL_SHARE", Message: "Total share must be 100"})
	}

	return errs
}

// ParentConsentPresent requires a consent document before the parent-approval
// transition of the minor flow.
type ParentConsentPresent struct{}

func (p ParentConsentPresent) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return t == TypeMinor && e == EventParentApproved
}

func (p ParentConsentPresent) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	if readVar(payload, pi, VarConsentDocument) == nil {
		return []CheckError{{Code: "CONSENT_DOCUMENT_REQUIRED", Message: "Parent consent document is required"}}
	}
	return nil
}

// MinorIDLinked requires a linked minor account id in the process variables
// for both conversion transitions.
type MinorIDLinked struct{}

func (p MinorIDLinked) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return t == TypeMinorToRegular &&
		(e == EventConfirmConversion || e == EventCompleteConversion)
}

func (p MinorIDLinked) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	if pi.Variables == nil || pi.Variables[VarLinkedMinorAccountID] == nil {
		return []CheckError{{Code: "MINOR_ACCOUNT_LINK_REQUIRED", Message: "Linked MINOR account id is required"}}
	}
	return nil
}

// AccountActivitiesRequired requires a non-empty activities answer on the
// account-activities screen.
type AccountActivitiesRequired struct{}

func (p AccountActivitiesRequired) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return t == TypeMinor && s == StateAccountActivitiesScreen && e == EventSubmitAccountActivities
}

func (p AccountActivitiesRequired) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	if isBlank(readVar(payload, pi, VarActivities)) {
		return []CheckError{{Code: VarActivities, Message: "REQUIRED"}}
	}
	return nil
}

// InformationActivitiesRequired requires communication preferences on the
// information-activities screen.
type InformationActivitiesRequired struct{}

func (p InformationActivitiesRequired) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return t == TypeMinor && s == StateInformationActivitiesScreen && e == EventSubmitInformationActivities
}

func (p InformationActivitiesRequired) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	if isBlank(readVar(payload, pi, VarCommunicationPreferences)) {
		return []CheckError{{Code: VarCommunicationPreferences, Message: "REQUIRED"}}
	}
	return nil
}

// TranscriptionRequired requires a transcription before speech processing,
// including when the client asks to block the flow from that screen.
type TranscriptionRequired struct{}

func (p TranscriptionRequired) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return t == TypeMinor && s == StateSpeechToText &&
		(e == EventProcessSpeechToText || e == EventBlockFlow)
}

func (p TranscriptionRequired) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	if isBlank(readVar(payload, pi, VarTranscription)) {
		return []CheckError{{Code: VarTranscription, Message: "REQUIRED"}}
	}
	return nil
}

// VideoSubmitRequired requires a video file when the client chooses to
// continue (the default when toContinue is absent).
type VideoSubmitRequired struct{}

func (p VideoSubmitRequired) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return t == TypeMinor && s == StateVideoScreen && e == EventSubmitVideo
}

func (p VideoSubmitRequired) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	toContinue := true
	if b, ok := vars.ToBool(readVar(payload, pi, VarToContinue)); ok {
		toContinue = b
	}
	if toContinue && isBlank(readVar(payload, pi, VarVideoFile)) {
		return []CheckError{{Code: VarVideoFile, Message: "REQUIRED"}}
	}
	return nil
}

// CustomerValidationStatusRequired requires a one-to-many validation status
// of either OK or FAIL.
type CustomerValidationStatusRequired struct{}

func (p CustomerValidationStatusRequired) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return t == TypeMinor && s == StateCustomerInfoValidation && e == EventValidateCustomerInfo
}

func (p CustomerValidationStatusRequired) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	status := readVar(payload, pi, VarOneToManyStatus)
	if isBlank(status) {
		return []CheckError{{Code: VarOneToManyStatus, Message: "REQUIRED"}}
	}
	if s, ok := vars.ToString(status); !ok ||
		(!strings.EqualFold(strings.TrimSpace(s), "OK") && !strings.EqualFold(strings.TrimSpace(s), "FAIL")) {
		return []CheckError{{Code: VarOneToManyStatus, Message: "MUST_BE_OK_OR_FAIL"}}
	}
	return nil
}

// WarningsAcknowledgeRequired requires an explicit acknowledgement on the
// warnings screen.
type WarningsAcknowledgeRequired struct{}

func (p WarningsAcknowledgeRequired) Supports(t ProcessType, s ProcessState, e ProcessEvent) bool {
	return t == TypeMinor && s == StateWarnings && e == EventAcknowledgeWarnings
}

func (p WarningsAcknowledgeRequired) Validate(pi *ProcessInstance, payload map[string]any) []CheckError {
	if isBlank(readVar(payload, pi, VarWarningsAcknowledged)) {
		return []CheckError{{Code: VarWarningsAcknowledged, Message: "REQUIRED"}}
	}
	return nil
}
