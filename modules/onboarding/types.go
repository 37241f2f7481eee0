// Package onboarding implements the multi-variant customer onboarding
// workflow: guarded transition tables for the four process flows, payload
// preconditions, a server-driven step plan, and the orchestration that keeps
// machine state, the persisted process record and the context snapshot cache
// consistent.
package onboarding

import (
	"fmt"
)

// ProcessType selects which transition sub-table drives a process. It is also
// carried in the extended variables under VarProcessType so guards can
// discriminate flows sharing one event vocabulary.
type ProcessType string

const (
	TypeSingleOwner    ProcessType = "SINGLE_OWNER"
	TypeMultiOwner     ProcessType = "MULTI_OWNER"
	TypeMinor          ProcessType = "MINOR"
	TypeMinorToRegular ProcessType = "MINOR_TO_REGULAR"
)

// VarProcessType is the extended-variable key carrying the process type.
const VarProcessType = "processType"

// ParseProcessType converts a wire value into a ProcessType.
func ParseProcessType(s string) (ProcessType, error) {
	t := ProcessType(s)
	switch t {
	case TypeSingleOwner, TypeMultiOwner, TypeMinor, TypeMinorToRegular:
		return t, nil
	}
	return "", NewInvalidInputError("type", fmt.Sprintf("unknown process type %q", s))
}

// ProcessState is a workflow position. Each state carries a stable screen
// code consumed by presentation layers.
type ProcessState string

const (
	// Common start state (500.x).
	StateStarted ProcessState = "STARTED"

	// Single owner flow (510.x).
	StateUSPassportDetails  ProcessState = "US_PASSPORT_DETAILS"
	StateKYCInProgress      ProcessState = "KYC_IN_PROGRESS"
	StateWaitingForBiometry ProcessState = "WAITING_FOR_BIOMETRY"
	StateBiometryVerified   ProcessState = "BIOMETRY_VERIFIED"
	StateAccountCreated     ProcessState = "ACCOUNT_CREATED"

	// Multi owner flow (520.x).
	StateFillPersonalDetails    ProcessState = "FILL_PERSONAL_DETAILS"
	StateAnswerAccountQuestions ProcessState = "ANSWER_ACCOUNT_QUESTIONS"
	StateWaitingForAllOwners    ProcessState = "WAITING_FOR_ALL_OWNERS"

	// Minor flow (530.x).
	StateWaitingForParentConsent ProcessState = "WAITING_FOR_PARENT_CONSENT"
	StateAccountCreatedLimited   ProcessState = "ACCOUNT_CREATED_LIMITED"
	StateMinorAccountIdentified  ProcessState = "MINOR_ACCOUNT_IDENTIFIED"

	// Minor enrichment segment (531.x).
	StateGenerateScan                ProcessState = "GENERATE_SCAN"
	StatePerformMatch                ProcessState = "PERFORM_MATCH"
	StateSpeechToText                ProcessState = "SPEECH_TO_TEXT"
	StateVideoScreen                 ProcessState = "VIDEO_SCREEN"
	StateAccountActivitiesScreen     ProcessState = "ACCOUNT_ACTIVITIES_SCREEN"
	StateInformationActivitiesScreen ProcessState = "INFORMATION_ACTIVITIES_SCREEN"
	StateCustomerInfoValidation      ProcessState = "CUSTOMER_INFO_VALIDATION"
	StateWarnings                    ProcessState = "WARNINGS"
	StateWelcome                     ProcessState = "WELCOME"
	StateOnboardingCompleted         ProcessState = "ONBOARDING_COMPLETED"
	StateFlowBlocked                 ProcessState = "FLOW_BLOCKED"

	// Conversion flow (540.x).
	StateWaitingForConversionConfirmation ProcessState = "WAITING_FOR_CONVERSION_CONFIRMATION"
	StateAccountConvertedToRegular        ProcessState = "ACCOUNT_CONVERTED_TO_REGULAR"
)

// Name implements fsm.State.
func (s ProcessState) Name() string { return string(s) }

var screenCodes = map[ProcessState]string{
	StateStarted: "s500.1",

	StateUSPassportDetails:  "s510.15",
	StateKYCInProgress:      "s510.1",
	StateWaitingForBiometry: "s510.2",
	StateBiometryVerified:   "s510.3",
	StateAccountCreated:     "s510.4",

	StateFillPersonalDetails:    "s520.1",
	StateAnswerAccountQuestions: "s520.2",
	StateWaitingForAllOwners:    "s520.3",

	StateWaitingForParentConsent: "s530.1",
	StateAccountCreatedLimited:   "s530.2",
	StateMinorAccountIdentified:  "s530.3",

	StateGenerateScan:                "s531.1",
	StatePerformMatch:                "s531.2",
	StateSpeechToText:                "s531.3",
	StateVideoScreen:                 "s531.4",
	StateAccountActivitiesScreen:     "s531.5",
	StateInformationActivitiesScreen: "s531.6",
	StateCustomerInfoValidation:      "s531.7",
	StateWarnings:                    "s531.8",
	StateWelcome:                     "s531.9",
	StateOnboardingCompleted:         "s531.10",
	StateFlowBlocked:                 "s531.11",

	StateWaitingForConversionConfirmation: "s540.1",
	StateAccountConvertedToRegular:        "s540.2",
}

// ScreenCode returns the externally stable identifier presentation layers use
// for this state. Unknown states yield an empty code.
func (s ProcessState) ScreenCode() string {
	return screenCodes[s]
}

// ProcessEvent is a workflow trigger. Events are flow-agnostic: the same
// event may have different guarded targets depending on the process type.
type ProcessEvent string

const (
	EventStartFlow        ProcessEvent = "START_FLOW"
	EventSubmitPersonal   ProcessEvent = "SUBMIT_PERSONAL"
	EventSubmitAnswers    ProcessEvent = "SUBMIT_ANSWERS"
	EventSubmitUSPassport ProcessEvent = "SUBMIT_US_PASSPORT"
	EventKYCVerified      ProcessEvent = "KYC_VERIFIED"
	EventBiometrySuccess  ProcessEvent = "BIOMETRY_SUCCESS"
	EventAddOwner         ProcessEvent = "ADD_OWNER"
	EventConfirmAllOwners ProcessEvent = "CONFIRM_ALL_OWNERS"

	EventRequestParentConsent ProcessEvent = "REQUEST_PARENT_CONSENT"
	EventParentApproved       ProcessEvent = "PARENT_APPROVED"
	EventCreateAccount        ProcessEvent = "CREATE_ACCOUNT"

	EventGenerateDocumentScan        ProcessEvent = "GENERATE_DOCUMENT_SCAN"
	EventPerformDocumentMatch        ProcessEvent = "PERFORM_DOCUMENT_MATCH"
	EventProcessSpeechToText         ProcessEvent = "PROCESS_SPEECH_TO_TEXT"
	EventSubmitVideo                 ProcessEvent = "SUBMIT_VIDEO"
	EventSubmitAccountActivities     ProcessEvent = "SUBMIT_ACCOUNT_ACTIVITIES"
	EventSubmitInformationActivities ProcessEvent = "SUBMIT_INFORMATION_ACTIVITIES"
	EventValidateCustomerInfo        ProcessEvent = "VALIDATE_CUSTOMER_INFO"
	EventAcknowledgeWarnings         ProcessEvent = "ACKNOWLEDGE_WARNINGS"
	EventCompleteWelcome             ProcessEvent = "COMPLETE_WELCOME"
	EventBlockFlow                   ProcessEvent = "BLOCK_FLOW"

	EventConfirmConversion  ProcessEvent = "CONFIRM_CONVERSION"
	EventCompleteConversion ProcessEvent = "COMPLETE_CONVERSION"

	EventBack ProcessEvent = "BACK"
)

// Name implements fsm.Event.
func (e ProcessEvent) Name() string { return string(e) }

var knownEvents = map[ProcessEvent]struct{}{
	EventStartFlow: {}, EventSubmitPersonal: {}, EventSubmitAnswers: {},
	EventSubmitUSPassport: {}, EventKYCVerified: {}, EventBiometrySuccess: {},
	EventAddOwner: {}, EventConfirmAllOwners: {}, EventRequestParentConsent: {},
	EventParentApproved: {}, EventCreateAccount: {}, EventGenerateDocumentScan: {},
	EventPerformDocumentMatch: {}, EventProcessSpeechToText: {}, EventSubmitVideo: {},
	EventSubmitAccountActivities: {}, EventSubmitInformationActivities: {},
	EventValidateCustomerInfo: {}, EventAcknowledgeWarnings: {},
	EventCompleteWelcome: {}, EventBlockFlow: {}, EventConfirmConversion: {},
	EventCompleteConversion: {}, EventBack: {},
}

// ParseProcessEvent converts a wire value into a ProcessEvent.
func ParseProcessEvent(s string) (ProcessEvent, error) {
	e := ProcessEvent(s)
	if _, ok := knownEvents[e]; !ok {
		return "", NewInvalidInputError("event", fmt.Sprintf("unknown event %q", s))
	}
	return e, nil
}
