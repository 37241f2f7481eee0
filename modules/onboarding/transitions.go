package onboarding

import (
	"github.com/openbank/onboarding/pkg/fsm"
)

// BuildTables constructs the per-type transition tables. Tables are immutable
// after construction and shared across all process instances.
//
// Guard sets covering the same (state, event) pair are mutually exclusive by
// construction (condition vs its negation), so at most one candidate can pass
// for any variable snapshot.
func BuildTables(cfg Config) (map[ProcessType]*fsm.Table, error) {
	g := guardSet{cfg: cfg}

	tables := make(map[ProcessType]*fsm.Table, 4)
	for t, defs := range map[ProcessType][]fsm.Transition{
		TypeSingleOwner:    singleOwnerFlow(g),
		TypeMultiOwner:     multiOwnerFlow(g),
		TypeMinor:          minorFlow(g),
		TypeMinorToRegular: minorToRegularFlow(g),
	} {
		table, err := fsm.NewTable(defs...)
		if err != nil {
			return nil, err
		}
		tables[t] = table
	}
	return tables, nil
}

// MustBuildTables panics on configuration defects; table construction happens
// once at startup.
func MustBuildTables(cfg Config) map[ProcessType]*fsm.Table {
	tables, err := BuildTables(cfg)
	if err != nil {
		panic("onboarding: invalid transition tables: " + err.Error())
	}
	return tables
}

// singleOwnerFlow branches after the account questions: US citizens collect
// passport details before KYC, everyone else goes straight to KYC.
func singleOwnerFlow(g guardSet) []fsm.Transition {
	typ := TypeIs(TypeSingleOwner)
	return []fsm.Transition{
		{From: StateStarted, Event: EventStartFlow, Guard: typ, To: StateAnswerAccountQuestions},

		{From: StateAnswerAccountQuestions, Event: EventSubmitAnswers,
			Guard: fsm.AllOf(typ, g.isUSCitizen()), To: StateUSPassportDetails},
		{From: StateAnswerAccountQuestions, Event: EventSubmitAnswers,
			Guard: fsm.AllOf(typ, fsm.Not(g.isUSCitizen())), To: StateKYCInProgress},

		{From: StateUSPassportDetails, Event: EventSubmitUSPassport, Guard: typ, To: StateKYCInProgress},

		{From: StateKYCInProgress, Event: EventKYCVerified,
			Guard: fsm.AllOf(typ, g.kycApproved()), To: StateWaitingForBiometry},
		{From: StateWaitingForBiometry, Event: EventBiometrySuccess,
			Guard: fsm.AllOf(typ, g.biometryPassed()), To: StateBiometryVerified},
		{From: StateBiometryVerified, Event: EventCreateAccount,
			Guard: fsm.AllOf(typ, g.voiceScoreSatisfied()), To: StateAccountCreated},

		// BACK is allowed only before KYC answers are submitted.
		{From: StateAnswerAccountQuestions, Event: EventBack, Guard: typ, To: StateStarted},
	}
}

// multiOwnerFlow gates final confirmation on owner-share completeness.
func multiOwnerFlow(g guardSet) []fsm.Transition {
	typ := TypeIs(TypeMultiOwner)
	return []fsm.Transition{
		{From: StateStarted, Event: EventStartFlow, Guard: typ, To: StateFillPersonalDetails},
		{From: StateFillPersonalDetails, Event: EventSubmitPersonal, Guard: typ, To: StateAnswerAccountQuestions},
		{From: StateAnswerAccountQuestions, Event: EventSubmitAnswers, Guard: typ, To: StateKYCInProgress},

		{From: StateKYCInProgress, Event: EventKYCVerified,
			Guard: fsm.AllOf(typ, g.kycApproved()), To: StateWaitingForBiometry},
		{From: StateWaitingForBiometry, Event: EventBiometrySuccess,
			Guard: fsm.AllOf(typ, g.biometryPassed()), To: StateBiometryVerified},

		{From: StateBiometryVerified, Event: EventAddOwner, Guard: typ, To: StateWaitingForAllOwners},
		{From: StateWaitingForAllOwners, Event: EventConfirmAllOwners,
			Guard: fsm.AllOf(typ, g.ownersComplete(), g.voiceScoreSatisfied()), To: StateAccountCreated},

		{From: StateAnswerAccountQuestions, Event: EventBack, Guard: typ, To: StateFillPersonalDetails},
		{From: StateFillPersonalDetails, Event: EventBack, Guard: typ, To: StateStarted},
	}
}

// minorFlow opens a limited account gated on parental consent, then walks the
// enrichment screens: document scan matching with bounded retries, speech
// transcription, video, activities, validation, warnings and welcome.
func minorFlow(g guardSet) []fsm.Transition {
	typ := TypeIs(TypeMinor)
	return []fsm.Transition{
		{From: StateStarted, Event: EventStartFlow, Guard: typ, To: StateFillPersonalDetails},
		{From: StateFillPersonalDetails, Event: EventSubmitPersonal, Guard: typ, To: StateAnswerAccountQuestions},
		{From: StateAnswerAccountQuestions, Event: EventSubmitAnswers, Guard: typ, To: StateKYCInProgress},

		{From: StateKYCInProgress, Event: EventKYCVerified,
			Guard: fsm.AllOf(typ, g.kycApproved()), To: StateWaitingForBiometry},
		{From: StateWaitingForBiometry, Event: EventBiometrySuccess,
			Guard: fsm.AllOf(typ, g.biometryPassed()), To: StateBiometryVerified},

		{From: StateBiometryVerified, Event: EventRequestParentConsent, Guard: typ, To: StateWaitingForParentConsent},
		{From: StateWaitingForParentConsent, Event: EventParentApproved,
			Guard: fsm.AllOf(typ, g.parentConsent()), To: StateAccountCreatedLimited},

		// Enrichment segment.
		{From: StateAccountCreatedLimited, Event: EventGenerateDocumentScan, Guard: typ, To: StateGenerateScan},
		{From: StateGenerateScan, Event: EventPerformDocumentMatch, Guard: typ, To: StatePerformMatch},

		{From: StatePerformMatch, Event: EventPerformDocumentMatch,
			Guard: fsm.AllOf(typ, g.documentMatched()), To: StateSpeechToText},
		{From: StatePerformMatch, Event: EventGenerateDocumentScan,
			Guard: fsm.AllOf(typ, fsm.Not(g.documentMatched()), g.scanRetryAvailable()), To: StateGenerateScan},
		{From: StatePerformMatch, Event: EventBlockFlow,
			Guard: fsm.AllOf(typ, g.scanExhausted()), To: StateFlowBlocked},

		{From: StateSpeechToText, Event: EventProcessSpeechToText,
			Guard: fsm.AllOf(typ, fsm.Not(g.blockRequested())), To: StateVideoScreen},
		{From: StateSpeechToText, Event: EventBlockFlow,
			Guard: fsm.AllOf(typ, g.blockRequested()), To: StateFlowBlocked},

		{From: StateVideoScreen, Event: EventSubmitVideo, Guard: typ, To: StateAccountActivitiesScreen},
		{From: StateAccountActivitiesScreen, Event: EventSubmitAccountActivities, Guard: typ, To: StateInformationActivitiesScreen},
		{From: StateInformationActivitiesScreen, Event: EventSubmitInformationActivities, Guard: typ, To: StateCustomerInfoValidation},
		{From: StateCustomerInfoValidation, Event: EventValidateCustomerInfo, Guard: typ, To: StateWarnings},
		{From: StateWarnings, Event: EventAcknowledgeWarnings, Guard: typ, To: StateWelcome},
		{From: StateWelcome, Event: EventCompleteWelcome, Guard: typ, To: StateOnboardingCompleted},

		{From: StateAnswerAccountQuestions, Event: EventBack, Guard: typ, To: StateFillPersonalDetails},
		{From: StateFillPersonalDetails, Event: EventBack, Guard: typ, To: StateStarted},
	}
}

// minorToRegularFlow converts an identified minor account, gated on explicit
// confirmation and voice-score re-verification.
func minorToRegularFlow(g guardSet) []fsm.Transition {
	typ := TypeIs(TypeMinorToRegular)
	return []fsm.Transition{
		{From: StateMinorAccountIdentified, Event: EventConfirmConversion,
			Guard: typ, To: StateWaitingForConversionConfirmation},
		{From: StateWaitingForConversionConfirmation, Event: EventCompleteConversion,
			Guard: fsm.AllOf(typ, g.voiceScoreSatisfied(), g.conversionConfirmed()), To: StateAccountConvertedToRegular},
	}
}
