package onboarding

type stepKey struct {
	Type  ProcessType
	State ProcessState
}

// StepPlan resolves the canonical next event for server-driven advancement.
// It never encodes branch choice: a branch (US-citizen split, scan-match
// retry) is resolved by the engine's guards after the plan picks the event.
type StepPlan struct {
	next map[stepKey]ProcessEvent
}

// NewStepPlan returns the static step plan for all four flows.
func NewStepPlan() *StepPlan {
	return &StepPlan{next: map[stepKey]ProcessEvent{
		// SINGLE_OWNER
		{TypeSingleOwner, StateStarted}:                EventStartFlow,
		{TypeSingleOwner, StateAnswerAccountQuestions}: EventSubmitAnswers,
		{TypeSingleOwner, StateUSPassportDetails}:      EventSubmitUSPassport,
		{TypeSingleOwner, StateKYCInProgress}:          EventKYCVerified,
		{TypeSingleOwner, StateWaitingForBiometry}:     EventBiometrySuccess,
		{TypeSingleOwner, StateBiometryVerified}:       EventCreateAccount,

		// MULTI_OWNER
		{TypeMultiOwner, StateStarted}:                EventStartFlow,
		{TypeMultiOwner, StateFillPersonalDetails}:    EventSubmitPersonal,
		{TypeMultiOwner, StateAnswerAccountQuestions}: EventSubmitAnswers,
		{TypeMultiOwner, StateKYCInProgress}:          EventKYCVerified,
		{TypeMultiOwner, StateWaitingForBiometry}:     EventBiometrySuccess,
		{TypeMultiOwner, StateBiometryVerified}:       EventAddOwner,
		{TypeMultiOwner, StateWaitingForAllOwners}:    EventConfirmAllOwners,

		// MINOR
		{TypeMinor, StateStarted}:                     EventStartFlow,
		{TypeMinor, StateFillPersonalDetails}:         EventSubmitPersonal,
		{TypeMinor, StateAnswerAccountQuestions}:      EventSubmitAnswers,
		{TypeMinor, StateKYCInProgress}:               EventKYCVerified,
		{TypeMinor, StateWaitingForBiometry}:          EventBiometrySuccess,
		{TypeMinor, StateBiometryVerified}:            EventRequestParentConsent,
		{TypeMinor, StateWaitingForParentConsent}:     EventParentApproved,
		{TypeMinor, StateAccountCreatedLimited}:       EventGenerateDocumentScan,
		{TypeMinor, StateGenerateScan}:                EventPerformDocumentMatch,
		{TypeMinor, StatePerformMatch}:                EventPerformDocumentMatch,
		{TypeMinor, StateSpeechToText}:                EventProcessSpeechToText,
		{TypeMinor, StateVideoScreen}:                 EventSubmitVideo,
		{TypeMinor, StateAccountActivitiesScreen}:     EventSubmitAccountActivities,
		{TypeMinor, StateInformationActivitiesScreen}: EventSubmitInformationActivities,
		{TypeMinor, StateCustomerInfoValidation}:      EventValidateCustomerInfo,
		{TypeMinor, StateWarnings}:                    EventAcknowledgeWarnings,
		{TypeMinor, StateWelcome}:                     EventCompleteWelcome,

		// MINOR_TO_REGULAR
		{TypeMinorToRegular, StateMinorAccountIdentified}:           EventConfirmConversion,
		{TypeMinorToRegular, StateWaitingForConversionConfirmation}: EventCompleteConversion,
	}}
}

// Next returns the canonical event to fire for (type, state). The second
// return value is false when no automatic step is defined for the state.
func (p *StepPlan) Next(t ProcessType, s ProcessState) (ProcessEvent, bool) {
	e, ok := p.next[stepKey{t, s}]
	return e, ok
}
