package onboarding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbank/onboarding/modules/onboarding"
	"github.com/openbank/onboarding/pkg/fsm"
)

func newMachine(t *testing.T, cfg onboarding.Config, pt onboarding.ProcessType, initial onboarding.ProcessState, v map[string]any) *fsm.Machine {
	t.Helper()
	tables, err := onboarding.BuildTables(cfg)
	require.NoError(t, err)

	m := fsm.NewMachine(tables[pt], initial)
	m.MergeVars(map[string]any{onboarding.VarProcessType: string(pt)})
	m.MergeVars(v)
	return m
}

func fireThrough(t *testing.T, m *fsm.Machine, events ...onboarding.ProcessEvent) {
	t.Helper()
	for _, e := range events {
		require.NoError(t, m.Fire(e), "event %s from %s", e, m.Current().Name())
	}
}

func TestSingleOwnerFlow(t *testing.T) {
	t.Parallel()

	t.Run("non us citizen goes straight to kyc", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{MinVoiceScore: 0.95}, onboarding.TypeSingleOwner,
			onboarding.StateStarted, map[string]any{"isUSCitizen": false})

		fireThrough(t, m, onboarding.EventStartFlow, onboarding.EventSubmitAnswers)
		assert.Equal(t, onboarding.StateKYCInProgress, m.Current())

		fireThrough(t, m, onboarding.EventKYCVerified, onboarding.EventBiometrySuccess)
		assert.Equal(t, onboarding.StateBiometryVerified, m.Current())

		m.MergeVars(map[string]any{"voiceScore": 0.97})
		fireThrough(t, m, onboarding.EventCreateAccount)
		assert.Equal(t, onboarding.StateAccountCreated, m.Current())
	})

	t.Run("us citizen collects passport first", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{MinVoiceScore: 0.95}, onboarding.TypeSingleOwner,
			onboarding.StateStarted, map[string]any{"isUSCitizen": true})

		fireThrough(t, m, onboarding.EventStartFlow, onboarding.EventSubmitAnswers)
		assert.Equal(t, onboarding.StateUSPassportDetails, m.Current())

		fireThrough(t, m, onboarding.EventSubmitUSPassport)
		assert.Equal(t, onboarding.StateKYCInProgress, m.Current())
	})

	t.Run("string encoded citizenship flag", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{MinVoiceScore: 0.95}, onboarding.TypeSingleOwner,
			onboarding.StateAnswerAccountQuestions, map[string]any{"isUSCitizen": "true"})

		fireThrough(t, m, onboarding.EventSubmitAnswers)
		assert.Equal(t, onboarding.StateUSPassportDetails, m.Current())
	})

	t.Run("voice score at threshold is rejected", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{MinVoiceScore: 0.95}, onboarding.TypeSingleOwner,
			onboarding.StateBiometryVerified, map[string]any{"voiceScore": 0.95})

		err := m.Fire(onboarding.EventCreateAccount)
		require.Error(t, err)
		assert.True(t, fsm.IsNotAccepted(err))
		assert.Equal(t, onboarding.StateBiometryVerified, m.Current())
	})

	t.Run("voice score above threshold passes", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{MinVoiceScore: 0.95}, onboarding.TypeSingleOwner,
			onboarding.StateBiometryVerified, map[string]any{"voiceScore": 0.96})

		fireThrough(t, m, onboarding.EventCreateAccount)
		assert.Equal(t, onboarding.StateAccountCreated, m.Current())
	})

	t.Run("missing voice score rejects finalization even with lenient guards", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{StrictGuards: false, MinVoiceScore: 0.95},
			onboarding.TypeSingleOwner, onboarding.StateBiometryVerified, nil)

		err := m.Fire(onboarding.EventCreateAccount)
		require.Error(t, err)
		assert.True(t, fsm.IsNotAccepted(err))
	})

	t.Run("back returns to start before answers", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{}, onboarding.TypeSingleOwner,
			onboarding.StateAnswerAccountQuestions, nil)

		fireThrough(t, m, onboarding.EventBack)
		assert.Equal(t, onboarding.StateStarted, m.Current())
	})

	t.Run("back is refused once kyc started", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{}, onboarding.TypeSingleOwner,
			onboarding.StateKYCInProgress, nil)

		err := m.Fire(onboarding.EventBack)
		require.Error(t, err)
		assert.True(t, fsm.IsNotAccepted(err))
	})
}

func TestStrictGuards(t *testing.T) {
	t.Parallel()

	strict := onboarding.Config{StrictGuards: true, MinVoiceScore: 0.95}

	t.Run("kyc requires approved status", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, strict, onboarding.TypeSingleOwner,
			onboarding.StateKYCInProgress, map[string]any{"status": "DECLINED"})

		err := m.Fire(onboarding.EventKYCVerified)
		require.Error(t, err)
		assert.True(t, fsm.IsNotAccepted(err))

		m.MergeVars(map[string]any{"status": "approved"})
		fireThrough(t, m, onboarding.EventKYCVerified)
		assert.Equal(t, onboarding.StateWaitingForBiometry, m.Current())
	})

	t.Run("biometry accepts match flag or score", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, strict, onboarding.TypeSingleOwner,
			onboarding.StateWaitingForBiometry, map[string]any{"matchScore": 0.80})

		err := m.Fire(onboarding.EventBiometrySuccess)
		require.Error(t, err)

		m.MergeVars(map[string]any{"matchScore": 0.92})
		fireThrough(t, m, onboarding.EventBiometrySuccess)
		assert.Equal(t, onboarding.StateBiometryVerified, m.Current())
	})

	t.Run("lenient mode passes business guards without data", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{StrictGuards: false, MinVoiceScore: 0.95},
			onboarding.TypeSingleOwner, onboarding.StateKYCInProgress, nil)

		fireThrough(t, m, onboarding.EventKYCVerified, onboarding.EventBiometrySuccess)
		assert.Equal(t, onboarding.StateBiometryVerified, m.Current())
	})
}

func TestMultiOwnerFlow(t *testing.T) {
	t.Parallel()

	strict := onboarding.Config{StrictGuards: true, MinVoiceScore: 0.95}

	t.Run("confirmation requires full share and voice score", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, strict, onboarding.TypeMultiOwner,
			onboarding.StateWaitingForAllOwners,
			map[string]any{"totalShare": 70.0, "voiceScore": 0.99})

		err := m.Fire(onboarding.EventConfirmAllOwners)
		require.Error(t, err)
		assert.True(t, fsm.IsNotAccepted(err))

		m.MergeVars(map[string]any{"totalShare": 100.0})
		fireThrough(t, m, onboarding.EventConfirmAllOwners)
		assert.Equal(t, onboarding.StateAccountCreated, m.Current())
	})

	t.Run("back walks the screen chain", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, onboarding.Config{}, onboarding.TypeMultiOwner,
			onboarding.StateAnswerAccountQuestions, nil)

		fireThrough(t, m, onboarding.EventBack)
		assert.Equal(t, onboarding.StateFillPersonalDetails, m.Current())
		fireThrough(t, m, onboarding.EventBack)
		assert.Equal(t, onboarding.StateStarted, m.Current())
	})
}

func TestMinorFlow(t *testing.T) {
	t.Parallel()

	cfg := onboarding.Config{MinVoiceScore: 0.95, MaxScanTries: 3}

	t.Run("limited account requires parent consent path", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, cfg, onboarding.TypeMinor, onboarding.StateStarted, nil)

		fireThrough(t, m,
			onboarding.EventStartFlow,
			onboarding.EventSubmitPersonal,
			onboarding.EventSubmitAnswers,
			onboarding.EventKYCVerified,
			onboarding.EventBiometrySuccess,
			onboarding.EventRequestParentConsent,
			onboarding.EventParentApproved,
		)
		assert.Equal(t, onboarding.StateAccountCreatedLimited, m.Current())
	})

	t.Run("enrichment happy path", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, cfg, onboarding.TypeMinor, onboarding.StateAccountCreatedLimited,
			map[string]any{"match": true})

		fireThrough(t, m,
			onboarding.EventGenerateDocumentScan,
			onboarding.EventPerformDocumentMatch,
			onboarding.EventPerformDocumentMatch,
			onboarding.EventProcessSpeechToText,
			onboarding.EventSubmitVideo,
			onboarding.EventSubmitAccountActivities,
			onboarding.EventSubmitInformationActivities,
			onboarding.EventValidateCustomerInfo,
			onboarding.EventAcknowledgeWarnings,
			onboarding.EventCompleteWelcome,
		)
		assert.Equal(t, onboarding.StateOnboardingCompleted, m.Current())
	})

	t.Run("failed match retries while attempts remain", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, cfg, onboarding.TypeMinor, onboarding.StatePerformMatch,
			map[string]any{"match": false, "scanTries": 1})

		fireThrough(t, m, onboarding.EventGenerateDocumentScan)
		assert.Equal(t, onboarding.StateGenerateScan, m.Current())
	})

	t.Run("exhausted scan attempts block the flow", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, cfg, onboarding.TypeMinor, onboarding.StatePerformMatch,
			map[string]any{"match": false, "scanTries": 3})

		// No retry is available anymore.
		err := m.Fire(onboarding.EventGenerateDocumentScan)
		require.Error(t, err)
		assert.True(t, fsm.IsNotAccepted(err))

		fireThrough(t, m, onboarding.EventBlockFlow)
		assert.Equal(t, onboarding.StateFlowBlocked, m.Current())
	})

	t.Run("speech screen honors block request", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, cfg, onboarding.TypeMinor, onboarding.StateSpeechToText,
			map[string]any{"toBlock": true})

		err := m.Fire(onboarding.EventProcessSpeechToText)
		require.Error(t, err)

		fireThrough(t, m, onboarding.EventBlockFlow)
		assert.Equal(t, onboarding.StateFlowBlocked, m.Current())
	})
}

func TestMinorToRegularFlow(t *testing.T) {
	t.Parallel()

	cfg := onboarding.Config{StrictGuards: true, MinVoiceScore: 0.95}

	t.Run("conversion requires confirmation and voice score", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, cfg, onboarding.TypeMinorToRegular,
			onboarding.StateMinorAccountIdentified, nil)

		fireThrough(t, m, onboarding.EventConfirmConversion)
		assert.Equal(t, onboarding.StateWaitingForConversionConfirmation, m.Current())

		err := m.Fire(onboarding.EventCompleteConversion)
		require.Error(t, err)
		assert.True(t, fsm.IsNotAccepted(err))

		m.MergeVars(map[string]any{"converted": true, "voiceScore": 0.99})
		fireThrough(t, m, onboarding.EventCompleteConversion)
		assert.Equal(t, onboarding.StateAccountConvertedToRegular, m.Current())
	})

	t.Run("events from other flows are unknown here", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t, cfg, onboarding.TypeMinorToRegular,
			onboarding.StateMinorAccountIdentified, nil)

		err := m.Fire(onboarding.EventStartFlow)
		require.Error(t, err)
		assert.True(t, fsm.IsNotAccepted(err))
	})
}

func TestMustBuildTables(t *testing.T) {
	t.Parallel()

	tables := onboarding.MustBuildTables(onboarding.Config{MinVoiceScore: 0.95})
	require.Len(t, tables, 4)
	for _, pt := range []onboarding.ProcessType{
		onboarding.TypeSingleOwner, onboarding.TypeMultiOwner,
		onboarding.TypeMinor, onboarding.TypeMinorToRegular,
	} {
		assert.NotNil(t, tables[pt], "table for %s", pt)
	}
}
