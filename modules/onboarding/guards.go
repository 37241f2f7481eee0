package onboarding

import (
	"math"
	"strings"

	"github.com/openbank/onboarding/pkg/fsm"
	"github.com/openbank/onboarding/pkg/vars"
)

// Well-known extended-variable keys read by guards and preconditions.
const (
	VarIsUSCitizen              = "isUSCitizen"
	VarKYCStatus                = "status"
	VarMatch                    = "match"
	VarMatchScore               = "matchScore"
	VarTotalOwners              = "totalOwners"
	VarTotalShare               = "totalShare"
	VarConsentDocument          = "consentDocument"
	VarConverted                = "converted"
	VarVoiceScore               = "voiceScore"
	VarScanTries                = "scanTries"
	VarToBlock                  = "toBlock"
	VarToContinue               = "toContinue"
	VarLinkedMinorAccountID     = "linkedMinorAccountId"
	VarTranscription            = "transcription"
	VarActivities               = "activities"
	VarCommunicationPreferences = "communicationPreferences"
	VarOneToManyStatus          = "oneToManyStatus"
	VarWarningsAcknowledged     = "warningsAcknowledged"
	VarVideoFile                = "videoFile"
)

const biometryMinMatchScore = 0.90

// guardSet builds the guard predicates for one table configuration. Business
// guards honor the strict-guards toggle; the voice-score guard never does.
type guardSet struct {
	cfg Config
}

// TypeIs matches the process type carried in the extended variables.
func TypeIs(expected ProcessType) fsm.Guard {
	return func(v vars.Vars) bool {
		t, ok := v.String(VarProcessType)
		return ok && t == string(expected)
	}
}

// BoolVar reads a boolean variable, tolerating string encodings. Absent or
// unparsable values resolve to false.
func BoolVar(key string) fsm.Guard {
	return func(v vars.Vars) bool {
		b, ok := v.Bool(key)
		return ok && b
	}
}

func (g guardSet) isUSCitizen() fsm.Guard {
	return BoolVar(VarIsUSCitizen)
}

// kycApproved passes when the KYC status variable equals APPROVED. Soft guard.
func (g guardSet) kycApproved() fsm.Guard {
	return func(v vars.Vars) bool {
		if !g.cfg.StrictGuards {
			return true
		}
		status, ok := v.String(VarKYCStatus)
		return ok && strings.EqualFold(status, "APPROVED")
	}
}

// biometryPassed passes on an explicit match flag or a match score of at
// least 0.90. Soft guard.
func (g guardSet) biometryPassed() fsm.Guard {
	return func(v vars.Vars) bool {
		if !g.cfg.StrictGuards {
			return true
		}
		if match, ok := v.Bool(VarMatch); ok && match {
			return true
		}
		score, ok := v.Float(VarMatchScore)
		return ok && score >= biometryMinMatchScore
	}
}

// ownersComplete passes when the owner shares sum to 100 within 1e-6. Soft
// guard.
func (g guardSet) ownersComplete() fsm.Guard {
	return func(v vars.Vars) bool {
		if !g.cfg.StrictGuards {
			return true
		}
		total, ok := v.Float(VarTotalShare)
		return ok && math.Abs(total-100) < 1e-6
	}
}

// parentConsent passes when a consent document reference is present. Soft
// guard.
func (g guardSet) parentConsent() fsm.Guard {
	return func(v vars.Vars) bool {
		if !g.cfg.StrictGuards {
			return true
		}
		return !v.IsBlank(VarConsentDocument)
	}
}

// conversionConfirmed passes when the client confirmed the conversion. Soft
// guard.
func (g guardSet) conversionConfirmed() fsm.Guard {
	return func(v vars.Vars) bool {
		if !g.cfg.StrictGuards {
			return true
		}
		converted, ok := v.Bool(VarConverted)
		return ok && converted
	}
}

// voiceScoreSatisfied passes only when the voice score is strictly greater
// than the configured threshold. This guard protects account finalization and
// is always enforced, regardless of the strict-guards toggle.
func (g guardSet) voiceScoreSatisfied() fsm.Guard {
	return func(v vars.Vars) bool {
		score, ok := v.Float(VarVoiceScore)
		return ok && score > g.cfg.MinVoiceScore
	}
}

// documentMatched passes when the document scan matched the reference.
func (g guardSet) documentMatched() fsm.Guard {
	return BoolVar(VarMatch)
}

// scanRetryAvailable passes while the scan-match attempt count is below the
// configured maximum. An absent counter means no attempts yet.
func (g guardSet) scanRetryAvailable() fsm.Guard {
	return func(v vars.Vars) bool {
		tries, ok := v.Float(VarScanTries)
		return !ok || tries < float64(g.cfg.MaxScanTries)
	}
}

// scanExhausted is the complement of scanRetryAvailable.
func (g guardSet) scanExhausted() fsm.Guard {
	return fsm.Not(g.scanRetryAvailable())
}

// blockRequested passes when the client asked to abort the flow.
func (g guardSet) blockRequested() fsm.Guard {
	return BoolVar(VarToBlock)
}
