package onboarding

import "time"

// Config carries the workflow policy knobs.
//
// StrictGuards toggles the business guards (KYC approval, biometry score,
// owner completeness, parent consent, conversion confirmation): when false,
// these guards pass unconditionally so environments without the upstream
// async integrations can still exercise the flows. The voice-score guard is
// exempt from the toggle and is always enforced.
type Config struct {
	StrictGuards  bool          `env:"WORKFLOW_STRICT_GUARDS" envDefault:"false"`
	MinVoiceScore float64       `env:"WORKFLOW_MIN_VOICE_SCORE" envDefault:"0.95"`
	MaxScanTries  int           `env:"WORKFLOW_MAX_SCAN_TRIES" envDefault:"3"`
	SnapshotTTL   time.Duration `env:"WORKFLOW_SNAPSHOT_TTL" envDefault:"24h"`
}
