// Package config loads typed configuration structs from environment
// variables. A .env file is read once if present, then struct fields are
// populated from their env tags. Each config type is parsed once per process
// and cached, so independent components can load the same struct cheaply.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.Mutex
	loaded = make(map[string]any)

	dotenvOnce sync.Once
)

// Load populates v from environment variables based on its `env` struct tags.
//
// Example:
//
//	type WorkflowConfig struct {
//		StrictGuards  bool    `env:"WORKFLOW_STRICT_GUARDS" envDefault:"false"`
//		MinVoiceScore float64 `env:"WORKFLOW_MIN_VOICE_SCORE" envDefault:"0.95"`
//	}
//
//	var cfg WorkflowConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is optional; absence is not an error.
		_ = godotenv.Load()
	})

	key := typeName[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := loaded[key]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	loaded[key] = *v
	return nil
}

// MustLoad works like Load but panics on failure. Used for configuration the
// application cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
