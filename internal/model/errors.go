package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks configuration rejected at load time.
var ErrInvalidConfig = errors.New("invalid spawn configuration")

// ConfigError locates a rejected piece of a profile.
// errors.Is(err, ErrInvalidConfig) holds for every ConfigError.
type ConfigError struct {
	Area  string
	Scope string // profile, group, entry, condition, override, miniboss, template
	ID    int64
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("area %s: %s %d: %v", e.Area, e.Scope, e.ID, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}
