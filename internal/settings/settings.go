// Package settings holds the user preferences of the launcher.
package settings

import (
	"errors"
	"fmt"
)

// DefaultMaxResults is the result cap used until the user changes it
const DefaultMaxResults = 100

// ErrInvalidMaxResults is returned for a non-positive result cap
var ErrInvalidMaxResults = errors.New("max results must be positive")

// Settings are the user preferences
type Settings struct {
	MaxResults      int  `json:"max_results"`
	EnableAutostart bool `json:"enable_autostart"`
}

// Default returns the settings of a fresh install
func Default() Settings {
	return Settings{MaxResults: DefaultMaxResults}
}

// Validate checks s before it is saved
func (s Settings) Validate() error {
	if s.MaxResults <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxResults, s.MaxResults)
	}
	return nil
}
