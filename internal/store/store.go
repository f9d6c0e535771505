// Package store persists entries, habits and settings between runs.
//
// Loads never fail: missing or undecodable data comes back as the empty
// default of its type. Saves replace the whole dataset.
package store

import (
	"github.com/0xADE/ade-omnibox/internal/habits"
	"github.com/0xADE/ade-omnibox/internal/indexer"
	"github.com/0xADE/ade-omnibox/internal/settings"
)

// Gateway is the storage used by the launcher service
type Gateway interface {
	LoadEntries() []indexer.Entry
	SaveEntries(entries []indexer.Entry) error
	LoadHabits() *habits.Table
	SaveHabits(t *habits.Table) error
	LoadSettings() settings.Settings
	SaveSettings(s settings.Settings) error
	Close() error
}
