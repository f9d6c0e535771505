package store

import (
	"slices"
	"sync"

	"github.com/0xADE/ade-omnibox/internal/habits"
	"github.com/0xADE/ade-omnibox/internal/indexer"
	"github.com/0xADE/ade-omnibox/internal/settings"
)

// Memory keeps everything in process memory. It is used when no database
// can be opened and in tests.
type Memory struct {
	mu       sync.Mutex
	entries  []indexer.Entry
	habits   *habits.Table
	settings *settings.Settings
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LoadEntries() []indexer.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

func (m *Memory) SaveEntries(entries []indexer.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = slices.Clone(entries)
	return nil
}

func (m *Memory) LoadHabits() *habits.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.habits.Clone()
}

func (m *Memory) SaveHabits(t *habits.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits = t.Clone()
	return nil
}

func (m *Memory) LoadSettings() settings.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return settings.Default()
	}
	return *m.settings
}

func (m *Memory) SaveSettings(s settings.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

func (m *Memory) Close() error {
	return nil
}
