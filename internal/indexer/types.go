package indexer

import (
	"path/filepath"
	"time"

	"github.com/0xADE/ade-omnibox/internal/indexer/launchable"
)

// Entry is a single indexed launchable item
type Entry struct {
	Identity        string           `json:"identity"`         // Canonical absolute path
	Title           string           `json:"title"`            // Cleaned display name
	PhoneticFull    string           `json:"phonetic_full"`    // Full transliteration of Title
	PhoneticAcronym string           `json:"phonetic_acronym"` // Initials of the transliteration
	Class           launchable.Class `json:"class"`
	UseCount        uint32           `json:"use_count"`
	LastUsedAt      *time.Time       `json:"last_used_at,omitempty"`
	Score           int64            `json:"-"` // Set per query, never stored
}

// Filename returns the last element of the entry's path
func (e Entry) Filename() string {
	return filepath.Base(e.Identity)
}

// Index is the ordered collection of entries keyed by identity. It does
// no locking of its own; callers share it through a guard.
type Index struct {
	entries []Entry
	pos     map[string]int
}

// NewIndex creates an index holding entries in the given order. A later
// entry with an identity already present replaces the earlier one.
func NewIndex(entries ...Entry) *Index {
	idx := &Index{
		entries: make([]Entry, 0, len(entries)),
		pos:     make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		idx.Add(e)
	}
	return idx
}

// Add appends entry, or replaces the entry with the same identity in place
func (idx *Index) Add(entry Entry) {
	entry.Score = 0
	if i, ok := idx.pos[entry.Identity]; ok {
		idx.entries[i] = entry
		return
	}
	idx.pos[entry.Identity] = len(idx.entries)
	idx.entries = append(idx.entries, entry)
}

// Get retrieves an entry by identity
func (idx *Index) Get(identity string) (Entry, bool) {
	i, ok := idx.pos[identity]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// All returns a copy of every entry in index order
func (idx *Index) All() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Count returns the number of entries in the index
func (idx *Index) Count() int {
	return len(idx.entries)
}

// Touch records a launch of identity at now. It reports false when the
// identity is not indexed.
func (idx *Index) Touch(identity string, now time.Time) (Entry, bool) {
	i, ok := idx.pos[identity]
	if !ok {
		return Entry{}, false
	}
	e := &idx.entries[i]
	if e.UseCount < ^uint32(0) {
		e.UseCount++
	}
	at := now
	e.LastUsedAt = &at
	return *e, true
}
