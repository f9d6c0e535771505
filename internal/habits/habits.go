// Package habits remembers which entry was launched for which query.
package habits

import (
	"maps"
	"strings"
)

// Scale multiplies hit counts so that any recorded history outweighs
// every textual match signal
const Scale int64 = 100000

// Table maps a normalized query to identity hit counters. Entries are
// never evicted.
type Table struct {
	History map[string]map[string]uint32 `json:"history"`
}

// New returns an empty table
func New() *Table {
	return &Table{History: make(map[string]map[string]uint32)}
}

// Normalize trims and lower-cases a query
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Record counts a launch of identity for query. It reports false and
// changes nothing when the query is empty.
func (t *Table) Record(query, identity string) bool {
	q := Normalize(query)
	if q == "" {
		return false
	}
	if t.History == nil {
		t.History = make(map[string]map[string]uint32)
	}
	hits, ok := t.History[q]
	if !ok {
		hits = make(map[string]uint32)
		t.History[q] = hits
	}
	if hits[identity] < ^uint32(0) {
		hits[identity]++
	}
	return true
}

// Hits returns the raw counter for (query, identity)
func (t *Table) Hits(query, identity string) uint32 {
	if t == nil {
		return 0
	}
	return t.History[Normalize(query)][identity]
}

// Weight returns the ranking weight of identity for query
func (t *Table) Weight(query, identity string) int64 {
	return int64(t.Hits(query, identity)) * Scale
}

// Len returns the number of distinct queries recorded
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.History)
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	c := New()
	if t == nil {
		return c
	}
	for q, hits := range t.History {
		c.History[q] = maps.Clone(hits)
	}
	return c
}
