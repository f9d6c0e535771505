package indexer

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/0xADE/ade-omnibox/internal/indexer/launchable"
)

// KeyFunc maps an entry to the key duplicates are detected by
type KeyFunc func(Entry) string

// ByIdentity keys entries by their path, ignoring case
func ByIdentity(e Entry) string {
	return strings.ToLower(e.Identity)
}

// ByTitle keys entries by their display title, ignoring case
func ByTitle(e Entry) string {
	return strings.ToLower(e.Title)
}

// Dedup keeps one entry per key. Of two colliding entries a shortcut beats
// anything else, then the shorter path wins. The first-seen position of
// each key is kept.
func Dedup(entries []Entry, key KeyFunc) []Entry {
	pos := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := key(e)
		i, ok := pos[k]
		if !ok {
			pos[k] = len(out)
			out = append(out, e)
			continue
		}
		if preferred(e, out[i]) {
			out[i] = e
		}
	}
	return out
}

// preferred reports whether a should replace b
func preferred(a, b Entry) bool {
	aShortcut := a.Class == launchable.Shortcut
	bShortcut := b.Class == launchable.Shortcut
	if aShortcut != bShortcut {
		return aShortcut
	}
	if len(a.Identity) != len(b.Identity) {
		return len(a.Identity) < len(b.Identity)
	}
	return a.Identity < b.Identity
}

// SortByTitle orders entries by title length, then by title
func SortByTitle(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(utf8.RuneCountInString(a.Title), utf8.RuneCountInString(b.Title)); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
}
