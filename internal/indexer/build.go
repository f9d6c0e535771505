package indexer

import (
	"path/filepath"

	"github.com/0xADE/ade-omnibox/internal/indexer/launchable"
	"github.com/0xADE/ade-omnibox/internal/indexer/normalize"
)

// Build turns a crawled path into an entry. It reports false when the
// path is not a launch candidate under rules. Usage fields are left zero.
func Build(path string, rules *launchable.Rules) (Entry, bool) {
	if !rules.Accept(path) {
		return Entry{}, false
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	names := normalize.Normalize(path)
	if names.Title == "" {
		return Entry{}, false
	}

	return Entry{
		Identity:        path,
		Title:           names.Title,
		PhoneticFull:    names.PhoneticFull,
		PhoneticAcronym: names.PhoneticAcronym,
		Class:           rules.Classify(path),
	}, true
}
