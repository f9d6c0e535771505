// Package normalize derives display titles and phonetic search aliases
// from file names.
package normalize

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// shortcutSuffixes are the decorations Windows Explorer appends to the
// names of shortcuts it creates, per UI language
var shortcutSuffixes = []string{
	" - Shortcut",
	" - 快捷方式",
	" - 捷徑",
	" - Verknüpfung",
	" - Raccourci",
	" - Acceso directo",
	" - Collegamento",
	" - Ярлык",
	" - ショートカット",
}

// Names holds the searchable names of one item
type Names struct {
	Title           string
	PhoneticFull    string
	PhoneticAcronym string
}

var (
	pinyinArgs = pinyin.NewArgs()
	lower      = cases.Lower(language.Und)
)

// Normalize derives the title and phonetic aliases for the file at path
func Normalize(path string) Names {
	title := Title(path)
	full, acronym := Phonetic(title)
	return Names{
		Title:           title,
		PhoneticFull:    full,
		PhoneticAcronym: acronym,
	}
}

// Title returns the cleaned display name of path: the base name without
// extension or shortcut decoration, with underscores turned into spaces
func Title(path string) string {
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	for _, suffix := range shortcutSuffixes {
		title = strings.ReplaceAll(title, suffix, "")
	}
	title = strings.ReplaceAll(title, "_", " ")
	return strings.TrimSpace(title)
}

// Phonetic transliterates title into its full phonetic spelling and its
// acronym. ASCII is lower-cased and kept in both; characters with a
// phonetic reading contribute the reading to full and its first letter
// to acronym; anything else is lower-cased and kept in both.
func Phonetic(title string) (full, acronym string) {
	var fb, ab strings.Builder
	fb.Grow(len(title) * 2)
	ab.Grow(len(title))

	for _, r := range title {
		if r < utf8.RuneSelf {
			c := byte(r)
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			fb.WriteByte(c)
			ab.WriteByte(c)
			continue
		}

		if readings := pinyin.SinglePinyin(r, pinyinArgs); len(readings) > 0 && readings[0] != "" {
			fb.WriteString(readings[0])
			first, _ := utf8.DecodeRuneInString(readings[0])
			ab.WriteRune(first)
			continue
		}

		l := lower.String(string(r))
		fb.WriteString(l)
		ab.WriteString(l)
	}

	return fb.String(), ab.String()
}
