// Package desktop reads freedesktop.org desktop entries at launch time.
package desktop

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoCommand is returned for entries that have nothing to execute
var ErrNoCommand = errors.New("desktop entry has no Exec key")

// Entry represents the [Desktop Entry] group of a .desktop file
type Entry struct {
	Name     string            // Default name
	Names    map[string]string // Localized names (locale -> name)
	Exec     string            // Exec command, field codes included
	Terminal bool              // Whether to run in terminal
	Path     string            // Path to .desktop file
}

// ParseFile parses the desktop entry at path
func ParseFile(path string) (*Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open desktop entry: %w", err)
	}
	defer file.Close()

	entry, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	entry.Path = path
	if entry.Name == "" {
		entry.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return entry, nil
}

// Parse reads a desktop entry. Keys outside the [Desktop Entry] group are
// ignored.
func Parse(r io.Reader) (*Entry, error) {
	entry := &Entry{Names: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	var inDesktopEntry bool

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inDesktopEntry = strings.Trim(line, "[]") == "Desktop Entry"
			continue
		}

		if !inDesktopEntry {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Name":
			entry.Name = value
		case "Exec":
			entry.Exec = value
		case "Terminal":
			entry.Terminal = strings.EqualFold(value, "true")
		default:
			if strings.HasPrefix(key, "Name[") && strings.HasSuffix(key, "]") {
				entry.Names[key[5:len(key)-1]] = value
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if entry.Exec == "" {
		return nil, ErrNoCommand
	}
	return entry, nil
}

// LocalizedName returns the name for a POSIX locale such as
// "de_AT.UTF-8@euro", trying lang_COUNTRY@MODIFIER, lang_COUNTRY,
// lang@MODIFIER and lang before the default name
func (d *Entry) LocalizedName(locale string) string {
	for _, key := range localeKeys(locale) {
		if name, ok := d.Names[key]; ok {
			return name
		}
	}
	return d.Name
}

func localeKeys(locale string) []string {
	locale, modifier, _ := strings.Cut(locale, "@")
	locale, _, _ = strings.Cut(locale, ".")
	lang, country, _ := strings.Cut(locale, "_")
	if lang == "" || lang == "C" || lang == "POSIX" {
		return nil
	}

	var keys []string
	if country != "" && modifier != "" {
		keys = append(keys, lang+"_"+country+"@"+modifier)
	}
	if country != "" {
		keys = append(keys, lang+"_"+country)
	}
	if modifier != "" {
		keys = append(keys, lang+"@"+modifier)
	}
	return append(keys, lang)
}

// Command returns the Exec line with field codes expanded for a launch
// without file arguments. %c becomes the name for locale.
func (d *Entry) Command(locale string) string {
	exec := d.Exec
	exec = strings.ReplaceAll(exec, "%c", d.LocalizedName(locale))
	exec = strings.ReplaceAll(exec, "%k", d.Path)
	return CleanExecCommand(exec)
}

func removeFieldCodes(s string) string {
	var result strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '%' && i+1 < len(s) {
			next := s[i+1]
			if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') || next == '%' {
				if next == '%' {
					result.WriteByte('%')
				}
				i += 2
				continue
			}
		}
		result.WriteByte(s[i])
		i++
	}
	return result.String()
}

// CleanExecCommand removes field codes and extra spaces from exec command
func CleanExecCommand(exec string) string {
	return strings.Join(strings.Fields(removeFieldCodes(exec)), " ")
}
