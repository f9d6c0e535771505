package launchable

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Class is the display label of an indexed item
type Class string

const (
	Shortcut    Class = "Shortcut"
	Application Class = "Application"
	Script      Class = "Script"
	File        Class = "File"
)

// MaxPathLen is the longest path accepted as a candidate. Longer paths are
// almost always generated trees nobody launches from.
const MaxPathLen = 260

// noiseKeywords reject installers, updaters and documentation that share
// a launchable extension with real programs
var noiseKeywords = []string{
	"uninstall", "uninst", "setup", "install", "update", "helper",
	"config", "readme", "license", "eula", "vcredist", "dxsetup", "redist",
}

// Rules holds the launchable extension table of one platform
type Rules struct {
	OS      string
	classes map[string]Class
	bundles map[string]bool
}

// ForOS returns the rules for the given GOOS value. Unknown Unix flavours
// get the Linux desktop-entry table.
func ForOS(goos string) *Rules {
	r := &Rules{OS: goos, bundles: map[string]bool{}}
	switch goos {
	case "windows":
		r.classes = map[string]Class{
			".lnk": Shortcut,
			".url": Shortcut,
			".exe": Application,
			".com": Application,
			".bat": Script,
			".cmd": Script,
			".ps1": Script,
			".msc": File,
			".cpl": File,
		}
	case "darwin":
		r.classes = map[string]Class{
			".app":      Application,
			".prefpane": File,
			".command":  Script,
			".tool":     Script,
			".sh":       Script,
		}
		r.bundles[".app"] = true
		r.bundles[".prefpane"] = true
	default:
		r.classes = map[string]Class{
			".desktop":  Shortcut,
			".appimage": Application,
			".sh":       Script,
		}
	}
	return r
}

// Default returns the rules of the running platform
func Default() *Rules {
	return ForOS(runtime.GOOS)
}

// Ext returns the lower-cased extension of name, including the dot
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Accept reports whether the entry at path is a launch candidate
func (r *Rules) Accept(path string) bool {
	if len(path) > MaxPathLen {
		return false
	}

	base := filepath.Base(path)
	ext := Ext(base)
	class, ok := r.classes[ext]
	if !ok {
		return false
	}

	// A shortcut was put there on purpose, whatever it is called
	if class == Shortcut {
		return true
	}

	return !IsNoise(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Classify returns the label for path. Extensions outside the table are
// labelled File.
func (r *Rules) Classify(path string) Class {
	if class, ok := r.classes[Ext(path)]; ok {
		return class
	}
	return File
}

// IsBundle reports whether a directory with this name is an application
// bundle, which is indexed as a single item and never descended into
func (r *Rules) IsBundle(name string) bool {
	return r.bundles[Ext(name)]
}

// IsNoise reports whether a file stem looks like an installer, updater or
// documentation file
func IsNoise(stem string) bool {
	lower := strings.ToLower(stem)
	for _, kw := range noiseKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
