// Package roots discovers the directories the crawler walks and assigns
// each of them a depth budget.
package roots

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
)

// Kind tells the depth policy where a root came from
type Kind int

const (
	// Curated roots hold launchers by definition: start menus, application
	// directories, PATH entries, install locations
	Curated Kind = iota
	// User roots are high-churn personal folders such as Downloads
	User
	// Volume roots are mount points of attached storage
	Volume
)

func (k Kind) String() string {
	switch k {
	case Curated:
		return "curated"
	case User:
		return "user"
	case Volume:
		return "volume"
	}
	return "unknown"
}

// Depth bounds per kind of root
const (
	UserDepth           = 4
	VolumeDepth         = 8
	VolumeSoftwareDepth = 12
	CuratedDepth        = 30
)

var (
	userSegments     = []string{"documents", "downloads"}
	softwareSegments = []string{"games", "programs", "program files", "program files (x86)", "software", "apps", "applications"}
)

// Root is a directory to crawl
type Root struct {
	Path string
	Kind Kind
}

// DepthFor returns the maximum crawl depth for r
func DepthFor(r Root) int {
	if r.Kind == User || hasSegment(r.Path, userSegments) {
		return UserDepth
	}
	if r.Kind == Volume {
		if hasSegment(r.Path, softwareSegments) {
			return VolumeSoftwareDepth
		}
		return VolumeDepth
	}
	return CuratedDepth
}

func hasSegment(path string, names []string) bool {
	for _, seg := range strings.FieldsFunc(path, isSeparator) {
		seg = strings.ToLower(seg)
		if slices.Contains(names, seg) {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// Fingerprint identifies a root set independently of its order
func Fingerprint(rs []Root) string {
	keys := make([]string, 0, len(rs))
	for _, r := range rs {
		keys = append(keys, key(r.Path))
	}
	slices.Sort(keys)
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(keys, "\x00")), 16)
}

// Discoverer collects roots from the well-known locations of the
// platform, the search path, install records and mounted volumes
type Discoverer struct {
	// Home is the user's home directory
	Home string
	// PathEnv is the executable search path, in os.PathListSeparator form
	PathEnv string
	// Extra returns additional curated roots; it is called on every
	// discovery so that rc file edits take effect
	Extra func() []string
	// Known returns the platform's curated and user directories
	Known func(home string) []Root
	// Installed returns install locations recorded by the OS
	Installed func() []string
	// Volumes returns mount points of attached storage, without the
	// primary system volume
	Volumes func(ctx context.Context) ([]string, error)

	Logger *log.Logger
}

// NewDiscoverer returns a Discoverer reading the live environment
func NewDiscoverer(pathEnv string, extra func() []string, logger *log.Logger) *Discoverer {
	home, _ := os.UserHomeDir()
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Discoverer{
		Home:      home,
		PathEnv:   pathEnv,
		Extra:     extra,
		Known:     knownDirs,
		Installed: installLocations,
		Volumes:   mountedVolumes,
		Logger:    logger,
	}
}

// Discover returns the de-duplicated set of existing root directories.
// The order of the result carries no meaning.
func (d *Discoverer) Discover(ctx context.Context) []Root {
	set := make(map[string]Root)
	add := func(path string, kind Kind) {
		if path == "" {
			return
		}
		path = filepath.Clean(path)
		r := Root{Path: path, Kind: kind}
		k := key(path)
		if prev, ok := set[k]; ok && DepthFor(prev) >= DepthFor(r) {
			return
		}
		set[k] = r
	}

	if d.Known != nil {
		for _, r := range d.Known(d.Home) {
			add(r.Path, r.Kind)
		}
	}

	for _, p := range filepath.SplitList(d.PathEnv) {
		add(p, Curated)
	}

	if d.Extra != nil {
		for _, p := range d.Extra() {
			add(p, Curated)
		}
	}

	if d.Installed != nil {
		for _, p := range d.Installed() {
			add(p, Curated)
		}
	}

	if d.Volumes != nil {
		vols, err := d.Volumes(ctx)
		if err != nil && d.Logger != nil {
			d.Logger.Debug("volume discovery failed", "err", err)
		}
		for _, p := range vols {
			add(p, Volume)
		}
	}

	result := make([]Root, 0, len(set))
	for _, r := range set {
		info, err := os.Stat(r.Path)
		if err != nil || !info.IsDir() {
			continue
		}
		result = append(result, r)
	}
	return result
}

// key folds case on file systems that ignore it
func key(path string) string {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.ToLower(path)
	}
	return path
}
