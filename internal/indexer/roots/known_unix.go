//go:build !windows

package roots

import (
	"path/filepath"
	"runtime"
)

func knownDirs(home string) []Root {
	var rs []Root
	if runtime.GOOS == "darwin" {
		rs = append(rs,
			Root{Path: "/Applications", Kind: Curated},
			Root{Path: "/System/Applications", Kind: Curated},
		)
	} else {
		rs = append(rs,
			Root{Path: "/usr/share/applications", Kind: Curated},
			Root{Path: "/usr/local/share/applications", Kind: Curated},
			Root{Path: "/var/lib/flatpak/exports/share/applications", Kind: Curated},
			Root{Path: "/var/lib/snapd/desktop/applications", Kind: Curated},
		)
	}

	if home == "" {
		return rs
	}

	if runtime.GOOS != "darwin" {
		rs = append(rs,
			Root{Path: filepath.Join(home, ".local/share/applications"), Kind: Curated},
			Root{Path: filepath.Join(home, ".local/share/flatpak/exports/share/applications"), Kind: Curated},
		)
	}
	return append(rs,
		Root{Path: filepath.Join(home, "Applications"), Kind: Curated},
		Root{Path: filepath.Join(home, "Desktop"), Kind: Curated},
		Root{Path: filepath.Join(home, "Documents"), Kind: User},
		Root{Path: filepath.Join(home, "Downloads"), Kind: User},
	)
}

// installLocations has no equivalent of the Windows uninstall registry on
// Unix; package managers drop desktop entries into the curated dirs instead
func installLocations() []string {
	return nil
}

func isPrimaryVolume(mountpoint string) bool {
	return mountpoint == "/"
}
