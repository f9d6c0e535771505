//go:build windows

package roots

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const startMenu = `Microsoft\Windows\Start Menu\Programs`

var uninstallKeys = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`,
	`SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
}

func knownDirs(home string) []Root {
	var rs []Root
	if pd := os.Getenv("ProgramData"); pd != "" {
		rs = append(rs, Root{Path: filepath.Join(pd, startMenu), Kind: Curated})
	}
	if appData := os.Getenv("APPDATA"); appData != "" {
		rs = append(rs, Root{Path: filepath.Join(appData, startMenu), Kind: Curated})
	}
	if home == "" {
		return rs
	}
	return append(rs,
		Root{Path: filepath.Join(home, "Desktop"), Kind: Curated},
		Root{Path: filepath.Join(home, "Documents"), Kind: User},
		Root{Path: filepath.Join(home, "Downloads"), Kind: User},
	)
}

// installLocations reads InstallLocation from every uninstall record of
// the machine and the current user
func installLocations() []string {
	var paths []string
	for _, hive := range []registry.Key{registry.LOCAL_MACHINE, registry.CURRENT_USER} {
		for _, sub := range uninstallKeys {
			paths = append(paths, readInstallLocations(hive, sub)...)
		}
	}
	return paths
}

func readInstallLocations(hive registry.Key, path string) []string {
	list, err := registry.OpenKey(hive, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil
	}
	defer list.Close()

	names, err := list.ReadSubKeyNames(-1)
	if err != nil {
		return nil
	}

	var paths []string
	for _, name := range names {
		app, err := registry.OpenKey(list, name, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		loc, _, err := app.GetStringValue("InstallLocation")
		app.Close()
		if err != nil {
			continue
		}
		loc = strings.Trim(strings.TrimSpace(loc), `"`)
		if loc != "" {
			paths = append(paths, loc)
		}
	}
	return paths
}

func isPrimaryVolume(mountpoint string) bool {
	system := os.Getenv("SystemDrive")
	if system == "" {
		system = "C:"
	}
	return strings.EqualFold(strings.TrimRight(mountpoint, `\`), system)
}
