//go:build !windows

package crawler

import (
	"os"
	"strings"
)

func isHidden(e os.DirEntry) bool {
	return strings.HasPrefix(e.Name(), ".")
}
