package roots

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// skippedMounts are physical partitions that never hold user programs
var skippedMounts = []string{"/boot", "/snap", "/var/lib/snapd", "/efi", "/recovery"}

var skippedFstypes = map[string]bool{
	"squashfs": true,
	"overlay":  true,
	"tmpfs":    true,
}

// mountedVolumes lists the mount points of attached storage, leaving out
// the primary system volume which the curated roots already cover
func mountedVolumes(ctx context.Context) ([]string, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	var mounts []string
	for _, p := range parts {
		mp := p.Mountpoint
		if mp == "" || isPrimaryVolume(mp) || skippedFstypes[p.Fstype] || isSkippedMount(mp) {
			continue
		}
		if runtime.GOOS == "windows" && !strings.HasSuffix(mp, `\`) {
			mp += `\`
		}
		mounts = append(mounts, mp)
	}
	return mounts, nil
}

func isSkippedMount(mp string) bool {
	for _, prefix := range skippedMounts {
		if mp == prefix || strings.HasPrefix(mp, prefix+"/") {
			return true
		}
	}
	return false
}
