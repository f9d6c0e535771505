// Package launcher hands indexed items to the operating system.
package launcher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/0xADE/ade-omnibox/internal/indexer/desktop"
	"github.com/0xADE/ade-omnibox/internal/indexer/launchable"
)

// ErrEmptyCommand is returned when a desktop entry expands to nothing
var ErrEmptyCommand = errors.New("empty exec command")

// Opener opens an indexed item
type Opener interface {
	Open(identity string) error
}

// Launcher starts items without waiting for them to exit
type Launcher struct {
	// Terminal runs desktop entries that ask for one, as "<Terminal> -e cmd"
	Terminal string
	// GOOS selects the platform opener
	GOOS string
	// Locale picks the localized desktop entry name for the %c field code
	Locale string

	logger *log.Logger
	start  func(*exec.Cmd) error
}

// New returns a launcher for the running platform
func New(terminal string, logger *log.Logger) *Launcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Launcher{
		Terminal: terminal,
		GOOS:     runtime.GOOS,
		logger:   logger,
		start:    startDetached,
	}
}

// Open starts identity
func (l *Launcher) Open(identity string) error {
	cmd, err := l.Command(identity)
	if err != nil {
		return err
	}

	l.logger.Debug("starting", "identity", identity, "args", cmd.Args)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", identity, err)
	}
	return nil
}

// Command builds the process that opens identity
func (l *Launcher) Command(identity string) (*exec.Cmd, error) {
	info, err := os.Stat(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", identity, err)
	}

	switch l.GOOS {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", identity), nil
	case "darwin":
		return exec.Command("open", identity), nil
	}

	if launchable.Ext(identity) == ".desktop" {
		return l.desktopCommand(identity)
	}
	if info.Mode().IsRegular() && isExecutable(info) {
		return exec.Command(identity), nil
	}
	return exec.Command("xdg-open", identity), nil
}

func (l *Launcher) desktopCommand(path string) (*exec.Cmd, error) {
	entry, err := desktop.ParseFile(path)
	if err != nil {
		return nil, err
	}

	parts := strings.Fields(entry.Command(l.Locale))
	if len(parts) == 0 {
		return nil, fmt.Errorf("failed to open %s: %w", path, ErrEmptyCommand)
	}

	if entry.Terminal {
		return exec.Command(l.Terminal, append([]string{"-e"}, parts...)...), nil
	}
	return exec.Command(parts[0], parts[1:]...), nil
}

func isExecutable(info os.FileInfo) bool {
	// Check if file has execute permission for user, group, or others
	return info.Mode()&0111 != 0
}

// startDetached starts cmd and reaps it in the background
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
