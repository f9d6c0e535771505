package config

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/kelseyhightower/envconfig"
	"github.com/natefinch/atomic"
)

const (
	omniboxrc       = "~/.config/ade/omnibox.rc"
	defaultTerminal = "xterm"
)

const rcTemplate = `# ade-omnibox extra roots
#
# One directory per line. Every directory listed here is crawled as deeply
# as the application menus. "~" expands to the home directory.
#
# ~/bin
# /opt/games
`

var (
	globalConfig *Config
	once         sync.Once
)

// Config is the daemon configuration: static settings from the
// environment and the roots listed in the rc file, which is reloaded on
// change
type Config struct {
	static  env
	dynamic rc
	rcPath  string
	watcher *fsnotify.Watcher

	hooksMu sync.Mutex
	hooks   []func()
}

type (
	env struct {
		Path       string `envconfig:"PATH"`
		Terminal   string `envconfig:"ADE_DEFAULT_TERM"`
		LcAll      string `envconfig:"LC_ALL"`
		LcMessages string `envconfig:"LC_MESSAGES"`
		Lang       string `envconfig:"LANG"`
		UnixSocket string `envconfig:"ADE_OMNIBOX_SOCK"`
		DataDir    string `envconfig:"ADE_OMNIBOX_DATA"`
		Workers    int    `envconfig:"ADE_OMNIBOX_WORKERS" default:"8"`
		LogLevel   string `envconfig:"ADE_OMNIBOX_LOG_LEVEL" default:"info"`
	}
	rc struct {
		sync.RWMutex
		extraRoots []string
	}
)

// Init initializes and loads the global configuration
func Init() error {
	var err error
	once.Do(func() {
		globalConfig, err = Load(expandPath(omniboxrc))
	})
	return err
}

// Run starts the configuration watcher loop of the global configuration
func Run(ctx context.Context) error {
	if globalConfig == nil {
		if err := Init(); err != nil {
			return err
		}
	}

	go globalConfig.Watch(ctx)
	return nil
}

// Get returns the global config instance
func Get() *Config {
	if globalConfig == nil {
		Init()
	}
	return globalConfig
}

// Load reads the environment and the rc file at rcPath, creating the file
// from a template when it does not exist
func Load(rcPath string) (*Config, error) {
	c := &Config{rcPath: rcPath}

	if err := envconfig.Process("", &c.static); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if c.static.UnixSocket == "" {
		currentUser, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to get current user: %w", err)
		}
		c.static.UnixSocket = fmt.Sprintf("/tmp/ade-%s/omnibox", currentUser.Uid)
	}
	c.static.UnixSocket = expandPath(c.static.UnixSocket)

	if c.static.DataDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user cache directory: %w", err)
		}
		c.static.DataDir = filepath.Join(cacheDir, "ade")
	}
	c.static.DataDir = expandPath(c.static.DataDir)

	if err := c.loadRC(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", rcPath, err)
	}

	if err := c.setupWatcher(); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", rcPath, err)
	}

	return c, nil
}

func (c *Config) loadRC() error {
	rcDir := filepath.Dir(c.rcPath)
	if err := os.MkdirAll(rcDir, 0750); err != nil {
		return err
	}

	file, err := os.Open(c.rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return atomic.WriteFile(c.rcPath, strings.NewReader(rcTemplate))
		}
		return err
	}
	defer file.Close()

	var roots []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		roots = append(roots, expandPath(line))
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	c.dynamic.Lock()
	c.dynamic.extraRoots = roots
	c.dynamic.Unlock()
	return nil
}

func (c *Config) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory so that editors replacing the file are seen
	if err := watcher.Add(filepath.Dir(c.rcPath)); err != nil {
		watcher.Close()
		return err
	}

	c.watcher = watcher
	return nil
}

// OnChange registers fn to run after the rc file has been reloaded
func (c *Config) OnChange(fn func()) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Watch reloads the rc file whenever it changes, until ctx is done or the
// config is closed
func (c *Config) Watch(ctx context.Context) {
	logger := log.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(c.rcPath) ||
				!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := c.loadRC(); err != nil {
				logger.Error("error reloading config", "path", c.rcPath, "err", err)
				continue
			}
			logger.Info("config reloaded", "path", c.rcPath, "extra_roots", len(c.ExtraRoots()))
			c.hooksMu.Lock()
			hooks := append([]func(){}, c.hooks...)
			c.hooksMu.Unlock()
			for _, fn := range hooks {
				fn()
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("config watcher error", "err", err)
		}
	}
}

// Close stops the rc file watcher
func (c *Config) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// PathEnv returns the executable search path
func (c *Config) PathEnv() string {
	return c.static.Path
}

// ExtraRoots returns the directories listed in the rc file
func (c *Config) ExtraRoots() []string {
	c.dynamic.RLock()
	defer c.dynamic.RUnlock()
	return append([]string(nil), c.dynamic.extraRoots...)
}

// RCPath returns the path of the rc file
func (c *Config) RCPath() string {
	return c.rcPath
}

// Terminal returns the terminal emulator command, xterm when unset.
// $TERM names a terminfo entry, not a program, so it is not consulted.
func (c *Config) Terminal() string {
	if c.static.Terminal != "" {
		return c.static.Terminal
	}
	return defaultTerminal
}

// Locale returns the locale used for desktop entry names, resolved in
// LC_ALL, LC_MESSAGES, LANG order
func (c *Config) Locale() string {
	for _, v := range []string{c.static.LcAll, c.static.LcMessages, c.static.Lang} {
		if v != "" {
			return v
		}
	}
	return ""
}

// UnixSocket returns the Unix socket path
func (c *Config) UnixSocket() string {
	return c.static.UnixSocket
}

// DataDir returns the directory holding the database
func (c *Config) DataDir() string {
	return c.static.DataDir
}

// Workers returns the number of directories crawled at once
func (c *Config) Workers() int {
	if c.static.Workers <= 0 {
		return 8 // Default
	}
	return c.static.Workers
}

// LogLevel returns the configured log level, info when unparsable
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.static.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Logger returns a stderr logger at the configured level
func (c *Config) Logger(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		Level:           c.LogLevel(),
		ReportTimestamp: true,
	})
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return strings.Replace(path, "~", home, 1)
	}
	return path
}
