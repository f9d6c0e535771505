package main

import (
	"fmt"
	"io"

	"github.com/0xADE/ade-omnibox/client/omnibox"
)

// Client is the daemon connection used by the commands
type Client interface {
	Search(query string) ([]omnibox.Result, error)
	Run(identity, query string) (string, error)
	Reindex() (int, error)
	Settings() (omnibox.Settings, error)
	SetSettings(s omnibox.Settings) (omnibox.Settings, error)
	Close() error
}

// Dependencies holds what the commands need to run
type Dependencies struct {
	Stdout io.Writer
	Stderr io.Writer
	Client Client
}

// CLI defines the command-line interface structure for Kong
type CLI struct {
	Socket string `help:"Daemon socket path" env:"ADE_OMNIBOX_SOCK" placeholder:"PATH"`

	Search   SearchCmd   `cmd:"" help:"Search the index; without a query list the most used entries"`
	Run      RunCmd      `cmd:"" help:"Launch an indexed entry"`
	Reindex  ReindexCmd  `cmd:"" help:"Rescan the file system in the background"`
	Settings SettingsCmd `cmd:"" help:"Show the daemon settings"`
	Set      SetCmd      `cmd:"" help:"Change the daemon settings"`
}

// SearchCmd is the "search" subcommand
type SearchCmd struct {
	Query   string `arg:"" optional:"" help:"Search text"`
	Verbose bool   `short:"v" help:"Show score, class and use count"`
	First   bool   `short:"f" help:"Print only the identity of the best result"`
}

// Run executes the search command
func (c *SearchCmd) Run(deps *Dependencies) error {
	results, err := deps.Client.Search(c.Query)
	if err != nil {
		return err
	}

	if c.First {
		if len(results) == 0 {
			return fmt.Errorf("no match for %q", c.Query)
		}
		fmt.Fprintln(deps.Stdout, results[0].Identity)
		return nil
	}

	for _, r := range results {
		if c.Verbose {
			fmt.Fprintf(deps.Stdout, "%6d  %-10s %4d  %s  %s\n", r.Score, r.Class, r.UseCount, r.Title, r.Identity)
			continue
		}
		fmt.Fprintf(deps.Stdout, "%s  %s\n", r.Title, r.Identity)
	}
	return nil
}

// RunCmd is the "run" subcommand
type RunCmd struct {
	Identity string `arg:"" help:"Absolute path of the entry"`
	Query    string `short:"q" help:"Query the entry was chosen for"`
}

// Run executes the run command
func (c *RunCmd) Run(deps *Dependencies) error {
	title, err := deps.Client.Run(c.Identity, c.Query)
	if err != nil {
		return err
	}
	if title == "" {
		title = c.Identity
	}
	fmt.Fprintf(deps.Stdout, "launched %s\n", title)
	return nil
}

// ReindexCmd is the "reindex" subcommand
type ReindexCmd struct{}

// Run executes the reindex command
func (c *ReindexCmd) Run(deps *Dependencies) error {
	n, err := deps.Client.Reindex()
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "reindex started, %d entries indexed\n", n)
	return nil
}

// SettingsCmd is the "settings" subcommand
type SettingsCmd struct{}

// Run executes the settings command
func (c *SettingsCmd) Run(deps *Dependencies) error {
	s, err := deps.Client.Settings()
	if err != nil {
		return err
	}
	printSettings(deps.Stdout, s)
	return nil
}

// SetCmd is the "set" subcommand. Unset flags keep their current value.
type SetCmd struct {
	MaxResults int    `help:"Maximum number of search results"`
	Autostart  string `enum:"keep,on,off" default:"keep" help:"Start with the session (keep, on, off)"`
}

// Run executes the set command
func (c *SetCmd) Run(deps *Dependencies) error {
	s, err := deps.Client.Settings()
	if err != nil {
		return err
	}
	if c.MaxResults != 0 {
		s.MaxResults = c.MaxResults
	}
	switch c.Autostart {
	case "on":
		s.Autostart = true
	case "off":
		s.Autostart = false
	}

	s, err = deps.Client.SetSettings(s)
	if err != nil {
		return err
	}
	printSettings(deps.Stdout, s)
	return nil
}

func printSettings(w io.Writer, s omnibox.Settings) {
	fmt.Fprintf(w, "max-results: %d\nautostart: %t\n", s.MaxResults, s.Autostart)
}
