package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/0xADE/ade-omnibox/client/omnibox"
)

func main() {
	m := NewMain()
	if err := m.Run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program
type Main struct {
	// Dial connects to the daemon. Replaced in tests.
	Dial func(socket string) (Client, error)
}

// NewMain returns a Main that dials the real daemon
func NewMain() *Main {
	return &Main{
		Dial: func(socket string) (Client, error) {
			return omnibox.Dial(socket)
		},
	}
}

// Run parses args and executes the selected command
func (m *Main) Run(args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	exited := false
	parser, err := kong.New(cli,
		kong.Name("ade-omnibox"),
		kong.Description("Query the ade-omniboxd launcher daemon."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) { exited = true }),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'ade-omnibox --help' to see available commands")
	}

	kongCtx, err := parser.Parse(args)
	if exited {
		// --help was printed
		return nil
	}
	if err != nil {
		return err
	}

	socket := cli.Socket
	if socket == "" {
		socket, err = omnibox.SocketPath()
		if err != nil {
			return err
		}
	}

	client, err := m.Dial(socket)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: is ade-omniboxd running?")
		return err
	}
	defer client.Close()

	return kongCtx.Run(&Dependencies{
		Stdout: stdout,
		Stderr: stderr,
		Client: client,
	})
}
