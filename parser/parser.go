// Package parser reads TXT01 requests: Forth-style lines where values are
// pushed onto a stack and a command word consumes them.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Header opens every request and response: format "TXT", version "01"
const Header = "TXT01"

var (
	// ErrInvalidHeader is returned when the stream does not start with a header
	ErrInvalidHeader = errors.New("invalid header")
	// ErrUnsupportedFormat is returned for a header of another format
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Command words understood by the daemon
const (
	CmdSearch      = "search"
	CmdRun         = "run"
	CmdReindex     = "reindex"
	CmdSettings    = "settings"
	CmdSetSettings = "set-settings"
)

var commands = []string{CmdSearch, CmdRun, CmdReindex, CmdSettings, CmdSetSettings}

// ValueType represents the type of a value on the stack
type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	}
	return "unknown"
}

// Value represents a value on the stack
type Value struct {
	Type ValueType
	Str  string
	Int  int64
	Bool bool
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []Value
}

// String returns argument i when it is a string
func (c *Command) String(i int) (string, bool) {
	if i >= len(c.Args) || c.Args[i].Type != TypeString {
		return "", false
	}
	return c.Args[i].Str, true
}

// Int returns argument i when it is an integer
func (c *Command) Int(i int) (int64, bool) {
	if i >= len(c.Args) || c.Args[i].Type != TypeInt {
		return 0, false
	}
	return c.Args[i].Int, true
}

// Bool returns argument i when it is a boolean
func (c *Command) Bool(i int) (bool, bool) {
	if i >= len(c.Args) || c.Args[i].Type != TypeBool {
		return false, false
	}
	return c.Args[i].Bool, true
}

// Parser parses Forth-style commands
type Parser struct {
	reader  *bufio.Reader
	header  string
	version string
}

// NewParser reads the header from reader and returns a parser for the
// commands that follow
func NewParser(reader io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(reader),
	}

	headerBytes := make([]byte, len(Header))
	if _, err := io.ReadFull(p.reader, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	p.header = string(headerBytes[:3])
	p.version = string(headerBytes[3:5])

	if p.header != "TXT" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.header)
	}

	return p, nil
}

// Version returns the protocol version announced in the header
func (p *Parser) Version() string {
	return p.version
}

// ParseCommand parses the next command from input
func (p *Parser) ParseCommand() (*Command, error) {
	stack := make([]Value, 0)

	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			if err == io.EOF && len(stack) > 0 {
				return nil, fmt.Errorf("parse error: %d values without a command", len(stack))
			}
			return nil, err
		}

		line = strings.TrimSpace(line)

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if slices.Contains(commands, line) {
			return &Command{
				Name: line,
				Args: stack,
			}, nil
		}

		value, err := parseValue(line)
		if err != nil {
			return nil, fmt.Errorf("parse error: %w", err)
		}
		stack = append(stack, value)
	}
}

func parseValue(line string) (Value, error) {
	// String value (prefixed with ")
	if after, ok := strings.CutPrefix(line, `"`); ok {
		return Value{Type: TypeString, Str: after}, nil
	}

	// Boolean literals (t/f)
	switch line {
	case "t":
		return Value{Type: TypeBool, Bool: true}, nil
	case "f":
		return Value{Type: TypeBool, Bool: false}, nil
	}

	if intVal, err := strconv.ParseInt(line, 10, 64); err == nil {
		return Value{Type: TypeInt, Int: intVal}, nil
	}

	return Value{}, fmt.Errorf("cannot parse value: %s", line)
}
