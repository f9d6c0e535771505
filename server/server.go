// Package server exposes the launcher over a Unix socket speaking TXT01.
//
// A response is the TXT01 header followed by "key: value" attribute lines,
// optionally a "body:" line and body lines, and ends with an empty line.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/0xADE/ade-omnibox/internal/indexer"
	"github.com/0xADE/ade-omnibox/internal/settings"
	"github.com/0xADE/ade-omnibox/internal/tasks"
	"github.com/0xADE/ade-omnibox/parser"
)

// Backend is the launcher core the server dispatches to
type Backend interface {
	Search(query string) []indexer.Entry
	Lookup(identity string) (indexer.Entry, error)
	Execute(identity, query string) *tasks.Task
	RefreshIndex(ctx context.Context) *tasks.Task
	Count() int
	Settings() settings.Settings
	SaveSettings(s settings.Settings) error
}

// Server handles Unix socket connections and command execution
type Server struct {
	listener net.Listener
	backend  Backend
	logger   *log.Logger
	running  bool
	mu       sync.RWMutex
	ctx      context.Context
}

// NewServer listens on socketPath, replacing a stale socket file
func NewServer(socketPath string, backend Backend, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	// Remove a socket left behind by a previous run
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove stale socket", "path", socketPath, "err", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", socketPath, err)
	}

	return &Server{
		listener: listener,
		backend:  backend,
		logger:   logger,
		ctx:      context.Background(),
	}, nil
}

// Start accepts connections until the server is stopped
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.ctx = ctx
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.RLock()
			running := s.running
			s.mu.RUnlock()
			if !running || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", "err", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// Stop stops the server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return s.listener.Close()
}

// Addr returns the listening address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	p, err := parser.NewParser(conn)
	if err != nil {
		s.logger.Error("failed to create parser", "err", err)
		s.writeError(conn, "parser", "invalid header", err.Error())
		return
	}
	s.logger.Debug("new connection accepted", "version", p.Version())

	for {
		cmd, err := p.ParseCommand()
		if err == io.EOF {
			s.logger.Debug("connection closed by client")
			break
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("parse error", "err", err)
			s.writeError(conn, "parser", "parse error", err.Error())
			continue
		}

		s.logger.Debug("executing command", "cmd", cmd.Name, "args", len(cmd.Args))
		s.executeCommand(conn, cmd)
	}
}

func (s *Server) executeCommand(w io.Writer, cmd *parser.Command) {
	switch cmd.Name {
	case parser.CmdSearch:
		s.handleSearch(w, cmd)
	case parser.CmdRun:
		s.handleRun(w, cmd)
	case parser.CmdReindex:
		s.handleReindex(w, cmd)
	case parser.CmdSettings:
		s.handleSettings(w)
	case parser.CmdSetSettings:
		s.handleSetSettings(w, cmd)
	default:
		s.writeError(w, cmd.Name, "unknown command", "Command not recognized")
	}
}

func (s *Server) handleSearch(w io.Writer, cmd *parser.Command) {
	query := ""
	if len(cmd.Args) > 0 {
		q, ok := cmd.String(0)
		if !ok {
			s.writeError(w, parser.CmdSearch, "invalid argument", "search takes an optional string query")
			return
		}
		query = q
	}

	results := s.backend.Search(query)
	s.logger.Debug("search", "query", query, "results", len(results))

	body := make([]string, 0, len(results))
	for _, e := range results {
		body = append(body, FormatEntry(e))
	}
	s.writeResponse(w, []attr{
		{"cmd", parser.CmdSearch},
		{"status", "0"},
		{"list-len", strconv.Itoa(len(results))},
	}, body)
}

func (s *Server) handleRun(w io.Writer, cmd *parser.Command) {
	identity, ok := cmd.String(0)
	if !ok || identity == "" {
		s.writeError(w, parser.CmdRun, "missing identity", "run command requires an identity parameter")
		return
	}
	query, _ := cmd.String(1)

	attrs := []attr{{"cmd", parser.CmdRun}}
	if e, err := s.backend.Lookup(identity); err == nil {
		attrs = append(attrs, attr{"title", e.Title})
	}

	if err := s.backend.Execute(identity, query).Wait(); err != nil {
		s.writeError(w, parser.CmdRun, "execution failed", err.Error())
		return
	}

	s.writeResponse(w, append(attrs, attr{"status", "0"}), nil)
}

func (s *Server) handleReindex(w io.Writer, cmd *parser.Command) {
	if len(cmd.Args) > 0 {
		s.writeError(w, parser.CmdReindex, "invalid argument", "reindex takes no arguments")
		return
	}

	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	s.backend.RefreshIndex(ctx)

	s.writeResponse(w, []attr{
		{"cmd", parser.CmdReindex},
		{"status", "0"},
		{"indexed", strconv.Itoa(s.backend.Count())},
	}, nil)
}

func (s *Server) handleSettings(w io.Writer) {
	cur := s.backend.Settings()
	s.writeResponse(w, []attr{
		{"cmd", parser.CmdSettings},
		{"status", "0"},
		{"max-results", strconv.Itoa(cur.MaxResults)},
		{"autostart", strconv.FormatBool(cur.EnableAutostart)},
	}, nil)
}

func (s *Server) handleSetSettings(w io.Writer, cmd *parser.Command) {
	maxResults, ok := cmd.Int(0)
	if !ok {
		s.writeError(w, parser.CmdSetSettings, "invalid argument", "set-settings requires an integer max-results")
		return
	}
	autostart, ok := cmd.Bool(1)
	if !ok {
		s.writeError(w, parser.CmdSetSettings, "invalid argument", "set-settings requires a t/f autostart flag")
		return
	}

	next := settings.Settings{MaxResults: int(maxResults), EnableAutostart: autostart}
	if err := s.backend.SaveSettings(next); err != nil {
		s.writeError(w, parser.CmdSetSettings, "invalid settings", err.Error())
		return
	}
	s.writeResponse(w, []attr{
		{"cmd", parser.CmdSetSettings},
		{"status", "0"},
		{"max-results", strconv.Itoa(next.MaxResults)},
		{"autostart", strconv.FormatBool(next.EnableAutostart)},
	}, nil)
}

// FormatEntry renders a result as a tab-separated body line:
// score, class, use count, identity and title
func FormatEntry(e indexer.Entry) string {
	return strings.Join([]string{
		strconv.FormatInt(e.Score, 10),
		string(e.Class),
		strconv.FormatUint(uint64(e.UseCount), 10),
		clean(e.Identity),
		clean(e.Title),
	}, "\t")
}

// clean keeps a field on one line and inside its column
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, s)
}

type attr struct {
	key, value string
}

// writeResponse writes a response with TXT01 header
func (s *Server) writeResponse(w io.Writer, attrs []attr, body []string) {
	var b strings.Builder
	b.WriteString(parser.Header)
	for _, a := range attrs {
		fmt.Fprintf(&b, "%s: %s\n", a.key, clean(a.value))
	}
	if body != nil {
		b.WriteString("body:\n")
		for _, line := range body {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')

	n, err := io.WriteString(w, b.String())
	if err != nil {
		s.logger.Error("failed to write response", "err", err)
		return
	}
	s.logger.Debug("response written", "bytes", n)
}

func (s *Server) writeError(w io.Writer, cmd, errType, desc string) {
	s.logger.Warn("writing error response", "cmd", cmd, "type", errType, "desc", desc)
	s.writeResponse(w, []attr{
		{"error-cmd", cmd},
		{"error", errType},
		{"desc", desc},
	}, nil)
}
