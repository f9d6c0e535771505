// Package omnibox is a client for the ade-omniboxd launcher daemon.
package omnibox

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

const protoVer = "TXT01" // cmdlist protocol, text format, v01

// ErrMalformedResult is returned for a body line that is not a result
var ErrMalformedResult = errors.New("malformed result line")

// Result is one ranked search result
type Result struct {
	Score    int64
	Class    string
	UseCount uint32
	Identity string
	Title    string
}

// Settings mirror the daemon's persisted preferences
type Settings struct {
	MaxResults int
	Autostart  bool
}

// Response is a decoded daemon response
type Response struct {
	Attrs map[string]string
	Body  []string
}

// ServerError is an error response from the daemon
type ServerError struct {
	Cmd  string
	Type string
	Desc string
}

func (e *ServerError) Error() string {
	if e.Desc == "" {
		return fmt.Sprintf("server error: %s", e.Type)
	}
	return fmt.Sprintf("server error: %s: %s", e.Type, e.Desc)
}

// Err returns the response's error, if it is an error response
func (r *Response) Err() error {
	errType, ok := r.Attrs["error"]
	if !ok {
		return nil
	}
	return &ServerError{Cmd: r.Attrs["error-cmd"], Type: errType, Desc: r.Attrs["desc"]}
}

// Client handles connection to the ade-omniboxd server
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
	socket string
}

// NewClient connects to the daemon at the configured socket
func NewClient() (*Client, error) {
	socketPath, err := SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get socket path: %w", err)
	}
	return Dial(socketPath)
}

// Dial connects to the daemon listening on socketPath
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket %s: %w", socketPath, err)
	}

	c, err := newClient(conn)
	if err != nil {
		return nil, err
	}
	c.socket = socketPath
	return c, nil
}

func newClient(conn net.Conn) (*Client, error) {
	// Send header
	if _, err := conn.Write([]byte(protoVer)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send header: %w", err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Socket returns the socket path the client is connected to
func (c *Client) Socket() string {
	return c.socket
}

// FormatArgument formats a command line argument according to its type:
// t/f and integers pass through, everything else becomes a string value
func FormatArgument(arg string) string {
	arg = strings.TrimSpace(arg)

	// If starts with ", it's a string (keep prefix)
	if strings.HasPrefix(arg, `"`) {
		return arg
	}

	if arg == "t" || arg == "f" {
		return arg
	}

	if _, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return arg
	}

	return `"` + arg
}

// formatString always encodes s as a string value
func formatString(s string) string {
	return `"` + strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

func formatBool(b bool) string {
	if b {
		return "t"
	}
	return "f"
}

// SendCommand sends a command with already encoded value lines
func (c *Client) SendCommand(cmdName string, values []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(cmdName, values)
}

func (c *Client) send(cmdName string, values []string) error {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(v)
		b.WriteByte('\n')
	}
	b.WriteString(cmdName)
	b.WriteByte('\n')

	if _, err := io.WriteString(c.conn, b.String()); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// ReadResponse reads the next response from the connection
func (c *Client) ReadResponse() (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return readResponse(c.reader)
}

// Do sends a command and reads its response
func (c *Client) Do(cmdName string, values []string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send(cmdName, values); err != nil {
		return nil, err
	}
	resp, err := readResponse(c.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, nil
}

// readResponse reads a header, attribute lines, an optional body and the
// terminating empty line
func readResponse(reader *bufio.Reader) (*Response, error) {
	header := make([]byte, len(protoVer))
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("failed to read response header: %w", err)
	}
	if string(header) != protoVer {
		return nil, fmt.Errorf("unexpected response header %q", header)
	}

	resp := &Response{Attrs: make(map[string]string)}
	inBody := false
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		line = strings.TrimSuffix(line, "\n")

		if line == "" {
			return resp, nil
		}
		if inBody {
			resp.Body = append(resp.Body, line)
			continue
		}
		if line == "body:" {
			inBody = true
			continue
		}
		if key, value, ok := strings.Cut(line, ":"); ok {
			resp.Attrs[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
}

// ParseResult decodes a search body line
func ParseResult(line string) (Result, error) {
	parts := strings.SplitN(line, "\t", 5)
	if len(parts) != 5 {
		return Result{}, fmt.Errorf("%w: %q", ErrMalformedResult, line)
	}
	score, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Result{}, fmt.Errorf("%w: bad score: %v", ErrMalformedResult, err)
	}
	uses, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return Result{}, fmt.Errorf("%w: bad use count: %v", ErrMalformedResult, err)
	}
	return Result{
		Score:    score,
		Class:    parts[1],
		UseCount: uint32(uses),
		Identity: parts[3],
		Title:    parts[4],
	}, nil
}

// Search returns the ranked results for query. An empty query lists the
// most used entries.
func (c *Client) Search(query string) ([]Result, error) {
	var values []string
	if query != "" {
		values = []string{formatString(query)}
	}
	resp, err := c.Do("search", values)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Body))
	for _, line := range resp.Body {
		r, err := ParseResult(line)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Run launches identity and credits it to query. It returns the title the
// daemon reported, if any.
func (c *Client) Run(identity, query string) (string, error) {
	values := []string{formatString(identity)}
	if query != "" {
		values = append(values, formatString(query))
	}
	resp, err := c.Do("run", values)
	if err != nil {
		return "", err
	}
	if err := resp.Err(); err != nil {
		return "", err
	}
	return resp.Attrs["title"], nil
}

// Reindex starts a background rescan and returns the current entry count
func (c *Client) Reindex() (int, error) {
	resp, err := c.Do("reindex", nil)
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(resp.Attrs["indexed"])
	if err != nil {
		return 0, fmt.Errorf("bad indexed attribute: %w", err)
	}
	return n, nil
}

// Settings returns the daemon's current settings
func (c *Client) Settings() (Settings, error) {
	resp, err := c.Do("settings", nil)
	if err != nil {
		return Settings{}, err
	}
	return parseSettings(resp)
}

// SetSettings replaces the daemon's settings
func (c *Client) SetSettings(s Settings) (Settings, error) {
	resp, err := c.Do("set-settings", []string{strconv.Itoa(s.MaxResults), formatBool(s.Autostart)})
	if err != nil {
		return Settings{}, err
	}
	return parseSettings(resp)
}

func parseSettings(resp *Response) (Settings, error) {
	if err := resp.Err(); err != nil {
		return Settings{}, err
	}
	maxResults, err := strconv.Atoi(resp.Attrs["max-results"])
	if err != nil {
		return Settings{}, fmt.Errorf("bad max-results attribute: %w", err)
	}
	autostart, err := strconv.ParseBool(resp.Attrs["autostart"])
	if err != nil {
		return Settings{}, fmt.Errorf("bad autostart attribute: %w", err)
	}
	return Settings{MaxResults: maxResults, Autostart: autostart}, nil
}
