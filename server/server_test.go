package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/0xADE/ade-omnibox/internal/indexer"
	"github.com/0xADE/ade-omnibox/internal/indexer/launchable"
	"github.com/0xADE/ade-omnibox/internal/settings"
	"github.com/0xADE/ade-omnibox/internal/tasks"
	"github.com/0xADE/ade-omnibox/parser"
)

type fakeBackend struct {
	mu        sync.Mutex
	entries   []indexer.Entry
	settings  settings.Settings
	openErr   error
	queries   []string
	executed  [][2]string
	refreshes int
	runner    *tasks.Runner
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{settings: settings.Default(), runner: tasks.NewRunner(nil)}
}

func (f *fakeBackend) Search(query string) []indexer.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.entries
}

func (f *fakeBackend) Lookup(identity string) (indexer.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.Identity == identity {
			return e, nil
		}
	}
	return indexer.Entry{}, errors.New("unknown entry")
}

func (f *fakeBackend) Execute(identity, query string) *tasks.Task {
	f.mu.Lock()
	f.executed = append(f.executed, [2]string{identity, query})
	err := f.openErr
	f.mu.Unlock()
	return f.runner.Go("open", func() error { return err })
}

func (f *fakeBackend) RefreshIndex(context.Context) *tasks.Task {
	f.mu.Lock()
	f.refreshes++
	f.mu.Unlock()
	return f.runner.Go("refresh", func() error { return nil })
}

func (f *fakeBackend) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *fakeBackend) Settings() settings.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeBackend) SaveSettings(s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = s
	return nil
}

var _ = Describe("executeCommand", func() {
	var (
		backend  *fakeBackend
		srv      *Server
		buf      bytes.Buffer
		response string
	)

	run := func(cmd *parser.Command) {
		buf.Reset()
		srv.executeCommand(&buf, cmd)
		response = buf.String()
	}

	str := func(s string) parser.Value { return parser.Value{Type: parser.TypeString, Str: s} }

	BeforeEach(func() {
		backend = newFakeBackend()
		backend.entries = []indexer.Entry{
			{Identity: "/apps/Firefox.desktop", Title: "Firefox", Class: launchable.Shortcut, UseCount: 2, Score: 420},
			{Identity: "/apps/fire\tstarter.sh", Title: "fire\nstarter", Class: launchable.Script, Score: 17},
		}
		srv = &Server{backend: backend, logger: log.New(io.Discard), ctx: context.Background()}
	})

	AfterEach(func() {
		backend.runner.Wait()
	})

	Context("search", func() {
		BeforeEach(func() {
			run(&parser.Command{Name: parser.CmdSearch, Args: []parser.Value{str("fire")}})
		})

		It("should pass the query through", func() {
			Expect(backend.queries).To(Equal([]string{"fire"}))
		})

		It("should frame the response", func() {
			Expect(response).To(HavePrefix("TXT01cmd: search\nstatus: 0\nlist-len: 2\nbody:\n"))
			Expect(response).To(HaveSuffix("\n\n"))
		})

		It("should write one tab-separated line per result", func() {
			Expect(response).To(ContainSubstring("420\tShortcut\t2\t/apps/Firefox.desktop\tFirefox\n"))
			Expect(response).To(ContainSubstring("17\tScript\t0\t/apps/fire starter.sh\tfire starter\n"))
		})
	})

	It("should accept a search without a query", func() {
		run(&parser.Command{Name: parser.CmdSearch})
		Expect(backend.queries).To(Equal([]string{""}))
		Expect(response).To(ContainSubstring("status: 0"))
	})

	It("should reject a non-string query", func() {
		run(&parser.Command{Name: parser.CmdSearch, Args: []parser.Value{{Type: parser.TypeInt, Int: 1}}})
		Expect(response).To(ContainSubstring("error-cmd: search"))
		Expect(response).To(ContainSubstring("error: invalid argument"))
	})

	Context("run", func() {
		It("should execute with the query and report the title", func() {
			run(&parser.Command{Name: parser.CmdRun, Args: []parser.Value{str("/apps/Firefox.desktop"), str("fire")}})
			Expect(backend.executed).To(Equal([][2]string{{"/apps/Firefox.desktop", "fire"}}))
			Expect(response).To(Equal("TXT01cmd: run\ntitle: Firefox\nstatus: 0\n\n"))
		})

		It("should report launch failures", func() {
			backend.openErr = errors.New("no handler for file")
			run(&parser.Command{Name: parser.CmdRun, Args: []parser.Value{str("/apps/Firefox.desktop")}})
			Expect(response).To(ContainSubstring("error-cmd: run"))
			Expect(response).To(ContainSubstring("desc: no handler for file"))
		})

		It("should require an identity", func() {
			run(&parser.Command{Name: parser.CmdRun})
			Expect(response).To(ContainSubstring("error: missing identity"))
			Expect(backend.executed).To(BeEmpty())
		})
	})

	Context("reindex", func() {
		It("should start a refresh and report the current count", func() {
			run(&parser.Command{Name: parser.CmdReindex})
			Expect(response).To(ContainSubstring("cmd: reindex"))
			Expect(response).To(ContainSubstring("status: 0"))
			Expect(response).To(ContainSubstring("indexed: 2"))
			backend.runner.Wait()
			Expect(backend.refreshes).To(Equal(1))
		})

		It("should reject arguments", func() {
			run(&parser.Command{Name: parser.CmdReindex, Args: []parser.Value{{Type: parser.TypeInt, Int: 123}}})
			Expect(response).To(ContainSubstring("error-cmd: reindex"))
			Expect(response).To(ContainSubstring("invalid argument"))
		})
	})

	Context("settings", func() {
		It("should report the settings", func() {
			run(&parser.Command{Name: parser.CmdSettings})
			Expect(response).To(ContainSubstring("max-results: 100\nautostart: false\n"))
		})

		It("should save valid settings", func() {
			run(&parser.Command{Name: parser.CmdSetSettings, Args: []parser.Value{
				{Type: parser.TypeInt, Int: 25}, {Type: parser.TypeBool, Bool: true},
			}})
			Expect(response).To(ContainSubstring("status: 0"))
			Expect(backend.Settings()).To(Equal(settings.Settings{MaxResults: 25, EnableAutostart: true}))
		})

		It("should refuse invalid settings", func() {
			run(&parser.Command{Name: parser.CmdSetSettings, Args: []parser.Value{
				{Type: parser.TypeInt, Int: 0}, {Type: parser.TypeBool, Bool: false},
			}})
			Expect(response).To(ContainSubstring("error: invalid settings"))
			Expect(backend.Settings()).To(Equal(settings.Default()))
		})

		It("should require both values", func() {
			run(&parser.Command{Name: parser.CmdSetSettings, Args: []parser.Value{{Type: parser.TypeInt, Int: 5}}})
			Expect(response).To(ContainSubstring("error: invalid argument"))
		})
	})

	It("should reject unknown commands", func() {
		run(&parser.Command{Name: "list"})
		Expect(response).To(ContainSubstring("error: unknown command"))
	})
})

var _ = Describe("handleConnection", func() {
	var (
		backend    *fakeBackend
		srv        *Server
		clientConn net.Conn
		serverConn net.Conn
		reader     *bufio.Reader
	)

	BeforeEach(func() {
		backend = newFakeBackend()
		backend.entries = []indexer.Entry{{Identity: "/apps/Vim.desktop", Title: "Vim", Class: launchable.Shortcut}}
		srv = &Server{backend: backend, logger: log.New(io.Discard), ctx: context.Background()}

		clientConn, serverConn = net.Pipe()
		go srv.handleConnection(serverConn)
		reader = bufio.NewReader(clientConn)
	})

	AfterEach(func() {
		clientConn.Close()
		backend.runner.Wait()
	})

	It("should serve several commands on one connection", func() {
		go func() {
			defer GinkgoRecover()
			_, err := io.WriteString(clientConn, "TXT01\n\"vim\nsearch\nbogus\nsettings\n")
			Expect(err).NotTo(HaveOccurred())
		}()

		first := readFullResponse(reader)
		Expect(first).To(ContainSubstring("cmd: search"))
		Expect(first).To(ContainSubstring("/apps/Vim.desktop\tVim"))

		second := readFullResponse(reader)
		Expect(second).To(ContainSubstring("error-cmd: parser"))

		third := readFullResponse(reader)
		Expect(third).To(ContainSubstring("cmd: settings"))
	})

	It("should reject a bad header", func() {
		go func() {
			defer GinkgoRecover()
			_, _ = io.WriteString(clientConn, "JSON1{}\n")
		}()
		Expect(readFullResponse(reader)).To(ContainSubstring("error: invalid header"))
	})
})

var _ = Describe("NewServer", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("replaces a stale socket file", func() {
		socket := filepath.Join(dir, "omnibox.sock")
		Expect(os.WriteFile(socket, nil, 0o600)).To(Succeed())

		srv, err := NewServer(socket, newFakeBackend(), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(srv.Addr().String()).To(Equal(socket))
		Expect(srv.Stop()).To(Succeed())
	})

	It("logs a socket path it cannot clear", func() {
		socket := filepath.Join(dir, "taken")
		Expect(os.MkdirAll(filepath.Join(socket, "child"), 0o755)).To(Succeed())

		var logs bytes.Buffer
		_, err := NewServer(socket, newFakeBackend(), log.New(&logs))
		Expect(err).To(MatchError(ContainSubstring("failed to listen")))
		Expect(logs.String()).To(ContainSubstring("failed to remove stale socket"))
	})
})

// readFullResponse reads one response up to its terminating empty line
func readFullResponse(r *bufio.Reader) string {
	header := make([]byte, len(parser.Header))
	_, err := io.ReadFull(r, header)
	Expect(err).NotTo(HaveOccurred())
	Expect(string(header)).To(Equal(parser.Header))

	var b strings.Builder
	for {
		line, err := r.ReadString('\n')
		Expect(err).NotTo(HaveOccurred())
		if line == "\n" {
			return b.String()
		}
		b.WriteString(line)
	}
}
