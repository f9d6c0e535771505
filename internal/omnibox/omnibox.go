// Package omnibox is the launcher core: it owns the shared index, habit
// table and settings, and serves searches, launches and rescans against
// them.
package omnibox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/0xADE/ade-omnibox/internal/habits"
	"github.com/0xADE/ade-omnibox/internal/indexer"
	"github.com/0xADE/ade-omnibox/internal/indexer/roots"
	"github.com/0xADE/ade-omnibox/internal/launcher"
	"github.com/0xADE/ade-omnibox/internal/rank"
	"github.com/0xADE/ade-omnibox/internal/settings"
	"github.com/0xADE/ade-omnibox/internal/state"
	"github.com/0xADE/ade-omnibox/internal/store"
	"github.com/0xADE/ade-omnibox/internal/tasks"
)

// ErrUnknownEntry is returned when an identity is not in the index
var ErrUnknownEntry = errors.New("unknown entry")

// AppState is everything guarded by the service lock
type AppState struct {
	Entries  *indexer.Index
	Habits   *habits.Table
	Settings settings.Settings
}

// Scanner produces a fresh candidate list from the file system
type Scanner interface {
	Roots(ctx context.Context) []roots.Root
	Scan(ctx context.Context, rs []roots.Root) ([]indexer.Entry, error)
}

// Options wires a Service
type Options struct {
	Store   store.Gateway
	Scanner Scanner
	Opener  launcher.Opener
	Ranker  *rank.Ranker
	Logger  *log.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// Service serves the launcher operations
type Service struct {
	state     *state.Guarded[AppState]
	store     store.Gateway
	scanner   Scanner
	opener    launcher.Opener
	ranker    *rank.Ranker
	runner    *tasks.Runner
	refreshes singleflight.Group
	logger    *log.Logger
	now       func() time.Time
}

// New creates a service and loads its state from the store
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	gw := opts.Store
	if gw == nil {
		gw = store.NewMemory()
	}
	ranker := opts.Ranker
	if ranker == nil {
		ranker = rank.New(rank.DefaultWeights())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	st := AppState{
		Entries:  indexer.NewIndex(gw.LoadEntries()...),
		Habits:   gw.LoadHabits(),
		Settings: gw.LoadSettings(),
	}
	logger.Info("state loaded", "entries", st.Entries.Count(), "queries", st.Habits.Len(), "max_results", st.Settings.MaxResults)

	return &Service{
		state:   state.New(st, logger.WithPrefix("state")),
		store:   gw,
		scanner: opts.Scanner,
		opener:  opts.Opener,
		ranker:  ranker,
		runner:  tasks.NewRunner(logger.WithPrefix("tasks")),
		logger:  logger,
		now:     now,
	}
}

// Search returns the best entries for query, at most the configured
// maximum
func (s *Service) Search(query string) []indexer.Entry {
	var results []indexer.Entry
	err := s.state.With(func(st *AppState) {
		results = s.ranker.Search(st.Entries.All(), st.Habits, query, st.Settings.MaxResults)
	})
	if err != nil {
		s.logger.Error("search failed", "query", query, "err", err)
		return nil
	}
	return results
}

// Lookup returns the indexed entry for identity
func (s *Service) Lookup(identity string) (indexer.Entry, error) {
	var (
		e  indexer.Entry
		ok bool
	)
	if err := s.state.With(func(st *AppState) {
		e, ok = st.Entries.Get(identity)
	}); err != nil {
		return indexer.Entry{}, err
	}
	if !ok {
		return indexer.Entry{}, fmt.Errorf("%w: %s", ErrUnknownEntry, identity)
	}
	return e, nil
}

// Execute records that identity was chosen for query and opens it. The
// habit table is saved before Execute returns. Opening and saving the
// entries happen in the background; the returned task finishes when the
// open attempt does.
func (s *Service) Execute(identity, query string) *tasks.Task {
	var touched bool
	err := s.state.With(func(st *AppState) {
		if st.Habits.Record(query, identity) {
			if err := s.store.SaveHabits(st.Habits); err != nil {
				s.logger.Error("failed to save habits", "err", err)
			}
		}
		if _, touched = st.Entries.Touch(identity, s.now()); !touched {
			s.logger.Debug("launching an identity that is not indexed", "identity", identity)
		}
	})
	if err != nil {
		s.logger.Error("failed to record launch", "identity", identity, "err", err)
	}

	if touched {
		s.runner.Go("persist-entries", s.persistEntries)
	}

	return s.runner.Go("open", func() error {
		if s.opener == nil {
			return fmt.Errorf("failed to open %s: no opener configured", identity)
		}
		return s.opener.Open(identity)
	})
}

// persistEntries saves the index as it is when the lock is taken. Saves
// are serialized by the lock and always write the latest counts, so a
// late save never restores older ones.
func (s *Service) persistEntries() error {
	var saveErr error
	if err := s.state.With(func(st *AppState) {
		saveErr = s.store.SaveEntries(st.Entries.All())
	}); err != nil {
		return err
	}
	if saveErr != nil {
		return fmt.Errorf("failed to save entries: %w", saveErr)
	}
	return nil
}

// Refresh rescans the file system and merges the result into the index.
// Concurrent calls over the same root set share one scan. It returns the
// number of indexed entries.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if s.scanner == nil {
		return s.Count(), nil
	}

	rs := s.scanner.Roots(ctx)
	key := roots.Fingerprint(rs)

	v, err, shared := s.refreshes.Do(key, func() (any, error) {
		start := s.now()
		entries, err := s.scanner.Scan(ctx, rs)
		if err != nil {
			return 0, fmt.Errorf("failed to scan: %w", err)
		}

		var rec indexer.Reconciliation
		var saveErr error
		err = s.state.With(func(st *AppState) {
			rec = indexer.Reconcile(st.Entries, entries)
			st.Entries = indexer.NewIndex(rec.Entries...)
			saveErr = s.store.SaveEntries(rec.Entries)
		})
		if err != nil {
			return 0, err
		}
		if saveErr != nil {
			s.logger.Error("failed to save entries", "err", saveErr)
		}

		for _, d := range rec.Dropped {
			s.logger.Warn("dropped entry with usage history", "identity", d.Identity, "uses", d.UseCount)
		}
		s.logger.Info("index refreshed",
			"roots", len(rs),
			"entries", len(rec.Entries),
			"carried", rec.Carried,
			"dropped", len(rec.Dropped),
			"took", s.now().Sub(start))
		return len(rec.Entries), nil
	})
	if err != nil {
		return 0, err
	}
	if shared {
		s.logger.Debug("joined a running refresh", "roots", key)
	}
	return v.(int), nil
}

// RefreshIndex starts Refresh in the background. The refresh is not
// cancelled with ctx.
func (s *Service) RefreshIndex(ctx context.Context) *tasks.Task {
	ctx = context.WithoutCancel(ctx)
	return s.runner.Go("refresh", func() error {
		_, err := s.Refresh(ctx)
		return err
	})
}

// Settings returns the current settings
func (s *Service) Settings() settings.Settings {
	var cur settings.Settings
	if err := s.state.With(func(st *AppState) { cur = st.Settings }); err != nil {
		s.logger.Error("failed to read settings", "err", err)
		return settings.Default()
	}
	return cur
}

// SaveSettings validates, applies and stores next
func (s *Service) SaveSettings(next settings.Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	var saveErr error
	if err := s.state.With(func(st *AppState) {
		st.Settings = next
		saveErr = s.store.SaveSettings(next)
	}); err != nil {
		return err
	}
	if saveErr != nil {
		return fmt.Errorf("failed to save settings: %w", saveErr)
	}
	return nil
}

// Count returns the number of indexed entries
func (s *Service) Count() int {
	var n int
	_ = s.state.With(func(st *AppState) { n = st.Entries.Count() })
	return n
}

// Wait blocks until all background tasks have finished
func (s *Service) Wait() {
	s.runner.Wait()
}
