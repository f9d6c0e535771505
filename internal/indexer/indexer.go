package indexer

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/0xADE/ade-omnibox/internal/indexer/crawler"
	"github.com/0xADE/ade-omnibox/internal/indexer/launchable"
	"github.com/0xADE/ade-omnibox/internal/indexer/roots"
)

// Indexer turns the discovered roots into a deduplicated candidate list
type Indexer struct {
	discoverer *roots.Discoverer
	crawler    *crawler.Crawler
	rules      *launchable.Rules
	logger     *log.Logger
}

// NewIndexer creates an indexer crawling with the given number of workers
func NewIndexer(d *roots.Discoverer, rules *launchable.Rules, workers int, logger *log.Logger) *Indexer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if rules == nil {
		rules = launchable.Default()
	}
	return &Indexer{
		discoverer: d,
		crawler:    crawler.New(workers, rules.IsBundle, logger.WithPrefix("crawler")),
		rules:      rules,
		logger:     logger,
	}
}

// Roots returns the current root set
func (idx *Indexer) Roots(ctx context.Context) []roots.Root {
	if idx.discoverer == nil {
		return nil
	}
	return idx.discoverer.Discover(ctx)
}

// Scan crawls rs and returns the candidates found, deduplicated first by
// path and then by title, ordered by title length
func (idx *Indexer) Scan(ctx context.Context, rs []roots.Root) ([]Entry, error) {
	targets := make([]crawler.Target, 0, len(rs))
	for _, r := range rs {
		targets = append(targets, crawler.Target{Path: r.Path, MaxDepth: roots.DepthFor(r)})
	}

	rawChan := make(chan crawler.Entry, 256)
	var (
		wg       sync.WaitGroup
		crawlErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		crawlErr = idx.crawler.Crawl(ctx, targets, rawChan)
	}()

	var (
		entries []Entry
		seen    int
	)
	for raw := range rawChan {
		seen++
		if e, ok := Build(raw.Path, idx.rules); ok {
			entries = append(entries, e)
		}
	}
	wg.Wait()

	if crawlErr != nil {
		return nil, crawlErr
	}

	entries = Dedup(entries, ByIdentity)
	entries = Dedup(entries, ByTitle)
	SortByTitle(entries)

	idx.logger.Debug("scan finished", "roots", len(rs), "visited", seen, "indexed", len(entries))
	return entries, nil
}
