// Package rank scores indexed entries against a query.
package rank

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/0xADE/ade-omnibox/internal/habits"
	"github.com/0xADE/ade-omnibox/internal/indexer"
)

// Weights are the additive terms of a score
type Weights struct {
	// FuzzyFloor is added to every fuzzy match so that a match always counts
	FuzzyFloor int64
	// WeakFuzzy is the fuzzy score below which phonetic aliases are tried
	WeakFuzzy int64
	// PhoneticFull is added when the full transliteration contains the query
	PhoneticFull int64
	// Acronym is added when the acronym contains the query
	Acronym int64
	// Exact is added when the title or acronym equals the query
	Exact int64
	// Prefix is added when the title or transliteration starts with the query
	Prefix int64
	// Popularity is added per recorded launch of the entry
	Popularity int64
	// LengthPenalty is subtracted per rune of the title
	LengthPenalty int64
	// FilenameSubstring is added when the bare filename contains the query
	FilenameSubstring int64
}

// DefaultWeights returns the weights used by the launcher
func DefaultWeights() Weights {
	return Weights{
		FuzzyFloor:        20,
		WeakFuzzy:         30,
		PhoneticFull:      40,
		Acronym:           60,
		Exact:             1000,
		Prefix:            200,
		Popularity:        5,
		LengthPenalty:     1,
		FilenameSubstring: 30,
	}
}

// History supplies the per-query weight of an identity
type History interface {
	Weight(query, identity string) int64
}

// Ranker orders entries for a query
type Ranker struct {
	Weights Weights
}

// New returns a Ranker with the given weights
func New(w Weights) *Ranker {
	return &Ranker{Weights: w}
}

// Search returns at most limit entries matching query, best first, with
// Score set. An empty query lists used entries by launch count. A limit of
// zero or less means no limit.
func (r *Ranker) Search(entries []indexer.Entry, history History, query string, limit int) []indexer.Entry {
	q := habits.Normalize(query)
	var results []indexer.Entry
	if q == "" {
		results = r.recent(entries)
	} else {
		results = r.match(entries, history, q)
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (r *Ranker) recent(entries []indexer.Entry) []indexer.Entry {
	var results []indexer.Entry
	for _, e := range entries {
		if e.UseCount == 0 {
			continue
		}
		e.Score = int64(e.UseCount) * r.Weights.Popularity
		results = append(results, e)
	}
	slices.SortStableFunc(results, func(a, b indexer.Entry) int {
		return cmp.Compare(b.UseCount, a.UseCount)
	})
	return results
}

func (r *Ranker) match(entries []indexer.Entry, history History, q string) []indexer.Entry {
	titleScores := r.fuzzyScores(q, titleSource(entries))
	fileScores := r.fuzzyScores(q, filenameSource(entries))

	var results []indexer.Entry
	for i, e := range entries {
		text := r.textScore(e, q, max(titleScores[i], fileScores[i]))

		var habit int64
		if history != nil {
			habit = history.Weight(q, e.Identity)
		}
		if text == 0 && habit == 0 {
			continue
		}

		e.Score = text + habit +
			int64(e.UseCount)*r.Weights.Popularity -
			int64(utf8.RuneCountInString(e.Title))*r.Weights.LengthPenalty
		results = append(results, e)
	}

	slices.SortStableFunc(results, func(a, b indexer.Entry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results
}

// textScore sums the terms derived from the query text alone. Zero means
// the entry does not match at all.
func (r *Ranker) textScore(e indexer.Entry, q string, fz int64) int64 {
	w := r.Weights
	score := fz

	if fz < w.WeakFuzzy {
		if strings.Contains(e.PhoneticFull, q) {
			score += w.PhoneticFull
		}
		if strings.Contains(e.PhoneticAcronym, q) {
			score += w.Acronym
		}
	}

	title := strings.ToLower(e.Title)
	if title == q || e.PhoneticAcronym == q {
		score += w.Exact
	}
	if strings.HasPrefix(title, q) || strings.HasPrefix(e.PhoneticFull, q) {
		score += w.Prefix
	}
	if strings.Contains(strings.ToLower(e.Filename()), q) {
		score += w.FilenameSubstring
	}
	return score
}

// fuzzyScores returns the fuzzy score of every element of src, zero for
// the ones that do not match
func (r *Ranker) fuzzyScores(q string, src fuzzy.Source) []int64 {
	scores := make([]int64, src.Len())
	for _, m := range fuzzy.FindFrom(q, src) {
		scores[m.Index] = max(int64(m.Score)+r.Weights.FuzzyFloor, 1)
	}
	return scores
}

type titleSource []indexer.Entry

func (s titleSource) String(i int) string { return s[i].Title }
func (s titleSource) Len() int            { return len(s) }

type filenameSource []indexer.Entry

func (s filenameSource) String(i int) string { return s[i].Filename() }
func (s filenameSource) Len() int            { return len(s) }
