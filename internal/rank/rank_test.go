package rank

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/0xADE/ade-omnibox/internal/habits"
	"github.com/0xADE/ade-omnibox/internal/indexer"
	"github.com/0xADE/ade-omnibox/internal/indexer/launchable"
	"github.com/0xADE/ade-omnibox/internal/indexer/normalize"
)

func entry(identity string, uses uint32) indexer.Entry {
	names := normalize.Normalize(identity)
	return indexer.Entry{
		Identity:        identity,
		Title:           names.Title,
		PhoneticFull:    names.PhoneticFull,
		PhoneticAcronym: names.PhoneticAcronym,
		Class:           launchable.Shortcut,
		UseCount:        uses,
	}
}

func identities(entries []indexer.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Identity)
	}
	return out
}

var _ = Describe("Ranker", func() {
	var (
		r       *Ranker
		history *habits.Table
	)

	BeforeEach(func() {
		r = New(DefaultWeights())
		history = habits.New()
	})

	Context("with an empty query", func() {
		It("lists used entries by use count", func() {
			entries := []indexer.Entry{entry("/a/five.desktop", 5), entry("/a/zero.desktop", 0), entry("/a/two.desktop", 2)}
			got := r.Search(entries, history, "   ", 100)
			Expect(identities(got)).To(Equal([]string{"/a/five.desktop", "/a/two.desktop"}))
		})

		It("honours the limit", func() {
			entries := []indexer.Entry{entry("/a/one.desktop", 1), entry("/a/two.desktop", 2)}
			Expect(r.Search(entries, history, "", 1)).To(HaveLen(1))
		})
	})

	Context("with a query", func() {
		It("excludes entries without any signal", func() {
			entries := []indexer.Entry{entry("/a/Firefox.desktop", 0), entry("/a/Terminal.desktop", 0)}
			Expect(identities(r.Search(entries, history, "fire", 100))).To(Equal([]string{"/a/Firefox.desktop"}))
		})

		It("matches case-insensitively", func() {
			entries := []indexer.Entry{entry("/a/Firefox.desktop", 0)}
			Expect(r.Search(entries, history, "FIREFOX", 100)).To(HaveLen(1))
		})

		It("puts entries with history for the query first", func() {
			entries := []indexer.Entry{entry("/a/Firefox.desktop", 0), entry("/a/Fire Starter.desktop", 0)}
			history.Record("fire", "/a/Fire Starter.desktop")

			got := r.Search(entries, history, "fire", 100)
			Expect(identities(got)).To(Equal([]string{"/a/Fire Starter.desktop", "/a/Firefox.desktop"}))
			Expect(got[0].Score).To(BeNumerically(">=", habits.Scale))
		})

		It("keeps entries that only have history", func() {
			entries := []indexer.Entry{entry("/a/Terminal.desktop", 0)}
			history.Record("zz", "/a/Terminal.desktop")
			Expect(r.Search(entries, history, "zz", 100)).To(HaveLen(1))
		})

		It("ranks an exact acronym above a partial fuzzy match", func() {
			entries := []indexer.Entry{entry("/a/WinXray.desktop", 0), entry("/a/微信.desktop", 0)}
			got := r.Search(entries, history, "wx", 100)
			Expect(got).NotTo(BeEmpty())
			Expect(got[0].Identity).To(Equal("/a/微信.desktop"))
		})

		It("finds non-Latin titles by their full transliteration", func() {
			entries := []indexer.Entry{entry("/a/微信.desktop", 0)}
			Expect(r.Search(entries, history, "weixin", 100)).To(HaveLen(1))
		})

		It("falls back to the filename when the title differs", func() {
			e := entry("/usr/share/applications/gedit.desktop", 0)
			e.Title = "Text Editor"
			Expect(r.Search([]indexer.Entry{e}, history, "gedit", 100)).To(HaveLen(1))
		})

		It("prefers the exact title", func() {
			entries := []indexer.Entry{entry("/a/Vim Tutor.desktop", 0), entry("/a/Vim.desktop", 0)}
			Expect(r.Search(entries, history, "vim", 100)[0].Identity).To(Equal("/a/Vim.desktop"))
		})

		It("boosts generally popular entries", func() {
			entries := []indexer.Entry{entry("/a/Tool A.desktop", 0), entry("/b/Tool B.desktop", 40)}
			Expect(r.Search(entries, history, "tool", 100)[0].Identity).To(Equal("/b/Tool B.desktop"))
		})

		It("caps the result count", func() {
			var entries []indexer.Entry
			for i := range 10 {
				entries = append(entries, entry(fmt.Sprintf("/a/tool%d.desktop", i), 0))
			}
			Expect(r.Search(entries, history, "tool", 3)).To(HaveLen(3))
		})

		It("does not modify its input", func() {
			entries := []indexer.Entry{entry("/a/Firefox.desktop", 0)}
			r.Search(entries, history, "fire", 100)
			Expect(entries[0].Score).To(BeZero())
		})

		It("works without history", func() {
			entries := []indexer.Entry{entry("/a/Firefox.desktop", 0)}
			Expect(r.Search(entries, nil, "fire", 100)).To(HaveLen(1))
		})
	})
})
