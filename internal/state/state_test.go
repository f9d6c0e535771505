package state

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type counter struct {
	n     int
	items []string
}

var _ = Describe("Guarded", func() {
	var g *Guarded[counter]

	BeforeEach(func() {
		g = New(counter{}, nil)
	})

	It("serializes access", func() {
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				Expect(g.With(func(c *counter) { c.n++ })).To(Succeed())
			}()
		}
		wg.Wait()

		var n int
		Expect(g.With(func(c *counter) { n = c.n })).To(Succeed())
		Expect(n).To(Equal(50))
	})

	It("recovers after a holder panics", func() {
		err := g.With(func(c *counter) {
			c.items = append(c.items, "written before the fault")
			panic("boom")
		})
		Expect(err).To(MatchError(ContainSubstring("boom")))
		Expect(g.Faulted()).To(BeTrue())

		var items []string
		Expect(g.With(func(c *counter) { items = c.items })).To(Succeed())
		Expect(items).To(Equal([]string{"written before the fault"}))
		Expect(g.Faulted()).To(BeFalse())
	})
})
