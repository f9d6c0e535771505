package settings

import (
	. "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = Describe("Settings", func() {
	It("defaults to a hundred results without autostart", func() {
		gomega.Expect(Default()).To(gomega.Equal(Settings{MaxResults: 100, EnableAutostart: false}))
		gomega.Expect(Default().Validate()).To(gomega.Succeed())
	})

	DescribeTable("rejects non-positive caps",
		func(max int) {
			gomega.Expect(Settings{MaxResults: max}.Validate()).To(gomega.MatchError(ErrInvalidMaxResults))
		},
		Entry("zero", 0),
		Entry("negative", -3),
	)
})
