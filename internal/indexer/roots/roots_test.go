package roots

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DepthFor", func() {
	DescribeTable("assigns depth by kind and path",
		func(r Root, want int) {
			Expect(DepthFor(r)).To(Equal(want))
		},
		Entry("curated", Root{Path: "/usr/share/applications", Kind: Curated}, CuratedDepth),
		Entry("user kind", Root{Path: "/home/me/Downloads", Kind: User}, UserDepth),
		Entry("curated under documents", Root{Path: "/home/me/Documents/bin", Kind: Curated}, UserDepth),
		Entry("volume", Root{Path: "/media/me/data", Kind: Volume}, VolumeDepth),
		Entry("volume with games", Root{Path: "/media/me/Games", Kind: Volume}, VolumeSoftwareDepth),
		Entry("windows volume with programs", Root{Path: `D:\Programs`, Kind: Volume}, VolumeSoftwareDepth),
	)

	It("orders bounds from shallow to deep", func() {
		Expect(UserDepth).To(BeNumerically("<", VolumeDepth))
		Expect(VolumeDepth).To(BeNumerically("<", VolumeSoftwareDepth))
		Expect(VolumeSoftwareDepth).To(BeNumerically("<", CuratedDepth))
	})
})

var _ = Describe("Fingerprint", func() {
	It("ignores order", func() {
		a := []Root{{Path: "/a"}, {Path: "/b"}}
		b := []Root{{Path: "/b"}, {Path: "/a"}}
		Expect(Fingerprint(a)).To(Equal(Fingerprint(b)))
	})

	It("changes with the set", func() {
		a := []Root{{Path: "/a"}, {Path: "/b"}}
		b := []Root{{Path: "/a"}, {Path: "/c"}}
		Expect(Fingerprint(a)).NotTo(Equal(Fingerprint(b)))
	})
})

var _ = Describe("Discoverer", func() {
	var (
		tmp    string
		binDir string
		apps   string
		docs   string
		vol    string
		d      *Discoverer
		found  []Root
	)

	BeforeEach(func() {
		tmp = GinkgoT().TempDir()
		binDir = filepath.Join(tmp, "bin")
		apps = filepath.Join(tmp, "applications")
		docs = filepath.Join(tmp, "Documents")
		vol = filepath.Join(tmp, "media", "Games")
		for _, dir := range []string{binDir, apps, docs, vol} {
			Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		}
		Expect(os.WriteFile(filepath.Join(tmp, "plain-file"), nil, 0o644)).To(Succeed())

		d = &Discoverer{
			Home: tmp,
			PathEnv: strings.Join([]string{
				binDir,
				binDir + string(filepath.Separator),
				filepath.Join(tmp, "missing"),
				filepath.Join(tmp, "plain-file"),
				"",
			}, string(os.PathListSeparator)),
			Extra: func() []string { return []string{apps} },
			Known: func(home string) []Root {
				return []Root{
					{Path: apps, Kind: Curated},
					{Path: filepath.Join(home, "Documents"), Kind: User},
				}
			},
			Installed: func() []string { return []string{binDir} },
			Volumes: func(context.Context) ([]string, error) {
				return []string{vol}, nil
			},
		}
	})

	JustBeforeEach(func() {
		found = d.Discover(context.Background())
	})

	It("collapses duplicates across sources", func() {
		Expect(found).To(ConsistOf(
			Root{Path: binDir, Kind: Curated},
			Root{Path: apps, Kind: Curated},
			Root{Path: docs, Kind: User},
			Root{Path: vol, Kind: Volume},
		))
	})

	It("drops paths that do not exist or are not directories", func() {
		for _, r := range found {
			Expect(r.Path).NotTo(HaveSuffix("missing"))
			Expect(r.Path).NotTo(HaveSuffix("plain-file"))
		}
	})

	Context("when the same path comes from two kinds", func() {
		BeforeEach(func() {
			d.Volumes = func(context.Context) ([]string, error) {
				return []string{apps}, nil
			}
		})

		It("keeps the kind with the deeper bound", func() {
			Expect(found).To(ContainElement(Root{Path: apps, Kind: Curated}))
			Expect(found).NotTo(ContainElement(Root{Path: apps, Kind: Volume}))
		})
	})

	Context("when volume discovery fails", func() {
		BeforeEach(func() {
			d.Volumes = func(context.Context) ([]string, error) {
				return nil, errors.New("no partitions")
			}
		})

		It("still returns the other roots", func() {
			Expect(found).To(HaveLen(3))
		})
	})
})
