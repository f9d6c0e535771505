package launchable

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = Describe("Rules", func() {
	Describe("windows", func() {
		var r *Rules

		BeforeEach(func() {
			r = ForOS("windows")
		})

		DescribeTable("Accept",
			func(path string, want bool) {
				gomega.Expect(r.Accept(path)).To(gomega.Equal(want))
			},
			Entry("executable", `C:/Tools/code.exe`, true),
			Entry("upper-case extension", `C:/Tools/CODE.EXE`, true),
			Entry("shortcut", `C:/Start Menu/Code.lnk`, true),
			Entry("batch script", `C:/bin/build-all.bat`, true),
			Entry("control panel applet", `C:/Windows/main.cpl`, true),
			Entry("uninstaller", `C:/Tools/Uninstall.exe`, false),
			Entry("installer", `C:/Tools/Setup.exe`, false),
			Entry("updater", `C:/Tools/AppUpdater.exe`, false),
			Entry("shortcut named like an uninstaller", `C:/Start Menu/Uninstall Code.lnk`, true),
			Entry("text file", `C:/Tools/notes.txt`, false),
			Entry("no extension", `C:/Tools/code`, false),
		)

		It("rejects paths over the length bound", func() {
			long := `C:/` + strings.Repeat("a", MaxPathLen) + `/tool.exe`
			gomega.Expect(r.Accept(long)).To(gomega.BeFalse())
		})

		DescribeTable("Classify",
			func(path string, want Class) {
				gomega.Expect(r.Classify(path)).To(gomega.Equal(want))
			},
			Entry("lnk", `x/a.lnk`, Shortcut),
			Entry("exe", `x/a.exe`, Application),
			Entry("cmd", `x/a.cmd`, Script),
			Entry("msc", `x/a.msc`, File),
			Entry("unknown", `x/a.zip`, File),
		)

		It("has no bundles", func() {
			gomega.Expect(r.IsBundle("Foo.app")).To(gomega.BeFalse())
		})
	})

	Describe("darwin", func() {
		var r *Rules

		BeforeEach(func() {
			r = ForOS("darwin")
		})

		It("treats .app directories as bundles", func() {
			gomega.Expect(r.IsBundle("Safari.app")).To(gomega.BeTrue())
			gomega.Expect(r.IsBundle("Sound.prefPane")).To(gomega.BeTrue())
			gomega.Expect(r.IsBundle("Library")).To(gomega.BeFalse())
		})

		It("accepts application bundles and command files", func() {
			gomega.Expect(r.Accept("/Applications/Safari.app")).To(gomega.BeTrue())
			gomega.Expect(r.Classify("/Applications/Safari.app")).To(gomega.Equal(Application))
			gomega.Expect(r.Accept("/Users/me/deploy.command")).To(gomega.BeTrue())
			gomega.Expect(r.Classify("/Users/me/deploy.command")).To(gomega.Equal(Script))
		})
	})

	Describe("linux", func() {
		var r *Rules

		BeforeEach(func() {
			r = ForOS("linux")
		})

		It("treats desktop entries as shortcuts exempt from noise keywords", func() {
			gomega.Expect(r.Accept("/usr/share/applications/software-properties-updater.desktop")).To(gomega.BeTrue())
			gomega.Expect(r.Classify("/usr/share/applications/firefox.desktop")).To(gomega.Equal(Shortcut))
		})

		It("matches AppImage case-insensitively", func() {
			gomega.Expect(r.Accept("/home/me/Applications/Krita.AppImage")).To(gomega.BeTrue())
			gomega.Expect(r.Classify("/home/me/Applications/Krita.AppImage")).To(gomega.Equal(Application))
		})

		It("rejects noisy scripts", func() {
			gomega.Expect(r.Accept("/opt/tool/install.sh")).To(gomega.BeFalse())
			gomega.Expect(r.Accept("/opt/tool/run.sh")).To(gomega.BeTrue())
		})

		It("falls back to the linux table for other unix systems", func() {
			gomega.Expect(ForOS("freebsd").Accept("/usr/local/share/applications/gimp.desktop")).To(gomega.BeTrue())
		})
	})
})
