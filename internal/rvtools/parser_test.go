package rvtools_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/rvtools"
)

type sheet struct {
	name    string
	headers []string
	rows    [][]any
}

func columnToLetter(col int) string {
	name, _ := excelize.ColumnNumberToName(col + 1)
	return name
}

func buildWorkbook(sheets ...sheet) []byte {
	f := excelize.NewFile()
	defer f.Close()

	for _, s := range sheets {
		_, err := f.NewSheet(s.name)
		Expect(err).To(Succeed())
		for col, h := range s.headers {
			Expect(f.SetCellValue(s.name, columnToLetter(col)+"1", h)).To(Succeed())
		}
		for r, row := range s.rows {
			for col, v := range row {
				if v == nil {
					continue
				}
				Expect(f.SetCellValue(s.name, fmt.Sprintf("%s%d", columnToLetter(col), r+2), v)).To(Succeed())
			}
		}
	}
	if len(sheets) > 0 {
		Expect(f.DeleteSheet("Sheet1")).To(Succeed())
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	Expect(err).To(Succeed())
	return buf.Bytes()
}

func sampleWorkbook() []byte {
	return buildWorkbook(
		sheet{
			name:    "vInfo",
			headers: []string{"VM", "Powerstate", "CPUs", "Memory", "Host", "Datacenter", "Annotation", "Annotation"},
			rows: [][]any{
				{"web01", "poweredOn", 4, 8192, "esx01", "dc-a", "frontend", "team-a"},
				{"db01", "poweredOff", 8, 32768.5, "esx02", "dc-a", nil, nil},
				{},
			},
		},
		sheet{
			name:    "vHost",
			headers: []string{"Host", "# Cores", "# Memory", "BIOS Date"},
			rows: [][]any{
				{"esx01", 32, 524288, time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)},
			},
		},
		sheet{
			name:    "vSource",
			headers: []string{"Fullname"},
			rows:    [][]any{{"vCenter"}},
		},
	)
}

var _ = Describe("Parse", func() {
	It("reads known sheets into raw tables", func() {
		src, err := rvtools.Parse(context.TODO(), "prod", sampleWorkbook())
		Expect(err).To(BeNil())

		Expect(src.Name).To(Equal("prod"))
		Expect(src.Tables).To(HaveLen(2))
		Expect(src.Tables).To(HaveKey(inventory.TableVInfo))
		Expect(src.Tables).To(HaveKey(inventory.TableVHost))

		vinfo := src.Tables[inventory.TableVInfo]
		Expect(vinfo.Columns).To(Equal([]string{"VM", "Powerstate", "CPUs", "Memory", "Host", "Datacenter", "Annotation", "Annotation.1"}))
		// the empty row is dropped
		Expect(vinfo.Rows).To(HaveLen(2))
		Expect(vinfo.Rows[0]).To(HaveKeyWithValue("Annotation.1", "team-a"))
		Expect(vinfo.Rows[1]).NotTo(HaveKey("Annotation"))
	})

	It("produces records the snapshot can type", func() {
		src, err := rvtools.Parse(context.TODO(), "prod", sampleWorkbook())
		Expect(err).To(BeNil())

		snap := inventory.NewSnapshot(1, []inventory.SourceData{src})
		vm, ok := snap.VM(inventory.Key{Source: "prod", Name: "db01"})
		Expect(ok).To(BeTrue())
		Expect(vm.PowerState).To(Equal(inventory.PowerStateOff))
		Expect(vm.CPUs).To(Equal(8))
		Expect(vm.MemoryMiB).To(Equal(32768.5))

		host, ok := snap.Host(inventory.Key{Source: "prod", Name: "esx01"})
		Expect(ok).To(BeTrue())
		Expect(host.PhysicalCores()).To(Equal(32))
		Expect(host.BIOSDate.Year()).To(Equal(2019))
	})

	It("matches sheet names case-insensitively", func() {
		content := buildWorkbook(sheet{name: "VINFO", headers: []string{"VM"}, rows: [][]any{{"a"}}})

		src, err := rvtools.Parse(context.TODO(), "x", content)
		Expect(err).To(BeNil())
		Expect(src.Tables[inventory.TableVInfo].Rows).To(HaveLen(1))
	})

	It("rejects content that is not a workbook", func() {
		_, err := rvtools.Parse(context.TODO(), "x", []byte("VM,CPUs\nweb01,4\n"))
		Expect(err).To(MatchError(rvtools.ErrNotWorkbook))

		_, err = rvtools.Parse(context.TODO(), "x", nil)
		Expect(err).To(MatchError(rvtools.ErrNotWorkbook))
	})

	It("rejects a workbook without RVTools sheets", func() {
		_, err := rvtools.Parse(context.TODO(), "x", buildWorkbook())
		Expect(err).To(MatchError(rvtools.ErrNoKnownSheets))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.TODO())
		cancel()
		_, err := rvtools.Parse(ctx, "x", sampleWorkbook())
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("workbook names", func() {
	DescribeTable("SourceName",
		func(path, want string) {
			Expect(rvtools.SourceName(path)).To(Equal(want))
		},
		Entry("plain", "prod.xlsx", "prod"),
		Entry("nested", "/data/rvtools/dc-east.xlsm", "dc-east"),
		Entry("dots", "export.2024.05.xlsx", "export.2024.05"),
	)

	DescribeTable("IsWorkbookName",
		func(path string, want bool) {
			Expect(rvtools.IsWorkbookName(path)).To(Equal(want))
		},
		Entry("xlsx", "a.xlsx", true),
		Entry("upper case", "A.XLSX", true),
		Entry("csv", "a.csv", false),
		Entry("lock file", "~$a.xlsx", false),
		Entry("hidden", ".a.xlsx", false),
	)

	It("checksums content", func() {
		Expect(rvtools.Checksum([]byte("a"))).To(HaveLen(64))
		Expect(rvtools.Checksum([]byte("a"))).NotTo(Equal(rvtools.Checksum([]byte("b"))))
	})
})

var _ = Describe("DirLoader", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "prod.xlsx"), sampleWorkbook(), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "dr.xlsx"), sampleWorkbook(), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("nope"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "~$prod.xlsx"), []byte("lock"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600)).To(Succeed())
	})

	It("lists workbooks by source name", func() {
		books, err := rvtools.ScanDir(dir)
		Expect(err).To(BeNil())
		Expect(books).To(HaveLen(3))
		Expect(books[0].Source).To(Equal("broken"))
		Expect(books[1].Source).To(Equal("dr"))
		Expect(books[2].Source).To(Equal("prod"))
	})

	It("loads every parsable workbook", func() {
		sources, err := rvtools.NewDirLoader(dir).Load(context.TODO())
		Expect(err).To(BeNil())
		Expect(sources).To(HaveLen(2))
		Expect(sources[0].Name).To(Equal("dr"))
		Expect(sources[1].Name).To(Equal("prod"))
	})

	It("fails when the directory is missing", func() {
		_, err := rvtools.NewDirLoader(filepath.Join(dir, "missing")).Load(context.TODO())
		Expect(err).NotTo(BeNil())
	})
})

var _ = Describe("Watcher", func() {
	It("fires once per burst of workbook changes", func() {
		dir := GinkgoT().TempDir()
		var calls int32
		w := rvtools.NewWatcher(dir, 200*time.Millisecond, func(context.Context) {
			atomic.AddInt32(&calls, 1)
		})

		ctx, cancel := context.WithCancel(context.TODO())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		// give the watcher time to register the directory
		time.Sleep(100 * time.Millisecond)
		path := filepath.Join(dir, "prod.xlsx")
		for i := 0; i < 3; i++ {
			Expect(os.WriteFile(path, sampleWorkbook(), 0o600)).To(Succeed())
		}
		Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600)).To(Succeed())

		Eventually(func() int32 { return atomic.LoadInt32(&calls) }, 2*time.Second, 20*time.Millisecond).Should(Equal(int32(1)))
		Consistently(func() int32 { return atomic.LoadInt32(&calls) }, 400*time.Millisecond, 50*time.Millisecond).Should(Equal(int32(1)))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})
