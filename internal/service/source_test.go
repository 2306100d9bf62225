package service_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/kubev2v/inventory-advisor/internal/events"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/service"
	"github.com/kubev2v/inventory-advisor/internal/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("source service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		holder *inventory.Holder
		srv    *service.SourceService
	)

	BeforeAll(func() {
		s, gormdb = openStore()
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		holder = inventory.NewHolder(s.Inventory())
		srv = service.NewSourceService(s, holder)
	})

	AfterEach(func() {
		cleanDB(gormdb)
	})

	Context("upload", func() {
		It("ingests a workbook and reloads the snapshot", func() {
			result, err := srv.UploadWorkbook(context.TODO(), "prod-dc1.xlsx", bytes.NewReader(workbook([]string{"web01", "db01"})))
			Expect(err).To(BeNil())
			Expect(result.Unchanged).To(BeFalse())
			Expect(result.Source.Name).To(Equal("prod-dc1"))
			Expect(result.Source.RowCount).To(Equal(2))
			Expect(result.Epoch).To(Equal(uint64(1)))

			snap := holder.Current()
			Expect(snap.Epoch()).To(Equal(uint64(1)))
			Expect(snap.VMs()).To(HaveLen(2))
			_, ok := snap.VM(inventory.Key{Source: "prod-dc1", Name: "web01"})
			Expect(ok).To(BeTrue())
		})

		It("skips a workbook whose content did not change", func() {
			content := workbook([]string{"web01"})
			_, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(content))
			Expect(err).To(BeNil())

			result, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(content))
			Expect(err).To(BeNil())
			Expect(result.Unchanged).To(BeTrue())
			Expect(result.Epoch).To(Equal(uint64(1)))
			Expect(holder.Current().Epoch()).To(Equal(uint64(1)))
		})

		It("replaces a source uploaded again with new content", func() {
			_, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(workbook([]string{"web01"})))
			Expect(err).To(BeNil())

			result, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(workbook([]string{"web01", "web02", "web03"})))
			Expect(err).To(BeNil())
			Expect(result.Unchanged).To(BeFalse())
			Expect(result.Source.RowCount).To(Equal(3))
			Expect(holder.Current().VMs()).To(HaveLen(3))

			sources, err := srv.ListSources(context.TODO(), service.NewSourceFilter())
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(1))
		})

		It("writes a workbook uploaded twice concurrently only once", func() {
			content := workbook([]string{"web01", "web02"})
			results := make(chan service.IngestResult, 2)
			for range 2 {
				go func() {
					defer GinkgoRecover()
					result, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(content))
					Expect(err).To(BeNil())
					results <- result
				}()
			}

			written := 0
			for range 2 {
				if r := <-results; !r.Unchanged {
					written++
				}
			}
			Expect(written).To(Equal(1))

			var rows int64
			Expect(gormdb.Table("inventory_rows").Count(&rows).Error).To(BeNil())
			Expect(rows).To(Equal(int64(2)))
		})

		It("rejects an empty upload", func() {
			_, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(nil))
			Expect(err).ToNot(BeNil())
			_, ok := err.(*service.ErrFileCorrupted)
			Expect(ok).To(BeTrue())
		})

		It("rejects content that is not an Excel file", func() {
			_, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader([]byte("VM,CPUs\nweb01,4\n")))
			Expect(err).ToNot(BeNil())
			_, ok := err.(*service.ErrFileCorrupted)
			Expect(ok).To(BeTrue())
			Expect(holder.Current().Epoch()).To(Equal(uint64(0)))
		})
	})

	Context("list and get", func() {
		BeforeEach(func() {
			for _, name := range []string{"zeta.xlsx", "alpha.xlsx"} {
				_, err := srv.UploadWorkbook(context.TODO(), name, bytes.NewReader(workbook([]string{"vm-" + name})))
				Expect(err).To(BeNil())
			}
		})

		It("lists sources sorted by name", func() {
			sources, err := srv.ListSources(context.TODO(), service.NewSourceFilter())
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(2))
			Expect(sources[0].Name).To(Equal("alpha"))
			Expect(sources[1].Name).To(Equal("zeta"))
		})

		It("filters sources by name", func() {
			sources, err := srv.ListSources(context.TODO(), service.NewSourceFilter(service.WithSourceNames("zeta")))
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(1))
			Expect(sources[0].Name).To(Equal("zeta"))
		})

		It("gets a source with its tables", func() {
			source, err := srv.GetSource(context.TODO(), "alpha")
			Expect(err).To(BeNil())
			Expect(source.FileName).To(Equal("alpha.xlsx"))
			Expect(source.TableRows("vInfo")).To(Equal(1))
		})

		It("fails to get a missing source", func() {
			_, err := srv.GetSource(context.TODO(), "missing")
			Expect(err).ToNot(BeNil())
			_, ok := err.(*service.ErrResourceNotFound)
			Expect(ok).To(BeTrue())
		})
	})

	Context("delete", func() {
		It("deletes a source and drops its VMs from the snapshot", func() {
			_, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(workbook([]string{"web01"})))
			Expect(err).To(BeNil())
			_, err = srv.UploadWorkbook(context.TODO(), "dr.xlsx", bytes.NewReader(workbook([]string{"web01_replica"})))
			Expect(err).To(BeNil())
			Expect(holder.Current().VMs()).To(HaveLen(2))

			Expect(srv.DeleteSource(context.TODO(), "prod")).To(Succeed())

			snap := holder.Current()
			Expect(snap.Epoch()).To(Equal(uint64(3)))
			Expect(snap.VMs()).To(HaveLen(1))
			Expect(snap.VMs()[0].Source).To(Equal("dr"))
		})

		It("fails to delete a missing source", func() {
			err := srv.DeleteSource(context.TODO(), "missing")
			Expect(err).ToNot(BeNil())
			_, ok := err.(*service.ErrResourceNotFound)
			Expect(ok).To(BeTrue())
		})
	})

	Context("ingest directory", func() {
		It("ingests every workbook once and skips broken ones", func() {
			dir := GinkgoT().TempDir()
			Expect(os.WriteFile(filepath.Join(dir, "prod.xlsx"), workbook([]string{"web01", "web02"}), 0o600)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "dr.xlsx"), workbook([]string{"web01_replica"}), 0o600)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("nope"), 0o600)).To(Succeed())

			results, err := srv.IngestDir(context.TODO(), dir)
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(2))
			for _, r := range results {
				Expect(r.Epoch).To(Equal(uint64(1)))
			}
			Expect(holder.Current().VMs()).To(HaveLen(3))

			// nothing changed, nothing reloads
			results, err = srv.IngestDir(context.TODO(), dir)
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Unchanged).To(BeTrue())
			Expect(holder.Current().Epoch()).To(Equal(uint64(1)))
		})

		It("loads the stored sources even when the directory is empty", func() {
			results, err := srv.IngestDir(context.TODO(), GinkgoT().TempDir())
			Expect(err).To(BeNil())
			Expect(results).To(BeEmpty())
			Expect(holder.Current().Epoch()).To(Equal(uint64(1)))
		})

		It("fails on a missing directory", func() {
			_, err := srv.IngestDir(context.TODO(), filepath.Join(GinkgoT().TempDir(), "missing"))
			Expect(err).ToNot(BeNil())
		})
	})

	Context("reload", func() {
		It("bumps the epoch on every reload", func() {
			epoch, err := srv.Reload(context.TODO())
			Expect(err).To(BeNil())
			Expect(epoch).To(Equal(uint64(1)))

			epoch, err = srv.Reload(context.TODO())
			Expect(err).To(BeNil())
			Expect(epoch).To(Equal(uint64(2)))
		})
	})

	Context("events", func() {
		It("publishes ingest, delete and reload events", func() {
			rec := &recordingPublisher{}
			srv = service.NewSourceService(s, holder, service.WithEventPublisher(rec))

			_, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(workbook([]string{"web01"})))
			Expect(err).To(BeNil())
			_, err = srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(workbook([]string{"web01"})))
			Expect(err).To(BeNil())
			Expect(srv.DeleteSource(context.TODO(), "prod")).To(Succeed())

			Expect(rec.kinds).To(Equal([]events.Kind{
				events.SourceIngestedKind,
				events.SnapshotReloadedKind,
				events.SourceDeletedKind,
				events.SnapshotReloadedKind,
			}))
			ingested := rec.payloads[0].(events.SourceEvent)
			Expect(ingested.Name).To(Equal("prod"))
			Expect(ingested.Rows).To(Equal(1))
			Expect(ingested.Epoch).To(Equal(uint64(1)))
			Expect(rec.payloads[3]).To(Equal(events.ReloadEvent{Epoch: 2, Sources: 0}))
		})

		It("keeps going when publishing fails", func() {
			srv = service.NewSourceService(s, holder, service.WithEventPublisher(&recordingPublisher{err: errors.New("broker down")}))

			_, err := srv.UploadWorkbook(context.TODO(), "prod.xlsx", bytes.NewReader(workbook([]string{"web01"})))
			Expect(err).To(BeNil())
		})
	})
})

type recordingPublisher struct {
	kinds    []events.Kind
	payloads []any
	err      error
}

func (r *recordingPublisher) Publish(_ context.Context, kind events.Kind, payload any) error {
	r.kinds = append(r.kinds, kind)
	r.payloads = append(r.payloads, payload)
	return r.err
}
