package store_test

import (
	"context"
	"time"

	"github.com/kubev2v/inventory-advisor/internal/store"
	"github.com/kubev2v/inventory-advisor/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("source store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		gormdb = openDB()
		s = store.NewStore(gormdb)
	})

	AfterAll(func() {
		s.Close()
	})

	Context("list", func() {
		It("successfully list all the sources ordered by name", func() {
			for _, name := range []string{"zeta", "alpha", "mid"} {
				_, err := s.Source().Create(context.TODO(), *model.NewSource(name, name+".xlsx", "sum-"+name))
				Expect(err).To(BeNil())
			}

			sources, err := s.Source().List(context.TODO(), store.NewSourceQueryFilter())
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(3))
			Expect(sources[0].Name).To(Equal("alpha"))
			Expect(sources[2].Name).To(Equal("zeta"))
		})

		It("successfully list the sources filtered by name", func() {
			for _, name := range []string{"prod", "dr", "lab"} {
				_, err := s.Source().Create(context.TODO(), *model.NewSource(name, name+".xlsx", "sum-"+name))
				Expect(err).To(BeNil())
			}

			sources, err := s.Source().List(context.TODO(), store.NewSourceQueryFilter().ByName("prod", "dr"))
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(2))
		})

		It("successfully list the sources filtered by checksum", func() {
			_, err := s.Source().Create(context.TODO(), *model.NewSource("prod", "prod.xlsx", "aaa"))
			Expect(err).To(BeNil())
			_, err = s.Source().Create(context.TODO(), *model.NewSource("dr", "dr.xlsx", "bbb"))
			Expect(err).To(BeNil())

			sources, err := s.Source().List(context.TODO(), store.NewSourceQueryFilter().ByChecksum("bbb"))
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(1))
			Expect(sources[0].Name).To(Equal("dr"))
		})

		It("successfully list the sources with options", func() {
			old := *model.NewSource("old", "old.xlsx", "a")
			old.IngestedAt = time.Now().Add(-48 * time.Hour)
			recent := *model.NewSource("recent", "recent.xlsx", "b")
			recent.IngestedAt = time.Now()
			for _, src := range []model.Source{old, recent} {
				_, err := s.Source().Create(context.TODO(), src)
				Expect(err).To(BeNil())
			}

			sources, err := s.Source().List(context.TODO(), nil, store.NewSourceQueryOptions().WithSortOrder(store.SortByIngestedTime).WithLimit(1))
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(1))
			Expect(sources[0].Name).To(Equal("recent"))

			sources, err = s.Source().List(context.TODO(), store.NewSourceQueryFilter().IngestedBefore(time.Now().Add(-time.Hour)))
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(1))
			Expect(sources[0].Name).To(Equal("old"))
		})

		It("list all the sources -- no sources", func() {
			sources, err := s.Source().List(context.TODO(), store.NewSourceQueryFilter())
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(0))
		})

		AfterEach(func() {
			cleanDB(gormdb)
		})
	})

	Context("get", func() {
		It("successfully get a source with its tables", func() {
			_, err := s.Inventory().Replace(context.TODO(), *model.NewSource("prod", "prod.xlsx", "abc"), sourceData("prod", 2, 1))
			Expect(err).To(BeNil())

			source, err := s.Source().Get(context.TODO(), "prod")
			Expect(err).To(BeNil())
			Expect(source.FileName).To(Equal("prod.xlsx"))
			Expect(source.RowCount).To(Equal(3))
			Expect(source.Tables).To(HaveLen(2))
			Expect(source.TableRows("vInfo")).To(Equal(2))
		})

		It("failed to get a source -- not found", func() {
			source, err := s.Source().Get(context.TODO(), "missing")
			Expect(err).To(MatchError(store.ErrRecordNotFound))
			Expect(source).To(BeNil())
		})

		AfterEach(func() {
			cleanDB(gormdb)
		})
	})

	Context("create", func() {
		It("successfully creates a source", func() {
			source, err := s.Source().Create(context.TODO(), *model.NewSource("prod", "prod.xlsx", "abc"))
			Expect(err).To(BeNil())
			Expect(source.ID.String()).NotTo(BeEmpty())

			count := 0
			tx := gormdb.Raw("SELECT COUNT(*) FROM sources;").Scan(&count)
			Expect(tx.Error).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("fails to create a source -- duplicate name", func() {
			_, err := s.Source().Create(context.TODO(), *model.NewSource("prod", "prod.xlsx", "abc"))
			Expect(err).To(BeNil())

			_, err = s.Source().Create(context.TODO(), *model.NewSource("prod", "other.xlsx", "def"))
			Expect(err).To(MatchError(store.ErrDuplicateKey))
		})

		AfterEach(func() {
			cleanDB(gormdb)
		})
	})

	Context("delete", func() {
		It("successfully delete a source and its rows", func() {
			_, err := s.Inventory().Replace(context.TODO(), *model.NewSource("prod", "prod.xlsx", "abc"), sourceData("prod", 4, 2))
			Expect(err).To(BeNil())
			_, err = s.Inventory().Replace(context.TODO(), *model.NewSource("dr", "dr.xlsx", "def"), sourceData("dr", 1, 0))
			Expect(err).To(BeNil())

			err = s.Source().Delete(context.TODO(), "prod")
			Expect(err).To(BeNil())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) FROM sources;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
			Expect(gormdb.Raw("SELECT COUNT(*) FROM inventory_rows;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
			Expect(gormdb.Raw("SELECT COUNT(*) FROM source_tables;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("fails to delete a source -- not found", func() {
			err := s.Source().Delete(context.TODO(), "missing")
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		AfterEach(func() {
			cleanDB(gormdb)
		})
	})
})
