package store_test

import (
	"context"

	st "github.com/kubev2v/inventory-advisor/internal/store"
	"github.com/kubev2v/inventory-advisor/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		gormDB = openDB()
		store = st.NewStore(gormDB)
		Expect(store).ToNot(BeNil())
	})

	AfterAll(func() {
		store.Close()
	})

	Context("transaction", func() {
		It("insert a source successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			source, err := store.Source().Create(ctx, *model.NewSource("prod", "prod.xlsx", "abc"))
			Expect(err).To(BeNil())
			Expect(source).ToNot(BeNil())

			_, cerr := st.Commit(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from sources;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rollback a source successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			source, err := store.Source().Create(ctx, *model.NewSource("prod", "prod.xlsx", "abc"))
			Expect(err).To(BeNil())
			Expect(source).ToNot(BeNil())

			// the transaction sees its own write
			sources, err := store.Source().List(ctx, st.NewSourceQueryFilter())
			Expect(err).To(BeNil())
			Expect(sources).To(HaveLen(1))

			_, rerr := st.Rollback(ctx)
			Expect(rerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from sources;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))
		})

		It("nested transaction contexts join the outer one", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			inner, err := store.NewTransactionContext(ctx)
			Expect(err).To(BeNil())
			Expect(st.FromContext(inner)).To(BeIdenticalTo(st.FromContext(ctx)))

			_, err = st.Rollback(ctx)
			Expect(err).To(BeNil())
		})

		It("commit and rollback without a transaction are no-ops", func() {
			ctx := context.TODO()
			_, err := st.Commit(ctx)
			Expect(err).To(BeNil())
			_, err = st.Rollback(ctx)
			Expect(err).To(BeNil())
			Expect(st.FromContext(ctx)).To(BeNil())
		})

		AfterEach(func() {
			cleanDB(gormDB)
		})
	})

	Context("statistics", func() {
		It("counts sources and rows", func() {
			_, err := store.Inventory().Replace(context.TODO(), *model.NewSource("prod", "prod.xlsx", "abc"), sourceData("prod", 3, 1))
			Expect(err).To(BeNil())
			_, err = store.Inventory().Replace(context.TODO(), *model.NewSource("dr", "dr.xlsx", "def"), sourceData("dr", 2, 0))
			Expect(err).To(BeNil())

			stats, err := store.Statistics(context.TODO())
			Expect(err).To(BeNil())
			Expect(stats.TotalSources).To(Equal(2))
			Expect(stats.TotalVMs).To(Equal(5))
			Expect(stats.TotalRows).To(Equal(6))
			Expect(stats.Tables).To(Equal([]model.TableStats{{Table: "vHost", Rows: 1}, {Table: "vInfo", Rows: 5}}))
		})

		AfterEach(func() {
			cleanDB(gormDB)
		})
	})
})
