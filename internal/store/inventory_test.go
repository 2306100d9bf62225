package store_test

import (
	"context"
	"fmt"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/store"
	"github.com/kubev2v/inventory-advisor/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

// sourceData builds a workbook with vms vInfo rows and, when hosts > 0, a vHost sheet.
func sourceData(name string, vms, hosts int) inventory.SourceData {
	vinfo := inventory.RawTable{Columns: []string{"VM", "Powerstate", "CPUs"}}
	for i := 0; i < vms; i++ {
		vinfo.Rows = append(vinfo.Rows, inventory.Record{
			"VM":         fmt.Sprintf("%s-vm%02d", name, i),
			"Powerstate": "poweredOn",
			"CPUs":       "4",
		})
	}
	data := inventory.SourceData{
		Name:   name,
		Tables: map[inventory.TableName]inventory.RawTable{inventory.TableVInfo: vinfo},
	}
	if hosts > 0 {
		vhost := inventory.RawTable{Columns: []string{"Host", "# Cores"}}
		for i := 0; i < hosts; i++ {
			vhost.Rows = append(vhost.Rows, inventory.Record{"Host": fmt.Sprintf("esx%02d", i), "# Cores": "16"})
		}
		data.Tables[inventory.TableVHost] = vhost
	}
	return data
}

var _ = Describe("inventory store", Ordered, func() {
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

	Context("replace", func() {
		It("stores every row of a new source", func() {
			source, err := s.Inventory().Replace(context.TODO(), *model.NewSource("prod", "prod.xlsx", "abc"), sourceData("prod", 3, 2))
			Expect(err).To(BeNil())
			Expect(source.RowCount).To(Equal(5))
			Expect(source.IngestedAt.IsZero()).To(BeFalse())
			Expect(source.Tables).To(HaveLen(2))

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) FROM inventory_rows;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(5))
		})

		It("replaces the rows of an existing source and keeps its id", func() {
			first, err := s.Inventory().Replace(context.TODO(), *model.NewSource("prod", "prod.xlsx", "abc"), sourceData("prod", 3, 2))
			Expect(err).To(BeNil())

			second, err := s.Inventory().Replace(context.TODO(), *model.NewSource("prod", "prod-v2.xlsx", "def"), sourceData("prod", 1, 0))
			Expect(err).To(BeNil())
			Expect(second.ID).To(Equal(first.ID))
			Expect(second.RowCount).To(Equal(1))

			stored, err := s.Source().Get(context.TODO(), "prod")
			Expect(err).To(BeNil())
			Expect(stored.Checksum).To(Equal("def"))
			Expect(stored.FileName).To(Equal("prod-v2.xlsx"))
			Expect(stored.Tables).To(HaveLen(1))

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) FROM inventory_rows;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
			Expect(gormdb.Raw("SELECT COUNT(*) FROM sources;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("stores a workbook without rows", func() {
			data := inventory.SourceData{
				Name:   "empty",
				Tables: map[inventory.TableName]inventory.RawTable{inventory.TableVInfo: {Columns: []string{"VM"}}},
			}
			source, err := s.Inventory().Replace(context.TODO(), *model.NewSource("empty", "empty.xlsx", "abc"), data)
			Expect(err).To(BeNil())
			Expect(source.RowCount).To(Equal(0))
			Expect(source.Tables).To(HaveLen(1))
		})

		It("rolls back with the outer transaction", func() {
			ctx, err := s.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = s.Inventory().Replace(ctx, *model.NewSource("prod", "prod.xlsx", "abc"), sourceData("prod", 2, 0))
			Expect(err).To(BeNil())

			_, err = store.Rollback(ctx)
			Expect(err).To(BeNil())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) FROM inventory_rows;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(0))
		})

		AfterEach(func() {
			cleanDB(gormdb)
		})
	})

	Context("load", func() {
		It("reads every source back in name and row order", func() {
			_, err := s.Inventory().Replace(context.TODO(), *model.NewSource("prod", "prod.xlsx", "abc"), sourceData("prod", 3, 1))
			Expect(err).To(BeNil())
			_, err = s.Inventory().Replace(context.TODO(), *model.NewSource("dr", "dr.xlsx", "def"), sourceData("dr", 2, 0))
			Expect(err).To(BeNil())

			data, err := s.Inventory().Load(context.TODO())
			Expect(err).To(BeNil())
			Expect(data).To(HaveLen(2))
			Expect(data[0].Name).To(Equal("dr"))
			Expect(data[1].Name).To(Equal("prod"))

			vinfo := data[1].Tables[inventory.TableVInfo]
			Expect(vinfo.Columns).To(Equal([]string{"VM", "Powerstate", "CPUs"}))
			Expect(vinfo.Rows).To(HaveLen(3))
			Expect(vinfo.Rows[0]["VM"]).To(Equal("prod-vm00"))
			Expect(vinfo.Rows[2]["VM"]).To(Equal("prod-vm02"))
			Expect(data[1].Tables).To(HaveKey(inventory.TableVHost))
			Expect(data[0].Tables).NotTo(HaveKey(inventory.TableVHost))
		})

		It("builds a snapshot from the loaded data", func() {
			_, err := s.Inventory().Replace(context.TODO(), *model.NewSource("prod", "prod.xlsx", "abc"), sourceData("prod", 2, 1))
			Expect(err).To(BeNil())

			holder := inventory.NewHolder(inventory.LoaderFunc(s.Inventory().Load))
			snap, err := holder.Reload(context.TODO())
			Expect(err).To(BeNil())
			Expect(snap.VMs()).To(HaveLen(2))
			Expect(snap.VMs()[0].CPUs).To(Equal(4))
			Expect(snap.VMs()[0].Source).To(Equal("prod"))
		})

		It("returns nothing on an empty store", func() {
			data, err := s.Inventory().Load(context.TODO())
			Expect(err).To(BeNil())
			Expect(data).To(BeEmpty())
		})

		AfterEach(func() {
			cleanDB(gormdb)
		})
	})
})
