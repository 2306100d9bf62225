package service_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/kubev2v/inventory-advisor/internal/config"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/store"
	"github.com/kubev2v/inventory-advisor/pkg/migrations"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func TestService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Service Suite")
}

var vinfoColumns = []string{"VM", "Powerstate", "CPUs", "Memory", "Host", "Cluster", "Datacenter", "OS according to the configuration file"}

// workbook builds an RVTools export with a vInfo sheet, one row per VM name.
// Legacy VMs run an end-of-life guest.
func workbook(vms []string, legacy ...string) []byte {
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("vInfo")
	Expect(err).To(BeNil())
	Expect(f.SetSheetRow("vInfo", "A1", &vinfoColumns)).To(Succeed())

	isLegacy := make(map[string]bool)
	for _, l := range legacy {
		isLegacy[l] = true
	}
	for i, name := range vms {
		os := "Red Hat Enterprise Linux 9 (64-bit)"
		if isLegacy[name] {
			os = "Microsoft Windows Server 2008 R2 (64-bit)"
		}
		row := []any{name, "poweredOn", 4, 8192, "esx01", "cl-a", "dc-a", os}
		Expect(f.SetSheetRow("vInfo", fmt.Sprintf("A%d", i+2), &row)).To(Succeed())
	}
	Expect(f.DeleteSheet("Sheet1")).To(Succeed())

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	Expect(err).To(BeNil())
	return buf.Bytes()
}

// sourceData is the in-memory counterpart of workbook.
func sourceData(name string, vms []string, legacy ...string) inventory.SourceData {
	isLegacy := make(map[string]bool)
	for _, l := range legacy {
		isLegacy[l] = true
	}

	table := inventory.RawTable{Columns: vinfoColumns}
	for _, vm := range vms {
		os := "Red Hat Enterprise Linux 9 (64-bit)"
		if isLegacy[vm] {
			os = "Microsoft Windows Server 2008 R2 (64-bit)"
		}
		table.Rows = append(table.Rows, inventory.Record{
			"VM":         vm,
			"Powerstate": "poweredOn",
			"CPUs":       4,
			"Memory":     8192,
			"Host":       "esx01",
			"Cluster":    "cl-a",
			"Datacenter": "dc-a",
			"OS according to the configuration file": os,
		})
	}

	return inventory.SourceData{
		Name:   name,
		Tables: map[inventory.TableName]inventory.RawTable{inventory.TableVInfo: table},
	}
}

// staticHolder serves whatever the sources pointer holds at reload time.
func staticHolder(sources *[]inventory.SourceData) *inventory.Holder {
	return inventory.NewHolder(inventory.LoaderFunc(func(ctx context.Context) ([]inventory.SourceData, error) {
		return *sources, nil
	}))
}

func openStore() (store.Store, *gorm.DB) {
	cfg := config.NewDefault()
	db, err := store.InitDB(cfg)
	Expect(err).To(BeNil())
	Expect(migrations.MigrateStore(db, cfg)).To(Succeed())
	return store.NewStore(db), db
}

func cleanDB(db *gorm.DB) {
	Expect(db.Exec("DELETE FROM inventory_rows;").Error).To(BeNil())
	Expect(db.Exec("DELETE FROM source_tables;").Error).To(BeNil())
	Expect(db.Exec("DELETE FROM sources;").Error).To(BeNil())
}
