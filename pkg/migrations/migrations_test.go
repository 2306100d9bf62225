package migrations_test

import (
	"os"
	"path"

	"github.com/kubev2v/inventory-advisor/internal/config"
	"github.com/kubev2v/inventory-advisor/internal/store"
	"github.com/kubev2v/inventory-advisor/pkg/migrations"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("migrations", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
	})

	AfterAll(func() {
		s.Close()
	})

	tableExists := func(name string) bool {
		count := 0
		tx := gormdb.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
		Expect(tx.Error).To(BeNil())
		return count == 1
	}

	Context("store migrations", Ordered, func() {
		It("fails to migrate the db -- migration folder does not exists", func() {
			cfg := config.NewDefault()
			cfg.Service.MigrationFolder = "some folder"
			err := migrations.MigrateStore(gormdb, cfg)
			Expect(err).NotTo(BeNil())
		})

		It("fails to migrate the db -- migration folder is a file", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())
			cfg := config.NewDefault()
			cfg.Service.MigrationFolder = path.Join(currentFolder, "migrations.go")
			err = migrations.MigrateStore(gormdb, cfg)
			Expect(err).NotTo(BeNil())
		})

		It("successfully migrate the db from the embedded files", func() {
			err := migrations.MigrateStore(gormdb, config.NewDefault())
			Expect(err).To(BeNil())

			for _, table := range []string{"sources", "source_tables", "inventory_rows"} {
				Expect(tableExists(table)).To(BeTrue(), table)
			}
		})

		It("successfully migrate the db from a folder", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())
			cfg := config.NewDefault()
			cfg.Service.MigrationFolder = path.Join(currentFolder, "sql")

			err = migrations.MigrateStore(gormdb, cfg)
			Expect(err).To(BeNil())
			Expect(tableExists("inventory_rows")).To(BeTrue())
		})

		It("is idempotent", func() {
			Expect(migrations.MigrateStore(gormdb, config.NewDefault())).To(Succeed())
			Expect(migrations.MigrateStore(gormdb, config.NewDefault())).To(Succeed())
		})

		AfterEach(func() {
			gormdb.Exec("DROP TABLE IF EXISTS inventory_rows;")
			gormdb.Exec("DROP TABLE IF EXISTS source_tables;")
			gormdb.Exec("DROP TABLE IF EXISTS sources;")
			gormdb.Exec("DROP TABLE IF EXISTS goose_db_version;")
		})
	})
})
