package v1alpha1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/config"
	handlers "github.com/kubev2v/inventory-advisor/internal/handlers/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/service"
	"github.com/kubev2v/inventory-advisor/internal/store"
	"github.com/kubev2v/inventory-advisor/pkg/migrations"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("api handlers", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		router http.Handler
	)

	BeforeAll(func() {
		cfg := config.NewDefault()
		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())
		Expect(migrations.MigrateStore(db, cfg)).To(Succeed())
		gormdb = db
		s = store.NewStore(db)
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		holder := inventory.NewHolder(s.Inventory())
		cfg := config.NewDefault()
		analysis := service.NewAnalysisService(holder, *cfg.Thresholds)
		h := handlers.NewServiceHandler(
			service.NewSourceService(s, holder),
			analysis,
			service.NewReportService(analysis),
			handlers.WithMaxUploadSize(1<<20),
		)
		router = newRouter(h)
	})

	AfterEach(func() {
		Expect(gormdb.Exec("DELETE FROM inventory_rows;").Error).To(BeNil())
		Expect(gormdb.Exec("DELETE FROM source_tables;").Error).To(BeNil())
		Expect(gormdb.Exec("DELETE FROM sources;").Error).To(BeNil())
	})

	upload := func(name string, vms ...string) api.IngestResult {
		rec := do(router, uploadRequest(name, workbook(vms...)))
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())

		var result api.IngestResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
		return result
	}

	Context("sources", func() {
		It("uploads a workbook", func() {
			result := upload("prod.xlsx", "web01", "legacy01")
			Expect(result.Source.Name).To(Equal("prod"))
			Expect(result.Source.Rows).To(Equal(2))
			Expect(result.Source.Tables).To(ConsistOf(api.SourceTable{Name: "vInfo", Rows: 2}))
			Expect(result.Epoch).To(Equal(uint64(1)))
		})

		It("answers 200 for an unchanged workbook", func() {
			content := workbook("web01")
			Expect(do(router, uploadRequest("prod.xlsx", content)).Code).To(Equal(http.StatusCreated))

			rec := do(router, uploadRequest("prod.xlsx", content))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var result api.IngestResult
			Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
			Expect(result.Unchanged).To(BeTrue())
		})

		It("rejects a file that is not a workbook", func() {
			rec := do(router, uploadRequest("prod.xlsx", []byte("not excel")))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var apiErr api.Error
			Expect(json.Unmarshal(rec.Body.Bytes(), &apiErr)).To(Succeed())
			Expect(apiErr.Message).NotTo(BeEmpty())
		})

		It("rejects a file name that is not a workbook name", func() {
			rec := do(router, uploadRequest("prod.csv", workbook("web01")))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a request without a file", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sources", bytes.NewReader([]byte("{}")))
			req.Header.Set("Content-Type", "application/json")
			Expect(do(router, req).Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an upload larger than allowed", func() {
			big := make([]byte, 2<<20)
			rec := do(router, uploadRequest("big.xlsx", big))
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})

		It("lists, gets and deletes sources", func() {
			upload("prod.xlsx", "web01")
			upload("dr.xlsx", "web01_replica")

			rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var list api.SourceList
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list).To(HaveLen(2))
			Expect(list[0].Name).To(Equal("dr"))

			rec = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/sources/prod", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var source api.Source
			Expect(json.Unmarshal(rec.Body.Bytes(), &source)).To(Succeed())
			Expect(source.FileName).To(Equal("prod.xlsx"))

			rec = do(router, httptest.NewRequest(http.MethodDelete, "/api/v1/sources/prod", nil))
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			rec = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/sources/prod", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("answers 404 when deleting a missing source", func() {
			rec := do(router, httptest.NewRequest(http.MethodDelete, "/api/v1/sources/missing", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("answers 400 for an invalid source name", func() {
			rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/sources/bad$name", nil))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("reloads the snapshot", func() {
			rec := do(router, httptest.NewRequest(http.MethodPost, "/api/v1/reload", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var reload api.Reload
			Expect(json.Unmarshal(rec.Body.Bytes(), &reload)).To(Succeed())
			Expect(reload.Epoch).To(Equal(uint64(1)))
		})
	})

	Context("analysis", func() {
		BeforeEach(func() {
			upload("prod.xlsx", "web01", "legacy01", "legacy02")
			upload("lab.xlsx", "lab01", "legacy03")
		})

		findingsFor := func(query string) api.FindingList {
			rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/findings"+query, nil))
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			var list api.FindingList
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			return list
		}

		It("lists findings with their summary", func() {
			list := findingsFor("?type=EOL_OS")
			Expect(list.Epoch).To(Equal(uint64(2)))
			Expect(list.Findings).To(HaveLen(3))
			Expect(list.Summary.Total).To(Equal(3))
		})

		It("filters findings by source, severity and limit", func() {
			Expect(findingsFor("?type=eol_os&source=lab").Findings).To(HaveLen(1))
			Expect(findingsFor("?type=EOL_OS&limit=2").Findings).To(HaveLen(2))
			Expect(findingsFor("?type=EOL_OS&limit=NaN").Findings).To(HaveLen(3))

			sev := findingsFor("?type=EOL_OS").Findings[0].Severity
			Expect(findingsFor("?type=EOL_OS&severity=" + string(sev)).Findings).NotTo(BeEmpty())
		})

		It("rejects an invalid findings query", func() {
			for _, q := range []string{"?severity=URGENT", "?limit=abc", "?limit=-1", "?type=not-a-type"} {
				rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/findings"+q, nil))
				Expect(rec.Code).To(Equal(http.StatusBadRequest), q)
			}
		})

		It("serves the hierarchy and the disaster recovery analysis", func() {
			rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/hierarchy", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var tree map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &tree)).To(Succeed())
			Expect(tree).To(HaveKey("tree"))

			rec = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/dr", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var dr map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &dr)).To(Succeed())
			Expect(dr).To(HaveKeyWithValue("epoch", BeNumerically("==", 2)))
		})

		DescribeTable("analytics views",
			func(path string) {
				rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/"+path, nil))
				Expect(rec.Code).To(Equal(http.StatusOK))
				var reply map[string]any
				Expect(json.Unmarshal(rec.Body.Bytes(), &reply)).To(Succeed())
				Expect(reply).To(HaveKey("data"))
				Expect(reply).To(HaveKeyWithValue("epoch", BeNumerically("==", 2)))
			},
			Entry("capacity", "capacity"),
			Entry("efficiency", "efficiency"),
			Entry("cost", "cost"),
			Entry("stats", "stats"),
			Entry("os", "os"),
			Entry("disks", "disks"),
			Entry("reservations", "reservations"),
		)

		It("serves advisory text for a finding", func() {
			rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/advisory?finding=EOL_OS:legacy01", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var advice api.Advice
			Expect(json.Unmarshal(rec.Body.Bytes(), &advice)).To(Succeed())
			Expect(advice.Text).NotTo(BeEmpty())
			Expect(advice.Available).To(BeFalse())
		})

		It("maps advisory errors", func() {
			Expect(do(router, httptest.NewRequest(http.MethodGet, "/api/v1/advisory", nil)).Code).To(Equal(http.StatusBadRequest))
			Expect(do(router, httptest.NewRequest(http.MethodGet, "/api/v1/advisory?finding=EOL_OS", nil)).Code).To(Equal(http.StatusBadRequest))
			Expect(do(router, httptest.NewRequest(http.MethodGet, "/api/v1/advisory?finding=EOL_OS:web01", nil)).Code).To(Equal(http.StatusNotFound))
			Expect(do(router, httptest.NewRequest(http.MethodGet, "/api/v1/advisory?message=Datastore+full", nil)).Code).To(Equal(http.StatusOK))
		})

		It("downloads reports", func() {
			rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/reports/csv", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("text/csv; charset=utf-8"))
			Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("inventory-report-"))

			rec = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/reports/PDF", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF"))).To(BeTrue())

			Expect(do(router, httptest.NewRequest(http.MethodGet, "/api/v1/reports/docx", nil)).Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("info", func() {
		It("reports health without analyzing", func() {
			rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var health api.Health
			Expect(json.Unmarshal(rec.Body.Bytes(), &health)).To(Succeed())
			Expect(health.Status).To(Equal("ok"))
			Expect(health.Epoch).To(Equal(uint64(0)))
		})

		It("reports the version", func() {
			rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/info", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var info api.Info
			Expect(json.Unmarshal(rec.Body.Bytes(), &info)).To(Succeed())
			Expect(info.VersionName).NotTo(BeEmpty())
		})
	})
})
