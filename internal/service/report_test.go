package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"time"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/service"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("report service", func() {
	var (
		sources []inventory.SourceData
		holder  *inventory.Holder
		srv     *service.ReportService
	)

	BeforeEach(func() {
		sources = []inventory.SourceData{
			sourceData("prod", []string{"web01", "legacy01", "legacy02", "legacy03"}, "legacy01", "legacy02", "legacy03"),
		}
		holder = staticHolder(&sources)
		_, err := holder.Reload(context.TODO())
		Expect(err).To(BeNil())

		now := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
		analysis := service.NewAnalysisService(holder, findings.DefaultThresholds(), service.WithClock(func() time.Time { return now }))
		srv = service.NewReportService(analysis)
	})

	findingRows := func(content []byte) [][]string {
		r := csv.NewReader(bytes.NewReader(content))
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		Expect(err).To(BeNil())

		var out [][]string
		for _, row := range rows {
			if len(row) > 1 && row[1] == string(findings.TypeEOLOS) {
				out = append(out, row)
			}
		}
		return out
	}

	It("renders a csv report with every section", func() {
		report, err := srv.GenerateReport(context.TODO(), service.ReportOptions{Format: service.ReportFormatCSV})
		Expect(err).To(BeNil())
		Expect(report.ContentType).To(Equal("text/csv; charset=utf-8"))
		Expect(report.FileName).To(Equal("inventory-report-20250601-123000.csv"))

		content := string(report.Content)
		for _, section := range []string{"EXECUTIVE SUMMARY", "INGESTED SOURCES", "EFFICIENCY SCORE", "CAPACITY PLANNING", "OPERATING SYSTEM DISTRIBUTION", "FINDINGS", "DISASTER RECOVERY"} {
			Expect(content).To(ContainSubstring(section))
		}
		Expect(findingRows(report.Content)).To(HaveLen(3))
	})

	It("caps the findings table only", func() {
		report, err := srv.GenerateReport(context.TODO(), service.ReportOptions{Format: service.ReportFormatCSV, MaxFindings: 1})
		Expect(err).To(BeNil())

		r := csv.NewReader(bytes.NewReader(report.Content))
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		Expect(err).To(BeNil())

		listed := 0
		for _, row := range rows {
			if len(row) != 12 {
				continue
			}
			if _, ok := findings.ParseSeverity(row[0]); ok {
				listed++
			}
		}
		Expect(listed).To(Equal(1))
	})

	It("renders an html report", func() {
		report, err := srv.GenerateReport(context.TODO(), service.ReportOptions{Format: service.ReportFormatHTML})
		Expect(err).To(BeNil())
		Expect(report.ContentType).To(Equal("text/html; charset=utf-8"))
		Expect(report.FileName).To(HaveSuffix(".html"))

		content := string(report.Content)
		Expect(content).To(HavePrefix("<!DOCTYPE html>"))
		Expect(content).To(ContainSubstring("legacy01"))
		Expect(content).To(ContainSubstring("Disaster Recovery"))
	})

	It("renders a pdf report", func() {
		report, err := srv.GenerateReport(context.TODO(), service.ReportOptions{Format: service.ReportFormatPDF})
		Expect(err).To(BeNil())
		Expect(report.ContentType).To(Equal("application/pdf"))
		Expect(bytes.HasPrefix(report.Content, []byte("%PDF"))).To(BeTrue())
	})

	It("renders a notice when nothing is ingested", func() {
		sources = nil
		_, err := holder.Reload(context.TODO())
		Expect(err).To(BeNil())

		report, err := srv.GenerateReport(context.TODO(), service.ReportOptions{Format: service.ReportFormatHTML})
		Expect(err).To(BeNil())
		Expect(string(report.Content)).To(ContainSubstring("No inventory data available"))

		report, err = srv.GenerateReport(context.TODO(), service.ReportOptions{Format: service.ReportFormatCSV})
		Expect(err).To(BeNil())
		Expect(strings.Contains(string(report.Content), "NOTICE")).To(BeTrue())

		report, err = srv.GenerateReport(context.TODO(), service.ReportOptions{Format: service.ReportFormatPDF})
		Expect(err).To(BeNil())
		Expect(bytes.HasPrefix(report.Content, []byte("%PDF"))).To(BeTrue())
	})

	It("rejects an unknown format", func() {
		_, err := srv.GenerateReport(context.TODO(), service.ReportOptions{Format: "docx"})
		Expect(err).ToNot(BeNil())
		_, ok := err.(*service.ErrUnsupportedFormat)
		Expect(ok).To(BeTrue())
	})
})
