package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/kubev2v/inventory-advisor/internal/store/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StatisticsReader is the part of the store the collector needs.
type StatisticsReader interface {
	Statistics(ctx context.Context) (model.InventoryStats, error)
}

type inventoryStatsCollector struct {
	store          StatisticsReader
	totalSources   *prometheus.Desc
	totalRows      *prometheus.Desc
	totalVms       *prometheus.Desc
	totalRowsByTab *prometheus.Desc
}

var registerCollectorOnce sync.Once

// RegisterInventoryCollector exposes the store statistics, computed on every
// scrape. Only the first call registers.
func RegisterInventoryCollector(s StatisticsReader) {
	registerCollectorOnce.Do(func() {
		prometheus.MustRegister(newInventoryStatsCollector(s))
	})
}

func newInventoryStatsCollector(s StatisticsReader) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_store_%s", inventoryAdvisor, name)
	}

	return &inventoryStatsCollector{
		store: s,
		totalSources: prometheus.NewDesc(
			fqName("sources_total"),
			"Total number of ingested sources.",
			nil,
			prometheus.Labels{},
		),
		totalRows: prometheus.NewDesc(
			fqName("rows_total"),
			"Total number of stored rows across every source and table.",
			nil,
			prometheus.Labels{},
		),
		totalVms: prometheus.NewDesc(
			fqName("vms_total"),
			"Total number of vInfo rows.",
			nil,
			prometheus.Labels{},
		),
		totalRowsByTab: prometheus.NewDesc(
			fqName("rows_by_table_total"),
			"Total rows by RVTools table",
			[]string{"table"},
			prometheus.Labels{},
		),
	}
}

func (c *inventoryStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalSources
	ch <- c.totalRows
	ch <- c.totalVms
	ch <- c.totalRowsByTab
}

// Collect implements Collector.
func (c *inventoryStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.store.Statistics(context.Background())
	if err != nil {
		zap.S().Named("inventory_collector").Errorf("failed to collect inventory statistics: %s", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.totalSources, prometheus.GaugeValue, float64(stats.TotalSources))
	ch <- prometheus.MustNewConstMetric(c.totalRows, prometheus.GaugeValue, float64(stats.TotalRows))
	ch <- prometheus.MustNewConstMetric(c.totalVms, prometheus.GaugeValue, float64(stats.TotalVMs))

	for _, t := range stats.Tables {
		ch <- prometheus.MustNewConstMetric(c.totalRowsByTab, prometheus.GaugeValue, float64(t.Rows), t.Table)
	}
}
