package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	inventoryAdvisor = "inventory_advisor"

	// Snapshot metrics
	snapshotEpoch        = "snapshot_epoch"
	snapshotReloadsTotal = "snapshot_reloads_total"
	sourceRows           = "source_rows"

	// Analysis metrics
	findingsCount       = "findings_count"
	skippedRecordsTotal = "skipped_records_total"

	// Advisory metrics
	advisoryRequestsTotal = "advisory_requests_total"

	// Labels
	statusLabel   = "status"
	sourceLabel   = "source"
	typeLabel     = "type"
	severityLabel = "severity"
	checkLabel    = "check"
	reasonLabel   = "reason"
	resultLabel   = "result"
)

/**
* Metrics definition
**/
var snapshotEpochMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: inventoryAdvisor,
		Name:      snapshotEpoch,
		Help:      "epoch of the inventory snapshot currently served",
	},
)

var snapshotReloadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: inventoryAdvisor,
		Name:      snapshotReloadsTotal,
		Help:      "number of snapshot reloads by outcome",
	},
	[]string{statusLabel},
)

var sourceRowsMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: inventoryAdvisor,
		Name:      sourceRows,
		Help:      "number of ingested rows per source",
	},
	[]string{sourceLabel},
)

var findingsCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: inventoryAdvisor,
		Name:      findingsCount,
		Help:      "number of findings of the latest analysis by type and severity",
	},
	[]string{typeLabel, severityLabel},
)

var skippedRecordsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: inventoryAdvisor,
		Name:      skippedRecordsTotal,
		Help:      "number of records or tables a check skipped",
	},
	[]string{checkLabel, reasonLabel},
)

var advisoryRequestsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: inventoryAdvisor,
		Name:      advisoryRequestsTotal,
		Help:      "number of advisory lookups by result",
	},
	[]string{resultLabel},
)

func UpdateSnapshotEpochMetric(epoch uint64) {
	snapshotEpochMetric.Set(float64(epoch))
}

func IncreaseSnapshotReloadsMetric(status string) {
	snapshotReloadsTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func UpdateSourceRowsMetric(source string, rows int) {
	sourceRowsMetric.With(prometheus.Labels{sourceLabel: source}).Set(float64(rows))
}

func DeleteSourceRowsMetric(source string) {
	sourceRowsMetric.Delete(prometheus.Labels{sourceLabel: source})
}

// UpdateFindingsCountMetric replaces the per type/severity finding counts.
func UpdateFindingsCountMetric(counts map[[2]string]int) {
	findingsCountMetric.Reset()
	for k, v := range counts {
		findingsCountMetric.With(prometheus.Labels{typeLabel: k[0], severityLabel: k[1]}).Set(float64(v))
	}
}

func IncreaseSkippedRecordsMetric(check, reason string) {
	skippedRecordsTotalMetric.With(prometheus.Labels{checkLabel: check, reasonLabel: reason}).Inc()
}

func IncreaseAdvisoryRequestsMetric(result string) {
	advisoryRequestsTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(snapshotEpochMetric)
	prometheus.MustRegister(snapshotReloadsTotalMetric)
	prometheus.MustRegister(sourceRowsMetric)
	prometheus.MustRegister(findingsCountMetric)
	prometheus.MustRegister(skippedRecordsTotalMetric)
	prometheus.MustRegister(advisoryRequestsTotalMetric)
	prometheus.MustRegister(totalUniqueClientsPerWeekMetric)
}
