package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type uniqueVisits struct {
	counter       prometheus.Gauge
	visitorsCache map[string]struct{}
	mu            sync.RWMutex
}

const clientsCountPerWeek = "api_clients_count_per_week"

var totalUniqueClientsPerWeekMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: inventoryAdvisor,
		Name:      clientsCountPerWeek,
		Help:      "number of distinct API clients seen this week",
	},
)

// UniqueClientsPerWeek counts distinct client addresses. The metrics server
// resets it weekly.
var UniqueClientsPerWeek = &uniqueVisits{
	counter:       totalUniqueClientsPerWeekMetric,
	visitorsCache: make(map[string]struct{}),
}

func (v *uniqueVisits) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.visitorsCache = make(map[string]struct{})
	v.counter.Set(0)
}

func (v *uniqueVisits) IncreaseTotalUniqueVisit(visitor string) {
	if visitor == "" {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.visitorsCache[visitor]; exists {
		return
	}

	v.visitorsCache[visitor] = struct{}{}
	v.counter.Inc()
}

func (v *uniqueVisits) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.visitorsCache)
}
