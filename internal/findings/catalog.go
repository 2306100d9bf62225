package findings

import (
	"fmt"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/pkg/metrics"
	"go.uber.org/zap"
)

// Catalog runs Check objects and concatenates their findings.
type Catalog struct {
	checks []Check
}

// NewCatalog creates a Catalog with no checks registered.
func NewCatalog() *Catalog {
	return &Catalog{
		checks: make([]Check, 0),
	}
}

// Register adds checks to the catalog. Checks run in registration order.
// Register panics if a check with the same Name() is already registered.
func (c *Catalog) Register(checks ...Check) {
	for _, check := range checks {
		for _, existing := range c.checks {
			if existing.Name() == check.Name() {
				panic(fmt.Sprintf("findings: check %q already registered", check.Name()))
			}
		}
		c.checks = append(c.checks, check)
	}
}

func (c *Catalog) Checks() []Check {
	return c.checks
}

// Run executes every registered check against the input. The result is the
// concatenation of each check's output in registration order.
func (c *Catalog) Run(in Input) []Finding {
	if in.OnSkip == nil {
		in.OnSkip = logSkip
	}

	var out []Finding
	for _, check := range c.checks {
		out = append(out, check.Run(in)...)
	}
	return out
}

func logSkip(check string, err error) {
	zap.S().Named("findings").Debugw("skipped", "check", check, "error", err)
	metrics.IncreaseSkippedRecordsMetric(check, inventory.Reason(err))
}
