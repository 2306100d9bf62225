package findings

import (
	"errors"
	"testing"
	"time"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

// mockCheck is a test double implementing the Check interface.
type mockCheck struct {
	name     string
	findings []Finding
	skip     error
	// gotInput captures the input passed to Run for inspection.
	gotInput Input
}

func (m *mockCheck) Name() string                  { return m.name }
func (m *mockCheck) Tables() []inventory.TableName { return nil }
func (m *mockCheck) Run(in Input) []Finding {
	m.gotInput = in
	if m.skip != nil {
		in.Skip(m.name, m.skip)
	}
	return m.findings
}

func TestNewCatalog(t *testing.T) {
	t.Parallel()
	c := NewCatalog()
	if c == nil {
		t.Fatal("expected non-nil Catalog")
	}
	if len(c.Checks()) != 0 {
		t.Errorf("expected 0 checks, got %d", len(c.Checks()))
	}
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	t.Parallel()
	c := NewCatalog()
	c.Register(&mockCheck{name: "A"})
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate check name, got none")
		}
	}()
	c.Register(&mockCheck{name: "A"})
}

func TestRun_ConcatenatesInRegistrationOrder(t *testing.T) {
	t.Parallel()
	c := NewCatalog()
	c.Register(
		&mockCheck{name: "a", findings: []Finding{{Target: "vm1", Type: TypeEOLOS}, {Target: "vm2", Type: TypeEOLOS}}},
		&mockCheck{name: "b"},
		&mockCheck{name: "c", findings: []Finding{{Target: "vm1", Type: TypeNUMAAlignment}}},
	)

	got := c.Run(Input{Snapshot: inventory.EmptySnapshot()})

	if len(got) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(got))
	}
	if got[0].Target != "vm1" || got[1].Target != "vm2" || got[2].Type != TypeNUMAAlignment {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestRun_PassesInputAndSkipHook(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var skipped []string
	check := &mockCheck{name: "skipper", skip: inventory.NewErrMissingTable(inventory.TableVCPU)}

	c := NewCatalog()
	c.Register(check)
	c.Run(Input{
		Snapshot: inventory.EmptySnapshot(),
		Now:      now,
		OnSkip: func(name string, err error) {
			if errors.Is(err, inventory.ErrMissingTable) {
				skipped = append(skipped, name)
			}
		},
	})

	if !check.gotInput.Now.Equal(now) {
		t.Errorf("expected Now %v, got %v", now, check.gotInput.Now)
	}
	if len(skipped) != 1 || skipped[0] != "skipper" {
		t.Errorf("expected skip from skipper, got %v", skipped)
	}
}

func TestSeverityRank(t *testing.T) {
	t.Parallel()
	order := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, Severity("bogus")}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("expected %s to rank before %s", order[i-1], order[i])
		}
	}
	if _, ok := ParseSeverity("bogus"); ok {
		t.Error("expected bogus severity to be rejected")
	}
}

func TestDefaultThresholdsValid(t *testing.T) {
	t.Parallel()
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("default thresholds invalid: %v", err)
	}

	th := DefaultThresholds()
	th.DatastoreFreeCriticalPct = 50
	if err := th.Validate(); err == nil {
		t.Error("expected critical tier above high tier to fail validation")
	}
}
