package ranking

import (
	"strings"

	"github.com/kubev2v/inventory-advisor/internal/findings"
)

// Filter narrows a ranked list. Zero fields match everything.
type Filter struct {
	Source   string
	Severity findings.Severity
	Types    []findings.Type
	Limit    int
}

func (flt Filter) match(f findings.Finding) bool {
	if flt.Source != "" && !strings.EqualFold(flt.Source, f.Source) {
		return false
	}
	if flt.Severity != "" && f.Severity != flt.Severity {
		return false
	}
	if len(flt.Types) == 0 {
		return true
	}
	for _, t := range flt.Types {
		if t == f.Type {
			return true
		}
	}
	return false
}

// Apply returns the findings matching flt, keeping their order.
func (flt Filter) Apply(in []findings.Finding) []findings.Finding {
	out := make([]findings.Finding, 0, len(in))
	for _, f := range in {
		if !flt.match(f) {
			continue
		}
		out = append(out, f)
		if flt.Limit > 0 && len(out) == flt.Limit {
			break
		}
	}
	return out
}

// Summary counts findings per severity and per type.
type Summary struct {
	Total      int                               `json:"total"`
	BySeverity map[findings.Severity]int         `json:"by_severity"`
	ByType     map[findings.Type]int             `json:"by_type"`
	Savings    map[findings.ResourceType]float64 `json:"savings_by_resource"`
}

func Summarize(in []findings.Finding) Summary {
	s := Summary{
		Total:      len(in),
		BySeverity: make(map[findings.Severity]int),
		ByType:     make(map[findings.Type]int),
		Savings:    make(map[findings.ResourceType]float64),
	}
	for _, f := range in {
		s.BySeverity[f.Severity]++
		s.ByType[f.Type]++
		if f.Savings > 0 {
			s.Savings[f.Resource] += f.Savings
		}
	}
	return s
}
