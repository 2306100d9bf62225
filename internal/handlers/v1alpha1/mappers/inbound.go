package mappers

import (
	"net/url"
	"strconv"
	"strings"

	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/ranking"
	"github.com/kubev2v/inventory-advisor/internal/service"
)

// FindingsQueryFromValues reads the findings filter from the query string.
// type may be repeated or comma separated. An empty or NaN limit means no
// limit.
func FindingsQueryFromValues(values url.Values) (api.FindingsQuery, error) {
	q := api.FindingsQuery{
		Source:   strings.TrimSpace(values.Get("source")),
		Severity: strings.TrimSpace(values.Get("severity")),
	}

	for _, v := range values["type"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Types = append(q.Types, t)
			}
		}
	}

	limit, err := parseLimit(values.Get("limit"))
	if err != nil {
		return api.FindingsQuery{}, err
	}
	q.Limit = limit

	return q, nil
}

func FindingsFilterFromApi(q api.FindingsQuery) ranking.Filter {
	filter := ranking.Filter{
		Source:   q.Source,
		Severity: findings.Severity(strings.ToUpper(q.Severity)),
		Limit:    q.Limit,
	}
	for _, t := range q.Types {
		filter.Types = append(filter.Types, findings.Type(strings.ToUpper(t)))
	}
	return filter
}

func ReportQueryFromValues(format string, values url.Values) (api.ReportQuery, error) {
	limit, err := parseLimit(values.Get("max_findings"))
	if err != nil {
		return api.ReportQuery{}, err
	}
	return api.ReportQuery{Format: strings.ToLower(format), MaxFindings: limit}, nil
}

func ReportOptionsFromApi(q api.ReportQuery) service.ReportOptions {
	return service.ReportOptions{
		Format:      service.ReportFormat(q.Format),
		MaxFindings: q.MaxFindings,
	}
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, service.NewErrInvalidQuery("limit must be an integer")
	}
	return limit, nil
}
