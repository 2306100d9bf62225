package v1alpha1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kubev2v/inventory-advisor/internal/handlers/v1alpha1/mappers"
	"go.uber.org/zap"
)

// (GET /api/v1/reports/{format})
func (h *ServiceHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	query, err := mappers.ReportQueryFromValues(chi.URLParam(r, "format"), r.URL.Query())
	if err != nil {
		h.replyError(w, r, err)
		return
	}
	if err := h.reportValidator.Struct(query); err != nil {
		h.badRequest(w, r, err)
		return
	}

	report, err := h.reportSrv.GenerateReport(r.Context(), mappers.ReportOptionsFromApi(query))
	if err != nil {
		h.replyError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.Content); err != nil {
		zap.S().Named("handler").Warnw("failed to write report", "file", report.FileName, "error", err)
	}
}
