package v1alpha1

import (
	"net/http"

	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/handlers/v1alpha1/mappers"
	"github.com/kubev2v/inventory-advisor/pkg/version"
)

// (GET /api/v1/info)
func (h *ServiceHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	h.reply(w, r, http.StatusOK, mappers.InfoToApi(version.Get()))
}

// (GET /api/v1/health)
// Reports the served snapshot. It never triggers an analysis.
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.analysisSrv.Current()
	h.reply(w, r, http.StatusOK, api.Health{
		Status:   "ok",
		Epoch:    snap.Epoch(),
		Sources:  len(snap.Sources()),
		LoadedAt: snap.LoadedAt(),
	})
}
