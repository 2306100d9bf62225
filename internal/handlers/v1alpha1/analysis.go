package v1alpha1

import (
	"net/http"
	"strings"

	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/handlers/v1alpha1/mappers"
	"github.com/kubev2v/inventory-advisor/internal/service"
)

// analysis returns the analysis of the served snapshot, replying with the
// error itself when there is none.
func (h *ServiceHandler) analysis(w http.ResponseWriter, r *http.Request) (*service.Analysis, bool) {
	a, err := h.analysisSrv.Analyze(r.Context())
	if err != nil {
		h.replyError(w, r, err)
		return nil, false
	}
	return a, true
}

// (GET /api/v1/findings)
func (h *ServiceHandler) ListFindings(w http.ResponseWriter, r *http.Request) {
	query, err := mappers.FindingsQueryFromValues(r.URL.Query())
	if err != nil {
		h.replyError(w, r, err)
		return
	}
	if err := h.findingsValidator.Struct(query); err != nil {
		h.badRequest(w, r, err)
		return
	}

	a, ok := h.analysis(w, r)
	if !ok {
		return
	}

	found, summary := a.Filter(mappers.FindingsFilterFromApi(query))
	h.reply(w, r, http.StatusOK, api.FindingList{Epoch: a.Epoch(), Summary: summary, Findings: found})
}

// (GET /api/v1/hierarchy)
func (h *ServiceHandler) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.analysis(w, r); ok {
		h.reply(w, r, http.StatusOK, api.Hierarchy{Epoch: a.Epoch(), Tree: a.Tree})
	}
}

// (GET /api/v1/dr)
func (h *ServiceHandler) GetDisasterRecovery(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.analysis(w, r); ok {
		h.reply(w, r, http.StatusOK, api.DisasterRecovery{Epoch: a.Epoch(), Analysis: a.DR})
	}
}

// (GET /api/v1/analytics/capacity)
func (h *ServiceHandler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.analysis(w, r); ok {
		h.reply(w, r, http.StatusOK, api.CapacityReply{Epoch: a.Epoch(), Data: a.Capacity()})
	}
}

// (GET /api/v1/analytics/efficiency)
func (h *ServiceHandler) GetEfficiency(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.analysis(w, r); ok {
		h.reply(w, r, http.StatusOK, api.EfficiencyReply{Epoch: a.Epoch(), Data: a.Efficiency()})
	}
}

// (GET /api/v1/analytics/cost)
func (h *ServiceHandler) GetCost(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.analysis(w, r); ok {
		h.reply(w, r, http.StatusOK, api.CostReply{Epoch: a.Epoch(), Data: a.Cost()})
	}
}

// (GET /api/v1/analytics/stats)
func (h *ServiceHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.analysis(w, r); ok {
		h.reply(w, r, http.StatusOK, api.StatsReply{Epoch: a.Epoch(), Data: a.Stats()})
	}
}

// (GET /api/v1/analytics/os)
func (h *ServiceHandler) GetOSDistribution(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.analysis(w, r); ok {
		h.reply(w, r, http.StatusOK, api.OSReply{Epoch: a.Epoch(), Data: a.OSDistribution()})
	}
}

// (GET /api/v1/analytics/disks)
func (h *ServiceHandler) GetDiskWaste(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.analysis(w, r); ok {
		h.reply(w, r, http.StatusOK, api.DiskWasteReply{Epoch: a.Epoch(), Data: a.DiskWaste()})
	}
}

// (GET /api/v1/analytics/reservations)
func (h *ServiceHandler) GetReservations(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.analysis(w, r); ok {
		h.reply(w, r, http.StatusOK, api.ReservationsReply{Epoch: a.Epoch(), Data: a.Reservations()})
	}
}

// (GET /api/v1/advisory)
// finding=TYPE:target looks up a current finding, message= takes any
// health message.
func (h *ServiceHandler) GetAdvisory(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("finding"))
	message := strings.TrimSpace(r.URL.Query().Get("message"))

	switch {
	case ref != "":
		a, ok := h.analysis(w, r)
		if !ok {
			return
		}
		advice, err := h.analysisSrv.AdviseFinding(r.Context(), a, ref)
		if err != nil {
			h.replyError(w, r, err)
			return
		}
		h.reply(w, r, http.StatusOK, api.Advice{Epoch: a.Epoch(), Advice: advice})
	case message != "":
		advice := h.analysisSrv.AdviseMessage(r.Context(), message)
		h.reply(w, r, http.StatusOK, api.Advice{Epoch: h.analysisSrv.Current().Epoch(), Advice: advice})
	default:
		h.replyError(w, r, service.NewErrInvalidQuery("one of finding or message is required"))
	}
}
