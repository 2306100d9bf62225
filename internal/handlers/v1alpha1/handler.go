package v1alpha1

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/handlers/validator"
	"github.com/kubev2v/inventory-advisor/internal/service"
	"github.com/kubev2v/inventory-advisor/pkg/requestid"
	"go.uber.org/zap"
)

const defaultMaxUploadBytes int64 = 200 << 20

type ServiceHandler struct {
	sourceSrv      *service.SourceService
	analysisSrv    *service.AnalysisService
	reportSrv      *service.ReportService
	maxUploadBytes int64

	sourceValidator   *validator.Validator
	findingsValidator *validator.Validator
	reportValidator   *validator.Validator
}

type HandlerOption func(h *ServiceHandler)

// WithMaxUploadSize bounds the size of an uploaded workbook.
func WithMaxUploadSize(bytes int64) HandlerOption {
	return func(h *ServiceHandler) {
		if bytes > 0 {
			h.maxUploadBytes = bytes
		}
	}
}

func NewServiceHandler(sourceService *service.SourceService, analysisService *service.AnalysisService, reportService *service.ReportService, opts ...HandlerOption) *ServiceHandler {
	h := &ServiceHandler{
		sourceSrv:         sourceService,
		analysisSrv:       analysisService,
		reportSrv:         reportService,
		maxUploadBytes:    defaultMaxUploadBytes,
		sourceValidator:   validator.NewValidator(),
		findingsValidator: validator.NewValidator(),
		reportValidator:   validator.NewValidator(),
	}
	h.sourceValidator.Register(validator.NewSourceValidationRules()...)
	h.findingsValidator.Register(validator.NewFindingsValidationRules()...)
	h.reportValidator.Register(validator.NewReportValidationRules()...)

	for _, o := range opts {
		o(h)
	}
	return h
}

// Routes mounts the API under the given router. The caller adds /api/v1.
func (h *ServiceHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/info", h.GetInfo)

	r.Route("/sources", func(r chi.Router) {
		r.Get("/", h.ListSources)
		r.Post("/", h.UploadSource)
		r.Get("/{name}", h.GetSource)
		r.Delete("/{name}", h.DeleteSource)
	})
	r.Post("/reload", h.Reload)

	r.Get("/findings", h.ListFindings)
	r.Get("/hierarchy", h.GetHierarchy)
	r.Get("/dr", h.GetDisasterRecovery)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/capacity", h.GetCapacity)
		r.Get("/efficiency", h.GetEfficiency)
		r.Get("/cost", h.GetCost)
		r.Get("/stats", h.GetStats)
		r.Get("/os", h.GetOSDistribution)
		r.Get("/disks", h.GetDiskWaste)
		r.Get("/reservations", h.GetReservations)
	})

	r.Get("/advisory", h.GetAdvisory)
	r.Get("/reports/{format}", h.GetReport)
}

func (h *ServiceHandler) reply(w http.ResponseWriter, r *http.Request, status int, v render.Renderer) {
	render.Status(r, status)
	if err := render.Render(w, r, v); err != nil {
		zap.S().Named("handler").Errorw("failed to render reply", "path", r.URL.Path, "error", err)
	}
}

func (h *ServiceHandler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.reply(w, r, http.StatusBadRequest, api.Error{Message: err.Error(), RequestID: requestid.FromContextPtr(r.Context())})
}

// replyError maps service errors to their status code. Anything unknown is
// logged and reported as an internal error without details.
func (h *ServiceHandler) replyError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound    *service.ErrResourceNotFound
		corrupted   *service.ErrFileCorrupted
		invalid     *service.ErrInvalidQuery
		unsupported *service.ErrUnsupportedFormat
	)

	switch {
	case errors.As(err, &notFound):
		h.reply(w, r, http.StatusNotFound, api.Error{Message: err.Error(), RequestID: requestid.FromContextPtr(r.Context())})
	case errors.As(err, &corrupted), errors.As(err, &invalid), errors.As(err, &unsupported):
		h.badRequest(w, r, err)
	default:
		zap.S().Named("handler").Errorw("request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestid.FromRequest(r), "error", err)
		h.reply(w, r, http.StatusInternalServerError, api.Error{Message: "internal error", RequestID: requestid.FromContextPtr(r.Context())})
	}
}
