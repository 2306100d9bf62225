package v1alpha1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/handlers/v1alpha1/mappers"
	"github.com/kubev2v/inventory-advisor/internal/service"
)

const uploadFormField = "file"

// (GET /api/v1/sources)
func (h *ServiceHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sourceSrv.ListSources(r.Context(), service.NewSourceFilter())
	if err != nil {
		h.replyError(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, mappers.SourceListToApi(sources))
}

// (POST /api/v1/sources)
func (h *ServiceHandler) UploadSource(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reply(w, r, http.StatusRequestEntityTooLarge, api.Error{Message: fmt.Sprintf("workbook exceeds %d bytes", tooLarge.Limit)})
			return
		}
		h.badRequest(w, r, fmt.Errorf("expected a multipart form: %w", err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		h.badRequest(w, r, fmt.Errorf("missing %q form field", uploadFormField))
		return
	}
	defer file.Close()

	form := api.SourceUpload{FileName: header.Filename}
	if err := h.sourceValidator.Struct(form); err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.sourceSrv.UploadWorkbook(r.Context(), form.FileName, file)
	if err != nil {
		h.replyError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Unchanged {
		status = http.StatusOK
	}
	h.reply(w, r, status, mappers.IngestResultToApi(result))
}

// (GET /api/v1/sources/{name})
func (h *ServiceHandler) GetSource(w http.ResponseWriter, r *http.Request) {
	ref := api.SourceRef{Name: chi.URLParam(r, "name")}
	if err := h.sourceValidator.Struct(ref); err != nil {
		h.badRequest(w, r, err)
		return
	}

	source, err := h.sourceSrv.GetSource(r.Context(), ref.Name)
	if err != nil {
		h.replyError(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, mappers.SourceToApi(*source))
}

// (DELETE /api/v1/sources/{name})
func (h *ServiceHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	ref := api.SourceRef{Name: chi.URLParam(r, "name")}
	if err := h.sourceValidator.Struct(ref); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.sourceSrv.DeleteSource(r.Context(), ref.Name); err != nil {
		h.replyError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// (POST /api/v1/reload)
func (h *ServiceHandler) Reload(w http.ResponseWriter, r *http.Request) {
	epoch, err := h.sourceSrv.Reload(r.Context())
	if err != nil {
		h.replyError(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, api.Reload{Epoch: epoch})
}
