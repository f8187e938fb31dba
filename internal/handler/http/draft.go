package http

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lelekart/variantmatrix/internal/domain"
	"github.com/lelekart/variantmatrix/internal/export"
	"github.com/lelekart/variantmatrix/internal/service"
	"github.com/lelekart/variantmatrix/internal/uploader"
	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
	"github.com/lelekart/variantmatrix/pkg/httputil"
	"github.com/lelekart/variantmatrix/pkg/logger"
	"github.com/lelekart/variantmatrix/pkg/validator"
)

const (
	// MaxUploadFiles caps the files accepted by one upload request.
	MaxUploadFiles = 10
	// UploadFormField is the multipart field carrying the images.
	UploadFormField = "files"

	maxUploadBody   = MaxUploadFiles*uploader.MaxFileSize + 1<<20
	multipartMemory = 32 << 20
)

// DraftHandler handles HTTP requests for variant drafts.
type DraftHandler struct {
	service *service.DraftService
	logger  *slog.Logger
}

// NewDraftHandler creates a new draft HTTP handler.
func NewDraftHandler(svc *service.DraftService, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddValueRequest is the JSON body for adding an attribute value.
type AddValueRequest struct {
	Value string `json:"value" validate:"required,max=100"`
}

// RowPatchRequest is the JSON body for editing one row or all rows. Omitted
// fields are left unchanged.
type RowPatchRequest struct {
	SKU     *string `json:"sku" validate:"omitempty,max=100"`
	Price   *int64  `json:"price" validate:"omitempty,gte=0"`
	MRP     *int64  `json:"mrp" validate:"omitempty,gte=0"`
	Stock   *int    `json:"stock" validate:"omitempty,gte=0"`
	Enabled *bool   `json:"enabled"`
}

func (r RowPatchRequest) patch() domain.RowPatch {
	return domain.RowPatch{SKU: r.SKU, Price: r.Price, MRP: r.MRP, Stock: r.Stock, Enabled: r.Enabled}
}

// AttachURLRequest is the JSON body for linking a single image.
type AttachURLRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// AttachURLsRequest is the JSON body for linking several images, one URL per
// line.
type AttachURLsRequest struct {
	URLs string `json:"urls" validate:"required"`
}

// --- Responses ---

// draftResponse adds the derived per-row image lookup to a draft.
type draftResponse struct {
	*domain.Draft
	ImageIndex map[domain.RowKey][]string `json:"image_index"`
}

func newDraftResponse(d *domain.Draft) draftResponse {
	return draftResponse{Draft: d, ImageIndex: d.ImageIndex()}
}

type uploadResponse struct {
	Uploaded int            `json:"uploaded"`
	Total    int            `json:"total"`
	URLs     []string       `json:"urls"`
	Draft    *draftResponse `json:"draft,omitempty"`
}

func newUploadResponse(report *service.UploadReport) uploadResponse {
	resp := uploadResponse{Uploaded: report.Uploaded, Total: report.Total, URLs: report.URLs}
	if report.Draft != nil {
		d := newDraftResponse(report.Draft)
		resp.Draft = &d
	}
	return resp
}

type saveResponse struct {
	Draft    draftResponse           `json:"draft"`
	Variants []domain.ProductVariant `json:"variants"`
}

// --- Handlers ---

// CreateDraft handles POST /api/v1/variant-drafts
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req service.CreateDraftInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	draft, err := h.service.CreateDraft(r.Context(), logger.UserIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: newDraftResponse(draft)})
}

// GetDraft handles GET /api/v1/variant-drafts/{draftId}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	draft, err := h.service.GetDraft(r.Context(), id)
	h.writeDraft(w, r, draft, err)
}

// DeleteDraft handles DELETE /api/v1/variant-drafts/{draftId}
func (h *DraftHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDraft(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddAttributeValue handles POST /api/v1/variant-drafts/{draftId}/attributes/{attrIndex}/values
func (h *DraftHandler) AddAttributeValue(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	attrIndex, ok := httputil.ParseIndex(w, "attribute index", chi.URLParam(r, "attrIndex"))
	if !ok {
		return
	}

	var req AddValueRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	draft, err := h.service.AddAttributeValue(r.Context(), id, attrIndex, req.Value)
	h.writeDraft(w, r, draft, err)
}

// RemoveAttributeValue handles DELETE /api/v1/variant-drafts/{draftId}/attributes/{attrIndex}/values/{valueIndex}
func (h *DraftHandler) RemoveAttributeValue(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	attrIndex, ok := httputil.ParseIndex(w, "attribute index", chi.URLParam(r, "attrIndex"))
	if !ok {
		return
	}
	valueIndex, ok := httputil.ParseIndex(w, "value index", chi.URLParam(r, "valueIndex"))
	if !ok {
		return
	}

	draft, err := h.service.RemoveAttributeValue(r.Context(), id, attrIndex, valueIndex)
	h.writeDraft(w, r, draft, err)
}

// Configure handles POST /api/v1/variant-drafts/{draftId}/configure
func (h *DraftHandler) Configure(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	draft, err := h.service.Configure(r.Context(), id)
	h.writeDraft(w, r, draft, err)
}

// EditAttributes handles POST /api/v1/variant-drafts/{draftId}/edit-attributes
func (h *DraftHandler) EditAttributes(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	draft, err := h.service.EditAttributes(r.Context(), id)
	h.writeDraft(w, r, draft, err)
}

// UpdateAllRows handles PATCH /api/v1/variant-drafts/{draftId}/rows
func (h *DraftHandler) UpdateAllRows(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	var req RowPatchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	draft, err := h.service.UpdateAllRows(r.Context(), id, req.patch())
	h.writeDraft(w, r, draft, err)
}

// UpdateRow handles PATCH /api/v1/variant-drafts/{draftId}/rows/{rowId}
func (h *DraftHandler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	var req RowPatchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	draft, err := h.service.UpdateRow(r.Context(), id, rowID(r), req.patch())
	h.writeDraft(w, r, draft, err)
}

// UploadImages handles POST /api/v1/variant-drafts/{draftId}/rows/{rowId}/images/upload
// (multipart/form-data, one or more "files" parts).
func (h *DraftHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[UploadFormField]
	if len(headers) > MaxUploadFiles {
		httputil.WriteError(w, r, apperrors.InvalidInput(fmt.Sprintf("at most %d files may be uploaded at once", MaxUploadFiles)), h.logger)
		return
	}

	files := make([]uploader.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFormFile(fh)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		files = append(files, f)
	}

	l := logger.FromContext(r.Context())
	report, err := h.service.AttachUploads(r.Context(), id, rowID(r), files, func(p service.UploadProgress) {
		l.DebugContext(r.Context(), "variant image upload progress",
			slog.String("draft_id", id),
			slog.Int("done", p.Done),
			slog.Int("total", p.Total),
			slog.Int("percent", p.Percent),
		)
	})
	if err != nil {
		if report != nil {
			httputil.WriteErrorWithData(w, r, err, newUploadResponse(report), h.logger)
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newUploadResponse(report)})
}

func readFormFile(fh *multipart.FileHeader) (uploader.File, error) {
	src, err := fh.Open()
	if err != nil {
		return uploader.File{}, fmt.Errorf("open uploaded file %q: %w", fh.Filename, err)
	}
	defer src.Close()

	// One byte past the limit is enough for Validate to reject it.
	data, err := io.ReadAll(io.LimitReader(src, uploader.MaxFileSize+1))
	if err != nil {
		return uploader.File{}, fmt.Errorf("read uploaded file %q: %w", fh.Filename, err)
	}
	return uploader.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// AttachURL handles POST /api/v1/variant-drafts/{draftId}/rows/{rowId}/images/url
func (h *DraftHandler) AttachURL(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	var req AttachURLRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	draft, err := h.service.AttachURL(r.Context(), id, rowID(r), req.URL)
	h.writeDraft(w, r, draft, err)
}

// AttachURLs handles POST /api/v1/variant-drafts/{draftId}/rows/{rowId}/images/urls
func (h *DraftHandler) AttachURLs(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	var req AttachURLsRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	draft, err := h.service.AttachURLs(r.Context(), id, rowID(r), req.URLs)
	h.writeDraft(w, r, draft, err)
}

// RemoveImage handles DELETE /api/v1/variant-drafts/{draftId}/rows/{rowId}/images/{index}
func (h *DraftHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	index, ok := httputil.ParseIndex(w, "image index", chi.URLParam(r, "index"))
	if !ok {
		return
	}

	draft, err := h.service.RemoveImage(r.Context(), id, rowID(r), index)
	h.writeDraft(w, r, draft, err)
}

// Save handles POST /api/v1/variant-drafts/{draftId}/save
func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Save(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: saveResponse{
		Draft:    newDraftResponse(result.Draft),
		Variants: result.Variants,
	}})
}

// Export handles GET /api/v1/variant-drafts/{draftId}/export.xlsx
func (h *DraftHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	file, err := h.service.Export(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

func (h *DraftHandler) writeDraft(w http.ResponseWriter, r *http.Request, draft *domain.Draft, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newDraftResponse(draft)})
}

func draftID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "draftId"))
	if !ok {
		return "", false
	}
	return id.String(), true
}

func rowID(r *http.Request) domain.RowKey {
	return domain.RowKey(chi.URLParam(r, "rowId"))
}
