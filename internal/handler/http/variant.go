package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lelekart/variantmatrix/internal/service"
	"github.com/lelekart/variantmatrix/pkg/httputil"
	"github.com/lelekart/variantmatrix/pkg/pagination"
)

// VariantHandler serves saved product variants.
type VariantHandler struct {
	service *service.VariantService
	logger  *slog.Logger
}

// NewVariantHandler creates a new variant HTTP handler.
func NewVariantHandler(svc *service.VariantService, logger *slog.Logger) *VariantHandler {
	return &VariantHandler{
		service: svc,
		logger:  logger,
	}
}

// ListVariants handles GET /api/v1/products/{productId}/variants?page=&per_page=
func (h *VariantHandler) ListVariants(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	page, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	variants, total, err := h.service.ListVariants(r.Context(), productID.String(), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(variants, total, page.Page, page.PerPage))
}
