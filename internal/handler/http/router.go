package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lelekart/variantmatrix/internal/service"
	"github.com/lelekart/variantmatrix/pkg/health"
	"github.com/lelekart/variantmatrix/pkg/middleware"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultUploadTimeout  = 5 * time.Minute
)

// RouterConfig carries the cross-cutting pieces mounted next to the API.
type RouterConfig struct {
	ServiceName string
	Health      *health.Handler
	// Metrics may be nil, in which case HTTP metrics are not recorded.
	Metrics        *middleware.HTTPMetrics
	MetricsHandler http.Handler
	// Media serves uploaded images when they are kept in memory. Optional.
	Media          http.Handler
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	// UploadLimit throttles image uploads per seller. Nil disables it.
	UploadLimit *middleware.RateLimitConfig
}

// NewRouter creates a chi router with all variant service routes registered.
func NewRouter(
	draftService *service.DraftService,
	variantService *service.VariantService,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = defaultUploadTimeout
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(logger))
	if cfg.Metrics != nil {
		r.Use(middleware.PrometheusMetrics(cfg.Metrics))
	}
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Media != nil {
		r.Handle(MediaPath+"*", cfg.Media)
	}

	drafts := NewDraftHandler(draftService, logger)
	variants := NewVariantHandler(variantService, logger)

	r.Route("/api/v1/variant-drafts", func(r chi.Router) {
		// Uploads stream many files to the media service and get their own deadline.
		upload := []func(http.Handler) http.Handler{chimw.Timeout(cfg.UploadTimeout), ContentTypeMultipart}
		if cfg.UploadLimit != nil {
			upload = append(upload, middleware.RateLimit(*cfg.UploadLimit, logger))
		}
		r.With(upload...).Post("/{draftId}/rows/{rowId}/images/upload", drafts.UploadImages)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(cfg.RequestTimeout))
			r.Get("/{draftId}/export.xlsx", drafts.Export)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			r.Use(chimw.Timeout(cfg.RequestTimeout))
			r.Use(ContentTypeJSON)

			r.Post("/", drafts.CreateDraft)
			r.Get("/{draftId}", drafts.GetDraft)
			r.Delete("/{draftId}", drafts.DeleteDraft)

			r.Post("/{draftId}/attributes/{attrIndex}/values", drafts.AddAttributeValue)
			r.Delete("/{draftId}/attributes/{attrIndex}/values/{valueIndex}", drafts.RemoveAttributeValue)

			r.Post("/{draftId}/configure", drafts.Configure)
			r.Post("/{draftId}/edit-attributes", drafts.EditAttributes)

			r.Patch("/{draftId}/rows", drafts.UpdateAllRows)
			r.Patch("/{draftId}/rows/{rowId}", drafts.UpdateRow)

			r.Post("/{draftId}/rows/{rowId}/images/url", drafts.AttachURL)
			r.Post("/{draftId}/rows/{rowId}/images/urls", drafts.AttachURLs)
			r.Delete("/{draftId}/rows/{rowId}/images/{index}", drafts.RemoveImage)

			r.Post("/{draftId}/save", drafts.Save)
		})
	})

	r.Route("/api/v1/products/{productId}/variants", func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(cfg.RequestTimeout))
		r.Get("/", variants.ListVariants)
	})

	return r
}
