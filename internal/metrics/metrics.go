// Package metrics holds the variant-draft business counters.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Upload and save outcomes used as label values.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

// Metrics counts draft lifecycle events. A nil *Metrics records nothing.
type Metrics struct {
	draftsCreated   prometheus.Counter
	regenerations   prometheus.Counter
	rowsGenerated   prometheus.Histogram
	uploads         *prometheus.CounterVec
	saves           *prometheus.CounterVec
	variantsSaved   prometheus.Counter
	productsDeleted prometheus.Counter
}

// New registers the variant metrics on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		draftsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "variant_drafts_created_total",
			Help: "Variant drafts opened.",
		}),
		regenerations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "variant_matrix_regenerations_total",
			Help: "Times the variant matrix was rebuilt from the attribute set.",
		}),
		rowsGenerated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "variant_matrix_rows",
			Help:    "Rows produced per matrix regeneration.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "variant_image_uploads_total",
			Help: "Variant image uploads by result.",
		}, []string{"result"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "variant_draft_saves_total",
			Help: "Draft save attempts by result.",
		}, []string{"result"}),
		variantsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "variant_variants_saved_total",
			Help: "Product variants persisted by saves.",
		}),
		productsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "variant_product_deletions_total",
			Help: "product.deleted events that removed variants.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.draftsCreated, m.regenerations, m.rowsGenerated,
		m.uploads, m.saves, m.variantsSaved, m.productsDeleted,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register variant metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) DraftCreated() {
	if m == nil {
		return
	}
	m.draftsCreated.Inc()
}

// Regenerated records a matrix rebuild that produced rows rows.
func (m *Metrics) Regenerated(rows int) {
	if m == nil {
		return
	}
	m.regenerations.Inc()
	m.rowsGenerated.Observe(float64(rows))
}

func (m *Metrics) Upload(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

// Saved records a save attempt; variants is only counted on success.
func (m *Metrics) Saved(result string, variants int) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.variantsSaved.Add(float64(variants))
	}
}

func (m *Metrics) ProductDeleted() {
	if m == nil {
		return
	}
	m.productsDeleted.Inc()
}
