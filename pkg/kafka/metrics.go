package kafka

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds producer and consumer instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	published     *prometheus.CounterVec
	publishErrors *prometheus.CounterVec
	processed     *prometheus.CounterVec
	failed        *prometheus.CounterVec
	duplicates    *prometheus.CounterVec
	dlqPublished  *prometheus.CounterVec
	processing    *prometheus.HistogramVec
}

// NewMetrics creates the kafka instruments and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_producer_messages_published_total",
			Help: "Total number of Kafka messages published",
		}, []string{"topic"}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_producer_publish_errors_total",
			Help: "Total number of Kafka publish errors",
		}, []string{"topic"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_processed_total",
			Help: "Total number of successfully processed Kafka messages",
		}, []string{"topic", "consumer_group"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_failed_total",
			Help: "Total number of Kafka messages that failed all retries",
		}, []string{"topic", "consumer_group"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_duplicate_total",
			Help: "Total number of duplicate Kafka messages skipped",
		}, []string{"topic", "consumer_group"}),
		dlqPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_dlq_published_total",
			Help: "Total number of messages published to the dead-letter queue",
		}, []string{"topic", "consumer_group"}),
		processing: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kafka_consumer_processing_duration_seconds",
			Help:    "Duration of Kafka message processing in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic", "consumer_group"}),
	}

	for _, c := range []prometheus.Collector{
		m.published, m.publishErrors, m.processed, m.failed, m.duplicates, m.dlqPublished, m.processing,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register kafka metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observePublish(topic string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.publishErrors.WithLabelValues(topic).Inc()
		return
	}
	m.published.WithLabelValues(topic).Inc()
}

func (m *Metrics) observeConsume(topic, group string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.processing.WithLabelValues(topic, group).Observe(seconds)
	if err != nil {
		m.failed.WithLabelValues(topic, group).Inc()
		return
	}
	m.processed.WithLabelValues(topic, group).Inc()
}

func (m *Metrics) incDuplicate(topic, group string) {
	if m != nil {
		m.duplicates.WithLabelValues(topic, group).Inc()
	}
}

func (m *Metrics) incDLQ(topic, group string) {
	if m != nil {
		m.dlqPublished.WithLabelValues(topic, group).Inc()
	}
}
