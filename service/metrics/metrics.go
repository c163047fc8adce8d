package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Webhook ingestion metrics
	webhookDeliveriesTotal *prometheus.CounterVec
	webhookBatchSize       *prometheus.HistogramVec

	// Pipeline metrics
	pipelineEventsTotal   *prometheus.CounterVec
	pipelineStageFailures *prometheus.CounterVec
	pipelineDuration      *prometheus.HistogramVec
	buysDetectedTotal     *prometheus.CounterVec

	// Aggregator (Jupiter) metrics
	aggregatorCallsTotal  *prometheus.CounterVec
	aggregatorCallSeconds *prometheus.HistogramVec

	// Solana RPC metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// HTTP metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS metrics
	natsMessagesPublished *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Webhook ingestion metrics
		webhookDeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_deliveries_total",
				Help: "Total number of webhook deliveries by decode status",
			},
			[]string{"status"},
		),
		webhookBatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webhook_batch_size",
				Help:    "Number of transaction events per webhook delivery",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"status"},
		),

		// Pipeline metrics
		pipelineEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_events_total",
				Help: "Total number of pipeline event runs by outcome",
			},
			[]string{"outcome"},
		),
		pipelineStageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_stage_failures_total",
				Help: "Total number of pipeline failures by stage",
			},
			[]string{"stage"},
		),
		pipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_event_duration_seconds",
				Help:    "Duration of one event's pipeline run in seconds",
				Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		buysDetectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buys_detected_total",
				Help: "Total number of buy transactions detected on the watched wallet",
			},
			[]string{"wallet_address"},
		),

		// Aggregator metrics
		aggregatorCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregator_calls_total",
				Help: "Total number of swap aggregator calls by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		aggregatorCallSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aggregator_call_duration_seconds",
				Help:    "Duration of swap aggregator calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint"},
		),

		// Solana RPC metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// HTTP metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		// NATS metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
	}
}

// Webhook metric helpers

// RecordWebhookDelivery records one webhook delivery and its batch size.
func (m *Metrics) RecordWebhookDelivery(status string, batchSize int) {
	m.webhookDeliveriesTotal.WithLabelValues(status).Inc()
	m.webhookBatchSize.WithLabelValues(status).Observe(float64(batchSize))
}

// Pipeline metric helpers

// RecordPipelineEvent records one event's pipeline run with duration.
func (m *Metrics) RecordPipelineEvent(outcome string, duration float64) {
	m.pipelineEventsTotal.WithLabelValues(outcome).Inc()
	m.pipelineDuration.WithLabelValues(outcome).Observe(duration)
}

// RecordPipelineStageFailure records a failure at a named pipeline stage.
func (m *Metrics) RecordPipelineStageFailure(stage string) {
	m.pipelineStageFailures.WithLabelValues(stage).Inc()
}

// RecordBuyDetected records a detected buy on the watched wallet.
func (m *Metrics) RecordBuyDetected(walletAddress string) {
	m.buysDetectedTotal.WithLabelValues(walletAddress).Inc()
}

// Aggregator metric helpers

// RecordAggregatorCall records a swap aggregator call with duration.
func (m *Metrics) RecordAggregatorCall(endpoint, status string, duration float64) {
	m.aggregatorCallsTotal.WithLabelValues(endpoint, status).Inc()
	m.aggregatorCallSeconds.WithLabelValues(endpoint).Observe(duration)
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish attempt.
func (m *Metrics) RecordNATSPublish(subject, status string) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
}

// statusCodeToString converts an HTTP status code to its string label.
func statusCodeToString(code int) string {
	return strconv.Itoa(code)
}
