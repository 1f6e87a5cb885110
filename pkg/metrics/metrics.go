package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

const namespace = "guardian_adapter"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type AdapterMetrics struct {
	operationCount     *prometheus.CounterVec
	operationLatencyMS *prometheus.HistogramVec
	publishedMessages  prometheus.Counter
	attestedMessages   *prometheus.CounterVec
	feesPaid           prometheus.Counter
}

func NewAdapterMetrics(registerer prometheus.Registerer) *AdapterMetrics {
	m := AdapterMetrics{
		operationCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_count",
				Help:      "Number of adapter operations by outcome and error code",
			},
			[]string{"operation", "result", "code"},
		),
		operationLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_latency_ms",
				Help:      "Latency of adapter operations in milliseconds",
				Buckets:   prometheus.ExponentialBucketsRange(1, 10000, 10),
			},
			[]string{"operation"},
		),
		publishedMessages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "published_message_count",
				Help:      "Number of messages published through the core bridge",
			},
		),
		attestedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attested_message_count",
				Help:      "Number of inbound messages attested to the endpoint",
			},
			[]string{"source_chain"},
		),
		feesPaid: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fee_payment_count",
				Help:      "Number of message fee transfers made before publication",
			},
		),
	}

	registerer.MustRegister(m.operationCount)
	registerer.MustRegister(m.operationLatencyMS)
	registerer.MustRegister(m.publishedMessages)
	registerer.MustRegister(m.attestedMessages)
	registerer.MustRegister(m.feesPaid)

	return &m
}

// ObserveOperation records the outcome of one operation started at start. A nil receiver is a
// no-op so components can run without metrics.
func (m *AdapterMetrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result, code := ResultSuccess, ""
	if err != nil {
		result, code = ResultFailure, types.ErrorCode(err)
	}
	m.operationCount.WithLabelValues(operation, result, code).Inc()
	m.operationLatencyMS.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
}

func (m *AdapterMetrics) MessagePublished() {
	if m == nil {
		return
	}
	m.publishedMessages.Inc()
}

func (m *AdapterMetrics) FeePaid() {
	if m == nil {
		return
	}
	m.feesPaid.Inc()
}

func (m *AdapterMetrics) MessageAttested(sourceChain string) {
	if m == nil {
		return
	}
	m.attestedMessages.WithLabelValues(sourceChain).Inc()
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
