package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/certisched-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	technicians       *prometheus.CounterVec
	backlogReasons    *prometheus.CounterVec
	autoApprovals     prometheus.Counter
	improviso         prometheus.Counter
	auditDropped      prometheus.Counter
	realtimeClients   prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	operationCount       uint64
	operationFailures    uint64
	scheduledCount       uint64
	backlogCount         uint64
	approvalCount        uint64
	improvisoCount       uint64
	auditDroppedCount    uint64
	clientCount          int64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	operationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduling_operation_duration_seconds",
		Help:    "Duration of group units of work, lock wait included",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	technicians := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_technicians_total",
		Help: "Technicians processed by the auto-scheduling engine",
	}, []string{"result"})

	backlogReasons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_backlog_reasons_total",
		Help: "Technicians sent to backlog by reason",
	}, []string{"reason"})

	autoApprovals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduling_auto_approvals_total",
		Help: "Technicians promoted by the D+1 sweep",
	})

	improviso := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduling_improviso_cancellations_total",
		Help: "Schedules cancelled by an improviso",
	})

	auditDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_tickets_dropped_total",
		Help: "Audit tickets dropped because the writer queue was full or stopped",
	})

	realtimeClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_clients",
		Help: "Connected change-feed websocket clients",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, operationDuration, technicians, backlogReasons, autoApprovals, improviso, auditDropped, realtimeClients, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		operationDuration: operationDuration,
		technicians:       technicians,
		backlogReasons:    backlogReasons,
		autoApprovals:     autoApprovals,
		improviso:         improviso,
		auditDropped:      auditDropped,
		realtimeClients:   realtimeClients,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveOperation records one unit of work.
func (m *MetricsService) ObserveOperation(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		atomic.AddUint64(&m.operationFailures, 1)
	}
	m.operationDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
	atomic.AddUint64(&m.operationCount, 1)
}

// RecordSchedulingRun adds the outcome of an engine pass.
func (m *MetricsService) RecordSchedulingRun(scheduled int, reasons map[string]int) {
	if m == nil {
		return
	}
	m.technicians.WithLabelValues("scheduled").Add(float64(scheduled))
	atomic.AddUint64(&m.scheduledCount, uint64(scheduled))
	for reason, n := range reasons {
		m.technicians.WithLabelValues("backlog").Add(float64(n))
		m.backlogReasons.WithLabelValues(reason).Add(float64(n))
		atomic.AddUint64(&m.backlogCount, uint64(n))
	}
}

// RecordAutoApprovals counts sweep promotions.
func (m *MetricsService) RecordAutoApprovals(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.autoApprovals.Add(float64(n))
	atomic.AddUint64(&m.approvalCount, uint64(n))
}

// RecordImprovisoCancellations counts schedules cancelled by an improviso.
func (m *MetricsService) RecordImprovisoCancellations(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.improviso.Add(float64(n))
	atomic.AddUint64(&m.improvisoCount, uint64(n))
}

// RecordAuditDropped counts a ticket the audit queue refused.
func (m *MetricsService) RecordAuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
	atomic.AddUint64(&m.auditDroppedCount, 1)
}

// AddRealtimeClients moves the connected-clients gauge by delta.
func (m *MetricsService) AddRealtimeClients(delta int) {
	if m == nil {
		return
	}
	m.realtimeClients.Add(float64(delta))
	atomic.AddInt64(&m.clientCount, int64(delta))
}

// Snapshot returns aggregated metrics for the status endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		OperationsTotal:          atomic.LoadUint64(&m.operationCount),
		OperationFailures:        atomic.LoadUint64(&m.operationFailures),
		TechniciansScheduled:     atomic.LoadUint64(&m.scheduledCount),
		TechniciansBacklogged:    atomic.LoadUint64(&m.backlogCount),
		AutoApprovals:            atomic.LoadUint64(&m.approvalCount),
		ImprovisoCancellations:   atomic.LoadUint64(&m.improvisoCount),
		AuditDropped:             atomic.LoadUint64(&m.auditDroppedCount),
		RealtimeClients:          atomic.LoadInt64(&m.clientCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
