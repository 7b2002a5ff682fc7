package models

import "time"

// SystemMetrics is a lightweight view of the process counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	OperationsTotal          uint64    `json:"operations_total"`
	OperationFailures        uint64    `json:"operation_failures"`
	TechniciansScheduled     uint64    `json:"technicians_scheduled"`
	TechniciansBacklogged    uint64    `json:"technicians_backlogged"`
	AutoApprovals            uint64    `json:"auto_approvals"`
	ImprovisoCancellations   uint64    `json:"improviso_cancellations"`
	AuditDropped             uint64    `json:"audit_dropped"`
	RealtimeClients          int64     `json:"realtime_clients"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
