package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/pkg/jobs"
)

const (
	auditJobType       = "audit.ticket"
	auditDefaultScreen = "SISTEMA"
)

type auditSink interface {
	Insert(ctx context.Context, ticket models.AuditTicket) error
}

type auditLogger interface {
	LogTicket(ctx context.Context, ticket models.AuditTicket)
}

// AuditConfig sizes the background writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// AuditService hands tickets to a worker pool. Writing never blocks or fails the
// business operation; sink errors are logged and retried by the queue.
type AuditService struct {
	sink    auditSink
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditService wires the sink behind a queue. Call Start before logging.
func NewAuditService(sink auditSink, cfg AuditConfig, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuditService{sink: sink, metrics: metrics, logger: logger, now: time.Now}
	svc.queue = jobs.NewQueue("audit", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes pending tickets and stops the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Stats exposes the queue counters.
func (s *AuditService) Stats() jobs.Stats {
	return s.queue.Stats()
}

// LogTicket fills defaults and enqueues the ticket without blocking.
func (s *AuditService) LogTicket(_ context.Context, ticket models.AuditTicket) {
	ticket = s.complete(ticket)
	if err := s.queue.TryEnqueue(jobs.Job{ID: ticket.TicketID, Type: auditJobType, Payload: ticket}); err != nil {
		s.metrics.RecordAuditDropped()
		s.logger.Sugar().Warnw("audit ticket dropped", "ticket_id", ticket.TicketID, "action", ticket.Action, "group_id", ticket.GroupID, "error", err)
	}
}

func (s *AuditService) complete(ticket models.AuditTicket) models.AuditTicket {
	if ticket.TicketID == "" {
		ticket.TicketID = uuid.NewString()
	}
	if ticket.Timestamp.IsZero() {
		ticket.Timestamp = s.now().UTC()
	}
	if ticket.Reason == "" {
		ticket.Reason = models.AuditDefaultReason
	}
	if ticket.Screen == "" {
		ticket.Screen = auditDefaultScreen
	}
	if ticket.Actor == "" {
		ticket.Actor = models.AuditSystemActor
	}
	return ticket
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	ticket, ok := job.Payload.(models.AuditTicket)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.sink.Insert(ctx, ticket)
}

// newTicket stamps the actor fields shared by every engine ticket.
func newTicket(groupID, action string, actor models.Actor) models.AuditTicket {
	return models.AuditTicket{
		Actor:     actor.DisplayName(),
		ActorRole: string(actor.Role),
		GroupID:   groupID,
		Action:    action,
		Screen:    actor.Screen,
	}
}

// auditJSON encodes a before/after state. Encoding failures leave the field empty.
func auditJSON(v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
