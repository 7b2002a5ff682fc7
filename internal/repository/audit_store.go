package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/noah-isme/certisched-api/internal/models"
)

type appendStorage interface {
	Append(filename string, data []byte) error
}

// JSONLAuditStore appends one JSON document per line.
type JSONLAuditStore struct {
	storage  appendStorage
	filename string
}

// NewJSONLAuditStore constructs a line-delimited audit sink.
func NewJSONLAuditStore(store appendStorage, filename string) *JSONLAuditStore {
	if filename == "" {
		filename = "audit.jsonl"
	}
	return &JSONLAuditStore{storage: store, filename: filename}
}

// Insert appends the ticket.
func (s *JSONLAuditStore) Insert(ctx context.Context, ticket models.AuditTicket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("encode audit ticket: %w", err)
	}
	line = append(line, '\n')
	if err := s.storage.Append(s.filename, line); err != nil {
		return fmt.Errorf("append audit ticket: %w", err)
	}
	return nil
}

// MemoryAuditStore keeps tickets in memory.
type MemoryAuditStore struct {
	mu      sync.Mutex
	tickets []models.AuditTicket
}

// NewMemoryAuditStore constructs an empty sink.
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

// Insert records the ticket.
func (s *MemoryAuditStore) Insert(_ context.Context, ticket models.AuditTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, ticket)
	return nil
}

// Tickets returns a copy of what has been recorded.
func (s *MemoryAuditStore) Tickets() []models.AuditTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditTicket, len(s.tickets))
	copy(out, s.tickets)
	return out
}
