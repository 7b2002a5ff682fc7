package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/noah-isme/certisched-api/internal/models"
)

// MemoryStore keeps group snapshots in process memory. Used for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	groups map[string]*models.GroupSnapshot
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{groups: make(map[string]*models.GroupSnapshot)}
}

// Seed replaces the stored state for a group.
func (s *MemoryStore) Seed(snapshot models.GroupSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[snapshot.GroupID] = cloneSnapshot(&snapshot)
}

// LoadGroup returns an isolated copy of the group's state. Unknown groups are empty.
func (s *MemoryStore) LoadGroup(ctx context.Context, groupID string) (*models.GroupSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.groups[groupID]
	if !ok {
		return &models.GroupSnapshot{GroupID: groupID}, nil
	}
	return cloneSnapshot(snap), nil
}

// CommitGroup applies the changeset atomically.
func (s *MemoryStore) CommitGroup(ctx context.Context, groupID string, changes models.GroupChangeset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.groups[groupID]
	if !ok {
		current = &models.GroupSnapshot{GroupID: groupID}
	}
	next := cloneSnapshot(current)
	applyChangeset(next, changes)
	s.groups[groupID] = next
	return nil
}

// Groups lists the seeded or committed group ids.
func (s *MemoryStore) Groups(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.groups))
	for id := range s.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
