package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/pkg/storage"
)

const snapshotSuffix = ".json"

type snapshotStorage interface {
	Save(filename string, data []byte) error
	Read(filename string) ([]byte, error)
	List(suffix string) ([]string, error)
}

// FileStore keeps one flat JSON document per group on disk.
type FileStore struct {
	storage snapshotStorage
	mu      sync.Mutex
}

// NewFileStore constructs a JSON snapshot store.
func NewFileStore(store snapshotStorage) *FileStore {
	return &FileStore{storage: store}
}

// LoadGroup reads the group's document. A missing document is an empty group.
func (s *FileStore) LoadGroup(ctx context.Context, groupID string) (*models.GroupSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(groupID)
}

// CommitGroup rewrites the group's document with the changeset applied.
func (s *FileStore) CommitGroup(ctx context.Context, groupID string, changes models.GroupChangeset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read(groupID)
	if err != nil {
		return err
	}
	applyChangeset(snap, changes)
	return s.write(snap)
}

// SaveGroup overwrites a group's document, used for seeding.
func (s *FileStore) SaveGroup(ctx context.Context, snapshot models.GroupSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(&snapshot)
}

// Groups lists the ids of stored groups.
func (s *FileStore) Groups(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := s.storage.List(snapshotSuffix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := groupIDFromFile(name)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) read(groupID string) (*models.GroupSnapshot, error) {
	raw, err := s.storage.Read(fileName(groupID))
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return &models.GroupSnapshot{GroupID: groupID}, nil
		}
		return nil, fmt.Errorf("read group snapshot: %w", err)
	}
	var snap models.GroupSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode group snapshot %s: %w", groupID, err)
	}
	snap.GroupID = groupID
	return &snap, nil
}

func (s *FileStore) write(snap *models.GroupSnapshot) error {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode group snapshot: %w", err)
	}
	if err := s.storage.Save(fileName(snap.GroupID), payload); err != nil {
		return fmt.Errorf("write group snapshot: %w", err)
	}
	return nil
}

// fileName encodes the group id as unpadded base64url, so every id maps to its own
// file and the name never carries a path separator.
func fileName(groupID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(groupID)) + snapshotSuffix
}

func groupIDFromFile(name string) (string, bool) {
	if strings.Contains(name, "/") {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, snapshotSuffix))
	if err != nil {
		return "", false
	}
	return string(raw), true
}
