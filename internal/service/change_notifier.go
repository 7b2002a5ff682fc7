package service

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

type changePublisher interface {
	Publish(notice models.ChangeNotice)
}

// ChangeNotifier fans committed-change notices out to registered observers.
type ChangeNotifier struct {
	mu          sync.RWMutex
	subscribers map[int]func(models.ChangeNotice)
	last        map[string]models.ChangeNotice
	next        int
	logger      *zap.Logger
}

// NewChangeNotifier constructs an empty notifier.
func NewChangeNotifier(logger *zap.Logger) *ChangeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeNotifier{
		subscribers: make(map[int]func(models.ChangeNotice)),
		last:        make(map[string]models.ChangeNotice),
		logger:      logger,
	}
}

// Subscribe registers fn and returns a function that removes it.
func (n *ChangeNotifier) Subscribe(fn func(models.ChangeNotice)) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subscribers[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subscribers, id)
			n.mu.Unlock()
		})
	}
}

// Publish records the notice as the group's last change, then calls every subscriber
// in registration order. A panicking subscriber is logged and skipped.
func (n *ChangeNotifier) Publish(notice models.ChangeNotice) {
	n.mu.Lock()
	n.last[notice.GroupID] = notice
	n.mu.Unlock()

	n.mu.RLock()
	ids := make([]int, 0, len(n.subscribers))
	for id := range n.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(models.ChangeNotice), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, n.subscribers[id])
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		n.deliver(fn, notice)
	}
}

func (n *ChangeNotifier) deliver(fn func(models.ChangeNotice), notice models.ChangeNotice) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("change subscriber panicked", zap.String("group_id", notice.GroupID), zap.Any("panic", r))
		}
	}()
	fn(notice)
}

// LastChange returns the most recent notice published for a group by this process,
// or ErrCacheMiss.
func (n *ChangeNotifier) LastChange(ctx context.Context, groupID string) (*models.ChangeNotice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	notice, ok := n.last[groupID]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return &notice, nil
}

// Subscribers reports how many observers are registered.
func (n *ChangeNotifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}
