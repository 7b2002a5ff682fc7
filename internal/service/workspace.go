package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
	"github.com/noah-isme/certisched-api/pkg/lock"
)

type groupStore interface {
	LoadGroup(ctx context.Context, groupID string) (*models.GroupSnapshot, error)
	CommitGroup(ctx context.Context, groupID string, changes models.GroupChangeset) error
}

// WorkspaceDeps bundles what every group operation needs.
type WorkspaceDeps struct {
	Store    groupStore
	Locker   lock.Locker
	Audit    auditLogger
	Notifier changePublisher
	Metrics  *MetricsService
	Logger   *zap.Logger
	Location *time.Location
	Now      func() time.Time
}

type groupWorkspace struct {
	store    groupStore
	locker   lock.Locker
	audit    auditLogger
	notifier changePublisher
	metrics  *MetricsService
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

func newGroupWorkspace(deps WorkspaceDeps) *groupWorkspace {
	w := &groupWorkspace{
		store:    deps.Store,
		locker:   deps.Locker,
		audit:    deps.Audit,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		loc:      deps.Location,
		now:      deps.Now,
	}
	if w.locker == nil {
		w.locker = lock.NewMemoryLocker(0)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.loc == nil {
		w.loc = time.UTC
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// today is the civil date in the configured timezone.
func (w *groupWorkspace) today() time.Time {
	return models.DateOnly(w.now().In(w.loc))
}

type mutation func(state *schedulingState) ([]models.AuditTicket, error)

// mutate runs fn as one unit of work: lock, load, run, commit, unlock, then notify and
// audit. A failed commit leaves nothing behind because the state is per-call.
func (w *groupWorkspace) mutate(ctx context.Context, groupID, operation string, fn mutation) (err error) {
	started := w.now()
	defer func() { w.metrics.ObserveOperation(operation, err, w.now().Sub(started)) }()

	if groupID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "group id is required")
	}

	unlock, err := w.locker.Lock(ctx, groupID)
	if err != nil {
		return lockError(err)
	}
	tickets, changed, err := w.run(ctx, groupID, fn)
	unlock()
	if err != nil {
		return err
	}

	if changed && w.notifier != nil {
		w.notifier.Publish(models.ChangeNotice{GroupID: groupID, Operation: operation, At: w.now().UTC()})
	}
	if w.audit != nil {
		for _, ticket := range tickets {
			if ticket.GroupID == "" {
				ticket.GroupID = groupID
			}
			w.audit.LogTicket(ctx, ticket)
		}
	}
	return nil
}

func (w *groupWorkspace) run(ctx context.Context, groupID string, fn mutation) ([]models.AuditTicket, bool, error) {
	snap, err := w.store.LoadGroup(ctx, groupID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	state := newSchedulingState(snap, w.today())
	tickets, err := fn(state)
	if err != nil {
		return nil, false, err
	}

	changes := state.changeset()
	if changes.IsEmpty() {
		return tickets, false, nil
	}
	if err := w.store.CommitGroup(ctx, groupID, changes); err != nil {
		w.logger.Error("group commit failed", zap.String("group_id", groupID), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist changes")
	}
	return tickets, true, nil
}

// view loads a consistent state under the group lock for read-only work.
func (w *groupWorkspace) view(ctx context.Context, groupID string, fn func(state *schedulingState) error) error {
	if groupID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "group id is required")
	}
	unlock, err := w.locker.Lock(ctx, groupID)
	if err != nil {
		return lockError(err)
	}
	defer unlock()

	snap, err := w.store.LoadGroup(ctx, groupID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return fn(newSchedulingState(snap, w.today()))
}

func lockError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrLockTimeout.Code, appErrors.ErrLockTimeout.Status, "failed to acquire group lock")
}
