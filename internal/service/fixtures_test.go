package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/repository"
	"github.com/noah-isme/certisched-api/pkg/lock"
)

const testGroup = "grp-1"

// Monday.
var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

var testActor = models.Actor{UserID: "usr-manager", Name: "GESTORA", Role: models.RoleManager}

type recordingAudit struct {
	mu      sync.Mutex
	tickets []models.AuditTicket
}

func (r *recordingAudit) LogTicket(_ context.Context, ticket models.AuditTicket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = append(r.tickets, ticket)
}

func (r *recordingAudit) all() []models.AuditTicket {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditTicket, len(r.tickets))
	copy(out, r.tickets)
	return out
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []models.ChangeNotice
}

func (r *recordingNotifier) Publish(notice models.ChangeNotice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

type failingStore struct {
	snap      models.GroupSnapshot
	commitErr error
	commits   int
}

func (f *failingStore) LoadGroup(ctx context.Context, groupID string) (*models.GroupSnapshot, error) {
	cp := f.snap
	return &cp, nil
}

func (f *failingStore) CommitGroup(ctx context.Context, groupID string, changes models.GroupChangeset) error {
	f.commits++
	return f.commitErr
}

var errCommit = errors.New("disk full")

type harness struct {
	store    *repository.MemoryStore
	audit    *recordingAudit
	notifier *recordingNotifier
	deps     WorkspaceDeps
}

func newHarness(t *testing.T, snap models.GroupSnapshot) *harness {
	t.Helper()
	if snap.GroupID == "" {
		snap.GroupID = testGroup
	}
	store := repository.NewMemoryStore()
	store.Seed(snap)
	audit := &recordingAudit{}
	notifier := &recordingNotifier{}
	return &harness{
		store:    store,
		audit:    audit,
		notifier: notifier,
		deps: WorkspaceDeps{
			Store:    store,
			Locker:   lock.NewMemoryLocker(time.Second),
			Audit:    audit,
			Notifier: notifier,
			Location: time.UTC,
			Now:      func() time.Time { return testNow },
		},
	}
}

func (h *harness) snapshot(t *testing.T) *models.GroupSnapshot {
	t.Helper()
	snap, err := h.store.LoadGroup(context.Background(), testGroup)
	require.NoError(t, err)
	return snap
}

func (h *harness) technician(t *testing.T, id string) models.Technician {
	t.Helper()
	for _, tech := range h.snapshot(t).Technicians {
		if tech.ID == id {
			return tech
		}
	}
	t.Fatalf("technician %s not found", id)
	return models.Technician{}
}

func (h *harness) schedule(t *testing.T, id string) models.CertificationSchedule {
	t.Helper()
	for _, sch := range h.snapshot(t).Schedules {
		if sch.ID == id {
			return sch
		}
	}
	t.Fatalf("schedule %s not found", id)
	return models.CertificationSchedule{}
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := models.ParseDate(value)
	require.NoError(t, err)
	return d
}

func analyst(id, profile string) models.User {
	return models.User{ID: id, GroupID: testGroup, FullName: "ANALISTA " + id, Login: id, Role: models.RoleAnalyst, Active: true, AnalystProfileID: profile}
}

func pendingTech(id, city string, enrolled int) models.Technician {
	return models.Technician{
		ID:                    id,
		GroupID:               testGroup,
		CPF:                   "000000000" + id[len(id)-2:],
		Name:                  "TECNICO " + id,
		City:                  city,
		Status:                models.TechnicianPendingCertification,
		GenerateCertification: true,
		CreatedAt:             testNow.Add(-time.Duration(1000-enrolled) * time.Minute),
	}
}

func backlogTech(id, city string) models.Technician {
	t := pendingTech(id, city, 0)
	t.Status = models.TechnicianBacklog
	return t
}

func confirmed(id, techID, analystID, date string, shift models.Shift, kind models.ExpertiseType) models.CertificationSchedule {
	d, _ := models.ParseDate(date)
	return models.CertificationSchedule{
		ID:           id,
		GroupID:      testGroup,
		TechnicianID: techID,
		AnalystID:    analystID,
		Datetime:     models.SlotTime(d, shift),
		Shift:        shift,
		Type:         kind,
		Status:       models.ScheduleConfirmed,
		Origin:       models.OriginAuto,
	}
}

func city(name string, kind models.ExpertiseType, profiles ...string) models.CityGroup {
	return models.CityGroup{
		ID:                    "city-" + name,
		GroupID:               testGroup,
		Name:                  name,
		Type:                  kind,
		ResponsibleAnalystIDs: pq.StringArray(profiles),
		Active:                true,
	}
}

func block(id, userID, date string, shift models.Shift) models.AnalystEvent {
	d, _ := models.ParseDate(date)
	return models.AnalystEvent{
		ID:              id,
		GroupID:         testGroup,
		Title:           "FOLGA",
		Kind:            models.EventDayOff,
		InvolvedUserIDs: pq.StringArray{userID},
		StartDatetime:   d,
		Shift:           shift,
	}
}

// countingChecker wraps a checker and counts every question asked.
type countingChecker struct {
	inner AvailabilityChecker
	mu    sync.Mutex
	calls int
}

func (c *countingChecker) hit() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingChecker) IsSlotBlocked(analystID string, date time.Time, shift models.Shift) bool {
	c.hit()
	return c.inner.IsSlotBlocked(analystID, date, shift)
}

func (c *countingChecker) HasTypeConflict(analystID string, date time.Time, target models.ExpertiseType) bool {
	c.hit()
	return c.inner.HasTypeConflict(analystID, date, target)
}

func (c *countingChecker) ShiftCapacity(analystID string, date time.Time, shift models.Shift, target models.ExpertiseType) int {
	c.hit()
	return c.inner.ShiftCapacity(analystID, date, shift, target)
}

// assertBookingInvariants checks capacity and single-type days over all live bookings.
func assertBookingInvariants(t *testing.T, snap *models.GroupSnapshot, limits ShiftLimits) {
	t.Helper()
	perShift := make(map[string]int)
	types := make(map[string]map[models.ExpertiseType]bool)
	for _, sch := range snap.Schedules {
		if sch.Cancelled() {
			continue
		}
		dayKey := sch.AnalystID + "|" + sch.DateKey()
		if types[dayKey] == nil {
			types[dayKey] = make(map[models.ExpertiseType]bool)
		}
		types[dayKey][sch.Type] = true
		for _, shift := range models.BookableShifts {
			if sch.Shift.Overlaps(shift) {
				key := dayKey + "|" + string(shift)
				perShift[key]++
				require.LessOrEqual(t, perShift[key], limits.Limit(sch.Type), key)
			}
		}
	}
	for key, kinds := range types {
		require.LessOrEqual(t, len(kinds), 1, "mixed types on %s", key)
	}
}
