package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

const (
	screenCalendar  = "Agenda"
	opCalendarAdd   = "calendar.add"
	opCalendarRange = "calendar.range"
	opCalendarClear = "calendar.remove"
	maxRangeDays    = 366
)

// CalendarService manages analyst unavailability blocks.
type CalendarService struct {
	ws        *groupWorkspace
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(deps WorkspaceDeps, validate *validator.Validate) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	ws := newGroupWorkspace(deps)
	return &CalendarService{ws: ws, validator: validate, logger: ws.logger}
}

// ListEvents returns the group's blocks ordered by date.
func (s *CalendarService) ListEvents(ctx context.Context, groupID string, query dto.EventListQuery) ([]models.AnalystEvent, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event filter")
	}
	filter := models.EventFilter{UserID: query.UserID}
	if query.From != "" {
		from, err := parseDate("from", query.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := parseDate("to", query.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	out := make([]models.AnalystEvent, 0)
	err := s.ws.view(ctx, groupID, func(state *schedulingState) error {
		for _, e := range state.events {
			if filter.UserID != "" && !e.Involves(filter.UserID) {
				continue
			}
			day := models.DateOnly(e.StartDatetime.UTC())
			if filter.From != nil && day.Before(*filter.From) {
				continue
			}
			if filter.To != nil && day.After(*filter.To) {
				continue
			}
			out = append(out, *e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDatetime.Before(out[j].StartDatetime) })
	return out, nil
}

// AddEvent blocks the involved users on one date. Each user's previous blocks that
// overlap the new shift scope are replaced.
func (s *CalendarService) AddEvent(ctx context.Context, groupID string, req dto.CreateEventRequest, actor models.Actor) (*models.AnalystEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	day, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	kind := models.EventKind(req.Kind)
	if kind == "" {
		kind = models.EventOther
	}
	shift := models.Shift(req.Shift)

	var created models.AnalystEvent
	err = s.ws.mutate(ctx, groupID, opCalendarAdd, func(state *schedulingState) ([]models.AuditTicket, error) {
		users := uniqueIDs(req.InvolvedUserIDs)
		for _, uid := range users {
			clearUserSlot(state, uid, day, shift)
		}
		e := newAnalystEvent(groupID, req.Title, kind, users, day, shift, req.Color, actor.DisplayName(), s.ws.now().UTC())
		state.addEvent(e)
		created = *e

		ticket := newTicket(groupID, models.AuditCalendarBlock, actor)
		ticket.TargetType = models.AuditTargetAnalyst
		ticket.TargetValue = strings.Join(users, ",")
		ticket.Reason = e.Title + " em " + req.Date + " (" + req.Shift + ")"
		if ticket.Screen == "" {
			ticket.Screen = screenCalendar
		}
		ticket.After = auditJSON(created)
		return []models.AuditTicket{ticket}, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// AddEventRange blocks each user for the whole day on every business day of the
// window. Existing blocks on those days are cleared first.
func (s *CalendarService) AddEventRange(ctx context.Context, groupID string, req dto.CreateEventRangeRequest, actor models.Actor) (*dto.EventRangeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event range payload")
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if daysBetween(from, to) > maxRangeDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range cannot exceed one year")
	}
	kind := models.EventKind(req.Kind)
	if kind == "" {
		kind = models.EventOther
	}
	title := strings.ToUpper(strings.TrimSpace(req.Title))

	var out dto.EventRangeResponse
	err = s.ws.mutate(ctx, groupID, opCalendarRange, func(state *schedulingState) ([]models.AuditTicket, error) {
		users := uniqueIDs(req.UserIDs)
		now := s.ws.now().UTC()
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			if !isBusinessDay(day) {
				continue
			}
			for _, uid := range users {
				out.Removed += clearUserSlot(state, uid, day, models.ShiftFullDay)
				state.addEvent(newAnalystEvent(groupID, title, kind, []string{uid}, day, models.ShiftFullDay, req.Color, actor.DisplayName(), now))
				out.Created++
			}
		}

		ticket := newTicket(groupID, models.AuditCalendarBlock, actor)
		ticket.TargetType = models.AuditTargetAnalyst
		ticket.TargetValue = strings.Join(users, ",")
		ticket.Reason = title + " de " + req.From + " a " + req.To
		if ticket.Screen == "" {
			ticket.Screen = screenCalendar
		}
		ticket.After = auditJSON(out)
		return []models.AuditTicket{ticket}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveEvents frees the user for the whole date. Events left without users are deleted.
func (s *CalendarService) RemoveEvents(ctx context.Context, groupID string, query dto.RemoveEventsQuery, actor models.Actor) (int, error) {
	if err := s.validator.Struct(query); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event removal")
	}
	day, err := parseDate("date", query.Date)
	if err != nil {
		return 0, err
	}

	removed := 0
	err = s.ws.mutate(ctx, groupID, opCalendarClear, func(state *schedulingState) ([]models.AuditTicket, error) {
		removed = clearUserSlot(state, query.UserID, day, models.ShiftFullDay)
		if removed == 0 {
			return nil, nil
		}
		ticket := newTicket(groupID, models.AuditCalendarUnblock, actor)
		ticket.TargetType = models.AuditTargetAnalyst
		ticket.TargetValue = query.UserID
		ticket.Reason = "Bloqueios removidos em " + query.Date
		if ticket.Screen == "" {
			ticket.Screen = screenCalendar
		}
		return []models.AuditTicket{ticket}, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// clearUserSlot takes userID out of the day's events whose shift overlaps shift and
// returns how many events it touched.
func clearUserSlot(state *schedulingState, userID string, day time.Time, shift models.Shift) int {
	current := state.eventsOn(userID, day)
	events := make([]*models.AnalystEvent, len(current))
	copy(events, current)

	n := 0
	for _, e := range events {
		if !e.Blocks(shift) {
			continue
		}
		remaining := make(pq.StringArray, 0, len(e.InvolvedUserIDs))
		for _, id := range e.InvolvedUserIDs {
			if id != userID {
				remaining = append(remaining, id)
			}
		}
		if len(remaining) == 0 {
			state.removeEvent(e.ID)
		} else {
			e.InvolvedUserIDs = remaining
			state.updateEvent(e)
		}
		n++
	}
	return n
}

func newAnalystEvent(groupID, title string, kind models.EventKind, users []string, day time.Time, shift models.Shift, color, by string, now time.Time) *models.AnalystEvent {
	return &models.AnalystEvent{
		ID:              uuid.NewString(),
		GroupID:         groupID,
		Title:           strings.TrimSpace(title),
		Kind:            kind,
		InvolvedUserIDs: pq.StringArray(users),
		StartDatetime:   models.DateOnly(day),
		Shift:           shift,
		Color:           color,
		CreatedBy:       by,
		CreatedAt:       now,
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
