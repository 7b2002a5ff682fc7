package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

const (
	improvisoSubReason   = "ANALISTA INDISPONÍVEL"
	improvisoObservation = "CANCELADO POR IMPROVISO NA AGENDA"
	improvisoTitle       = "IMPROVISO"
	opImprovisoCancel    = "improviso.cancel"
	opImprovisoDeclare   = "improviso.declare"
)

// ImprovisoService cancels bookings invalidated by a late analyst absence.
type ImprovisoService struct {
	ws        *groupWorkspace
	validator *validator.Validate
	logger    *zap.Logger
}

// NewImprovisoService constructs an ImprovisoService.
func NewImprovisoService(deps WorkspaceDeps, validate *validator.Validate) *ImprovisoService {
	if validate == nil {
		validate = validator.New()
	}
	ws := newGroupWorkspace(deps)
	return &ImprovisoService{ws: ws, validator: validate, logger: ws.logger}
}

type improvisoSlot struct {
	analystID string
	day       time.Time
	shift     models.Shift
	title     string
}

func (s *ImprovisoService) parse(req dto.ImprovisoRequest) (improvisoSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return improvisoSlot{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid improviso payload")
	}
	day, err := parseDate("date", req.Date)
	if err != nil {
		return improvisoSlot{}, err
	}
	title := req.Title
	if title == "" {
		title = improvisoTitle
	}
	return improvisoSlot{analystID: req.AnalystID, day: day, shift: models.Shift(req.Shift), title: title}, nil
}

// FindImpacted lists the confirmed bookings the absence would invalidate.
func (s *ImprovisoService) FindImpacted(ctx context.Context, groupID string, req dto.ImprovisoRequest) ([]models.CertificationSchedule, error) {
	slot, err := s.parse(req)
	if err != nil {
		return nil, err
	}
	out := make([]models.CertificationSchedule, 0)
	err = s.ws.view(ctx, groupID, func(state *schedulingState) error {
		for _, sch := range impactedSchedules(state, slot) {
			out = append(out, *sch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelImpacted cancels every impacted booking and resets its technician.
func (s *ImprovisoService) CancelImpacted(ctx context.Context, groupID string, req dto.ImprovisoRequest, actor models.Actor) (int, error) {
	slot, err := s.parse(req)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	err = s.ws.mutate(ctx, groupID, opImprovisoCancel, func(state *schedulingState) ([]models.AuditTicket, error) {
		cancelled = s.cancel(state, slot, actor)
		return []models.AuditTicket{improvisoTicket(groupID, slot, cancelled, actor)}, nil
	})
	if err != nil {
		return 0, err
	}
	s.ws.metrics.RecordImprovisoCancellations(cancelled)
	return cancelled, nil
}

// DeclareImproviso cancels the impacted bookings and then blocks the analyst, in one
// unit of work. Cancelling first keeps the new block from hiding the bookings it breaks.
func (s *ImprovisoService) DeclareImproviso(ctx context.Context, groupID string, req dto.ImprovisoRequest, actor models.Actor) (*dto.ImprovisoResponse, error) {
	slot, err := s.parse(req)
	if err != nil {
		return nil, err
	}
	var out dto.ImprovisoResponse
	err = s.ws.mutate(ctx, groupID, opImprovisoDeclare, func(state *schedulingState) ([]models.AuditTicket, error) {
		if _, ok := state.user(slot.analystID); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analyst not found")
		}
		out.Cancelled = s.cancel(state, slot, actor)

		clearUserSlot(state, slot.analystID, slot.day, slot.shift)
		e := newAnalystEvent(groupID, slot.title, models.EventImproviso, []string{slot.analystID}, slot.day, slot.shift, "", actor.DisplayName(), s.ws.now().UTC())
		state.addEvent(e)
		out.EventID = e.ID

		return []models.AuditTicket{improvisoTicket(groupID, slot, out.Cancelled, actor)}, nil
	})
	if err != nil {
		return nil, err
	}
	s.ws.metrics.RecordImprovisoCancellations(out.Cancelled)
	s.logger.Info("improviso declared",
		zap.String("group_id", groupID),
		zap.String("analyst_id", slot.analystID),
		zap.String("date", models.DateKey(slot.day)),
		zap.Int("cancelled", out.Cancelled),
	)
	return &out, nil
}

func (s *ImprovisoService) cancel(state *schedulingState, slot improvisoSlot, actor models.Actor) int {
	now := s.ws.now().UTC()
	by := actor.DisplayName()
	impacted := impactedSchedules(state, slot)
	for _, sch := range impacted {
		sch.Status = models.ScheduleCancelled
		sch.UpdatedAt = now
		state.touchSchedule(sch)

		tech, ok := state.technician(sch.TechnicianID)
		if !ok {
			continue
		}
		if linked := tech.ScheduleID(); linked != "" && linked != sch.ID {
			continue
		}
		tech.ScheduledCertificationID = nil
		tech.Status = models.TechnicianCancelledByAnalyst
		tech.SubReason = improvisoSubReason
		tech.Observation = improvisoObservation
		tech.ManualCancelled = true
		stampStatus(tech, by, now)
		state.touchTechnician(tech)
	}
	return len(impacted)
}

// impactedSchedules returns the analyst's confirmed bookings on the date whose shift
// overlaps the absence.
func impactedSchedules(state *schedulingState, slot improvisoSlot) []*models.CertificationSchedule {
	var out []*models.CertificationSchedule
	for _, sch := range state.schedulesOn(slot.analystID, slot.day) {
		if sch.Status == models.ScheduleConfirmed && sch.Shift.Overlaps(slot.shift) {
			out = append(out, sch)
		}
	}
	return out
}

func improvisoTicket(groupID string, slot improvisoSlot, cancelled int, actor models.Actor) models.AuditTicket {
	ticket := newTicket(groupID, models.AuditImprovisoCancel, actor)
	ticket.TargetType = models.AuditTargetAnalyst
	ticket.TargetValue = slot.analystID
	ticket.Reason = fmt.Sprintf("Improviso lançado para %s (%s) afetando %d agendamentos.", models.DateKey(slot.day), slot.shift, cancelled)
	if ticket.Screen == "" {
		ticket.Screen = screenCalendar
	}
	return ticket
}
