package service

import (
	"context"
	"fmt"
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
	msgNotLocated        = "TÉCNICO OU ANALISTA NÃO LOCALIZADO."
	msgRulesBroken       = "AGENDAMENTO BLOQUEADO PELAS REGRAS."
	ruleSlotBlocked      = "O analista possui bloqueio de agenda neste período."
	reasonManualClean    = "Agendamento manual respeitando regras."
	screenManualSchedule = "Turmas e Técnicos"
	opManualSchedule     = "scheduling.manual"
)

// ManualValidation lists every rule a hand-picked slot breaks.
type ManualValidation struct {
	CanSchedule bool     `json:"canSchedule"`
	BrokenRules []string `json:"brokenRules"`
	Message     string   `json:"message,omitempty"`
}

// ManualResult reports the outcome of a manual booking.
type ManualResult struct {
	Success     bool
	Message     string
	BrokenRules []string
	Schedule    *models.CertificationSchedule
}

// ManualSchedulingService validates and books slots chosen by an operator.
type ManualSchedulingService struct {
	ws        *groupWorkspace
	cfg       SchedulingConfig
	validator *validator.Validate
	logger    *zap.Logger

	availabilityFactory func(state *schedulingState, limits ShiftLimits, releasedID string) AvailabilityChecker
}

// NewManualSchedulingService constructs a ManualSchedulingService.
func NewManualSchedulingService(deps WorkspaceDeps, cfg SchedulingConfig, validate *validator.Validate) *ManualSchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	ws := newGroupWorkspace(deps)
	return &ManualSchedulingService{
		ws:                  ws,
		cfg:                 cfg.withDefaults(),
		validator:           validate,
		logger:              ws.logger,
		availabilityFactory: newRebookAvailability,
	}
}

type manualSlot struct {
	techID    string
	analystID string
	day       time.Time
	shift     models.Shift
	target    models.ExpertiseType
}

func (s *ManualSchedulingService) parse(req dto.ManualScheduleRequest) (manualSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return manualSlot{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manual scheduling payload")
	}
	day, err := parseDate("date", req.Date)
	if err != nil {
		return manualSlot{}, err
	}
	return manualSlot{
		techID:    req.TechnicianID,
		analystID: req.AnalystID,
		day:       day,
		shift:     models.Shift(req.Shift),
		target:    models.ExpertiseType(req.Type),
	}, nil
}

// ValidateManual checks the slot without writing anything. Unknown ids are a result.
func (s *ManualSchedulingService) ValidateManual(ctx context.Context, groupID string, req dto.ManualScheduleRequest) (*ManualValidation, error) {
	slot, err := s.parse(req)
	if err != nil {
		return nil, err
	}
	var out ManualValidation
	err = s.ws.view(ctx, groupID, func(state *schedulingState) error {
		out, _, _ = s.check(state, slot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// check accumulates every broken rule rather than stopping at the first one. A
// technician's current booking is released by the move, so it does not count against
// the new slot.
func (s *ManualSchedulingService) check(state *schedulingState, slot manualSlot) (ManualValidation, *models.Technician, bool) {
	tech, okTech := state.technician(slot.techID)
	analyst, okAnalyst := state.user(slot.analystID)
	if !okTech || !okAnalyst {
		return ManualValidation{CanSchedule: false, BrokenRules: []string{}, Message: msgNotLocated}, nil, false
	}

	released := ""
	if prev, ok := state.activeSchedule(tech); ok {
		released = prev.ID
	}
	checker := s.availabilityFactory(state, s.cfg.Limits, released)
	rules := make([]string, 0)
	if checker.IsSlotBlocked(slot.analystID, slot.day, slot.shift) {
		rules = append(rules, ruleSlotBlocked)
	}
	if checker.HasTypeConflict(slot.analystID, slot.day, slot.target) {
		rules = append(rules, fmt.Sprintf("O analista já possui agendamentos de tipo oposto (%s) neste dia.", slot.target.Opposite().Label()))
	}
	if checker.ShiftCapacity(slot.analystID, slot.day, slot.shift, slot.target) <= 0 {
		limit := s.cfg.Limits.Limit(slot.target)
		rules = append(rules, fmt.Sprintf("Capacidade esgotada para este turno (%d/%d).", bookedInShift(state, slot, released), limit))
	}
	if slot.target == models.ExpertisePresential {
		if city, configured := state.territory.Lookup(tech.City); configured && !city.HasResponsible(analyst.AnalystProfileID) {
			rules = append(rules, fmt.Sprintf("O analista escolhido não é responsável por esta cidade (%s).", tech.City))
		}
	}
	return ManualValidation{CanSchedule: len(rules) == 0, BrokenRules: rules}, tech, true
}

func bookedInShift(state *schedulingState, slot manualSlot, releasedID string) int {
	if slot.shift != models.ShiftFullDay {
		return shiftOccupancy(state, slot.analystID, slot.day, slot.shift, releasedID)
	}
	morning := shiftOccupancy(state, slot.analystID, slot.day, models.ShiftMorning, releasedID)
	afternoon := shiftOccupancy(state, slot.analystID, slot.day, models.ShiftAfternoon, releasedID)
	if afternoon > morning {
		return afternoon
	}
	return morning
}

// ExecuteManual re-validates under the group lock and books the slot. An unforced
// request with broken rules writes nothing; a forced one stamps the broken rules on
// the schedule and the audit ticket.
func (s *ManualSchedulingService) ExecuteManual(ctx context.Context, groupID string, req dto.ManualExecuteRequest, actor models.Actor) (*ManualResult, error) {
	slot, err := s.parse(req.ManualScheduleRequest)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manual scheduling payload")
	}

	var result ManualResult
	err = s.ws.mutate(ctx, groupID, opManualSchedule, func(state *schedulingState) ([]models.AuditTicket, error) {
		validation, tech, found := s.check(state, slot)
		if !found {
			result = ManualResult{Success: false, Message: validation.Message}
			return nil, nil
		}
		if !req.Forced && !validation.CanSchedule {
			result = ManualResult{Success: false, Message: msgRulesBroken, BrokenRules: validation.BrokenRules}
			return nil, nil
		}

		var broken []string
		if req.Forced {
			broken = req.BrokenRules
			if len(broken) == 0 {
				broken = validation.BrokenRules
			}
		}

		now := s.ws.now().UTC()
		by := actor.DisplayName()
		before := *tech
		if prev, ok := state.activeSchedule(tech); ok {
			prev.Status = models.ScheduleCancelled
			prev.UpdatedAt = now
			state.touchSchedule(prev)
		}

		title := "MANUAL - " + tech.Name
		if req.Forced {
			title = "MANUAL (FORÇADO) - " + tech.Name
		}
		sch := &models.CertificationSchedule{
			ID:           uuid.NewString(),
			GroupID:      groupID,
			Title:        title,
			TechnicianID: tech.ID,
			AnalystID:    slot.analystID,
			Datetime:     models.SlotTime(slot.day, slot.shift),
			Shift:        slot.shift,
			Type:         slot.target,
			Status:       models.ScheduleConfirmed,
			Location:     tech.City,
			Technology:   technologyOf(tech),
			Origin:       models.OriginManual,
			Forced:       req.Forced,
			BrokenRules:  pq.StringArray(broken),
			CreatedBy:    by,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		state.addSchedule(sch)
		markScheduled(state, tech, sch, by, now)

		saved := *sch
		result = ManualResult{Success: true, Schedule: &saved, BrokenRules: broken}

		ticket := newTicket(groupID, models.AuditManualScheduling, actor)
		ticket.TargetType = models.AuditTargetTechnician
		ticket.TargetValue = tech.CPF
		ticket.Forced = req.Forced
		ticket.BrokenRules = pq.StringArray(broken)
		ticket.Reason = reasonManualClean
		if req.Forced {
			ticket.Reason = "Forçado: " + strings.Join(cleanRules(broken), " | ")
		}
		if req.Reason != "" {
			ticket.SubReason = req.Reason
		}
		if ticket.Screen == "" {
			ticket.Screen = screenManualSchedule
		}
		ticket.Before = auditJSON(before)
		ticket.After = auditJSON(saved)
		return []models.AuditTicket{ticket}, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Success {
		s.logger.Info("manual schedule created",
			zap.String("group_id", groupID),
			zap.String("technician_id", slot.techID),
			zap.String("analyst_id", slot.analystID),
			zap.Bool("forced", req.Forced),
		)
	}
	return &result, nil
}

func cleanRules(rules []string) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if trimmed := strings.TrimSpace(r); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
