package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

const (
	reasonNoResponsible = "SEM ANALISTA RESPONSÁVEL (CIDADE PRESENCIAL)"
	defaultTechnology   = "GPON"
	screenSchedulingRun = "Turmas e Técnicos"
	opSchedulingRun     = "scheduling.run"
)

// SchedulingConfig carries the group rules the engine applies.
type SchedulingConfig struct {
	WindowDays int
	Limits     ShiftLimits
	Weights    DemandWeights
}

// DefaultSchedulingConfig mirrors the documented defaults.
func DefaultSchedulingConfig() SchedulingConfig {
	return SchedulingConfig{
		WindowDays: 10,
		Limits:     ShiftLimits{Virtual: 2, Presential: 3},
		Weights:    DemandWeights{Active: 10, Backlog: 1, Medium: 40, High: 100, WindowDays: 10},
	}
}

func (c SchedulingConfig) withDefaults() SchedulingConfig {
	def := DefaultSchedulingConfig()
	if c.WindowDays <= 0 {
		c.WindowDays = def.WindowDays
	}
	if c.Limits.Virtual <= 0 {
		c.Limits.Virtual = def.Limits.Virtual
	}
	if c.Limits.Presential <= 0 {
		c.Limits.Presential = def.Limits.Presential
	}
	if c.Weights.Active <= 0 {
		c.Weights.Active = def.Weights.Active
	}
	if c.Weights.Backlog <= 0 {
		c.Weights.Backlog = def.Weights.Backlog
	}
	if c.Weights.Medium <= 0 {
		c.Weights.Medium = def.Weights.Medium
	}
	if c.Weights.High <= 0 {
		c.Weights.High = def.Weights.High
	}
	if c.Weights.WindowDays <= 0 {
		c.Weights.WindowDays = def.Weights.WindowDays
	}
	return c
}

func (c SchedulingConfig) noSlotReason() string {
	return fmt.Sprintf("SEM VAGA NO PRAZO (%d DIAS)", c.WindowDays)
}

// RunResult totals one engine pass.
type RunResult struct {
	Scheduled int            `json:"scheduled"`
	Backlog   int            `json:"backlog"`
	Reasons   map[string]int `json:"reasons"`
}

// SchedulingService runs the auto-scheduling engine and its read models.
type SchedulingService struct {
	ws        *groupWorkspace
	cfg       SchedulingConfig
	validator *validator.Validate
	logger    *zap.Logger

	availabilityFactory func(state *schedulingState, limits ShiftLimits) AvailabilityChecker
}

// NewSchedulingService constructs a SchedulingService.
func NewSchedulingService(deps WorkspaceDeps, cfg SchedulingConfig, validate *validator.Validate) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	ws := newGroupWorkspace(deps)
	return &SchedulingService{
		ws:                  ws,
		cfg:                 cfg.withDefaults(),
		validator:           validate,
		logger:              ws.logger,
		availabilityFactory: newStateAvailability,
	}
}

// RunScheduling assigns every eligible technician of the group to the first free slot
// in the window, or sends it to backlog with a reason. The pass commits once.
func (s *SchedulingService) RunScheduling(ctx context.Context, groupID string, req dto.RunSchedulingRequest, actor models.Actor) (*RunResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}
	start := s.ws.today()
	if req.StartDate != "" {
		parsed, err := parseDate("startDate", req.StartDate)
		if err != nil {
			return nil, err
		}
		start = parsed
	}
	if start.Before(s.ws.today()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date cannot be in the past")
	}

	var result RunResult
	err := s.ws.mutate(ctx, groupID, opSchedulingRun, func(state *schedulingState) ([]models.AuditTicket, error) {
		result = s.schedule(state, start)
		ticket := newTicket(groupID, models.AuditAutoScheduling, actor)
		ticket.TargetType = models.AuditTargetGroup
		ticket.TargetValue = groupID
		ticket.Reason = fmt.Sprintf("Processamento a partir de %s finalizado: %d agendados, %d backlog.", models.DateKey(start), result.Scheduled, result.Backlog)
		if ticket.Screen == "" {
			ticket.Screen = screenSchedulingRun
		}
		ticket.After = auditJSON(result)
		return []models.AuditTicket{ticket}, nil
	})
	if err != nil {
		return nil, err
	}

	s.ws.metrics.RecordSchedulingRun(result.Scheduled, result.Reasons)
	s.logger.Info("scheduling run finished",
		zap.String("group_id", groupID),
		zap.String("start", models.DateKey(start)),
		zap.Int("scheduled", result.Scheduled),
		zap.Int("backlog", result.Backlog),
	)
	return &result, nil
}

// schedule is the engine pass over an already loaded state.
func (s *SchedulingService) schedule(state *schedulingState, start time.Time) RunResult {
	result := RunResult{Reasons: make(map[string]int)}
	checker := s.availabilityFactory(state, s.cfg.Limits)
	demand := demandCalculator{state: state, weights: s.cfg.Weights}
	days := businessDays(start, s.cfg.WindowDays)
	analysts := state.activeAnalysts()
	now := s.ws.now().UTC()

	for _, tech := range eligiblePool(state) {
		city, _ := state.territory.ResolveCityConfig(tech.City)
		target := models.ExpertiseVirtual
		var pool []models.User
		if city.RequiresPresential() {
			target = models.ExpertisePresential
			pool = responsibleAnalysts(analysts, city.AuthorizedProfileIDs)
			if len(pool) == 0 {
				sendToBacklog(state, tech, reasonNoResponsible, now)
				result.Backlog++
				result.Reasons[reasonNoResponsible]++
				continue
			}
		} else {
			pool = byScore(analysts, demand, state.today)
		}

		if sch := s.firstFit(state, checker, tech, pool, days, target, now); sch != nil {
			result.Scheduled++
			continue
		}
		reason := s.cfg.noSlotReason()
		sendToBacklog(state, tech, reason, now)
		result.Backlog++
		result.Reasons[reason]++
	}
	return result
}

func (s *SchedulingService) firstFit(state *schedulingState, checker AvailabilityChecker, tech *models.Technician, pool []models.User, days []time.Time, target models.ExpertiseType, now time.Time) *models.CertificationSchedule {
	for _, day := range days {
		for _, analyst := range pool {
			for _, shift := range models.BookableShifts {
				if checker.HasTypeConflict(analyst.ID, day, target) || checker.IsSlotBlocked(analyst.ID, day, shift) {
					continue
				}
				if checker.ShiftCapacity(analyst.ID, day, shift, target) <= 0 {
					continue
				}
				sch := &models.CertificationSchedule{
					ID:           uuid.NewString(),
					GroupID:      state.groupID,
					Title:        "CERTIFICAÇÃO AUTOMÁTICA - " + tech.Name,
					TechnicianID: tech.ID,
					AnalystID:    analyst.ID,
					Datetime:     models.SlotTime(day, shift),
					Shift:        shift,
					Type:         target,
					Status:       models.ScheduleConfirmed,
					Location:     tech.City,
					Technology:   technologyOf(tech),
					Origin:       models.OriginAuto,
					CreatedBy:    models.AuditSystemActor,
					CreatedAt:    now,
					UpdatedAt:    now,
				}
				state.addSchedule(sch)
				markScheduled(state, tech, sch, models.AuditSystemActor, now)
				return sch
			}
		}
	}
	return nil
}

// eligiblePool returns pending technicians flagged for certification, oldest enrollment
// first. Ties keep storage order.
func eligiblePool(state *schedulingState) []*models.Technician {
	var pool []*models.Technician
	for _, t := range state.technicians {
		if t.EligibleForAutoScheduling() {
			pool = append(pool, t)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].CreatedAt.Before(pool[j].CreatedAt)
	})
	return pool
}

func responsibleAnalysts(analysts []models.User, profileIDs []string) []models.User {
	allowed := make(map[string]struct{}, len(profileIDs))
	for _, id := range profileIDs {
		allowed[id] = struct{}{}
	}
	var out []models.User
	for _, a := range analysts {
		if a.AnalystProfileID == "" {
			continue
		}
		if _, ok := allowed[a.AnalystProfileID]; ok {
			out = append(out, a)
		}
	}
	return out
}

// byScore orders analysts by ascending demand score, recomputed from the live state.
func byScore(analysts []models.User, demand demandCalculator, today time.Time) []models.User {
	scores := make(map[string]int, len(analysts))
	for _, a := range analysts {
		scores[a.ID] = demand.compute(a.ID, today).Score
	}
	out := make([]models.User, len(analysts))
	copy(out, analysts)
	sort.SliceStable(out, func(i, j int) bool {
		return scores[out[i].ID] < scores[out[j].ID]
	})
	return out
}

func technologyOf(t *models.Technician) string {
	if t.Technology != "" {
		return t.Technology
	}
	return defaultTechnology
}

func markScheduled(state *schedulingState, tech *models.Technician, sch *models.CertificationSchedule, by string, now time.Time) {
	id := sch.ID
	tech.Status = models.TechnicianScheduled
	tech.ScheduledCertificationID = &id
	tech.BacklogReason = ""
	stampStatus(tech, by, now)
	state.touchTechnician(tech)
}

func sendToBacklog(state *schedulingState, tech *models.Technician, reason string, now time.Time) {
	tech.Status = models.TechnicianBacklog
	tech.BacklogReason = reason
	stampStatus(tech, models.AuditSystemActor, now)
	state.touchTechnician(tech)
}

func stampStatus(tech *models.Technician, by string, now time.Time) {
	ts := now
	tech.StatusUpdatedAt = &ts
	tech.StatusUpdatedBy = by
	tech.UpdatedAt = now
}

// ComputeDemandMetrics derives one analyst's demand from the current group state.
func (s *SchedulingService) ComputeDemandMetrics(ctx context.Context, groupID, analystID string) (*models.AnalystDemandMetrics, error) {
	var out models.AnalystDemandMetrics
	err := s.ws.view(ctx, groupID, func(state *schedulingState) error {
		out = demandCalculator{state: state, weights: s.cfg.Weights}.compute(analystID, state.today)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ComputeAllDemandMetrics derives the demand of every active analyst, in roster order.
func (s *SchedulingService) ComputeAllDemandMetrics(ctx context.Context, groupID string) ([]models.AnalystDemandMetrics, error) {
	var out []models.AnalystDemandMetrics
	err := s.ws.view(ctx, groupID, func(state *schedulingState) error {
		calc := demandCalculator{state: state, weights: s.cfg.Weights}
		out = make([]models.AnalystDemandMetrics, 0, len(state.users))
		for _, a := range state.activeAnalysts() {
			out = append(out, calc.compute(a.ID, state.today))
		}
		return nil
	})
	return out, err
}

// CheckAvailability answers the three slot questions for one analyst.
func (s *SchedulingService) CheckAvailability(ctx context.Context, groupID string, query dto.AvailabilityQuery) (*dto.AvailabilityResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	day, err := parseDate("date", query.Date)
	if err != nil {
		return nil, err
	}
	shift := models.Shift(query.Shift)
	target := models.ExpertiseType(query.Type)

	var out dto.AvailabilityResponse
	err = s.ws.view(ctx, groupID, func(state *schedulingState) error {
		checker := s.availabilityFactory(state, s.cfg.Limits)
		out.Blocked = checker.IsSlotBlocked(query.AnalystID, day, shift)
		out.TypeConflict = checker.HasTypeConflict(query.AnalystID, day, target)
		out.Remaining = checker.ShiftCapacity(query.AnalystID, day, shift, target)
		out.Limit = s.cfg.Limits.Limit(target)
		out.Available = !out.Blocked && !out.TypeConflict && out.Remaining > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSchedules returns the group's bookings ordered by slot time.
func (s *SchedulingService) ListSchedules(ctx context.Context, groupID string, query dto.ScheduleListQuery) ([]models.CertificationSchedule, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule filter")
	}
	filter := models.ScheduleFilter{Status: models.ScheduleStatus(query.Status), AnalystID: query.AnalystID}
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

	out := make([]models.CertificationSchedule, 0)
	err := s.ws.view(ctx, groupID, func(state *schedulingState) error {
		for _, sch := range state.schedules {
			if matchesSchedule(*sch, filter) {
				out = append(out, *sch)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Datetime.Before(out[j].Datetime) })
	return out, nil
}

func matchesSchedule(sch models.CertificationSchedule, f models.ScheduleFilter) bool {
	if f.Status != "" && sch.Status != f.Status {
		return false
	}
	if f.AnalystID != "" && sch.AnalystID != f.AnalystID {
		return false
	}
	day := models.DateOnly(sch.Datetime.UTC())
	if f.From != nil && day.Before(*f.From) {
		return false
	}
	if f.To != nil && day.After(*f.To) {
		return false
	}
	return true
}

func parseDate(field, value string) (time.Time, error) {
	day, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("%s must be YYYY-MM-DD", field))
	}
	return day, nil
}
