package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

const (
	screenScoreAdjustments = "Ajustes de Score"
	opAdjustmentSave       = "adjustments.save"
	opAdjustmentDelete     = "adjustments.delete"
)

// ScoreAdjustmentService manages virtual score penalties. Active windows of one
// analyst never overlap.
type ScoreAdjustmentService struct {
	ws        *groupWorkspace
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreAdjustmentService constructs a ScoreAdjustmentService.
func NewScoreAdjustmentService(deps WorkspaceDeps, validate *validator.Validate) *ScoreAdjustmentService {
	if validate == nil {
		validate = validator.New()
	}
	ws := newGroupWorkspace(deps)
	return &ScoreAdjustmentService{ws: ws, validator: validate, logger: ws.logger}
}

// List returns the group's adjustments, optionally for one analyst, by start date.
func (s *ScoreAdjustmentService) List(ctx context.Context, groupID, analystID string) ([]models.VirtualScoreAdjustment, error) {
	out := make([]models.VirtualScoreAdjustment, 0)
	err := s.ws.view(ctx, groupID, func(state *schedulingState) error {
		for _, a := range state.adjustments {
			if analystID == "" || a.AnalystID == analystID {
				out = append(out, *a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// Save creates an adjustment, or replaces the one named by req.ID.
func (s *ScoreAdjustmentService) Save(ctx context.Context, groupID string, req dto.SaveScoreAdjustmentRequest, actor models.Actor) (*models.VirtualScoreAdjustment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score adjustment payload")
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var out models.VirtualScoreAdjustment
	err = s.ws.mutate(ctx, groupID, opAdjustmentSave, func(state *schedulingState) ([]models.AuditTicket, error) {
		if _, ok := state.user(req.AnalystID); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analyst not found")
		}
		candidate := models.VirtualScoreAdjustment{
			ID:        req.ID,
			GroupID:   groupID,
			AnalystID: req.AnalystID,
			Penalty:   req.Penalty,
			StartDate: start,
			EndDate:   end,
			Reason:    strings.TrimSpace(req.Reason),
			Active:    active,
			CreatedBy: actor.DisplayName(),
			CreatedAt: s.ws.now().UTC(),
		}
		for _, other := range state.adjustmentsFor(req.AnalystID) {
			if other.ID != req.ID && candidate.Overlaps(*other) {
				return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("adjustment overlaps active window %s to %s", models.DateKey(other.StartDate), models.DateKey(other.EndDate)))
			}
		}

		var before interface{}
		if req.ID != "" {
			existing, ok := state.adjustment(req.ID)
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "score adjustment not found")
			}
			before = *existing
			candidate.CreatedBy = existing.CreatedBy
			candidate.CreatedAt = existing.CreatedAt
			*existing = candidate
			state.touchAdjustment(existing)
		} else {
			candidate.ID = uuid.NewString()
			created := candidate
			state.addAdjustment(&created)
		}
		out = candidate

		ticket := newTicket(groupID, models.AuditScoreAdjustment, actor)
		ticket.TargetType = models.AuditTargetAnalyst
		ticket.TargetValue = req.AnalystID
		ticket.Reason = candidate.Reason
		if ticket.Screen == "" {
			ticket.Screen = screenScoreAdjustments
		}
		ticket.Before = auditJSON(before)
		ticket.After = auditJSON(out)
		return []models.AuditTicket{ticket}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an adjustment.
func (s *ScoreAdjustmentService) Delete(ctx context.Context, groupID, id string, actor models.Actor) error {
	return s.ws.mutate(ctx, groupID, opAdjustmentDelete, func(state *schedulingState) ([]models.AuditTicket, error) {
		existing, ok := state.adjustment(id)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score adjustment not found")
		}
		before := *existing
		state.removeAdjustment(id)

		ticket := newTicket(groupID, models.AuditScoreAdjustmentDrop, actor)
		ticket.TargetType = models.AuditTargetAnalyst
		ticket.TargetValue = before.AnalystID
		ticket.Reason = before.Reason
		if ticket.Screen == "" {
			ticket.Screen = screenScoreAdjustments
		}
		ticket.Before = auditJSON(before)
		return []models.AuditTicket{ticket}, nil
	})
}
