package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/models"
)

const (
	autoApprovalRule = "D+1"
	screenSystem     = "Sistema"
	opApprovalSweep  = "approvals.sweep"
)

// SweepResult counts the technicians promoted by one sweep.
type SweepResult struct {
	Promoted int `json:"promoted"`
}

type groupLister interface {
	Groups(ctx context.Context) ([]string, error)
}

// ApprovalSweeper promotes technicians whose certification date is at least one day
// in the past. Technicians finalized by a manual action are left alone.
type ApprovalSweeper struct {
	ws     *groupWorkspace
	logger *zap.Logger
}

// NewApprovalSweeper constructs an ApprovalSweeper.
func NewApprovalSweeper(deps WorkspaceDeps) *ApprovalSweeper {
	ws := newGroupWorkspace(deps)
	return &ApprovalSweeper{ws: ws, logger: ws.logger}
}

// Sweep runs one pass over the group. A pass with nothing to promote writes nothing.
func (s *ApprovalSweeper) Sweep(ctx context.Context, groupID string) (*SweepResult, error) {
	var result SweepResult
	err := s.ws.mutate(ctx, groupID, opApprovalSweep, func(state *schedulingState) ([]models.AuditTicket, error) {
		now := s.ws.now().UTC()
		var tickets []models.AuditTicket
		for _, tech := range state.technicians {
			sch, ok := sweepCandidate(state, tech)
			if !ok || daysBetween(sch.Datetime.UTC(), state.today) < 1 {
				continue
			}
			before := *tech
			approvedAt := now
			tech.Status = models.TechnicianApproved
			tech.AutoApproved = true
			tech.AutoApprovedAt = &approvedAt
			tech.AutoApprovedRule = autoApprovalRule
			stampStatus(tech, models.AuditSystemActor, now)
			state.touchTechnician(tech)

			sch.Status = models.ScheduleCompleted
			sch.UpdatedAt = now
			state.touchSchedule(sch)
			result.Promoted++

			ticket := newTicket(groupID, models.AuditAutoApproval, models.SystemActor)
			ticket.TargetType = models.AuditTargetTechnician
			ticket.TargetValue = tech.CPF
			ticket.Reason = fmt.Sprintf("Aprovação automática: Data certif. (%s) ultrapassou D+1.", sch.DateKey())
			ticket.Screen = screenSystem
			ticket.Before = auditJSON(before)
			ticket.After = auditJSON(*tech)
			tickets = append(tickets, ticket)
		}
		return tickets, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Promoted > 0 {
		s.ws.metrics.RecordAutoApprovals(result.Promoted)
		s.logger.Info("auto approval sweep", zap.String("group_id", groupID), zap.Int("promoted", result.Promoted))
	}
	return &result, nil
}

func sweepCandidate(state *schedulingState, tech *models.Technician) (*models.CertificationSchedule, bool) {
	if tech.Status != models.TechnicianScheduled || tech.HasManualFlag() {
		return nil, false
	}
	sch, ok := state.schedule(tech.ScheduleID())
	if !ok || sch.Status != models.ScheduleConfirmed {
		return nil, false
	}
	return sch, true
}

// SweepGroups sweeps each group in turn. A failing group is logged and skipped.
func (s *ApprovalSweeper) SweepGroups(ctx context.Context, groupIDs []string) int {
	total := 0
	for _, id := range groupIDs {
		if ctx.Err() != nil {
			return total
		}
		res, err := s.Sweep(ctx, id)
		if err != nil {
			s.logger.Warn("auto approval sweep failed", zap.String("group_id", id), zap.Error(err))
			continue
		}
		total += res.Promoted
	}
	return total
}

// Run sweeps immediately and then on every tick until ctx is done. When groups is
// empty the lister supplies the group ids on each tick.
func (s *ApprovalSweeper) Run(ctx context.Context, interval time.Duration, groups []string, lister groupLister) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ids := groups
		if len(ids) == 0 && lister != nil {
			listed, err := lister.Groups(ctx)
			if err != nil {
				s.logger.Warn("list groups for sweep", zap.Error(err))
			}
			ids = listed
		}
		s.SweepGroups(ctx, ids)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
