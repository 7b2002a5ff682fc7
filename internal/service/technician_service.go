package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
	"github.com/noah-isme/certisched-api/pkg/normalize"
)

const (
	screenTechnicians    = "Turmas e Técnicos"
	reasonManualApproval = "Aprovação manual na aba agendados"
	opTechnicianApprove  = "technicians.approve"
	opTechnicianWithdraw = "technicians.withdraw"
	opTechnicianImport   = "technicians.import"

	cpfMissing  = "CPF não encontrado"
	cpfTooShort = "CPF inválido (tamanho insuficiente)"
	cpfZeroed   = "CPF inválido (sequência zerada)"
)

// TechnicianService covers the technician lifecycle outside the engine passes.
type TechnicianService struct {
	ws        *groupWorkspace
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTechnicianService constructs a TechnicianService.
func NewTechnicianService(deps WorkspaceDeps, validate *validator.Validate) *TechnicianService {
	if validate == nil {
		validate = validator.New()
	}
	ws := newGroupWorkspace(deps)
	return &TechnicianService{ws: ws, validator: validate, logger: ws.logger}
}

// List returns the group's technicians filtered by status, city and free text.
func (s *TechnicianService) List(ctx context.Context, groupID string, query dto.TechnicianListQuery) ([]models.Technician, error) {
	filter := models.TechnicianFilter{City: query.City, Search: query.Search}
	if query.Status != "" {
		status, ok := models.ParseTechnicianStatus(query.Status)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown technician status "+query.Status)
		}
		filter.Status = status
	}

	out := make([]models.Technician, 0)
	err := s.ws.view(ctx, groupID, func(state *schedulingState) error {
		for _, t := range state.technicians {
			if matchesTechnician(*t, filter) {
				out = append(out, *t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchesTechnician(t models.Technician, f models.TechnicianFilter) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.City != "" && !normalize.Equal(t.City, f.City) {
		return false
	}
	if f.Search != "" {
		needle := normalize.Key(f.Search)
		digits := normalize.Digits(f.Search)
		byName := strings.Contains(normalize.Key(t.Name), needle)
		byCPF := digits != "" && strings.Contains(t.CPF, digits)
		if !byName && !byCPF {
			return false
		}
	}
	return true
}

// Approve marks the technician approved by hand and completes the active booking.
func (s *TechnicianService) Approve(ctx context.Context, groupID, techID string, actor models.Actor) (*models.Technician, error) {
	var out models.Technician
	err := s.ws.mutate(ctx, groupID, opTechnicianApprove, func(state *schedulingState) ([]models.AuditTicket, error) {
		tech, ok := state.technician(techID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "technician not found")
		}
		now := s.ws.now().UTC()
		before := *tech
		if sch, ok := state.activeSchedule(tech); ok {
			sch.Status = models.ScheduleCompleted
			sch.UpdatedAt = now
			state.touchSchedule(sch)
		}
		tech.Status = models.TechnicianApproved
		tech.ManualApproved = true
		stampStatus(tech, actor.DisplayName(), now)
		state.touchTechnician(tech)
		out = *tech

		ticket := newTicket(groupID, models.AuditManualApproval, actor)
		ticket.TargetType = models.AuditTargetTechnician
		ticket.TargetValue = tech.CPF
		ticket.Reason = reasonManualApproval
		if ticket.Screen == "" {
			ticket.Screen = screenTechnicians
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

// Withdraw cancels the active booking and moves the technician to the target status.
func (s *TechnicianService) Withdraw(ctx context.Context, groupID, techID string, req dto.WithdrawTechnicianRequest, actor models.Actor) (*models.Technician, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid withdraw payload")
	}
	target := models.TechnicianStatus(req.TargetStatus)

	var out models.Technician
	err := s.ws.mutate(ctx, groupID, opTechnicianWithdraw, func(state *schedulingState) ([]models.AuditTicket, error) {
		tech, ok := state.technician(techID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "technician not found")
		}
		now := s.ws.now().UTC()
		before := *tech
		if sch, ok := state.activeSchedule(tech); ok {
			sch.Status = models.ScheduleCancelled
			sch.UpdatedAt = now
			state.touchSchedule(sch)
		}
		tech.ScheduledCertificationID = nil
		tech.Status = target
		tech.SubReason = req.SubReason
		tech.Observation = req.Reason
		tech.ReproofCategory = req.ReproofCategory
		switch target {
		case models.TechnicianReproved:
			tech.ManualReproved = true
		case models.TechnicianCancelledByAnalyst, models.TechnicianIneligible:
			tech.ManualCancelled = true
		}
		stampStatus(tech, actor.DisplayName(), now)
		state.touchTechnician(tech)
		out = *tech

		ticket := newTicket(groupID, models.AuditWithdraw, actor)
		ticket.TargetType = models.AuditTargetTechnician
		ticket.TargetValue = tech.CPF
		ticket.Reason = req.Reason
		ticket.SubReason = req.SubReason
		if ticket.Screen == "" {
			ticket.Screen = screenTechnicians
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

type importColumns struct {
	cpf, name, city, uf, technology int
}

func detectColumns(header []string) importColumns {
	cols := importColumns{cpf: -1, name: -1, city: -1, uf: -1, technology: -1}
	for i, raw := range header {
		switch normalizeHeader(raw) {
		case "CPF":
			cols.cpf = i
		case "NOME", "NOME COMPLETO":
			if cols.name == -1 {
				cols.name = i
			}
		case "CIDADE":
			cols.city = i
		case "UF", "ESTADO":
			cols.uf = i
		case "TECNOLOGIA":
			cols.technology = i
		}
	}
	return cols
}

// normalizeHeader trims, upper-cases and drops BOM and zero-width characters.
func normalizeHeader(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			return -1
		}
		return r
	}, raw)
	return strings.ToUpper(strings.TrimSpace(cleaned))
}

// cleanCPF keeps digits, requires at least nine and left-pads to eleven.
func cleanCPF(raw string) (string, string) {
	if strings.TrimSpace(raw) == "" {
		return "", cpfMissing
	}
	digits := normalize.Digits(raw)
	if len(digits) < 9 {
		return "", cpfTooShort
	}
	if len(digits) < 11 {
		digits = strings.Repeat("0", 11-len(digits)) + digits
	}
	if digits == "00000000000" {
		return "", cpfZeroed
	}
	return digits, ""
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ImportRows upserts technicians by CPF from a parsed spreadsheet. Rejected lines are
// reported with their 1-based spreadsheet line.
func (s *TechnicianService) ImportRows(ctx context.Context, groupID string, req dto.ImportTechniciansRequest, actor models.Actor) (*dto.ImportTechniciansResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	status := models.TechnicianPendingCertification
	if req.DefaultStatus != "" {
		status = models.TechnicianStatus(req.DefaultStatus)
	}
	requiresCert := status == models.TechnicianPendingCertification
	cols := detectColumns(req.Rows[0])

	out := dto.ImportTechniciansResponse{Errors: make([]dto.ImportRowError, 0)}
	err := s.ws.mutate(ctx, groupID, opTechnicianImport, func(state *schedulingState) ([]models.AuditTicket, error) {
		now := s.ws.now().UTC()
		byCPF := make(map[string]*models.Technician, len(state.technicians))
		for _, t := range state.technicians {
			byCPF[t.CPF] = t
		}

		for i, row := range req.Rows[1:] {
			if blankRow(row) {
				continue
			}
			line := i + 2
			cpf, problem := cleanCPF(cell(row, cols.cpf))
			if problem != "" {
				out.Errors = append(out.Errors, dto.ImportRowError{Line: line, CPF: cell(row, cols.cpf), Reason: problem})
				continue
			}
			name := normalize.Upper(cell(row, cols.name))
			city := normalize.Upper(cell(row, cols.city))

			if existing, ok := byCPF[cpf]; ok {
				s.refresh(state, existing, name, city, row, cols, status, requiresCert, actor, now)
				out.Updated++
				continue
			}
			tech := &models.Technician{
				ID:                    uuid.NewString(),
				GroupID:               groupID,
				CPF:                   cpf,
				Name:                  name,
				City:                  city,
				State:                 normalize.Upper(cell(row, cols.uf)),
				Technology:            normalize.Upper(cell(row, cols.technology)),
				Status:                status,
				GenerateCertification: requiresCert,
				CreatedAt:             now,
			}
			stampStatus(tech, actor.DisplayName(), now)
			state.addTechnician(tech)
			byCPF[cpf] = tech
			out.Created++
		}

		ticket := newTicket(groupID, models.AuditTechnicianImport, actor)
		ticket.TargetType = models.AuditTargetGroup
		ticket.TargetValue = groupID
		ticket.Reason = fmt.Sprintf("Importação finalizada: %d inseridos, %d atualizados, %d erros.", out.Created, out.Updated, len(out.Errors))
		if ticket.Screen == "" {
			ticket.Screen = screenTechnicians
		}
		return []models.AuditTicket{ticket}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// refresh updates an existing technician from an import row. A technician holding an
// active booking keeps its status.
func (s *TechnicianService) refresh(state *schedulingState, tech *models.Technician, name, city string, row []string, cols importColumns, status models.TechnicianStatus, requiresCert bool, actor models.Actor, now time.Time) {
	if name != "" {
		tech.Name = name
	}
	if city != "" {
		tech.City = city
	}
	if uf := normalize.Upper(cell(row, cols.uf)); uf != "" {
		tech.State = uf
	}
	if technology := normalize.Upper(cell(row, cols.technology)); technology != "" {
		tech.Technology = technology
	}
	tech.GenerateCertification = requiresCert
	if _, booked := state.activeSchedule(tech); !booked {
		tech.Status = status
		tech.BacklogReason = ""
		stampStatus(tech, actor.DisplayName(), now)
	}
	tech.UpdatedAt = now
	state.touchTechnician(tech)
}
