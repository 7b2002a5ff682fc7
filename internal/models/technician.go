package models

import (
	"time"

	"github.com/noah-isme/certisched-api/pkg/normalize"
)

// TechnicianStatus is the canonical primary status of a technician.
type TechnicianStatus string

const (
	TechnicianPendingCertification TechnicianStatus = "PENDING_CERTIFICATION"
	TechnicianPendingTreatment     TechnicianStatus = "PENDING_TREATMENT"
	TechnicianBacklog              TechnicianStatus = "BACKLOG"
	TechnicianScheduled            TechnicianStatus = "SCHEDULED"
	TechnicianApproved             TechnicianStatus = "APPROVED"
	TechnicianReproved             TechnicianStatus = "REPROVED"
	TechnicianCancelledByAnalyst   TechnicianStatus = "CANCELLED_BY_ANALYST"
	TechnicianIneligible           TechnicianStatus = "INELIGIBLE"
	TechnicianTrainingOnly         TechnicianStatus = "TRAINING_WITHOUT_CERTIFICATION"
	TechnicianPending              TechnicianStatus = "PENDING"
)

var technicianStatusLabels = map[TechnicianStatus]string{
	TechnicianPendingCertification: "PENDENTE_CERTIFICAÇÃO",
	TechnicianPendingTreatment:     "PENDENTE_TRATAMENTO",
	TechnicianBacklog:              "BACKLOG AGUARDANDO",
	TechnicianScheduled:            "AGENDADOS",
	TechnicianApproved:             "APROVADOS",
	TechnicianReproved:             "REPROVADO",
	TechnicianCancelledByAnalyst:   "CANCELADOS (ANALISTA)",
	TechnicianIneligible:           "INABILITADO",
	TechnicianTrainingOnly:         "TREINAMENTO SEM CERTIFICAÇÃO",
	TechnicianPending:              "PENDENTE",
}

// legacyTechnicianStatuses maps normalized legacy strings (status_principal and
// certificationProcessStatus variants) to the canonical status.
var legacyTechnicianStatuses = map[string]TechnicianStatus{
	"PENDENTE_CERTIFICACAO":        TechnicianPendingCertification,
	"PENDENTE CERTIFICACAO":        TechnicianPendingCertification,
	"PENDENTE_TRATAMENTO":          TechnicianPendingTreatment,
	"PENDENTE TRATAMENTO":          TechnicianPendingTreatment,
	"BACKLOG AGUARDANDO":           TechnicianBacklog,
	"BACKLOG":                      TechnicianBacklog,
	"AGENDADOS":                    TechnicianScheduled,
	"AGENDADO":                     TechnicianScheduled,
	"APROVADOS":                    TechnicianApproved,
	"APROVADO":                     TechnicianApproved,
	"CERTIFIED_APPROVED":           TechnicianApproved,
	"REPROVADO":                    TechnicianReproved,
	"REPROVADOS":                   TechnicianReproved,
	"CANCELADOS (ANALISTA)":        TechnicianCancelledByAnalyst,
	"CANCELADOS(ANALISTA)":         TechnicianCancelledByAnalyst,
	"CANCELADO_ANALISTA":           TechnicianCancelledByAnalyst,
	"CANCELADO":                    TechnicianCancelledByAnalyst,
	"INABILITADO":                  TechnicianIneligible,
	"TREINAMENTO SEM CERTIFICACAO": TechnicianTrainingOnly,
	"PENDENTE":                     TechnicianPending,
}

// Label returns the legacy display string.
func (s TechnicianStatus) Label() string {
	if label, ok := technicianStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is a canonical status.
func (s TechnicianStatus) Valid() bool {
	_, ok := technicianStatusLabels[s]
	return ok
}

// ParseTechnicianStatus accepts canonical codes and every known legacy spelling.
func ParseTechnicianStatus(raw string) (TechnicianStatus, bool) {
	if s := TechnicianStatus(raw); s.Valid() {
		return s, true
	}
	key := normalize.Key(raw)
	if s := TechnicianStatus(key); s.Valid() {
		return s, true
	}
	s, ok := legacyTechnicianStatuses[key]
	return s, ok
}

// Technician is a field worker waiting for (or holding) a certification slot.
type Technician struct {
	ID                       string           `db:"id" json:"id"`
	GroupID                  string           `db:"group_id" json:"group_id"`
	CPF                      string           `db:"cpf" json:"cpf"`
	Name                     string           `db:"name" json:"name"`
	City                     string           `db:"city" json:"city"`
	State                    string           `db:"state" json:"state,omitempty"`
	Technology               string           `db:"technology" json:"technology,omitempty"`
	TrainingClass            string           `db:"training_class" json:"training_class,omitempty"`
	Status                   TechnicianStatus `db:"status" json:"status"`
	SubReason                string           `db:"sub_reason" json:"sub_reason,omitempty"`
	Observation              string           `db:"observation" json:"observation,omitempty"`
	ReproofCategory          string           `db:"reproof_category" json:"reproof_category,omitempty"`
	BacklogReason            string           `db:"backlog_reason" json:"backlog_reason,omitempty"`
	ScheduledCertificationID *string          `db:"scheduled_certification_id" json:"scheduled_certification_id,omitempty"`
	GenerateCertification    bool             `db:"generate_certification" json:"generate_certification"`
	ManualApproved           bool             `db:"aprovado_manual" json:"aprovado_manual"`
	ManualReproved           bool             `db:"reprovado_manual" json:"reprovado_manual"`
	ManualCancelled          bool             `db:"cancelado_manual" json:"cancelado_manual"`
	AutoApproved             bool             `db:"aprovado_auto" json:"aprovado_auto"`
	AutoApprovedAt           *time.Time       `db:"aprovado_auto_em" json:"aprovado_auto_em,omitempty"`
	AutoApprovedRule         string           `db:"aprovado_auto_regra" json:"aprovado_auto_regra,omitempty"`
	StatusUpdatedAt          *time.Time       `db:"status_updated_at" json:"status_updated_at,omitempty"`
	StatusUpdatedBy          string           `db:"status_updated_by" json:"status_updated_by,omitempty"`
	CreatedAt                time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time        `db:"updated_at" json:"updated_at"`
}

// HasManualFlag reports whether a manual action already finalized the technician.
func (t Technician) HasManualFlag() bool {
	return t.ManualApproved || t.ManualReproved || t.ManualCancelled
}

// EligibleForAutoScheduling reports whether the engine may pick the technician up.
func (t Technician) EligibleForAutoScheduling() bool {
	if !t.GenerateCertification {
		return false
	}
	return t.Status == TechnicianPendingCertification || t.Status == TechnicianPendingTreatment
}

// ScheduleID returns the linked schedule id or "".
func (t Technician) ScheduleID() string {
	if t.ScheduledCertificationID == nil {
		return ""
	}
	return *t.ScheduledCertificationID
}

// TechnicianFilter narrows technician listings.
type TechnicianFilter struct {
	Status TechnicianStatus
	City   string
	Search string
}
