package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Audit actions written by the scheduling engine.
const (
	AuditAutoScheduling      = "GERAR_AGENDAMENTO_AUTOMATICO"
	AuditManualScheduling    = "AGENDAMENTO_MANUAL"
	AuditImprovisoCancel     = "CANCELAMENTO_POR_IMPROVISO"
	AuditAutoApproval        = "APROVACAO_AUTOMATICA_D+1"
	AuditManualApproval      = "MARCAR_APROVADO"
	AuditWithdraw            = "RETIRAR_AGENDAMENTO"
	AuditScoreAdjustment     = "AJUSTE_SCORE_VIRTUAL"
	AuditScoreAdjustmentDrop = "AJUSTE_SCORE_VIRTUAL_REMOCAO"
	AuditTerritoryChange     = "AJUSTE_TERRITORIO"
	AuditTechnicianImport    = "IMPORTAR_TECNICOS"
	AuditCalendarBlock       = "BLOQUEIO_AGENDA"
	AuditCalendarUnblock     = "REMOCAO_BLOQUEIO_AGENDA"
	AuditDefaultReason       = "NÃO INFORMADO"
	AuditSystemActor         = "SISTEMA"
)

// Audit target types.
const (
	AuditTargetTechnician = "TECNICO"
	AuditTargetAnalyst    = "ANALISTA"
	AuditTargetGroup      = "GRUPO"
	AuditTargetCity       = "CIDADE"
)

// AuditTicket is one write-only audit trail record.
type AuditTicket struct {
	TicketID    string         `db:"ticket_id" json:"ticket_id"`
	Timestamp   time.Time      `db:"timestamp" json:"timestamp"`
	Actor       string         `db:"actor" json:"actor"`
	ActorRole   string         `db:"actor_role" json:"actor_role,omitempty"`
	GroupID     string         `db:"group_id" json:"group_id"`
	Action      string         `db:"action" json:"action"`
	TargetType  string         `db:"target_type" json:"target_type"`
	TargetValue string         `db:"target_value" json:"target_value"`
	Before      types.JSONText `db:"before_state" json:"before,omitempty"`
	After       types.JSONText `db:"after_state" json:"after,omitempty"`
	Reason      string         `db:"reason" json:"reason"`
	Screen      string         `db:"screen" json:"screen,omitempty"`
	SubReason   string         `db:"sub_reason" json:"sub_reason,omitempty"`
	Forced      bool           `db:"forced" json:"forced"`
	BrokenRules pq.StringArray `db:"broken_rules" json:"broken_rules,omitempty"`
}
