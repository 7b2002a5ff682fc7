package dto

// ImportTechniciansRequest carries a spreadsheet already parsed into rows.
type ImportTechniciansRequest struct {
	Rows          [][]string `json:"rows" validate:"required,min=1"`
	DefaultStatus string     `json:"defaultStatus" validate:"omitempty,oneof=PENDING_CERTIFICATION TRAINING_WITHOUT_CERTIFICATION"`
}

// ImportRowError points at a rejected spreadsheet line (1-based, header included).
type ImportRowError struct {
	Line   int    `json:"line"`
	CPF    string `json:"cpf,omitempty"`
	Reason string `json:"reason"`
}

// ImportTechniciansResponse summarizes an import.
type ImportTechniciansResponse struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Errors  []ImportRowError `json:"errors"`
}

// WithdrawTechnicianRequest takes a technician off the agenda.
type WithdrawTechnicianRequest struct {
	TargetStatus    string `json:"targetStatus" validate:"required,oneof=REPROVED CANCELLED_BY_ANALYST INELIGIBLE BACKLOG PENDING_CERTIFICATION"`
	Reason          string `json:"reason" validate:"required,max=500"`
	SubReason       string `json:"subReason" validate:"omitempty,max=200"`
	ReproofCategory string `json:"reproofCategory" validate:"omitempty,max=100"`
}

// TechnicianListQuery filters the technician listing.
type TechnicianListQuery struct {
	Status string `form:"status"`
	City   string `form:"city"`
	Search string `form:"search"`
}
