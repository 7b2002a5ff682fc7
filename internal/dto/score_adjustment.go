package dto

// SaveScoreAdjustmentRequest creates or replaces a penalty window.
type SaveScoreAdjustmentRequest struct {
	ID        string `json:"id"`
	AnalystID string `json:"analystId" validate:"required"`
	Penalty   int    `json:"penalty" validate:"required,min=1,max=1000"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"required,max=300"`
	Active    *bool  `json:"active"`
}
