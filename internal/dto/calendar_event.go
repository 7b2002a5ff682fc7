package dto

// CreateEventRequest blocks analysts on one date.
type CreateEventRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Kind            string   `json:"kind" validate:"omitempty,oneof=TRAINING MEETING DAY_OFF BANKED_HOURS IMPROVISO OTHER"`
	InvolvedUserIDs []string `json:"involvedUserIds" validate:"required,min=1,dive,required"`
	Date            string   `json:"date" validate:"required,datetime=2006-01-02"`
	Shift           string   `json:"shift" validate:"required,oneof=MORNING AFTERNOON FULL_DAY"`
	Color           string   `json:"color" validate:"omitempty,max=20"`
}

// CreateEventRangeRequest blocks analysts for every business day of a window.
type CreateEventRangeRequest struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Kind    string   `json:"kind" validate:"omitempty,oneof=TRAINING MEETING DAY_OFF BANKED_HOURS IMPROVISO OTHER"`
	UserIDs []string `json:"userIds" validate:"required,min=1,dive,required"`
	From    string   `json:"from" validate:"required,datetime=2006-01-02"`
	To      string   `json:"to" validate:"required,datetime=2006-01-02"`
	Color   string   `json:"color" validate:"omitempty,max=20"`
}

// RemoveEventsQuery clears one user's blocks on a date.
type RemoveEventsQuery struct {
	UserID string `form:"userId" validate:"required"`
	Date   string `form:"date" validate:"required,datetime=2006-01-02"`
}

// EventListQuery filters the event listing.
type EventListQuery struct {
	UserID string `form:"userId"`
	From   string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// EventRangeResponse counts the events written by a range insert.
type EventRangeResponse struct {
	Created int `json:"created"`
	Removed int `json:"removed"`
}
