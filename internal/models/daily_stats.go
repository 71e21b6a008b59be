package models

import "time"

// DailyRow is one day of aggregates pushed to the collector
type DailyRow struct {
	Day           string `json:"day" validate:"required,day"`
	Count         int    `json:"count" validate:"min=0"`
	RightCount    int    `json:"right_count" validate:"min=0"`
	TotalMessages int    `json:"total_messages" validate:"min=0"`
}

// HasData reports whether any counter on the row is nonzero
func (r DailyRow) HasData() bool {
	return r.Count > 0 || r.RightCount > 0 || r.TotalMessages > 0
}

// DailyStats is a stored DailyRow
type DailyStats struct {
	DailyRow
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodayResponse is the body of GET /api/today
type TodayResponse struct {
	Day           string `json:"day"`
	Count         int    `json:"count"`
	RightCount    int    `json:"right_count"`
	TotalMessages int    `json:"total_messages"`
}
