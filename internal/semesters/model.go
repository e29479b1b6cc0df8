package semesters

import "time"

// Semester is an academic term. At most one semester is current at a time.
type Semester struct {
	ID                int64     `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	IsCurrent         bool      `json:"is_current"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RegistrationOpen reports whether the registration window covers now.
func (s Semester) RegistrationOpen(now time.Time) bool {
	return !now.Before(s.RegistrationStart) && !now.After(s.RegistrationEnd)
}
