package semesters

import "time"

type CreateSemesterRequest struct {
	Code              string    `json:"code" validate:"required,max=20"`
	Name              string    `json:"name" validate:"required,max=100"`
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	RegistrationStart time.Time `json:"registration_start" validate:"required"`
	RegistrationEnd   time.Time `json:"registration_end" validate:"required,gtfield=RegistrationStart"`
}

type UpdateSemesterRequest struct {
	Name              *string    `json:"name,omitempty" validate:"omitempty,max=100"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	RegistrationStart *time.Time `json:"registration_start,omitempty"`
	RegistrationEnd   *time.Time `json:"registration_end,omitempty"`
}
