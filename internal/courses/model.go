package courses

import "time"

// Course is a catalog entry students enroll into per semester.
type Course struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	DepartmentID int64     `json:"department_id"`
	CreditHours  int       `json:"credit_hours"`
	Capacity     int       `json:"capacity"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
