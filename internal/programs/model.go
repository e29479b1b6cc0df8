package programs

import "time"

// Program is a degree program offered by a department.
type Program struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	DepartmentID int64     `json:"department_id"`
	DegreeLevel  string    `json:"degree_level"`
	CreditHours  int       `json:"credit_hours"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Degree levels accepted on intake.
const (
	DegreeAssociate = "associate"
	DegreeBachelor  = "bachelor"
	DegreeMaster    = "master"
	DegreeDoctoral  = "doctoral"
)
