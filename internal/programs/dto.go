package programs

type CreateProgramRequest struct {
	Code         string `json:"code" validate:"required,max=20"`
	Name         string `json:"name" validate:"required,max=200"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
	DegreeLevel  string `json:"degree_level" validate:"required,oneof=associate bachelor master doctoral"`
	CreditHours  int    `json:"credit_hours" validate:"required,gt=0,lte=300"`
}

type UpdateProgramRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	DegreeLevel *string `json:"degree_level,omitempty" validate:"omitempty,oneof=associate bachelor master doctoral"`
	CreditHours *int    `json:"credit_hours,omitempty" validate:"omitempty,gt=0,lte=300"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ListFilter struct {
	DepartmentID int64
	Search       string
	IsActive     *bool
	Limit        int
	Offset       int
}
