package courses

type CreateCourseRequest struct {
	Code         string  `json:"code" validate:"required,max=20"`
	Title        string  `json:"title" validate:"required,max=200"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	DepartmentID int64   `json:"department_id" validate:"required,gt=0"`
	CreditHours  int     `json:"credit_hours" validate:"required,gt=0,lte=12"`
	Capacity     int     `json:"capacity" validate:"required,gt=0,lte=1000"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	CreditHours *int    `json:"credit_hours,omitempty" validate:"omitempty,gt=0,lte=12"`
	Capacity    *int    `json:"capacity,omitempty" validate:"omitempty,gt=0,lte=1000"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ListFilter struct {
	DepartmentID int64
	Search       string
	IsActive     *bool
	Limit        int
	Offset       int
}
