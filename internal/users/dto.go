package users

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=10,max=128"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=10,max=128"`
}

type ListFilter struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}
