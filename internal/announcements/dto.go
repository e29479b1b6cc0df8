package announcements

type CreateAnnouncementRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required,max=10000"`
	Audience string `json:"audience" validate:"required,oneof=all students faculty"`
}

type UpdateAnnouncementRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Body     *string `json:"body,omitempty" validate:"omitempty,max=10000"`
	Audience *string `json:"audience,omitempty" validate:"omitempty,oneof=all students faculty"`
}

type ListFilter struct {
	Status   string
	Audience string
	Limit    int
	Offset   int
}
