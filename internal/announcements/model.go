package announcements

import "time"

// Announcement is a broadcast message for an institutional audience.
type Announcement struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Audience    string     `json:"audience"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Audiences an announcement may target.
const (
	AudienceAll      = "all"
	AudienceStudents = "students"
	AudienceFaculty  = "faculty"
)

// Lifecycle states.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)
