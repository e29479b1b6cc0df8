package enrollments

import "time"

// Enrollment links a student to a course offering in a semester.
type Enrollment struct {
	ID         int64     `json:"id"`
	StudentID  int64     `json:"student_id"`
	CourseID   int64     `json:"course_id"`
	SemesterID int64     `json:"semester_id"`
	Status     string    `json:"status"`
	Grade      *string   `json:"grade,omitempty"`
	EnrolledAt time.Time `json:"enrolled_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Enrollment lifecycle states.
const (
	StatusEnrolled  = "enrolled"
	StatusDropped   = "dropped"
	StatusCompleted = "completed"
)
