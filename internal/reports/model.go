package reports

import (
	"time"

	"github.com/google/uuid"
)

// CourseEnrollmentRow is one line of the per-semester enrollment summary.
type CourseEnrollmentRow struct {
	CourseID   int64  `json:"course_id"`
	CourseCode string `json:"course_code"`
	Title      string `json:"title"`
	Enrolled   int    `json:"enrolled"`
	Capacity   int    `json:"capacity"`
}

// DepartmentHeadcountRow is one line of the active-student headcount report.
type DepartmentHeadcountRow struct {
	DepartmentID   int64  `json:"department_id"`
	DepartmentCode string `json:"department_code"`
	Name           string `json:"name"`
	Students       int    `json:"students"`
}

// EnrollmentSummary aggregates a semester's enrollment picture.
type EnrollmentSummary struct {
	SemesterID     int64                 `json:"semester_id"`
	Rows           []CourseEnrollmentRow `json:"rows"`
	TotalEnrolled  int                   `json:"total_enrolled"`
	TotalFormatted string                `json:"total_formatted"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// Snapshot is a persisted report build, produced by the background worker.
type Snapshot struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	SemesterID  *int64     `json:"semester_id,omitempty"`
	Status      string     `json:"status"`
	Payload     []byte     `json:"payload,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Snapshot kinds and states.
const (
	KindEnrollmentSummary = "enrollment_summary"
	KindHeadcount         = "headcount"

	SnapshotPending  = "pending"
	SnapshotComplete = "complete"
	SnapshotFailed   = "failed"
)
