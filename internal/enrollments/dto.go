package enrollments

type EnrollRequest struct {
	StudentID  int64 `json:"student_id" validate:"required,gt=0"`
	CourseID   int64 `json:"course_id" validate:"required,gt=0"`
	SemesterID int64 `json:"semester_id" validate:"required,gt=0"`
}

type GradeRequest struct {
	Grade string `json:"grade" validate:"required,oneof=A A- B+ B B- C+ C C- D+ D F I W P NP"`
}

type ListFilter struct {
	StudentID  int64
	CourseID   int64
	SemesterID int64
	Status     string
	Limit      int
	Offset     int
}
