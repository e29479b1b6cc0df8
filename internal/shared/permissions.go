package shared

// Permission codes follow the "<action>_<resource>" convention used by the
// records backend. Codes are opaque strings; the backend is the source of
// truth for which subject holds which code.
const (
	PermViewUsers   = "view_users"
	PermCreateUsers = "create_users"
	PermEditUsers   = "edit_users"
	PermManageUsers = "manage_users"

	PermViewCourses   = "view_courses"
	PermCreateCourses = "create_courses"
	PermEditCourses   = "edit_courses"

	PermViewDepartments = "view_departments"
	PermEditDepartments = "edit_departments"

	PermViewPrograms = "view_programs"
	PermEditPrograms = "edit_programs"

	PermViewSemesters = "view_semesters"
	PermEditSemesters = "edit_semesters"

	PermViewEnrollments  = "view_enrollments"
	PermEditEnrollments  = "edit_enrollments"
	PermGradeEnrollments = "grade_enrollments"

	PermViewAnnouncements   = "view_announcements"
	PermManageAnnouncements = "manage_announcements"

	PermViewReports = "view_reports"

	PermViewSettings = "view_settings"
	PermEditSettings = "edit_settings"

	PermViewRoles = "view_roles"
	PermEditRoles = "edit_roles"
)

// Role codes known to the console. Grant sets may carry additional codes;
// these are only the ones the built-in gates reference.
const (
	RoleAdmin     = "ADMIN"
	RoleRegistrar = "REGISTRAR"
	RoleFaculty   = "FACULTY"
	RoleStudent   = "STUDENT"
)

// CoreScopes lists all permissions the console itself gates on.
func CoreScopes() []string {
	return []string{
		PermViewUsers, PermCreateUsers, PermEditUsers, PermManageUsers,
		PermViewCourses, PermCreateCourses, PermEditCourses,
		PermViewDepartments, PermEditDepartments,
		PermViewPrograms, PermEditPrograms,
		PermViewSemesters, PermEditSemesters,
		PermViewEnrollments, PermEditEnrollments, PermGradeEnrollments,
		PermViewAnnouncements, PermManageAnnouncements,
		PermViewReports,
		PermViewSettings, PermEditSettings,
		PermViewRoles, PermEditRoles,
	}
}
