package auth

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

var Roles = []string{RoleAdmin, RoleEmployee}

const (
	PermUsersRead       = "users.read"
	PermUsersWrite      = "users.write"
	PermReviewsRead     = "reviews.read"
	PermReviewsWrite    = "reviews.write"
	PermAssignmentsRead = "assignments.read"
	PermAssignmentsOwn  = "assignments.own"
	PermAssignmentsEdit = "assignments.write"
	PermFeedbackRead    = "feedback.read"
	PermFeedbackSubmit  = "feedback.submit"
	PermFeedbackDelete  = "feedback.delete"
	PermAuditRead       = "audit.read"
)

var DefaultPermissions = []string{
	PermUsersRead,
	PermUsersWrite,
	PermReviewsRead,
	PermReviewsWrite,
	PermAssignmentsRead,
	PermAssignmentsOwn,
	PermAssignmentsEdit,
	PermFeedbackRead,
	PermFeedbackSubmit,
	PermFeedbackDelete,
	PermAuditRead,
}

// RolePermissions is fixed in code; there is no role table. Admins manage
// cycles and see results, employees only act on their own assignments.
var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermUsersRead,
		PermUsersWrite,
		PermReviewsRead,
		PermReviewsWrite,
		PermAssignmentsRead,
		PermAssignmentsEdit,
		PermFeedbackRead,
		PermFeedbackDelete,
		PermAuditRead,
	},
	RoleEmployee: {
		PermAssignmentsOwn,
		PermFeedbackSubmit,
	},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// RoleHasPermission reports whether role grants permission.
func RoleHasPermission(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}

// StaticPermissions adapts RolePermissions to the permission store used by
// the HTTP middleware.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(role, permission string) bool {
	return RoleHasPermission(role, permission)
}
