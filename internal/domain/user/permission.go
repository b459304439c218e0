package user

type Permission string

const (
	// Roster
	PermissionRosterView  Permission = "roster.view"
	PermissionShiftManage Permission = "shift.manage"

	// Attendance
	PermissionAttendanceOwn    Permission = "attendance.own"
	PermissionAttendanceOthers Permission = "attendance.others"

	// Reports
	PermissionReportsView Permission = "reports.view"

	// Users
	PermissionUserView Permission = "user.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionRosterView,
		PermissionShiftManage,
		PermissionAttendanceOwn,
		PermissionAttendanceOthers,
		PermissionReportsView,
		PermissionUserView,
	},
	RoleStaff: {
		PermissionRosterView,
		PermissionAttendanceOwn,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
