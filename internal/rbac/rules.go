package rbac

// RolePermissions is the default policy. Players need no token; only the
// host drives the questions, the library and the board.
//
// Permissions are "resource:action"; "resource:*" grants every action.
var RolePermissions = map[string][]string{
	"host": {
		"question:*",
		"board:*",
		"quiz:*",
		"library:*",
		"events:*",
	},
}
