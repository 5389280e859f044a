package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"question:view-published",
		"submission:create",
		"submission:view-own",
		"stats:view-own",
		"enum:view",
	},
	"admin": {
		"*", // everything
	},
}
