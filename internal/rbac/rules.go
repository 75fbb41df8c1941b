package rbac

// Default policy. Candidates and employees take tests; employers browse
// published tests and results shared with them; HR authors tests and
// reviews attempts.
var RolePermissions = map[string][]string{
	"candidate": {
		"test:view",
		"attempt:start",
		"attempt:submit",
		"attempt:view-own",
		"profile:edit-own",
		"skills:list",
		"user:change_password",
	},
	"employee": {
		"test:view",
		"attempt:start",
		"attempt:submit",
		"attempt:view-own",
		"profile:edit-own",
		"skills:list",
		"user:change_password",
	},
	"employer": {
		"test:view",
		"attempt:view-own",
		"skills:list",
		"user:change_password",
	},
	"hr": {
		"test:*",
		"attempt:view-all",
		"attempt:review",
		"users:bulk_upsert",
		"users:list",
		"skills:*",
		"profile:view-all",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
