package shared

// Operation names checked by the authorization guard. Each protected
// endpoint passes its own constant; the values match permission rows.
const (
	OpGetUsers    = "get_users"
	OpGetUserByID = "get_user_by_id"
	OpCreateUser  = "create_user"
	OpUpdateUser  = "update_user"
	OpDeleteUser  = "delete_user"

	OpGetAllRoles = "get_all_roles"
	OpGetRoleByID = "get_role_by_id"
	OpCreateRole  = "create_role"
	OpUpdateRole  = "update_role"
	OpDeleteRole  = "delete_role"

	OpGetAllPermissions = "get_all_permissions"
	OpGetPermissionByID = "get_permission_by_id"
	OpCreatePermission  = "create_permission"
	OpUpdatePermission  = "update_permission"
	OpDeletePermission  = "delete_permission"

	OpGetAllPermissionGroups = "get_all_permission_groups"
	OpGetPermissionGroupByID = "get_permission_group_by_id"
	OpCreatePermissionGroup  = "create_permission_group"
	OpUpdatePermissionGroup  = "update_permission_group"
	OpDeletePermissionGroup  = "delete_permission_group"

	OpGetAllPermissionGroupDefines = "get_all_permission_group_defines"
	OpGetPermissionGroupDefineByID = "get_permission_group_define_by_id"
	OpCreatePermissionGroupDefine  = "create_permission_group_define"
	OpUpdatePermissionGroupDefine  = "update_permission_group_define"
	OpDeletePermissionGroupDefine  = "delete_permission_group_define"

	OpGetLogins = "get_logins"
)

// OperationCatalog groups every operation under the entity it belongs to.
// The seed script stores each key as a parent permission with the listed
// operations as children.
func OperationCatalog() map[string][]string {
	return map[string][]string{
		"users": {OpGetUsers, OpGetUserByID, OpCreateUser, OpUpdateUser, OpDeleteUser},
		"roles": {OpGetAllRoles, OpGetRoleByID, OpCreateRole, OpUpdateRole, OpDeleteRole},
		"permissions": {
			OpGetAllPermissions, OpGetPermissionByID, OpCreatePermission, OpUpdatePermission, OpDeletePermission,
		},
		"permission_groups": {
			OpGetAllPermissionGroups, OpGetPermissionGroupByID, OpCreatePermissionGroup,
			OpUpdatePermissionGroup, OpDeletePermissionGroup,
		},
		"permission_group_defines": {
			OpGetAllPermissionGroupDefines, OpGetPermissionGroupDefineByID, OpCreatePermissionGroupDefine,
			OpUpdatePermissionGroupDefine, OpDeletePermissionGroupDefine,
		},
		"login_logs": {OpGetLogins},
	}
}
