package workflow

import "github.com/garyjia/freight-audit/internal/domain/entity"

// CanAct reports whether an actor holding actorRoleID may decide a step
// assigned to requiredRoleID. Unknown actor roles are refused.
func CanAct(roles []entity.RoleDefinition, actorRoleID, requiredRoleID string) bool {
	if actorRoleID == "" {
		return false
	}

	for _, role := range roles {
		if role.ID != actorRoleID {
			continue
		}
		return role.ID == requiredRoleID || role.Permissions.CanAdminSystem
	}
	return false
}
