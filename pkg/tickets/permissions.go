package tickets

import "github.com/Jacobbrewer1/warden/pkg/entities"

// HasModPermissions reports whether the member can manage tickets: administrators always can, otherwise the
// member needs the moderator role or one of the admin roles.
func HasModPermissions(settings *entities.TicketSettings, m Member) bool {
	if m.Administrator {
		return true
	}

	if m.HasRole(settings.ModeratorRoleID) {
		return true
	}

	return HasAdminRole(settings, m)
}

// CanConfigure reports whether the member can change the ticket settings.
func CanConfigure(settings *entities.TicketSettings, m Member) bool {
	return m.Administrator || HasAdminRole(settings, m)
}

// HasAdminRole reports whether the member holds one of the configured admin roles.
func HasAdminRole(settings *entities.TicketSettings, m Member) bool {
	for _, id := range settings.AdminRoleIDs {
		if m.HasRole(id) {
			return true
		}
	}
	return false
}
