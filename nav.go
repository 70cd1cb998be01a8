package gymclient

// NavigationItemsFor derives the visible menu for a role. It is pure and
// deterministic: same role in, same ordered items out, no store reads and
// no network. Callers recompute it whenever the session's identity
// changes, which in practice is once per login since a role is immutable
// for the lifetime of a session.
func NavigationItemsFor(role Role) []NavigationItem {
	if !role.Valid() {
		return nil
	}

	items := []NavigationItem{
		{Path: "/dashboard", Label: "Dashboard", Icon: "📊", Role: role},
	}

	switch role {
	case RoleAdmin:
		items = append(items,
			NavigationItem{Path: "/memberships", Label: "Memberships", Icon: "💳", Role: RoleAdmin},
			NavigationItem{Path: "/classes", Label: "Classes", Icon: "🏋️", Role: RoleAdmin},
			NavigationItem{Path: "/trainers", Label: "Trainers", Icon: "👨‍🏫", Role: RoleAdmin},
			NavigationItem{Path: "/bookings", Label: "Bookings", Icon: "📅", Role: RoleAdmin},
		)
	case RoleTrainer:
		items = append(items,
			NavigationItem{Path: "/trainer/classes", Label: "My Classes", Icon: "🏋️", Role: RoleTrainer},
			NavigationItem{Path: "/trainer/profile", Label: "My Profile", Icon: "👤", Role: RoleTrainer},
		)
	case RoleMember:
		items = append(items,
			NavigationItem{Path: "/member/classes", Label: "Browse Classes", Icon: "🏋️", Role: RoleMember},
			NavigationItem{Path: "/member/bookings", Label: "My Bookings", Icon: "📅", Role: RoleMember},
			NavigationItem{Path: "/member/membership", Label: "My Membership", Icon: "💳", Role: RoleMember},
		)
	}

	return items
}

// DashboardPathFor is the role-scoped dashboard endpoint on the remote
// API, mirroring the service's per-role dashboard resources.
func DashboardPathFor(role Role) string {
	if !role.Valid() {
		return ""
	}
	return "/api/dashboard/" + string(role)
}
