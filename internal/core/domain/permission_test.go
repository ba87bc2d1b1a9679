package domain

import "testing"

func TestPermissionsForRole(t *testing.T) {
	tests := []struct {
		role Role
		want []Permission
	}{
		{RoleAdmin, []Permission{
			PermCreateUsers, PermEditUsers, PermDeleteUsers, PermManageTickets, PermViewReports,
			PermSystemSettings, PermExportData, PermManageCategories, PermManageDepartments,
		}},
		{RoleManager, []Permission{
			PermManageTickets, PermViewReports, PermAssignTickets, PermEditTickets, PermCloseTickets, PermViewUsers,
		}},
		{RoleUser, []Permission{PermCreateTickets, PermViewOwnTickets, PermEditOwnTickets}},
		{Role("auditor"), []Permission{PermCreateTickets, PermViewOwnTickets, PermEditOwnTickets}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			got := PermissionsForRole(tt.role)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("at %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPermissionsForRole_ReturnsFreshCopy(t *testing.T) {
	first := PermissionsForRole(RoleUser)
	first[0] = PermSystemSettings

	if PermissionsForRole(RoleUser)[0] != PermCreateTickets {
		t.Fatal("mutating a returned set changed the matrix")
	}
}

func TestPermissionsMatch(t *testing.T) {
	tests := []struct {
		name string
		role Role
		got  []Permission
		want bool
	}{
		{"exact", RoleUser, []Permission{PermCreateTickets, PermViewOwnTickets, PermEditOwnTickets}, true},
		{"reordered", RoleUser, []Permission{PermEditOwnTickets, PermCreateTickets, PermViewOwnTickets}, true},
		{"missing", RoleUser, []Permission{PermCreateTickets, PermViewOwnTickets}, false},
		{"extra", RoleUser, []Permission{PermCreateTickets, PermViewOwnTickets, PermEditOwnTickets, PermExportData}, false},
		{"duplicate padding", RoleUser, []Permission{PermCreateTickets, PermCreateTickets, PermViewOwnTickets}, false},
		{"nil", RoleManager, nil, false},
		{"wrong role", RoleManager, PermissionsForRole(RoleAdmin), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PermissionsMatch(tt.role, tt.got); got != tt.want {
				t.Errorf("PermissionsMatch = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"admin":      RoleAdmin,
		" Manager ":  RoleManager,
		"USER":       RoleUser,
		"":           RoleUser,
		"superadmin": RoleUser,
	}
	for in, want := range tests {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestHasAnyPermission(t *testing.T) {
	u := &User{Role: RoleManager, Permissions: PermissionsForRole(RoleManager)}

	if !HasAnyPermission(u, PermSystemSettings, PermViewUsers) {
		t.Error("manager should hold view_users")
	}
	if HasAnyPermission(u, PermSystemSettings, PermDeleteUsers) {
		t.Error("manager should not hold admin permissions")
	}
	if HasAnyPermission(nil, PermViewUsers) {
		t.Error("nil user holds nothing")
	}
}

func TestUser_IsProtected(t *testing.T) {
	for name, want := range map[string]bool{"admin": true, "ADMIN": true, "admin2": false, "": false} {
		u := &User{Username: name}
		if got := u.IsProtected(); got != want {
			t.Errorf("IsProtected(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestUser_CloneIsDeep(t *testing.T) {
	u := User{Permissions: PermissionsForRole(RoleUser)}
	c := u.Clone()
	c.Permissions[0] = PermExportData

	if u.Permissions[0] != PermCreateTickets {
		t.Error("clone shares the permissions slice")
	}
}

func TestTicketStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to TicketStatus
		want     bool
	}{
		{TicketOpen, TicketInProgress, true},
		{TicketOpen, TicketClosed, true},
		{TicketResolved, TicketOpen, true},
		{TicketClosed, TicketOpen, true},
		{TicketClosed, TicketResolved, false},
		{TicketClosed, TicketInProgress, false},
		{TicketOpen, TicketOpen, true},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
