package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
)

// --- stubs ---

type stubUserStore struct {
	mu      sync.Mutex
	users   []domain.User
	saveErr error
	loadErr error
	saves   int
}

func (s *stubUserStore) LoadAll(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return domain.CloneUsers(s.users), nil
}

func (s *stubUserStore) SaveAll(_ context.Context, users []domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.users = domain.CloneUsers(users)
	return nil
}

func (s *stubUserStore) snapshot() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneUsers(s.users)
}

func (s *stubUserStore) byUsername(name string) *domain.User {
	for _, u := range s.snapshot() {
		if domain.SameUsername(u.Username, name) {
			u := u
			return &u
		}
	}
	return nil
}

type stubAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *stubAudit) Record(e domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *stubAudit) has(action domain.AuditAction) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.events {
		if e.Action == action {
			return true
		}
	}
	return false
}

// --- fixtures ---

const adminPassword = "bootstrap-pass"

var fixedNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *AccessControlService
	store *stubUserStore
	audit *stubAudit
	logs  *bytes.Buffer
	admin *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: &stubUserStore{}, audit: &stubAudit{}, logs: &bytes.Buffer{}}
	f.svc = NewAccessControlService(f.store, zerolog.New(f.logs),
		WithBcryptCost(bcrypt.MinCost),
		WithClock(func() time.Time { return fixedNow }),
		WithAuditRecorder(f.audit),
	)
	admin, err := f.svc.Bootstrap(context.Background(), adminPassword)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	f.admin = admin
	return f
}

func (f *fixture) createUser(t *testing.T, username, role string) *domain.User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), f.admin, ports.CreateUserInput{
		Username: username,
		Password: username + "-pass",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// --- Bootstrap ---

func TestBootstrap_SeedsAdministrator(t *testing.T) {
	f := newFixture(t)

	stored := f.store.byUsername("admin")
	if stored == nil {
		t.Fatal("admin not persisted")
	}
	if stored.Role != domain.RoleAdmin || !stored.IsActive {
		t.Errorf("unexpected admin state: role=%s active=%v", stored.Role, stored.IsActive)
	}
	if stored.CreatedBy != "system" {
		t.Errorf("CreatedBy = %q, want system", stored.CreatedBy)
	}
	if !stored.CredentialRotationRequired {
		t.Error("expected rotation flag on bootstrap credential")
	}
	if !domain.PermissionsMatch(domain.RoleAdmin, stored.Permissions) {
		t.Errorf("admin permissions = %v", stored.Permissions)
	}
	if stored.PasswordHash == adminPassword {
		t.Error("credential stored in clear")
	}
	if !f.audit.has(domain.AuditBootstrap) {
		t.Error("bootstrap not audited")
	}
}

func TestBootstrap_ExistingAdministratorIsKept(t *testing.T) {
	f := newFixture(t)
	before := f.store.byUsername("admin")

	again, err := f.svc.Bootstrap(context.Background(), "other-password")
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if again.ID != before.ID {
		t.Errorf("bootstrap replaced the administrator: %s != %s", again.ID, before.ID)
	}
	if len(f.store.snapshot()) != 1 {
		t.Errorf("expected a single record, got %d", len(f.store.snapshot()))
	}
	if _, err := f.svc.Authenticate(context.Background(), "admin", "other-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("second bootstrap must not reset the credential, got %v", err)
	}
}

func TestBootstrap_RepairsTamperedAdministrator(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	store := &stubUserStore{users: []domain.User{{
		ID: "a-1", Username: "admin", PasswordHash: string(hash),
		Role: domain.RoleUser, IsActive: false, Permissions: nil,
	}}}
	svc := NewAccessControlService(store, zerolog.Nop(), WithBcryptCost(bcrypt.MinCost))

	if _, err := svc.Bootstrap(context.Background(), adminPassword); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	got := store.byUsername("admin")
	if got.Role != domain.RoleAdmin || !got.IsActive || !domain.PermissionsMatch(domain.RoleAdmin, got.Permissions) {
		t.Errorf("administrator not repaired: %+v", got)
	}
}

func TestBootstrap_EmptyPassword(t *testing.T) {
	svc := NewAccessControlService(&stubUserStore{}, zerolog.Nop())
	if _, err := svc.Bootstrap(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// --- Authenticate ---

func TestAuthenticate_CaseInsensitiveSetsLastLogin(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Authenticate(context.Background(), "Admin", adminPassword)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.Username != "admin" {
		t.Errorf("Username = %q", u.Username)
	}
	stored := f.store.byUsername("admin")
	if stored.LastLoginAt == nil || !stored.LastLoginAt.Equal(fixedNow) {
		t.Errorf("LastLoginAt = %v, want %v", stored.LastLoginAt, fixedNow)
	}
	if !f.audit.has(domain.AuditLogin) {
		t.Error("login not audited")
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob", "user")
	if _, err := f.svc.UpdateUser(context.Background(), f.admin, bob.ID, ports.UpdateUserPatch{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("deactivate bob: %v", err)
	}

	tests := []struct {
		name, username, password string
	}{
		{"wrong password", "admin", "nope"},
		{"unknown user", "ghost", "whatever"},
		{"empty username", "", adminPassword},
		{"inactive user", "bob", "bob-pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Authenticate(context.Background(), tt.username, tt.password); !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
	if f.store.byUsername("bob").LastLoginAt != nil {
		t.Error("failed login must not touch LastLoginAt")
	}
	if !f.audit.has(domain.AuditLoginFailed) {
		t.Error("failed login not audited")
	}
}

func TestAuthenticate_RepairsStoredPermissions(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "carol", "user")

	// Tamper with the stored record directly: a user role carrying admin permissions.
	users := f.store.snapshot()
	for i := range users {
		if users[i].Username == "carol" {
			users[i].Permissions = domain.PermissionsForRole(domain.RoleAdmin)
		}
	}
	f.store.users = users
	f.logs.Reset()

	u, err := f.svc.Authenticate(context.Background(), "carol", "carol-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !domain.PermissionsMatch(domain.RoleUser, u.Permissions) {
		t.Errorf("returned permissions not repaired: %v", u.Permissions)
	}
	if !domain.PermissionsMatch(domain.RoleUser, f.store.byUsername("carol").Permissions) {
		t.Error("repair not persisted")
	}
	if !strings.Contains(f.logs.String(), "permissions repaired") {
		t.Errorf("repair not logged; logs: %s", f.logs.String())
	}
	if !f.audit.has(domain.AuditPermissionsRepaired) {
		t.Error("repair not audited")
	}
}

func TestAuthenticate_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.New("disk full")

	if _, err := f.svc.Authenticate(context.Background(), "admin", adminPassword); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if f.store.byUsername("admin").LastLoginAt != nil {
		t.Error("store changed despite failed commit")
	}
}

// --- Identify ---

func TestIdentify(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob", "user")

	got, err := f.svc.Identify(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got.Username != "bob" {
		t.Errorf("Username = %q", got.Username)
	}

	if _, err := f.svc.Identify(context.Background(), "missing"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("missing: expected ErrInvalidCredentials, got %v", err)
	}

	_, _ = f.svc.UpdateUser(context.Background(), f.admin, bob.ID, ports.UpdateUserPatch{IsActive: boolPtr(false)})
	if _, err := f.svc.Identify(context.Background(), bob.ID); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("inactive: expected ErrInvalidCredentials, got %v", err)
	}
}

// --- CreateUser ---

func TestCreateUser_Success(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.CreateUser(context.Background(), f.admin, ports.CreateUserInput{
		Username:    " dave ",
		Password:    "dave-pass",
		DisplayName: "Dave",
		Role:        "manager",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Username != "dave" {
		t.Errorf("unexpected record: %+v", u)
	}
	if !u.IsActive || u.CreatedBy != "admin" || !u.CreatedAt.Equal(fixedNow) {
		t.Errorf("unexpected metadata: active=%v createdBy=%s createdAt=%v", u.IsActive, u.CreatedBy, u.CreatedAt)
	}
	if !domain.PermissionsMatch(domain.RoleManager, u.Permissions) {
		t.Errorf("permissions = %v", u.Permissions)
	}
	if _, err := f.svc.Authenticate(context.Background(), "dave", "dave-pass"); err != nil {
		t.Errorf("new user cannot log in: %v", err)
	}
}

func TestCreateUser_DefaultsAndUnknownRoleToUser(t *testing.T) {
	f := newFixture(t)

	for _, role := range []string{"", "superuser"} {
		u, err := f.svc.CreateUser(context.Background(), f.admin, ports.CreateUserInput{
			Username: "u" + role,
			Password: "pw",
			Role:     role,
		})
		if err != nil {
			t.Fatalf("CreateUser(role=%q): %v", role, err)
		}
		if u.Role != domain.RoleUser || !domain.PermissionsMatch(domain.RoleUser, u.Permissions) {
			t.Errorf("role %q mapped to %s %v", role, u.Role, u.Permissions)
		}
	}
}

func TestCreateUser_DuplicateIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "erin", "user")

	_, err := f.svc.CreateUser(context.Background(), f.admin, ports.CreateUserInput{Username: "ERIN", Password: "pw"})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if _, err := f.svc.CreateUser(context.Background(), f.admin, ports.CreateUserInput{Username: "Admin", Password: "pw"}); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername for Admin, got %v", err)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	f := newFixture(t)
	for _, in := range []ports.CreateUserInput{
		{Username: "", Password: "pw"},
		{Username: "   ", Password: "pw"},
		{Username: "frank", Password: ""},
	} {
		if _, err := f.svc.CreateUser(context.Background(), f.admin, in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestCreateUser_UnauthorizedLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	mgr := f.createUser(t, "mgr", "manager")
	before := f.store.saves

	// Caller-supplied permissions are ignored: the stored manager role decides.
	forged := *mgr
	forged.Permissions = domain.PermissionsForRole(domain.RoleAdmin)
	forged.Role = domain.RoleAdmin

	_, err := f.svc.CreateUser(context.Background(), &forged, ports.CreateUserInput{Username: "x", Password: "pw"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if f.store.saves != before {
		t.Error("store written on unauthorized create")
	}
	if f.store.byUsername("x") != nil {
		t.Error("unauthorized create persisted a record")
	}

	if _, err := f.svc.CreateUser(context.Background(), nil, ports.CreateUserInput{Username: "y", Password: "pw"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous: expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateUser_StorageFailureLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.New("connection reset")

	_, err := f.svc.CreateUser(context.Background(), f.admin, ports.CreateUserInput{Username: "gina", Password: "pw"})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("cause lost: %v", err)
	}

	f.store.saveErr = nil
	if f.store.byUsername("gina") != nil {
		t.Error("failed commit left a partial record")
	}
	if _, err := f.svc.CreateUser(context.Background(), f.admin, ports.CreateUserInput{Username: "gina", Password: "pw"}); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

// --- UpdateUser ---

func TestUpdateUser_ProtectedAdministrator(t *testing.T) {
	f := newFixture(t)
	id := f.admin.ID

	tests := []struct {
		name  string
		patch ports.UpdateUserPatch
	}{
		{"demote", ports.UpdateUserPatch{Role: strPtr("user")}},
		{"rename", ports.UpdateUserPatch{Username: strPtr("root")}},
		{"deactivate", ports.UpdateUserPatch{IsActive: boolPtr(false)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.UpdateUser(context.Background(), f.admin, id, tt.patch); !errors.Is(err, domain.ErrProtectedAccount) {
				t.Fatalf("expected ErrProtectedAccount, got %v", err)
			}
		})
	}

	stored := f.store.byUsername("admin")
	if stored.Role != domain.RoleAdmin || !stored.IsActive {
		t.Errorf("administrator changed: %+v", stored)
	}
}

func TestUpdateUser_AdministratorMetadataAndPassword(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.UpdateUser(context.Background(), f.admin, f.admin.ID, ports.UpdateUserPatch{
		DisplayName: strPtr("Root"),
		Role:        strPtr("admin"),
		Password:    strPtr("rotated-pass"),
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if u.DisplayName != "Root" {
		t.Errorf("DisplayName = %q", u.DisplayName)
	}
	if u.CredentialRotationRequired {
		t.Error("password change must clear the rotation flag")
	}
	if _, err := f.svc.Authenticate(context.Background(), "admin", "rotated-pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestUpdateUser_PermissionsPatchIsDropped(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob", "user")

	u, err := f.svc.UpdateUser(context.Background(), f.admin, bob.ID, ports.UpdateUserPatch{
		Permissions: []domain.Permission{domain.PermSystemSettings, domain.PermDeleteUsers},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if !domain.PermissionsMatch(domain.RoleUser, u.Permissions) {
		t.Errorf("permissions patch applied: %v", u.Permissions)
	}

	// Narrowing the administrator is dropped the same way.
	a, err := f.svc.UpdateUser(context.Background(), f.admin, f.admin.ID, ports.UpdateUserPatch{
		Permissions: []domain.Permission{},
	})
	if err != nil {
		t.Fatalf("UpdateUser admin: %v", err)
	}
	if !domain.PermissionsMatch(domain.RoleAdmin, a.Permissions) {
		t.Errorf("administrator permissions narrowed: %v", a.Permissions)
	}
}

func TestUpdateUser_RoleChangeRecomputesPermissions(t *testing.T) {
	f := newFixture(t)
	mgr := f.createUser(t, "mgr", "manager")

	u, err := f.svc.UpdateUser(context.Background(), f.admin, mgr.ID, ports.UpdateUserPatch{Role: strPtr("admin")})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if u.Role != domain.RoleAdmin || !domain.PermissionsMatch(domain.RoleAdmin, u.Permissions) {
		t.Errorf("got %s %v", u.Role, u.Permissions)
	}
	if !domain.PermissionsMatch(domain.RoleAdmin, f.store.byUsername("mgr").Permissions) {
		t.Error("recomputed permissions not persisted")
	}
}

func TestUpdateUser_UsernameRules(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob", "user")
	f.createUser(t, "carol", "user")

	if _, err := f.svc.UpdateUser(context.Background(), f.admin, bob.ID, ports.UpdateUserPatch{Username: strPtr("CAROL")}); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
	if _, err := f.svc.UpdateUser(context.Background(), f.admin, bob.ID, ports.UpdateUserPatch{Username: strPtr("admin")}); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Errorf("taking the administrator name: expected ErrDuplicateUsername, got %v", err)
	}
	u, err := f.svc.UpdateUser(context.Background(), f.admin, bob.ID, ports.UpdateUserPatch{Username: strPtr("Bob")})
	if err != nil {
		t.Fatalf("recasing own username: %v", err)
	}
	if u.Username != "Bob" {
		t.Errorf("Username = %q", u.Username)
	}
}

func TestUpdateUser_SelfDeactivation(t *testing.T) {
	f := newFixture(t)
	second := f.createUser(t, "ops", "admin")

	_, err := f.svc.UpdateUser(context.Background(), second, second.ID, ports.UpdateUserPatch{IsActive: boolPtr(false)})
	if !errors.Is(err, domain.ErrSelfDeletion) {
		t.Fatalf("expected ErrSelfDeletion, got %v", err)
	}
	if !f.store.byUsername("ops").IsActive {
		t.Error("self-deactivation persisted")
	}
}

func TestUpdateUser_NotFoundAndUnauthorized(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob", "user")

	if _, err := f.svc.UpdateUser(context.Background(), f.admin, "missing", ports.UpdateUserPatch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.UpdateUser(context.Background(), bob, bob.ID, ports.UpdateUserPatch{DisplayName: strPtr("B")}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

// --- DeleteUser ---

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob", "user")
	second := f.createUser(t, "ops", "admin")

	if err := f.svc.DeleteUser(context.Background(), second, f.admin.ID); !errors.Is(err, domain.ErrProtectedAccount) {
		t.Errorf("delete admin: expected ErrProtectedAccount, got %v", err)
	}
	if err := f.svc.DeleteUser(context.Background(), f.admin, f.admin.ID); !errors.Is(err, domain.ErrProtectedAccount) {
		t.Errorf("admin deleting itself: expected ErrProtectedAccount, got %v", err)
	}
	if err := f.svc.DeleteUser(context.Background(), second, second.ID); !errors.Is(err, domain.ErrSelfDeletion) {
		t.Errorf("self delete: expected ErrSelfDeletion, got %v", err)
	}
	if err := f.svc.DeleteUser(context.Background(), bob, second.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("user deleting: expected ErrUnauthorized, got %v", err)
	}
	if err := f.svc.DeleteUser(context.Background(), f.admin, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}

	if err := f.svc.DeleteUser(context.Background(), f.admin, bob.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if f.store.byUsername("bob") != nil {
		t.Error("bob still stored")
	}
	if !f.audit.has(domain.AuditUserDeleted) {
		t.Error("delete not audited")
	}
}

// --- ChangePassword ---

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob", "user")

	if err := f.svc.ChangePassword(context.Background(), bob, "wrong", "next-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong current: expected ErrInvalidCredentials, got %v", err)
	}
	if err := f.svc.ChangePassword(context.Background(), bob, "bob-pass", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty next: expected ErrInvalidInput, got %v", err)
	}
	if err := f.svc.ChangePassword(context.Background(), bob, "bob-pass", "next-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.svc.Authenticate(context.Background(), "bob", "next-pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if _, err := f.svc.Authenticate(context.Background(), "bob", "bob-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}
}

func TestChangePassword_ClearsBootstrapRotation(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.ChangePassword(context.Background(), f.admin, adminPassword, "fresh-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if f.store.byUsername("admin").CredentialRotationRequired {
		t.Error("rotation flag not cleared")
	}
}

func TestPasswordsLongerThanBcryptLimitAreInvalidInput(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob", "user")
	long := strings.Repeat("a", maxPasswordBytes+1)
	savesBefore := f.store.saves

	if _, err := f.svc.CreateUser(context.Background(), f.admin, ports.CreateUserInput{Username: "frank", Password: long}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("create: expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.UpdateUser(context.Background(), f.admin, bob.ID, ports.UpdateUserPatch{Password: &long}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("update: expected ErrInvalidInput, got %v", err)
	}
	if err := f.svc.ChangePassword(context.Background(), bob, "bob-pass", long); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("change: expected ErrInvalidInput, got %v", err)
	}
	if f.store.saves != savesBefore {
		t.Errorf("store written %d times", f.store.saves-savesBefore)
	}

	exact := strings.Repeat("a", maxPasswordBytes)
	if err := f.svc.ChangePassword(context.Background(), bob, "bob-pass", exact); err != nil {
		t.Errorf("72-byte password rejected: %v", err)
	}
}

// --- reads ---

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob", "user")
	mgr := f.createUser(t, "mgr", "manager")

	if got, err := f.svc.GetUser(context.Background(), bob, bob.ID); err != nil || got.Username != "bob" {
		t.Errorf("own record: %v %+v", err, got)
	}
	if _, err := f.svc.GetUser(context.Background(), bob, mgr.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("other record as user: expected ErrUnauthorized, got %v", err)
	}
	if got, err := f.svc.GetUser(context.Background(), mgr, bob.ID); err != nil || got.ID != bob.ID {
		t.Errorf("manager view: %v", err)
	}
	if _, err := f.svc.GetUser(context.Background(), mgr, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
}

func TestListUsers_FiltersAndStripsHashes(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "bob", "user")
	mgr := f.createUser(t, "mgr", "manager")
	_, _ = f.svc.UpdateUser(context.Background(), f.admin, mgr.ID, ports.UpdateUserPatch{Department: strPtr("Finance")})

	all, err := f.svc.ListUsers(context.Background(), mgr, ports.ListUsersFilter{})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 users, got %d", len(all))
	}
	for _, u := range all {
		if u.PasswordHash != "" {
			t.Errorf("%s: hash exposed", u.Username)
		}
	}

	byDept, _ := f.svc.ListUsers(context.Background(), mgr, ports.ListUsersFilter{Query: "fin"})
	if len(byDept) != 1 || byDept[0].Username != "mgr" {
		t.Errorf("query filter: %+v", byDept)
	}
	users, _ := f.svc.ListUsers(context.Background(), mgr, ports.ListUsersFilter{Role: "user"})
	if len(users) != 1 || users[0].Username != "bob" {
		t.Errorf("role filter: %+v", users)
	}

	bob := f.store.byUsername("bob")
	if _, err := f.svc.ListUsers(context.Background(), bob, ports.ListUsersFilter{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("user listing: expected ErrUnauthorized, got %v", err)
	}
}

func TestUserStats(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "bob", "user")
	carol := f.createUser(t, "carol", "user")
	f.createUser(t, "mgr", "manager")
	_, _ = f.svc.UpdateUser(context.Background(), f.admin, carol.ID, ports.UpdateUserPatch{IsActive: boolPtr(false)})

	stats, err := f.svc.UserStats(context.Background(), f.admin)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	want := domain.UserStats{Total: 4, Active: 3, Admins: 1, Managers: 1, Users: 2}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}
}

func TestExportUsers(t *testing.T) {
	f := newFixture(t)
	mgr := f.createUser(t, "mgr", "manager")

	out, err := f.svc.ExportUsers(context.Background(), f.admin)
	if err != nil {
		t.Fatalf("ExportUsers: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 records, got %d", len(out))
	}
	for _, u := range out {
		if u.PasswordHash != "" {
			t.Errorf("%s: hash exported", u.Username)
		}
	}
	if _, err := f.svc.ExportUsers(context.Background(), mgr); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("manager export: expected ErrUnauthorized, got %v", err)
	}
}

func TestLoadFailureIsStorageError(t *testing.T) {
	store := &stubUserStore{loadErr: errors.New("timeout")}
	svc := NewAccessControlService(store, zerolog.Nop(), WithBcryptCost(bcrypt.MinCost))

	if _, err := svc.Authenticate(context.Background(), "admin", "x"); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
}
