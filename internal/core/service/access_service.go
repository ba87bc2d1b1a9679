package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
	"github.com/servicedesk/service-desk/internal/pkg/metrics"
)

// systemActor is recorded as creator of bootstrap records.
const systemActor = "system"

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// AccessControlService owns the user store, derives permissions from roles,
// verifies credentials and guards the protected administrator.
//
// All operations are serialized. Mutations load the full record set, change
// a private copy and commit it with a single SaveAll; a failed commit leaves
// the durable state untouched and is reported as domain.ErrStorage.
type AccessControlService struct {
	store  ports.UserStore
	audit  ports.AuditRecorder
	log    zerolog.Logger
	now    func() time.Time
	cost   int
	dummy  []byte
	dummyO sync.Once

	mu sync.Mutex
}

// AccessOption customises an AccessControlService.
type AccessOption func(*AccessControlService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) AccessOption {
	return func(s *AccessControlService) { s.now = now }
}

// WithBcryptCost overrides the bcrypt work factor. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) AccessOption {
	return func(s *AccessControlService) { s.cost = cost }
}

// WithAuditRecorder routes audit events to r.
func WithAuditRecorder(r ports.AuditRecorder) AccessOption {
	return func(s *AccessControlService) { s.audit = r }
}

func NewAccessControlService(store ports.UserStore, log zerolog.Logger, opts ...AccessOption) *AccessControlService {
	s := &AccessControlService{
		store: store,
		audit: ports.NopAuditRecorder{},
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		cost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSession returns an anonymous session bound to this service.
func (s *AccessControlService) NewSession() *Session {
	return NewSession(s)
}

// Bootstrap seeds the protected administrator when the store has none and
// restores its invariants when it exists. password is the initial credential
// for a freshly seeded administrator.
func (s *AccessControlService) Bootstrap(ctx context.Context, password string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if idx := indexByUsername(users, domain.ProtectedUsername); idx >= 0 {
		admin := &users[idx]
		if s.repair(admin, "bootstrap") {
			if err := s.save(ctx, users); err != nil {
				return nil, err
			}
		}
		if admin.CredentialRotationRequired {
			s.log.Warn().Str("username", admin.Username).Msg("administrator still uses the bootstrap credential; rotate it")
		}
		out := admin.Clone()
		return &out, nil
	}

	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("bootstrap: %w: empty administrator credential", domain.ErrInvalidInput)
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	admin := domain.User{
		ID:                         uuid.NewString(),
		Username:                   domain.ProtectedUsername,
		PasswordHash:               hash,
		DisplayName:                "System Administrator",
		Department:                 "IT",
		Role:                       domain.RoleAdmin,
		Permissions:                domain.PermissionsForRole(domain.RoleAdmin),
		IsActive:                   true,
		CreatedAt:                  s.now(),
		CreatedBy:                  systemActor,
		CredentialRotationRequired: true,
	}
	users = append(users, admin)
	if err := s.save(ctx, users); err != nil {
		return nil, err
	}

	s.record(systemActor, domain.AuditBootstrap, admin.Username, "")
	s.log.Warn().Str("username", admin.Username).Msg("administrator seeded with bootstrap credential; rotate it")
	out := admin.Clone()
	return &out, nil
}

// Authenticate verifies username (case-insensitive) and password. Every
// failure is reported as domain.ErrInvalidCredentials.
func (s *AccessControlService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexByUsername(users, username)
	if idx < 0 {
		// Spend the same bcrypt work so response time does not reveal existence.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
		s.loginFailed(username)
		return nil, domain.ErrInvalidCredentials
	}

	u := &users[idx]
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.loginFailed(username)
		return nil, domain.ErrInvalidCredentials
	}

	s.repair(u, "authenticate")
	if !u.IsActive {
		s.loginFailed(username)
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	u.LastLoginAt = &now
	if err := s.save(ctx, users); err != nil {
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	s.record(u.Username, domain.AuditLogin, u.ID, "")
	s.log.Info().Str("username", u.Username).Str("role", string(u.Role)).Msg("user authenticated")

	out := u.Clone()
	return &out, nil
}

// Identify resolves an already authenticated user id into its current record.
// Missing and inactive records are reported as domain.ErrInvalidCredentials.
func (s *AccessControlService) Identify(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexByID(users, userID)
	if idx < 0 {
		return nil, domain.ErrInvalidCredentials
	}

	u := &users[idx]
	if s.repair(u, "identify") {
		if err := s.save(ctx, users); err != nil {
			return nil, err
		}
	}
	if !u.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	out := u.Clone()
	return &out, nil
}

// Logout records the end of a session for user. It holds no state of its own.
func (s *AccessControlService) Logout(_ context.Context, user *domain.User) {
	if user == nil {
		return
	}
	s.record(user.Username, domain.AuditLogout, user.ID, "")
	s.log.Info().Str("username", user.Username).Msg("user logged out")
}

func (s *AccessControlService) CreateUser(ctx context.Context, requester *domain.User, in ports.CreateUserInput) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := s.authorize(users, requester, domain.PermCreateUsers)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("create user: %w: username and password are required", domain.ErrInvalidInput)
	}
	if indexByUsername(users, username) >= 0 {
		return nil, domain.ErrDuplicateUsername
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	role := domain.ParseRole(in.Role)
	u := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Email:        strings.TrimSpace(in.Email),
		Department:   strings.TrimSpace(in.Department),
		Role:         role,
		Permissions:  domain.PermissionsForRole(role),
		IsActive:     true,
		CreatedAt:    s.now(),
		CreatedBy:    actor.Username,
	}
	users = append(users, u)
	if err := s.save(ctx, users); err != nil {
		return nil, err
	}

	metrics.UserMutationsTotal.WithLabelValues("create").Inc()
	s.record(actor.Username, domain.AuditUserCreated, u.ID, "role="+string(role))
	s.log.Info().Str("username", u.Username).Str("role", string(role)).Str("created_by", actor.Username).Msg("user created")

	out := u.Clone()
	return &out, nil
}

func (s *AccessControlService) UpdateUser(ctx context.Context, requester *domain.User, targetID string, patch ports.UpdateUserPatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := s.authorize(users, requester, domain.PermEditUsers)
	if err != nil {
		return nil, err
	}
	idx := indexByID(users, targetID)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	t := &users[idx]

	if patch.Permissions != nil {
		s.log.Warn().Str("target", t.Username).Str("actor", actor.Username).Msg("permissions in update ignored; they are derived from the role")
	}

	if t.IsProtected() {
		if patch.Role != nil && domain.ParseRole(*patch.Role) != domain.RoleAdmin {
			return nil, fmt.Errorf("update user: %w: administrator role cannot change", domain.ErrProtectedAccount)
		}
		if patch.Username != nil && !domain.SameUsername(*patch.Username, domain.ProtectedUsername) {
			return nil, fmt.Errorf("update user: %w: administrator username cannot change", domain.ErrProtectedAccount)
		}
		if patch.IsActive != nil && !*patch.IsActive {
			return nil, fmt.Errorf("update user: %w: administrator cannot be deactivated", domain.ErrProtectedAccount)
		}
	}
	if patch.IsActive != nil && !*patch.IsActive && t.ID == actor.ID {
		return nil, domain.ErrSelfDeletion
	}

	if patch.Username != nil && !t.IsProtected() {
		name := strings.TrimSpace(*patch.Username)
		if name == "" {
			return nil, fmt.Errorf("update user: %w: username is required", domain.ErrInvalidInput)
		}
		if other := indexByUsername(users, name); other >= 0 && other != idx {
			return nil, domain.ErrDuplicateUsername
		}
		t.Username = name
	}
	if patch.Role != nil && !t.IsProtected() {
		t.Role = domain.ParseRole(*patch.Role)
		t.Permissions = domain.PermissionsForRole(t.Role)
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, fmt.Errorf("update user: %w: empty password", domain.ErrInvalidInput)
		}
		hash, err := s.hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		t.PasswordHash = hash
		t.CredentialRotationRequired = false
	}
	if patch.DisplayName != nil {
		t.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Email != nil {
		t.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Department != nil {
		t.Department = strings.TrimSpace(*patch.Department)
	}
	if patch.IsActive != nil {
		t.IsActive = *patch.IsActive
	}
	s.repair(t, "update")

	if err := s.save(ctx, users); err != nil {
		return nil, err
	}

	metrics.UserMutationsTotal.WithLabelValues("update").Inc()
	s.record(actor.Username, domain.AuditUserUpdated, t.ID, "")
	s.log.Info().Str("username", t.Username).Str("actor", actor.Username).Msg("user updated")

	out := t.Clone()
	return &out, nil
}

func (s *AccessControlService) DeleteUser(ctx context.Context, requester *domain.User, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	actor, err := s.authorize(users, requester, domain.PermDeleteUsers)
	if err != nil {
		return err
	}
	idx := indexByID(users, targetID)
	if idx < 0 {
		return domain.ErrNotFound
	}
	target := users[idx]
	if target.IsProtected() {
		return domain.ErrProtectedAccount
	}
	if target.ID == actor.ID {
		return domain.ErrSelfDeletion
	}

	remaining := make([]domain.User, 0, len(users)-1)
	remaining = append(remaining, users[:idx]...)
	remaining = append(remaining, users[idx+1:]...)
	if err := s.save(ctx, remaining); err != nil {
		return err
	}

	metrics.UserMutationsTotal.WithLabelValues("delete").Inc()
	s.record(actor.Username, domain.AuditUserDeleted, target.ID, "username="+target.Username)
	s.log.Info().Str("username", target.Username).Str("actor", actor.Username).Msg("user deleted")
	return nil
}

// ChangePassword rotates the requester's own credential.
func (s *AccessControlService) ChangePassword(ctx context.Context, requester *domain.User, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	if requester == nil {
		return domain.ErrUnauthorized
	}
	idx := indexByID(users, requester.ID)
	if idx < 0 || !users[idx].IsActive {
		return domain.ErrUnauthorized
	}
	u := &users[idx]
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidCredentials
	}
	if next == "" {
		return fmt.Errorf("change password: %w: empty password", domain.ErrInvalidInput)
	}
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.CredentialRotationRequired = false
	if err := s.save(ctx, users); err != nil {
		return err
	}

	s.record(u.Username, domain.AuditPasswordChanged, u.ID, "")
	s.log.Info().Str("username", u.Username).Msg("password changed")
	return nil
}

// GetUser returns one record. Any active user may read their own record.
func (s *AccessControlService) GetUser(ctx context.Context, requester *domain.User, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if requester == nil || requester.ID != id {
		if _, err := s.authorize(users, requester, domain.PermViewUsers, domain.PermEditUsers); err != nil {
			return nil, err
		}
	} else if _, err := s.authorize(users, requester); err != nil {
		return nil, err
	}

	idx := indexByID(users, id)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	out := users[idx].Clone()
	out.Permissions = domain.PermissionsForRole(out.Role)
	return &out, nil
}

func (s *AccessControlService) ListUsers(ctx context.Context, requester *domain.User, filter ports.ListUsersFilter) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(users, requester, domain.PermViewUsers, domain.PermEditUsers); err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	role := strings.TrimSpace(filter.Role)
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if role != "" && string(u.Role) != role {
			continue
		}
		if query != "" && !matchesQuery(u, query) {
			continue
		}
		c := u.Clone()
		c.PasswordHash = ""
		c.Permissions = domain.PermissionsForRole(c.Role)
		out = append(out, c)
	}
	return out, nil
}

func (s *AccessControlService) UserStats(ctx context.Context, requester *domain.User) (*domain.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(users, requester, domain.PermViewReports, domain.PermViewUsers, domain.PermEditUsers); err != nil {
		return nil, err
	}

	stats := &domain.UserStats{Total: len(users)}
	for _, u := range users {
		if u.IsActive {
			stats.Active++
		}
		switch u.Role {
		case domain.RoleAdmin:
			stats.Admins++
		case domain.RoleManager:
			stats.Managers++
		default:
			stats.Users++
		}
	}
	return stats, nil
}

// ExportUsers returns every record without credential material.
func (s *AccessControlService) ExportUsers(ctx context.Context, requester *domain.User) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(users, requester, domain.PermExportData); err != nil {
		return nil, err
	}
	out := domain.CloneUsers(users)
	for i := range out {
		out[i].PasswordHash = ""
		out[i].Permissions = domain.PermissionsForRole(out[i].Role)
	}
	return out, nil
}

// authorize resolves requester against the loaded record set and checks that
// the stored role grants at least one of perms. Caller-supplied permissions
// are never trusted. With no perms only an active record is required.
func (s *AccessControlService) authorize(users []domain.User, requester *domain.User, perms ...domain.Permission) (*domain.User, error) {
	if requester == nil {
		return nil, domain.ErrUnauthorized
	}
	idx := indexByID(users, requester.ID)
	if idx < 0 {
		return nil, domain.ErrUnauthorized
	}
	actor := users[idx].Clone()
	if actor.IsProtected() {
		actor.Role = domain.RoleAdmin
		actor.IsActive = true
	}
	if !actor.IsActive {
		return nil, domain.ErrUnauthorized
	}
	actor.Permissions = domain.PermissionsForRole(actor.Role)
	if len(perms) > 0 && !domain.HasAnyPermission(&actor, perms...) {
		s.log.Debug().Str("username", actor.Username).Interface("required", perms).Msg("permission denied")
		return nil, domain.ErrUnauthorized
	}
	return &actor, nil
}

// repair restores the derived-permission invariant on u, and the protected
// administrator invariants when u is that account. It reports whether u changed.
func (s *AccessControlService) repair(u *domain.User, stage string) bool {
	changed := false
	if u.IsProtected() {
		if u.Role != domain.RoleAdmin || !u.IsActive || u.Username != domain.ProtectedUsername {
			s.log.Warn().
				Str("username", u.Username).
				Str("role", string(u.Role)).
				Bool("active", u.IsActive).
				Str("stage", stage).
				Msg("administrator invariants repaired")
			u.Username = domain.ProtectedUsername
			u.Role = domain.RoleAdmin
			u.IsActive = true
			changed = true
		}
	}
	if !domain.PermissionsMatch(u.Role, u.Permissions) {
		s.log.Warn().
			Str("username", u.Username).
			Str("role", string(u.Role)).
			Interface("stored", u.Permissions).
			Str("stage", stage).
			Msg("permissions repaired")
		u.Permissions = domain.PermissionsForRole(u.Role)
		changed = true
	}
	if changed {
		metrics.PermissionRepairsTotal.WithLabelValues(stage).Inc()
		s.record(systemActor, domain.AuditPermissionsRepaired, u.ID, "stage="+stage)
	}
	return changed
}

func (s *AccessControlService) load(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, storageErr("load users", err)
	}
	return domain.CloneUsers(users), nil
}

func (s *AccessControlService) save(ctx context.Context, users []domain.User) error {
	if err := s.store.SaveAll(ctx, users); err != nil {
		s.log.Error().Err(err).Int("records", len(users)).Msg("failed to commit user store")
		return storageErr("save users", err)
	}
	return nil
}

func (s *AccessControlService) hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password exceeds %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password exceeds %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *AccessControlService) dummyHash() []byte {
	s.dummyO.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-credential"), s.cost)
	})
	return s.dummy
}

func (s *AccessControlService) loginFailed(username string) {
	metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
	s.record(username, domain.AuditLoginFailed, "", "")
	s.log.Info().Str("username", username).Msg("authentication failed")
}

func (s *AccessControlService) record(actor string, action domain.AuditAction, target, details string) {
	s.audit.Record(domain.AuditEvent{
		Actor:      actor,
		Action:     action,
		Target:     target,
		Details:    details,
		OccurredAt: s.now(),
	})
}

func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorage, err)
}

func indexByID(users []domain.User, id string) int {
	if id == "" {
		return -1
	}
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func indexByUsername(users []domain.User, username string) int {
	if strings.TrimSpace(username) == "" {
		return -1
	}
	for i := range users {
		if domain.SameUsername(users[i].Username, username) {
			return i
		}
	}
	return -1
}

func matchesQuery(u domain.User, query string) bool {
	for _, field := range []string{u.DisplayName, u.Username, u.Email, u.Department} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
