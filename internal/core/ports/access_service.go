package ports

import (
	"context"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// CreateUserInput carries the data for a new account.
type CreateUserInput struct {
	Username    string
	Password    string
	DisplayName string
	Email       string
	Department  string
	Role        string // empty = user
}

// UpdateUserPatch carries optional changes to an account. Nil fields are left untouched.
type UpdateUserPatch struct {
	Username    *string
	Password    *string
	DisplayName *string
	Email       *string
	Department  *string
	Role        *string
	IsActive    *bool
	// Permissions is accepted for compatibility with older clients and always
	// dropped: permissions are derived from the role.
	Permissions []domain.Permission
}

// ListUsersFilter narrows ListUsers results.
type ListUsersFilter struct {
	Query string // case-insensitive substring over display name, username, email, department
	Role  string // optional exact role
}

// AccessService is the authority over user records and role-derived permissions.
type AccessService interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Identify(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, user *domain.User)

	CreateUser(ctx context.Context, requester *domain.User, in CreateUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, requester *domain.User, targetID string, patch UpdateUserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, requester *domain.User, targetID string) error
	ChangePassword(ctx context.Context, requester *domain.User, current, next string) error

	GetUser(ctx context.Context, requester *domain.User, id string) (*domain.User, error)
	ListUsers(ctx context.Context, requester *domain.User, filter ListUsersFilter) ([]domain.User, error)
	UserStats(ctx context.Context, requester *domain.User) (*domain.UserStats, error)
	ExportUsers(ctx context.Context, requester *domain.User) ([]domain.User, error)
}
