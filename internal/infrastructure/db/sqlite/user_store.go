package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// UserStore keeps the user set in the users table. SaveAll rewrites the whole
// table inside one transaction, so a failed save leaves the previous set intact.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) LoadAll(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password_hash, display_name, email, department, role,
		       permissions, is_active, created_at, last_login_at, created_by,
		       credential_rotation_required
		FROM users ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var (
			u                domain.User
			role, perms      string
			createdAt        string
			lastLogin        sql.NullString
			active, rotation int
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Email,
			&u.Department, &role, &perms, &active, &createdAt, &lastLogin, &u.CreatedBy, &rotation); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = domain.Role(role)
		u.IsActive = active != 0
		u.CredentialRotationRequired = rotation != 0
		if err := json.Unmarshal([]byte(perms), &u.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions for %s: %w", u.Username, err)
		}
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("decode created_at for %s: %w", u.Username, err)
		}
		if lastLogin.Valid {
			t, err := parseTime(lastLogin.String)
			if err != nil {
				return nil, fmt.Errorf("decode last_login_at for %s: %w", u.Username, err)
			}
			u.LastLoginAt = &t
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

func (s *UserStore) SaveAll(ctx context.Context, users []domain.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
		return fmt.Errorf("save users: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (id, username, password_hash, display_name, email, department, role,
		                   permissions, is_active, created_at, last_login_at, created_by,
		                   credential_rotation_required, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	defer stmt.Close()

	for i, u := range users {
		perms := u.Permissions
		if perms == nil {
			perms = []domain.Permission{}
		}
		encoded, err := json.Marshal(perms)
		if err != nil {
			return fmt.Errorf("encode permissions for %s: %w", u.Username, err)
		}
		var lastLogin sql.NullString
		if u.LastLoginAt != nil {
			lastLogin = sql.NullString{String: formatTime(*u.LastLoginAt), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, u.ID, u.Username, u.PasswordHash, u.DisplayName, u.Email,
			u.Department, string(u.Role), string(encoded), boolInt(u.IsActive), formatTime(u.CreatedAt),
			lastLogin, u.CreatedBy, boolInt(u.CredentialRotationRequired), i); err != nil {
			return fmt.Errorf("save user %s: %w", u.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}
