package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
)

var adminRequester = &domain.User{ID: "a-1", Username: "admin", Role: domain.RoleAdmin, IsActive: true}

func TestUserHandler_List(t *testing.T) {
	access := &stubAccess{
		listUsersFn: func(_ context.Context, _ *domain.User, f ports.ListUsersFilter) ([]domain.User, error) {
			if f.Query != "fin" || f.Role != "manager" {
				t.Fatalf("unexpected filter: %+v", f)
			}
			return []domain.User{{ID: "u-2", Username: "mgr", Role: domain.RoleManager}}, nil
		},
	}
	h := NewUserHandler(access)

	c, rec := newContext(http.MethodGet, "/v1/users?q=fin&role=manager", "")
	withRequester(c, adminRequester)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		Users []map[string]any `json:"users"`
		Total int              `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 1 || resp.Users[0]["username"] != "mgr" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUserHandler_Create(t *testing.T) {
	access := &stubAccess{
		createUserFn: func(_ context.Context, requester *domain.User, in ports.CreateUserInput) (*domain.User, error) {
			if requester.ID != adminRequester.ID {
				t.Fatalf("requester not forwarded")
			}
			if in.Username != "dave" || in.Role != "manager" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u-9", Username: in.Username, Role: domain.RoleManager}, nil
		},
	}
	h := NewUserHandler(access)

	c, rec := newContext(http.MethodPost, "/v1/users", `{"username":"dave","password":"long-enough","role":"manager"}`)
	withRequester(c, adminRequester)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestUserHandler_Create_Validation(t *testing.T) {
	access := &stubAccess{
		createUserFn: func(context.Context, *domain.User, ports.CreateUserInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewUserHandler(access)

	tests := map[string]string{
		"no username":    `{"password":"long-enough"}`,
		"short password": `{"username":"dave","password":"x"}`,
		"bad email":      `{"username":"dave","password":"long-enough","email":"nope"}`,
		"not json":       `[`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/v1/users", body)
			withRequester(c, adminRequester)
			if code := httpCode(t, h.Create(c)); code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", code)
			}
		})
	}
}

func TestUserHandler_Update_ForwardsPermissionsUntouched(t *testing.T) {
	access := &stubAccess{
		updateUserFn: func(_ context.Context, _ *domain.User, id string, patch ports.UpdateUserPatch) (*domain.User, error) {
			if id != "u-2" {
				t.Fatalf("id = %s", id)
			}
			if patch.Role == nil || *patch.Role != "admin" {
				t.Fatalf("role not forwarded: %+v", patch)
			}
			if len(patch.Permissions) != 1 || patch.Permissions[0] != domain.PermSystemSettings {
				t.Fatalf("permissions not forwarded for the core to drop: %+v", patch.Permissions)
			}
			return &domain.User{ID: id, Role: domain.RoleAdmin}, nil
		},
	}
	h := NewUserHandler(access)

	c, rec := newContext(http.MethodPatch, "/v1/users/u-2", `{"role":"admin","permissions":["system_settings"]}`)
	c.SetParamNames("id")
	c.SetParamValues("u-2")
	withRequester(c, adminRequester)
	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Delete_PropagatesDomainError(t *testing.T) {
	access := &stubAccess{
		deleteUserFn: func(context.Context, *domain.User, string) error {
			return domain.ErrProtectedAccount
		},
	}
	h := NewUserHandler(access)

	c, _ := newContext(http.MethodDelete, "/v1/users/a-1", "")
	c.SetParamNames("id")
	c.SetParamValues("a-1")
	withRequester(c, adminRequester)
	if err := h.Delete(c); !errors.Is(err, domain.ErrProtectedAccount) {
		t.Fatalf("expected ErrProtectedAccount, got %v", err)
	}
}
