package handler

import (
	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
)

type createUserRequest struct {
	Username    string `json:"username"     validate:"required,max=64,username"`
	Password    string `json:"password"     validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=128"`
	Email       string `json:"email"        validate:"omitempty,email"`
	Department  string `json:"department"`
	Role        string `json:"role"`
}

func (r createUserRequest) toInput() ports.CreateUserInput {
	return ports.CreateUserInput{
		Username:    r.Username,
		Password:    r.Password,
		DisplayName: r.DisplayName,
		Email:       r.Email,
		Department:  r.Department,
		Role:        r.Role,
	}
}

type updateUserRequest struct {
	Username    *string  `json:"username"     validate:"omitempty,max=64,username"`
	Password    *string  `json:"password"     validate:"omitempty,min=8,max=72"`
	DisplayName *string  `json:"display_name" validate:"omitempty,max=128"`
	Email       *string  `json:"email"        validate:"omitempty,email"`
	Department  *string  `json:"department"`
	Role        *string  `json:"role"`
	IsActive    *bool    `json:"is_active"`
	Permissions []string `json:"permissions"`
}

func (r updateUserRequest) toPatch() ports.UpdateUserPatch {
	patch := ports.UpdateUserPatch{
		Username:    r.Username,
		Password:    r.Password,
		DisplayName: r.DisplayName,
		Email:       r.Email,
		Department:  r.Department,
		Role:        r.Role,
		IsActive:    r.IsActive,
	}
	for _, p := range r.Permissions {
		patch.Permissions = append(patch.Permissions, domain.Permission(p))
	}
	return patch
}

type userListResponse struct {
	Users []domain.User `json:"users"`
	Total int           `json:"total"`
}
