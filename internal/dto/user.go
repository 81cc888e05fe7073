package dto

import (
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/patch"
	"github.com/yukikurage/todo-api/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          ident.ID `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
}

// SignupRequest is the body of POST /signup
type SignupRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateMeRequest is the body of PATCH /me. Absent keys are left untouched.
type UpdateMeRequest struct {
	Username    patch.Field[*string] `json:"username"`
	DisplayName patch.Field[*string] `json:"display_name"`
	Password    patch.Field[*string] `json:"password"`
}

// ToInput converts the request into the service input
func (r UpdateMeRequest) ToInput() services.UpdateMeInput {
	return services.UpdateMeInput{
		Username:    r.Username,
		DisplayName: r.DisplayName,
		Password:    r.Password,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	dto := UserDTO{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	}
	if user.Username != nil {
		dto.Username = *user.Username
	}
	return dto
}
