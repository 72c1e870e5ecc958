package user

import (
	"strings"

	"github.com/Selami79/rubber-ds/internal/core/common/validation"
)

type CreateUserDTO struct {
	Username    string `json:"username" validate:"required,notblank,min=3,max=64"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"required,notblank,max=128"`
	Role        string `json:"role" validate:"required,oneof=admin operator quality_control"`
}

func (d *CreateUserDTO) Validate() error {
	d.Username = strings.TrimSpace(d.Username)
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	d.Role = strings.ToLower(strings.TrimSpace(d.Role))
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type UsersResponse struct {
	Users []*User `json:"users"`
}
