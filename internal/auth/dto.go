package auth

import (
	"strings"

	"github.com/Selami79/rubber-ds/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username" validate:"required,notblank,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type FirstUserDTO struct {
	Username    string `json:"username" validate:"required,notblank,min=3,max=64"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"required,notblank,max=128"`
}

func (d *LoginDTO) Validate() error {
	d.Username = strings.TrimSpace(d.Username)
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

func (d *FirstUserDTO) Validate() error {
	d.Username = strings.TrimSpace(d.Username)
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}
