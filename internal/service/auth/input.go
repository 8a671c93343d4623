package auth

import (
	"strings"

	"github.com/bradenmacdonald/ratio/internal/domain"
)

// RegisterInput holds parameters for the register operation.
type RegisterInput struct {
	Email     string
	ShortName string
	Password  string
}

// Validate validates the register input.
func (i RegisterInput) Validate() error {
	var errs []domain.FieldError

	if i.Email == "" {
		errs = append(errs, domain.FieldError{Field: "email", Message: "required"})
	} else if !strings.Contains(i.Email, "@") || len(i.Email) > 320 {
		errs = append(errs, domain.FieldError{Field: "email", Message: "invalid email address"})
	}

	if len(i.ShortName) > 100 {
		errs = append(errs, domain.FieldError{Field: "short_name", Message: "too long"})
	}

	if i.Password == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: "required"})
	} else if len(i.Password) < 8 {
		errs = append(errs, domain.FieldError{Field: "password", Message: "must be at least 8 characters"})
	} else if len(i.Password) > 72 {
		// bcrypt truncates input beyond 72 bytes
		errs = append(errs, domain.FieldError{Field: "password", Message: "too long"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// LoginInput holds parameters for the login operation.
type LoginInput struct {
	Email    string
	Password string
}

// Validate validates the login input.
func (i LoginInput) Validate() error {
	var errs []domain.FieldError

	if i.Email == "" {
		errs = append(errs, domain.FieldError{Field: "email", Message: "required"})
	}
	if i.Password == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
