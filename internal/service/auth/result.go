package auth

import "github.com/bradenmacdonald/ratio/internal/domain"

// AuthResult is the outcome of a successful register or login.
type AuthResult struct {
	AccessToken string
	User        domain.User
}
