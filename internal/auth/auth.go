package auth

import "github.com/golang-jwt/jwt/v5"

// Role carried by operators allowed to modify catalogue data.
const RoleAdmin = "admin"

type Authenticator interface {
	GenerateTokens(subject int64, role string) (string, string, error)
	ValidateAccessToken(token string) (*jwt.Token, error)
	ValidateRefreshToken(token string) (*jwt.Token, error)
}
