package models

import "time"

// Role is the closed set of user roles
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

var roleRank = map[Role]int{
	RoleStandard: 1,
	RoleAdmin:    2,
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether r is allowed where required is demanded.
// admin satisfies anything standard does.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	want, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= want
}

// User represents a user in the system
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // bcrypt hash (never in JSON)
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest represents login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"admin"`
	Password string `json:"password" validate:"required" example:"password"`
}

// RegisterRequest represents registration request payload
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100" example:"user 1"`
	Password string `json:"password" validate:"required,max=72" example:"password"`
	Role     Role   `json:"role" validate:"required,oneof=admin standard" example:"admin"`
}

// TokenPair is returned by a successful login
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AccessTokenResponse is returned by a token refresh
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}
