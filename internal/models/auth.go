package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole defines supported roles.
type UserRole string

const (
	RoleAdmin   UserRole = "administrador"
	RoleTeacher UserRole = "docente"
	// RoleStudent signs into the parent portal with the student's account.
	RoleStudent UserRole = "estudiante"
)

// Account is an administrator profile stored in the users collection.
type Account struct {
	ID         string   `json:"id" mapstructure:"-"`
	Name       string   `json:"name" mapstructure:"name"`
	NationalID string   `json:"nationalId" mapstructure:"cedula"`
	Email      string   `json:"email" mapstructure:"email"`
	Role       UserRole `json:"role" mapstructure:"role"`
}

// Session is the caller identity passed explicitly to every engine call.
type Session struct {
	AccountID string   `json:"accountId"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// Portal optionally restricts the login to one role, as each portal screen does.
	Portal UserRole `json:"portal" validate:"omitempty,oneof=administrador docente estudiante"`
}

// LoginResponse returns the issued token and session.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Session     Session   `json:"session"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	AccountID string   `json:"account_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	jwt.RegisteredClaims
}

// Session converts claims to the engine's session object.
func (c *JWTClaims) Session() Session {
	return Session{AccountID: c.AccountID, Role: c.Role, Email: c.Email, Name: c.Name}
}

// BootstrapAdminRequest creates the first administrator.
type BootstrapAdminRequest struct {
	Name       string `json:"name" validate:"required"`
	NationalID string `json:"nationalId" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
}
