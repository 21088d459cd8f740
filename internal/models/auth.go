package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest identifies an account by email. There is no credential check.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RegisterRequest is the self-service registration payload. Role defaults to
// student; admin requires the configured access code.
type RegisterRequest struct {
	Name       string     `json:"name" validate:"required"`
	Email      string     `json:"email" validate:"required,email"`
	Role       Role       `json:"role" validate:"omitempty,oneof=student admin"`
	StudentID  string     `json:"studentId" validate:"required_if=Role student"`
	Department Department `json:"department"`
	AdminCode  string     `json:"adminCode"`
}

// CreateAdminRequest is the super-admin payload for provisioning staff.
type CreateAdminRequest struct {
	Name       string     `json:"name" validate:"required"`
	Email      string     `json:"email" validate:"required,email"`
	Department Department `json:"department" validate:"required"`
}

// Session is returned after login or registration.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	Account      Account   `json:"account"`
	Capabilities []string  `json:"capabilities"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// SessionClaims is the JWT payload identifying the caller.
type SessionClaims struct {
	AccountID  string     `json:"account_id"`
	Role       Role       `json:"role"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	StudentID  string     `json:"student_id,omitempty"`
	Department Department `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// Account rebuilds the identity carried by the token.
func (c *SessionClaims) Account() Account {
	return Account{
		ID:         c.AccountID,
		Name:       c.Name,
		Email:      c.Email,
		Role:       c.Role,
		StudentID:  c.StudentID,
		Department: c.Department,
	}
}
