package models

// Role represents the available roles for capability checks.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// SuperAdminID is the default sentinel id of the bootstrap admin allowed to create other admins.
const SuperAdminID = "superadmin"

// Account is an identity stored in the accounts collection. Department is the
// home department for students and the managed department for admins.
type Account struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	StudentID  string     `json:"studentId,omitempty"`
	Department Department `json:"department,omitempty"`
}
