package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleFinance    UserRole = "FINANCE"
	RoleTeacher    UserRole = "TEACHER"
)

// JWTClaims represents the JWT payload for access tokens. Tokens are issued
// by the central auth service; this API only validates them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
