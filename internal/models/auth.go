package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the dashboard roles.
type UserRole string

const (
	RoleHOD       UserRole = "HOD"
	RolePrincipal UserRole = "PRINCIPAL"
)

// JWTClaims represents the access token payload issued by the auth service.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	Role       UserRole `json:"role"`
	Email      string   `json:"email"`
	FullName   string   `json:"full_name"`
	Department string   `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// Viewer is the authenticated caller, passed explicitly to services that scope data by user.
type Viewer struct {
	UserID     string
	Role       UserRole
	Department string
	Token      string
}

// ViewerFromClaims builds a Viewer from validated claims and the raw bearer token.
func ViewerFromClaims(claims *JWTClaims, token string) Viewer {
	if claims == nil {
		return Viewer{Token: token}
	}
	return Viewer{
		UserID:     claims.UserID,
		Role:       claims.Role,
		Department: claims.Department,
		Token:      token,
	}
}

// DepartmentScoped reports whether the viewer only sees their own department.
func (v Viewer) DepartmentScoped() bool {
	return v.Role == RoleHOD
}
