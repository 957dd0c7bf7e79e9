package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims *models.JWTClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims(role models.UserRole, department string) *models.JWTClaims {
	now := time.Now()
	return &models.JWTClaims{
		UserID:     "user-1",
		Role:       role,
		Email:      "hod@college.test",
		Department: department,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "attendance-auth",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestValidateTokenAcceptsHOD(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret, Issuer: "attendance-auth"})
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("hod", "CSE"))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleHOD, claims.Role)
	assert.Equal(t, "CSE", claims.Department)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret})
	token := signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims(models.RolePrincipal, ""))

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret})
	claims := validClaims(models.RolePrincipal, "")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims)

	_, err := svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenRejectsIssuerMismatch(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret, Issuer: "someone-else"})
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(models.RolePrincipal, ""))

	_, err := svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenRejectsOtherRoles(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret})
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("STUDENT", ""))

	_, err := svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestValidateTokenRequiresHODDepartment(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret})
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(models.RoleHOD, " "))

	_, err := svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret})

	_, err := svc.ValidateToken("not-a-token")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
