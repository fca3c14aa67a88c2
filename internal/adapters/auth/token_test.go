package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventra/internal/domain"
)

func TestJWT_IssueAndVerify(t *testing.T) {
	j := NewJWT("test-secret")

	token, err := j.Issue("user-123", "u@example.com", domain.RoleClient, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	actor, err := j.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &domain.Actor{UserID: "user-123", Email: "u@example.com", Role: domain.RoleClient}, actor)
}

func TestJWT_Verify_rejects(t *testing.T) {
	j := NewJWT("test-secret")
	valid, err := j.Issue("user-1", "u@example.com", domain.RoleHost, time.Hour)
	require.NoError(t, err)

	expired, err := j.Issue("user-1", "u@example.com", domain.RoleHost, -time.Minute)
	require.NoError(t, err)

	otherSecret, err := NewJWT("other").Issue("user-1", "u@example.com", domain.RoleHost, time.Hour)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "u@example.com",
		Role:  "ROOT",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		Email:            "u@example.com",
		Role:             domain.RoleAdmin,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", otherSecret},
		{"unknown role", badRole},
		{"missing expiry", noExpiry},
		{"garbage", "not-a-jwt"},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.Verify(tt.token)
			assert.Error(t, err)
		})
	}
}
