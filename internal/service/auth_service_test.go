package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(sub, role string) Claims {
	return Claims{
		Name: "Ana",
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	auth := NewAuthService(testSecret)
	id := primitive.NewObjectID()

	user, err := auth.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(id.Hex(), RoleSeller)))

	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, RoleSeller, user.Role)
	assert.True(t, user.Requester().CanSell())
}

func TestValidateToken_DefaultsToBuyer(t *testing.T) {
	auth := NewAuthService(testSecret)
	user, err := auth.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(primitive.NewObjectID().Hex(), "")))

	require.NoError(t, err)
	assert.Equal(t, RoleBuyer, user.Role)
	assert.False(t, user.Requester().CanSell())
}

func TestValidateToken_Rejections(t *testing.T) {
	auth := NewAuthService(testSecret)
	id := primitive.NewObjectID().Hex()

	expired := validClaims(id, RoleBuyer)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := map[string]string{
		"garbage":        "not.a.token",
		"wrong secret":   signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims(id, RoleBuyer)),
		"wrong method":   signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims(id, RoleBuyer)),
		"expired":        signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired),
		"bad subject":    signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("user-1", RoleBuyer)),
		"unknown role":   signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(id, "superuser")),
		"none algorithm": signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims(id, RoleBuyer)),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
