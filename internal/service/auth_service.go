package service

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Servicio que valida los tokens emitidos por el servicio de usuarios.
// Comparten el secreto HS256; acá no se emiten tokens.
type AuthService struct {
	secret []byte
}

type AuthUser struct {
	ID   primitive.ObjectID
	Name string
	Role string
}

func (u *AuthUser) Requester() Requester {
	return Requester{ID: u.ID, Role: u.Role}
}

type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var knownRoles = []string{RoleBuyer, RoleSeller, RoleAdmin}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// ValidateToken verifica firma y expiración y arma el usuario a partir de los claims.
func (a *AuthService) ValidateToken(token string) (*AuthUser, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject inválido", ErrInvalidToken)
	}

	role := claims.Role
	if role == "" {
		role = RoleBuyer
	}
	if !slices.Contains(knownRoles, role) {
		return nil, fmt.Errorf("%w: rol desconocido", ErrInvalidToken)
	}

	return &AuthUser{ID: id, Name: claims.Name, Role: role}, nil
}
