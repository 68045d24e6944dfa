package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType set user role
type RoleType string

const (
	// RoleAdmin is the admin role
	RoleAdmin RoleType = "admin"
	// RoleSupportAgent is the support staff role
	RoleSupportAgent RoleType = "support_agent"
	// RoleCustomer is the renting customer role
	RoleCustomer RoleType = "customer"
)

// IsStaff reports whether the role belongs to support staff.
func IsStaff(role string) bool {
	return role == string(RoleAdmin) || role == string(RoleSupportAgent)
}

// Claims structure for custom claims in JWT
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

var (
	// ErrInvalidToken is returned for tokens that parse but fail validation.
	ErrInvalidToken = errors.New("invalid token")

	tokenExpiration = 60 * time.Minute
)

// Verifier validates bearer credentials and extracts the caller identity.
// The secret is injected by the composition root.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier create a Verifier
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Generate signs a JWT for the given identity.
func (v *Verifier) Generate(userID uint, role, email string) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    v.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify parses a JWT and extracts the Claims. Expired, malformed and
// wrongly signed tokens are rejected.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
