// Package jwtauth issues and verifies the signed credentials presented
// on REST requests and on the realtime handshake.
package jwtauth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidToken covers missing, malformed, expired, or wrongly signed
// credentials.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload. Subject holds the user's ObjectID hex.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens.
type Manager struct {
	secret []byte
	expiry time.Duration
}

// New creates a Manager. Expiry bounds token lifetime from issuance.
func New(secret string, expiry time.Duration) *Manager {
	return &Manager{secret: []byte(secret), expiry: expiry}
}

// Sign issues a token for the user.
func (m *Manager) Sign(userID primitive.ObjectID, name, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a token, returning the user's ObjectID
// and claims. Any failure maps to ErrInvalidToken.
func (m *Manager) Verify(tokenStr string) (primitive.ObjectID, *Claims, error) {
	if tokenStr == "" {
		return primitive.NilObjectID, nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, nil, ErrInvalidToken
	}
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, nil, ErrInvalidToken
	}
	return userID, claims, nil
}

type ctxKey struct{}

// Identity is the authenticated caller loaded into the request context.
type Identity struct {
	UserID primitive.ObjectID
	Name   string
	Role   string
}

// FromContext returns the authenticated identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// WithIdentity returns a context carrying the identity. Exposed for
// handler tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// TokenFromRequest extracts the credential from the Authorization
// header ("Bearer <token>") or, for websocket handshakes, the "token"
// query parameter.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return r.URL.Query().Get("token")
}

// Middleware rejects requests without a valid token and loads the
// caller's identity into the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, claims, err := m.Verify(TokenFromRequest(r))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"Not authorized"}`))
			return
		}
		id := Identity{UserID: userID, Name: claims.Name, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
