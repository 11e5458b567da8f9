// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/uniwhats/desk/internal/model"
)

// ContextKey is a type for context keys.
type ContextKey string

// ActorKey is the context key for the authenticated actor.
const ActorKey ContextKey = "actor"

// Claims carries the actor's identity inside the JWT.
type Claims struct {
	jwt.RegisteredClaims
	Name         string     `json:"name"`
	Role         model.Role `json:"role"`
	DepartmentID string     `json:"department_id,omitempty"`
}

// IssueToken signs a bearer token for the user.
func IssueToken(secret string, user *model.User, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Name:         user.Name,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a bearer token and rebuilds the actor it names.
func ParseToken(secret, tokenString string) (*model.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &model.User{
		ID:           claims.Subject,
		Name:         claims.Name,
		Role:         claims.Role,
		DepartmentID: claims.DepartmentID,
	}, nil
}

// Auth creates JWT authentication middleware. The validated actor is
// stored in the request context for handlers and the policy engine.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			actor, err := ParseToken(jwtSecret, parts[1])
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActor returns the authenticated actor from the context, or nil.
func GetActor(ctx context.Context) *model.User {
	if v := ctx.Value(ActorKey); v != nil {
		return v.(*model.User)
	}
	return nil
}
