package common

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const authUserContextKey contextKey = "authUser"

// AuthenticatedUser represents the JWT-derived principal.
type AuthenticatedUser struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}

// ContextWithUser stores the authenticated user into context.
func ContextWithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	return context.WithValue(ctx, authUserContextKey, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	user, ok := ctx.Value(authUserContextKey).(AuthenticatedUser)
	return user, ok
}

// JWTConfig is one accepted issuer/secret pair.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Claims are the token fields the admin API reads.
type Claims struct {
	jwt.RegisteredClaims
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// Authenticator verifies HS256 bearer tokens against a set of issuers.
type Authenticator struct {
	logger   *log.Logger
	configs  []JWTConfig
	audience string
}

// NewAuthenticator constructs an Authenticator. audience may be empty.
func NewAuthenticator(logger *log.Logger, configs []JWTConfig, audience string) *Authenticator {
	return &Authenticator{
		logger:   logger,
		configs:  append([]JWTConfig(nil), configs...),
		audience: audience,
	}
}

// Middleware rejects requests without a valid bearer token and stores the user in context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			WriteError(a.logger, w, http.StatusUnauthorized, "Authorization header missing", "")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			WriteError(a.logger, w, http.StatusUnauthorized, "Bearer token required", "")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			WriteError(a.logger, w, http.StatusUnauthorized, "Access token is empty", "")
			return
		}

		claims, err := a.ParseToken(tokenString)
		if err != nil {
			WriteError(a.logger, w, http.StatusUnauthorized, err.Error(), "")
			return
		}

		user := AuthenticatedUser{
			ID:       claims.Subject,
			Name:     claims.Name,
			Username: claims.PreferredUsername,
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// ParseToken tries every configured issuer in turn and returns the first valid claims.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	if len(a.configs) == 0 {
		return nil, fmt.Errorf("authentication is not configured")
	}

	for _, cfg := range a.configs {
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return cfg.Secret, nil
		}, jwt.WithLeeway(30*time.Second))

		if err != nil || !token.Valid {
			continue
		}
		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			continue
		}
		if claims.Subject == "" {
			continue
		}
		if a.audience != "" && !contains(claims.Audience, a.audience) {
			continue
		}

		return claims, nil
	}

	return nil, fmt.Errorf("invalid access token")
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
