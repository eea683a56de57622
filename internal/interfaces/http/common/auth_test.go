package common

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			Issuer:    "review-relay-admin",
			Audience:  jwt.ClaimStrings{"review-relay"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name: "Admin",
	}
}

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(log.New(io.Discard, "", 0), []JWTConfig{{Issuer: "review-relay-admin", Secret: testSecret}}, "review-relay")
}

func TestAuthenticatorMiddleware(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}
	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + signToken(t, testSecret, validClaims()), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, []byte("nope"), validClaims()), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, expired), http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + signToken(t, testSecret, wrongIssuer), http.StatusUnauthorized},
		{"wrong audience", "Bearer " + signToken(t, testSecret, wrongAudience), http.StatusUnauthorized},
		{"no subject", "Bearer " + signToken(t, testSecret, noSubject), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser AuthenticatedUser
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin/enrichment-failures", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newTestAuthenticator().Middleware(next).ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusOK && (gotUser.ID != "admin-1" || gotUser.Name != "Admin") {
				t.Errorf("user = %+v", gotUser)
			}
		})
	}
}

func TestParseTokenWithoutConfig(t *testing.T) {
	a := NewAuthenticator(nil, nil, "")
	if _, err := a.ParseToken("anything"); err == nil {
		t.Error("expected error without configured secrets")
	}
}
