package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-0123456789abcdef"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	tokens, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return tokens
}

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("expected error for a short secret")
	}
}

func TestGenerateAndValidate(t *testing.T) {
	tokens := newTestTokenService(t)

	signed, err := tokens.Generate("operator", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if parts := strings.Split(signed, "."); len(parts) != 3 {
		t.Fatalf("token has %d parts, want 3", len(parts))
	}

	subject, err := tokens.Validate(signed)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if subject != "operator" {
		t.Errorf("subject = %q, want %q", subject, "operator")
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	tokens := newTestTokenService(t)

	signed, err := tokens.Generate("operator", -time.Minute)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := tokens.Validate(signed); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	tokens := newTestTokenService(t)
	other, _ := NewTokenService("a-completely-different-secret")

	signed, err := other.Generate("operator", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := tokens.Validate(signed); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	tokens := newTestTokenService(t)

	signed, err := tokens.Generate("operator", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Flip a character in the payload — the signature no longer matches.
	tampered := []byte(signed)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}
	if _, err := tokens.Validate(string(tampered)); err == nil {
		t.Error("expected error for tampered token")
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	tokens := newTestTokenService(t)

	// A token signed with HS384 — same secret, wrong algorithm. The pinned
	// method list must reject it even though the signature verifies.
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, c).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := tokens.Validate(signed); err == nil {
		t.Error("expected error for non-HS256 token")
	}
}

func TestValidate_RejectsWrongIssuer(t *testing.T) {
	tokens := newTestTokenService(t)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "someone-else",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := tokens.Validate(signed); err == nil {
		t.Error("expected error for token from another issuer")
	}
}

// =========================================================================
// MIDDLEWARE TESTS
// =========================================================================

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := newTestTokenService(t)
	signed, _ := tokens.Generate("operator", time.Hour)

	var gotSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/knowledge/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	RequireAuth(tokens)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if gotSubject != "operator" {
		t.Errorf("subject in context = %q, want %q", gotSubject, "operator")
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	tokens := newTestTokenService(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "not a bearer scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty bearer token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be reached")
			})

			req := httptest.NewRequest(http.MethodPost, "/knowledge/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			RequireAuth(tokens)(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestSubjectFromContext_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/knowledge/", nil)
	if _, ok := SubjectFromContext(req.Context()); ok {
		t.Error("expected no subject on an anonymous request")
	}
}
