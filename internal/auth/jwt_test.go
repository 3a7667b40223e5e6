package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return issuer
}

func TestNewTokenIssuer_Rejects(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Minute); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := NewTokenIssuer("s", 0); err == nil {
		t.Error("expected error for zero TTL")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)
	userID := uuid.New()

	token, expiresAt, err := issuer.Issue(userID, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if until := time.Until(expiresAt); until < 29*time.Minute || until > 31*time.Minute {
		t.Errorf("unexpected expiry %s from now", until)
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	got, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if got != userID {
		t.Errorf("subject = %s, want %s", got, userID)
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q, want alice", claims.Username)
	}
}

func TestTokenIssuer_Validate(t *testing.T) {
	issuer := newTestIssuer(t)
	userID := uuid.New()

	other, err := NewTokenIssuer("other-secret", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wrongKey, _, err := other.Issue(userID, "alice")
	if err != nil {
		t.Fatal(err)
	}

	expiredIssuer := newTestIssuer(t)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := expiredIssuer.Issue(userID, "alice")
	if err != nil {
		t.Fatal(err)
	}

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    issuerName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			Issuer:    issuerName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"wrong key", wrongKey},
		{"expired", expired},
		{"alg none", noneToken},
		{"bad subject", badSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Validate(tt.token)
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("Validate() error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc", "abc", false},
		{"", "", true},
		{"abc", "", true},
		{"Basic abc", "", true},
		{"Bearer a b", "", true},
	}
	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.header, " ", "_"), func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
