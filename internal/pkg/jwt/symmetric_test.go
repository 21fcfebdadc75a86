package jwt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fixedID struct{}

func (fixedID) Generate() string { return "token-id" }

func newTestJWT(t *testing.T, clk *fixedClock) *Symmetric {
	t.Helper()

	s, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "onetimepin",
		Audiences: []string{"host"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      fixedID{},
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}
	return s
}

func TestNewHS512_ShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	if !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("error = %v, want ErrSigningKeyTooShort", err)
	}
}

func TestSymmetric_GenerateVerify(t *testing.T) {
	// Arrange
	clk := &fixedClock{now: time.Now()}
	s := newTestJWT(t, clk)

	// Act
	token, err := s.Generate("host-session-1", "leave-request")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	claims, err := s.Verify(token)

	// Assert
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "host-session-1" || claims.App != "leave-request" || claims.ID != "token-id" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestSymmetric_Expired(t *testing.T) {
	// Arrange
	clk := &fixedClock{now: time.Now()}
	s := newTestJWT(t, clk)
	token, err := s.Generate("host-session-1", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Act
	clk.now = clk.now.Add(2 * time.Hour)
	_, err = s.Verify(token)

	// Assert
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify() error = %v, want ErrTokenExpired", err)
	}
}

func TestSymmetric_GenerateWithoutSubject(t *testing.T) {
	s := newTestJWT(t, &fixedClock{now: time.Now()})
	if _, err := s.Generate(" ", ""); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("Generate() error = %v, want ErrMissingSubject", err)
	}
}

func TestAuthContext(t *testing.T) {
	if GetAuth(context.Background()) != nil {
		t.Fatal("GetAuth() on empty context should be nil")
	}

	var clm Claims
	clm.Subject = "s"
	got := GetAuth(SetAuth(context.Background(), clm))
	if got == nil || got.Subject != "s" {
		t.Fatalf("GetAuth() = %+v", got)
	}
}
