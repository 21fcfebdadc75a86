package jwt

import (
	"errors"
	"strings"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// minHS512KeyLen is the HS512 block size in bytes.
const minHS512KeyLen = 64

// Symmetric signs and verifies HS512 tokens with a shared secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
	parser    *libJWT.Parser
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}

	opts := []libJWT.ParserOption{
		libJWT.WithIssuer(cfg.Issuer),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(cfg.Clock.Now),
	}
	for _, aud := range cfg.Audiences {
		opts = append(opts, libJWT.WithAudience(aud))
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
		parser:    libJWT.NewParser(opts...),
	}, nil
}

// Generate signs a token for the session owner and the host application.
func (s *Symmetric) Generate(subject, app string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrMissingSubject
	}

	now := s.clock.Now()
	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		App: app,
	}
	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.secret)
}

// Verify checks signature, issuer, audience and lifetime, and requires a subject.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := s.parser.ParseWithClaims(tokenStr, &claims, s.key)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, err
	case !token.Valid:
		return Claims{}, ErrInvalidToken
	case claims.Subject == "":
		return Claims{}, ErrMissingSubject
	}
	return claims, nil
}

func (s *Symmetric) key(t *libJWT.Token) (any, error) {
	if t.Method != libJWT.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return s.secret, nil
}
