package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/institute-erp/institute/internal/shared"
)

const minSecretLen = 32

// ErrWeakSecret is returned when the signing key is too short to use.
var ErrWeakSecret = errors.New("auth: token secret must be at least 32 bytes")

var signingMethod = jwt.SigningMethodHS256

// Claims is the claim set carried by a session token.
type Claims struct {
	// Version mirrors users.token_version when revocation is enabled.
	Version int64 `json:"ver,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig configures token issuing and verification. It is read once at
// startup and never mutated.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
	Now    func() time.Time
}

func (c TokenConfig) validate() error {
	if len(c.Secret) < minSecretLen {
		return ErrWeakSecret
	}
	if c.TTL <= 0 {
		return errors.New("auth: token ttl must be positive")
	}
	if c.Leeway < 0 {
		return errors.New("auth: token leeway must not be negative")
	}
	return nil
}

func (c TokenConfig) clock() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

// IssuedToken is a freshly signed token and the claims inside it.
type IssuedToken struct {
	Token     Token
	ID        string
	ExpiresAt time.Time
}

// TokenIssuer signs HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer validates cfg and builds an issuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &TokenIssuer{secret: cfg.Secret, ttl: cfg.TTL, issuer: cfg.Issuer, now: cfg.clock()}, nil
}

// TTL exposes the token lifetime.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for subject with an absolute expiry of now+TTL.
func (i *TokenIssuer) Issue(subject string, version int64) (IssuedToken, error) {
	if strings.TrimSpace(subject) == "" {
		return IssuedToken{}, errors.New("auth: issue: empty subject")
	}
	now := i.now()
	id := uuid.NewString()
	claims := Claims{
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("auth: issue: %w", err)
	}
	return IssuedToken{
		Token:     Token{AccessToken: signed, TokenType: TokenTypeBearer},
		ID:        id,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// TokenVerifier checks signature, algorithm, issuer and expiry of tokens.
type TokenVerifier struct {
	secret []byte
	leeway time.Duration
	parser *jwt.Parser
}

// NewTokenVerifier validates cfg and builds a verifier.
func NewTokenVerifier(cfg TokenConfig) (*TokenVerifier, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(cfg.clock()),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &TokenVerifier{secret: cfg.Secret, leeway: cfg.Leeway, parser: jwt.NewParser(opts...)}, nil
}

// Leeway is the clock skew tolerated past exp. A token verifies until
// exp plus Leeway.
func (v *TokenVerifier) Leeway() time.Duration { return v.leeway }

// Verify returns the claims of a valid token. Every failure wraps
// shared.ErrInvalidToken.
func (v *TokenVerifier) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", shared.ErrInvalidToken)
	}
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token not valid", shared.ErrInvalidToken)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub", shared.ErrInvalidToken)
	}
	return claims, nil
}
