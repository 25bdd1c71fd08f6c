package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/institute-erp/institute/internal/shared"
)

// Login outcomes reported to the LoginObserver.
const (
	OutcomeSuccess        = "success"
	OutcomeBadCredentials = "bad_credentials"
	OutcomeError          = "error"
)

// LoginRecorder persists login events. Failures are logged, never returned
// to the client.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, event LoginEvent) error
}

// LoginObserver receives login outcomes for metrics.
type LoginObserver interface {
	ObserveLogin(outcome string)
}

// ServiceConfig collects the collaborators of Service.
type ServiceConfig struct {
	Directory Directory
	Hasher    *PasswordHasher
	Issuer    *TokenIssuer
	Verifier  *TokenVerifier
	// Denylist enables token revocation when non-nil.
	Denylist Denylist
	Recorder LoginRecorder
	Observer LoginObserver
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service wraps authentication business rules.
type Service struct {
	directory Directory
	hasher    *PasswordHasher
	issuer    *TokenIssuer
	verifier  *TokenVerifier
	denylist  Denylist
	recorder  LoginRecorder
	observer  LoginObserver
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a new Service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		directory: cfg.Directory,
		hasher:    cfg.Hasher,
		issuer:    cfg.Issuer,
		verifier:  cfg.Verifier,
		denylist:  cfg.Denylist,
		recorder:  cfg.Recorder,
		observer:  cfg.Observer,
		logger:    logger,
		now:       now,
	}
}

// RevocationEnabled reports whether tokens can be revoked before expiry.
func (s *Service) RevocationEnabled() bool {
	return s.denylist != nil
}

// NormalizeLoginID trims and NFKC-normalizes a login identifier so visually
// identical inputs map to the same account.
func NormalizeLoginID(loginID string) string {
	return norm.NFKC.String(strings.TrimSpace(loginID))
}

// Authenticate validates login id and password credentials. Unknown,
// disabled and mismatching users all yield shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, loginID, password string) (*User, error) {
	loginID = NormalizeLoginID(loginID)
	if loginID == "" || password == "" {
		return nil, shared.ErrInvalidCredentials
	}
	user, err := s.directory.FindActiveByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	if !user.IsEnabled {
		return nil, shared.ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates the credentials and mints a session token.
func (s *Service) Login(ctx context.Context, loginID, password string, meta LoginMeta) (Token, error) {
	user, err := s.Authenticate(ctx, loginID, password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			s.observe(OutcomeBadCredentials)
		} else {
			s.observe(OutcomeError)
		}
		return Token{}, err
	}
	issued, err := s.issuer.Issue(user.LoginID, user.TokenVersion)
	if err != nil {
		s.observe(OutcomeError)
		return Token{}, err
	}
	s.observe(OutcomeSuccess)
	if s.recorder != nil {
		event := LoginEvent{UserID: user.ID, LoginAt: s.now().UTC(), RemoteAddr: meta.RemoteAddr, UserAgent: meta.UserAgent}
		if err := s.recorder.RecordLogin(ctx, event); err != nil {
			s.logger.Warn("record login", slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
	}
	return issued.Token, nil
}

// ResolveToken verifies raw and loads the enabled user it names. Any
// failure wraps shared.ErrInvalidToken so callers cannot tell which check
// failed.
func (s *Service) ResolveToken(ctx context.Context, raw string) (*User, *Claims, error) {
	claims, err := s.verifier.Verify(raw)
	if err != nil {
		return nil, nil, err
	}
	if s.denylist != nil {
		if claims.ID == "" {
			return nil, nil, fmt.Errorf("%w: missing jti", shared.ErrInvalidToken)
		}
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Error("check token denylist", slog.Any("error", err))
			return nil, nil, fmt.Errorf("%w: denylist unavailable", shared.ErrInvalidToken)
		}
		if revoked {
			return nil, nil, fmt.Errorf("%w: revoked", shared.ErrInvalidToken)
		}
	}
	user, err := s.directory.FindActiveByLoginID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown subject", shared.ErrInvalidToken)
		}
		return nil, nil, fmt.Errorf("auth: resolve token: %w", err)
	}
	if !user.IsEnabled {
		return nil, nil, fmt.Errorf("%w: subject disabled", shared.ErrInvalidToken)
	}
	if s.denylist != nil && claims.Version != user.TokenVersion {
		return nil, nil, fmt.Errorf("%w: stale token version", shared.ErrInvalidToken)
	}
	return user, claims, nil
}

// Logout revokes the token when revocation is enabled; otherwise it is a
// no-op and the token stays valid until it expires. The denylist entry
// lives until exp plus the verifier leeway, the last instant the token
// would still verify.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if s.denylist == nil || claims == nil {
		return nil
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return fmt.Errorf("%w: token cannot be revoked", shared.ErrInvalidToken)
	}
	until := claims.ExpiresAt.Time
	if s.verifier != nil {
		until = until.Add(s.verifier.Leeway())
	}
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		// Past exp plus leeway the verifier rejects the token already.
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("auth: logout: %w", err)
	}
	return nil
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveLogin(outcome)
	}
}
