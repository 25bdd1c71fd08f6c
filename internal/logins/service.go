package logins

import (
	"context"
	"fmt"
	"time"

	"github.com/institute-erp/institute/internal/auth"
	"github.com/institute-erp/institute/internal/shared"
)

// RepositoryPort defines data access methods for the login log.
type RepositoryPort interface {
	Insert(ctx context.Context, e Entry) (Entry, error)
	List(ctx context.Context, filter Filter, page shared.Page) ([]Entry, error)
	// DeleteBefore removes entries logged before cutoff and reports how many.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service records and lists logins.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// RecordLogin stores a login event.
func (s *Service) RecordLogin(ctx context.Context, event auth.LoginEvent) error {
	if event.UserID <= 0 {
		return fmt.Errorf("%w: login event without user", shared.ErrValidation)
	}
	loginAt := event.LoginAt
	if loginAt.IsZero() {
		loginAt = s.now()
	}
	_, err := s.repo.Insert(ctx, Entry{
		UserID:     event.UserID,
		LoginDate:  loginAt.UTC(),
		RemoteAddr: event.RemoteAddr,
		UserAgent:  truncate(event.UserAgent, 512),
		RecordDate: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("logins: record: %w", err)
	}
	return nil
}

// List returns entries matching filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter, page shared.Page) ([]Entry, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, fmt.Errorf("%w: to_date before from_date", shared.ErrValidation)
	}
	return s.repo.List(ctx, filter, page)
}

// Prune deletes entries older than retention. A non-positive retention keeps
// everything.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	n, err := s.repo.DeleteBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("logins: prune: %w", err)
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ auth.LoginRecorder = (*Service)(nil)
