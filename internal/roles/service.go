package roles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/institute-erp/institute/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context, page shared.Page) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, role Role) (Role, error)
	UpdateRole(ctx context.Context, role Role) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListRoles returns roles whose name contains page.Query.
func (s *Service) ListRoles(ctx context.Context, page shared.Page) ([]Role, error) {
	return s.repo.ListRoles(ctx, page)
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, in RoleInput) (Role, error) {
	if in.Name == nil {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	role := Role{IsEnabled: true}
	if err := s.apply(ctx, &role, in); err != nil {
		return Role{}, err
	}
	return s.repo.CreateRole(ctx, role)
}

// UpdateRole applies in to an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, in RoleInput) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if err := s.apply(ctx, &role, in); err != nil {
		return Role{}, err
	}
	return s.repo.UpdateRole(ctx, role)
}

// DeleteRole removes a role by id.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

func (s *Service) apply(ctx context.Context, role *Role, in RoleInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return fmt.Errorf("%w: role name required", shared.ErrValidation)
		}
		role.Name = name
	}
	if in.IsEnabled != nil {
		role.IsEnabled = *in.IsEnabled
	}
	actor, _ := shared.ActorFromContext(ctx)
	stamp := shared.NewStamp(actor.UserID, s.now())
	role.RecorderID = stamp.RecorderRef()
	role.RecordDate = stamp.RecordedAt
	return nil
}
