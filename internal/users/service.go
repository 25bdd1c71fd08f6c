package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/institute-erp/institute/internal/auth"
	"github.com/institute-erp/institute/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	// ListEnabled returns enabled users matching page.Query on name or phone.
	ListEnabled(ctx context.Context, page shared.Page) ([]User, error)
	// GetEnabled returns the enabled user with id or shared.ErrNotFound.
	GetEnabled(ctx context.Context, id int64) (User, error)
	// FindByPhone returns the user with phone regardless of status.
	FindByPhone(ctx context.Context, phone string) (User, error)
	Insert(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	// TakeOver disables fromID and stores u over the disabled row u.ID in
	// one transaction.
	TakeOver(ctx context.Context, fromID int64, u User) (User, error)
	Disable(ctx context.Context, id int64, stamp shared.Stamp) error
}

// Hasher hashes plaintext passwords.
type Hasher interface {
	Hash(ctx context.Context, plain string) (string, error)
}

// Service handles user business logic.
type Service struct {
	repo   RepositoryPort
	hasher Hasher
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, hasher Hasher) *Service {
	return &Service{repo: repo, hasher: hasher, now: time.Now}
}

func (s *Service) stamp(ctx context.Context) shared.Stamp {
	actor, _ := shared.ActorFromContext(ctx)
	return shared.NewStamp(actor.UserID, s.now())
}

func (s *Service) hash(ctx context.Context, plain string) (string, error) {
	hashed, err := s.hasher.Hash(ctx, plain)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return hashed, err
}

func clearable(id *int64) *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

// List returns enabled users.
func (s *Service) List(ctx context.Context, page shared.Page) ([]User, error) {
	return s.repo.ListEnabled(ctx, page)
}

// Get returns an enabled user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetEnabled(ctx, id)
}

// Create registers an account. A disabled account with the same phone number
// is re-enabled with the new details; an enabled one yields shared.ErrDuplicate.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	phone := auth.NormalizeLoginID(in.PhoneNumber)
	if phone == "" || in.Password == "" {
		return User{}, fmt.Errorf("%w: phone_number and password required", shared.ErrValidation)
	}
	hashed, err := s.hash(ctx, in.Password)
	if err != nil {
		return User{}, err
	}
	stamp := s.stamp(ctx)
	u := User{
		PhoneNumber:       phone,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		RoleID:            clearable(in.RoleID),
		PermissionGroupID: clearable(in.PermissionGroupID),
		IsPanelUser:       in.IsPanelUser,
		IsEnabled:         true,
		PasswordHash:      hashed,
		RecorderID:        stamp.RecorderRef(),
		RecordDate:        stamp.RecordedAt,
	}

	existing, err := s.repo.FindByPhone(ctx, phone)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return s.repo.Insert(ctx, u)
	case err != nil:
		return User{}, err
	case existing.IsEnabled:
		return User{}, fmt.Errorf("%w: user %s", shared.ErrDuplicate, phone)
	}
	u.ID = existing.ID
	u.IsSuperAdmin = existing.IsSuperAdmin
	u.TokenVersion = existing.TokenVersion + 1
	return s.repo.Update(ctx, u)
}

// Update applies patch to the enabled user with phone. A new password is
// re-hashed and bumps the token version. Moving onto the phone number of a
// disabled account takes that account over and disables the current one.
func (s *Service) Update(ctx context.Context, phone string, patch Patch) (User, error) {
	current, err := s.repo.FindByPhone(ctx, auth.NormalizeLoginID(phone))
	if err != nil {
		return User{}, err
	}
	if !current.IsEnabled {
		return User{}, shared.ErrNotFound
	}

	u := current
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.RoleID != nil {
		u.RoleID = clearable(patch.RoleID)
	}
	if patch.PermissionGroupID != nil {
		u.PermissionGroupID = clearable(patch.PermissionGroupID)
	}
	if patch.IsPanelUser != nil {
		u.IsPanelUser = *patch.IsPanelUser
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return User{}, fmt.Errorf("%w: password must not be empty", shared.ErrValidation)
		}
		if u.PasswordHash, err = s.hash(ctx, *patch.Password); err != nil {
			return User{}, err
		}
		u.TokenVersion++
	}
	stamp := s.stamp(ctx)
	u.RecorderID = stamp.RecorderRef()
	u.RecordDate = stamp.RecordedAt

	if patch.PhoneNumber == nil {
		return s.repo.Update(ctx, u)
	}
	newPhone := auth.NormalizeLoginID(*patch.PhoneNumber)
	if newPhone == "" {
		return User{}, fmt.Errorf("%w: phone_number must not be empty", shared.ErrValidation)
	}
	if newPhone == current.PhoneNumber {
		return s.repo.Update(ctx, u)
	}
	u.PhoneNumber = newPhone
	u.TokenVersion++

	other, err := s.repo.FindByPhone(ctx, newPhone)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return s.repo.Update(ctx, u)
	case err != nil:
		return User{}, err
	case other.IsEnabled:
		return User{}, fmt.Errorf("%w: user %s", shared.ErrDuplicate, newPhone)
	}
	u.ID = other.ID
	u.IsEnabled = true
	if other.TokenVersion >= u.TokenVersion {
		u.TokenVersion = other.TokenVersion + 1
	}
	return s.repo.TakeOver(ctx, current.ID, u)
}

// Delete disables the enabled user with id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Disable(ctx, id, s.stamp(ctx))
}
