package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/pkg/password"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

const invalidCredentials = "invalid email or password"

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UserPatch holds the profile fields an update touches
type UserPatch struct {
	Name  *string
	Email *string
	Photo *Upload
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	email := normalizeEmail(in.Email)

	if err := validateUserName(in.Name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hashed, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &db.User{
		Name:     in.Name,
		Email:    email,
		Password: string(hashed),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, NewConflictError("email already in use")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks credentials. Unknown emails, deactivated accounts and
// wrong passwords all produce the same error.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (*db.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, NewAuthenticationError(invalidCredentials)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := password.Compare(user.Password, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, NewAuthenticationError(invalidCredentials)
		}
		return nil, err
	}

	s.users.Set(user)
	return user, nil
}

// Current resolves the caller of an authenticated request. It goes through
// the user cache, so the unread counter it carries may lag behind.
func (s *Service) Current(ctx context.Context, id uuid.UUID) (*db.User, error) {
	if u, ok := s.users.Get(id); ok {
		return u, nil
	}

	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, NewAuthenticationError("user no longer exists")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	s.users.Set(u)
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*db.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, actorID uuid.UUID, patch UserPatch) (*db.User, error) {
	u, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	if patch.Name != nil {
		if err := validateUserName(*patch.Name); err != nil {
			return nil, err
		}
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		u.Email = email
	}

	oldPhoto := ""
	if patch.Photo != nil {
		key, err := s.blobs.put(ctx, s3storage.KindPhoto, "photo", patch.Photo)
		if err != nil {
			return nil, err
		}
		oldPhoto, u.Photo = u.Photo, key
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		if patch.Photo != nil {
			s.blobs.drop(ctx, s3storage.KindPhoto, u.Photo)
		}
		if errors.Is(err, db.ErrConflict) {
			return nil, NewConflictError("email already in use")
		}
		return nil, notFound(err, "user")
	}

	s.users.Invalidate(actorID)
	s.blobs.drop(ctx, s3storage.KindPhoto, oldPhoto)

	return u, nil
}

func (s *Service) OpenUserPhoto(ctx context.Context, id uuid.UUID) (*s3storage.Object, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return s.blobs.open(ctx, s3storage.KindPhoto, u.Photo)
}

// ChangePassword replaces the caller's password after checking the current one
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return notFound(err, "user")
	}

	if err := password.Compare(user.Password, current); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return NewAuthenticationError("current password is incorrect")
		}
		return err
	}

	if err := validatePassword(next); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Field = "new_password"
		}
		return err
	}
	if next == current {
		return NewValidationError("new_password", "new password must differ from the current one")
	}

	hashed, err := password.Hash(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return notFound(err, "user")
	}
	s.users.Invalidate(userID)

	s.log.Info("Password changed", "user_id", userID)
	return nil
}

func (s *Service) Deactivate(ctx context.Context, actorID, userID uuid.UUID) error {
	return s.cascade.DeactivateUser(ctx, actorID, userID)
}

func (s *Service) Notifications(ctx context.Context, userID uuid.UUID, page db.Page) ([]*db.Notification, error) {
	return s.store.ListNotifications(ctx, userID, page)
}

func (s *Service) MarkNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.MarkNotificationsRead(ctx, userID); err != nil {
		return notFound(err, "user")
	}
	s.users.Invalidate(userID)
	return nil
}
