package service

import (
	"context"
	"errors"

	"userhub/internal/hash"
	"userhub/internal/logging"
	"userhub/internal/models"
	"userhub/internal/repo"
	"userhub/internal/roles"
)

type UserService struct {
	Repo *repo.UserRepo
}

func NewUserService(r *repo.UserRepo) *UserService {
	return &UserService{Repo: r}
}

type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Roles     []string
}

// Update applies a partial edit. A role change here does not touch issued
// access tokens; the new roles show up after the next login or refresh.
func (s *UserService) Update(ctx context.Context, id string, in UpdateInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.update", "user_id", id)

	user, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Email != nil {
		if *in.Email == "" {
			return nil, ErrValidation
		}
		user.Email = *in.Email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, ErrValidation
		}
		pwHash, err := hash.HashPassword(*in.Password)
		if err != nil {
			l.Error("update_failed", "status", 500, "reason", "cannot hash the password", "error", err)
			return nil, err
		}
		user.PasswordHash = pwHash
	}
	if in.Roles != nil {
		assigned, err := roles.Normalize(in.Roles)
		if err != nil {
			l.Warn("update_failed", "status", 400, "reason", "invalid_roles", "error", err)
			return nil, ErrValidation
		}
		user.Roles = assigned
	}

	if err := s.Repo.Save(ctx, user); err != nil {
		l.Error("update_failed", "status", 500, "reason", "db_error", "error", err)
		return nil, err
	}

	l.Info("update_success")
	return user, nil
}

func (s *UserService) List(ctx context.Context, f repo.ListFilter) ([]models.User, int64, error) {
	return s.Repo.List(ctx, f)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	l := logging.FromContext(ctx).With("svc", "users.delete", "user_id", id)

	if err := s.Repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		l.Error("delete_failed", "status", 500, "error", err)
		return err
	}

	l.Info("delete_success")
	return nil
}
