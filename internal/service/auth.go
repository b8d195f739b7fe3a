package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"userhub/internal/hash"
	"userhub/internal/logging"
	"userhub/internal/models"
	"userhub/internal/repo"
	"userhub/internal/roles"
	"userhub/internal/tokens"
)

type AuthService struct {
	Repo   *repo.UserRepo
	Issuer *tokens.Issuer
}

func NewAuthService(r *repo.UserRepo, issuer *tokens.Issuer) *AuthService {
	return &AuthService{Repo: r, Issuer: issuer}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// UserID travels with the pair for logging and event publication but
	// stays out of the wire contract.
	UserID string `json:"-"`
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Roles     []string
}

// Register creates the account and its first session in one store write.
// The refresh token is set on the record before it is persisted, so a
// failed create never leaves issued tokens without a stored session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return nil, ErrValidation
	}

	assigned, err := roles.Normalize(in.Roles)
	if err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid_roles", "error", err)
		return nil, ErrValidation
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	// The id is fixed before token issuance so the access token subject
	// matches the persisted record.
	user := models.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: pwHash,
		Roles:        assigned,
	}

	pair, err := s.issuePair(&user)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot create token", "error", err)
		return nil, err
	}
	user.RefreshToken = &pair.RefreshToken

	if err := s.Repo.Create(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			l.Warn("register_failed", "status", 409, "reason", "email_taken")
			return nil, ErrEmailTaken
		}
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return nil, err
	}

	l.Info("register_success", "user_id", user.ID)
	return pair, nil
}

// Login verifies credentials and starts a fresh session. The new refresh
// token overwrites whatever was stored, silently ending any other active
// session for the account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 404, "reason", "unknown_email")
			return nil, ErrNotFound
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "bad_password", "user_id", user.ID)
		return nil, ErrBadPassword
	}

	pair, err := s.issuePair(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot create token", "error", err)
		return nil, err
	}

	if err := s.Repo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates the session: the presented token must verify and must be
// the one currently stored on the record, and it is spent by the rotation.
// Every failure mode collapses into ErrTokenRejected for the caller; the
// distinction stays in the log.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Issuer.ParseRefresh(raw)
	if err != nil {
		l.Warn("refresh_failed", "status", 403, "reason", "invalid_token", "error", err)
		return nil, ErrTokenRejected
	}

	user, err := s.Repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 403, "reason", "unknown_subject")
			return nil, ErrTokenRejected
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot create token", "error", err)
		return nil, err
	}

	if err := s.Repo.RotateRefreshToken(ctx, user.ID, raw, pair.RefreshToken); err != nil {
		if errors.Is(err, repo.ErrTokenMismatch) {
			l.Warn("refresh_failed", "status", 403, "reason", "token_mismatch", "user_id", user.ID)
			return nil, ErrTokenRejected
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	l.Info("refresh_success", "user_id", user.ID)
	return pair, nil
}

// Logout clears the stored refresh token. A token no record holds is
// rejected, which also makes a second logout with the same token fail.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Repo.ClearRefreshToken(ctx, raw); err != nil {
		if errors.Is(err, repo.ErrTokenMismatch) {
			l.Warn("logout_failed", "status", 403, "reason", "no_matching_session")
			return ErrTokenRejected
		}
		l.Error("logout_failed", "status", 500, "error", err)
		return err
	}

	l.Info("logout_success")
	return nil
}

func (s *AuthService) GetSelf(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.Issuer.Access(user.ID, user.Roles)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issuer.Refresh(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, UserID: user.ID}, nil
}
