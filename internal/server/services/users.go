// Package services contains the server business logic: account signup,
// login and token resolution, role management, and the project resource.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/projectgate/internal/common"
	"github.com/dmitrijs2005/projectgate/internal/dbx"
	"github.com/dmitrijs2005/projectgate/internal/logging"
	"github.com/dmitrijs2005/projectgate/internal/server/auth"
	"github.com/dmitrijs2005/projectgate/internal/server/denylist"
	"github.com/dmitrijs2005/projectgate/internal/server/models"
	"github.com/dmitrijs2005/projectgate/internal/server/repositories/repomanager"
)

const maxUsernameLen = 64

// IssuedToken is what signup and login hand back to the client.
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      *auth.TokenCodec
	denylist    denylist.Denylist
	logger      logging.Logger

	// verified in place of a real digest when the account does not exist
	dummyDigest string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher,
	tokens *auth.TokenCodec, dl denylist.Denylist, logger logging.Logger) (*UserService, error) {

	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("error preparing dummy digest: %w", err)
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("error preparing dummy digest: %w", err)
	}

	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		denylist:    dl,
		logger:      logger,
		dummyDigest: dummy,
	}, nil
}

func validateCredentials(username, password string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return fmt.Errorf("%w: username longer than %d characters", common.ErrValidation, maxUsernameLen)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return nil
}

// Signup registers a new account with the "user" role and returns a token
// for it. Roles are only ever raised through SetRole.
func (s *UserService) Signup(ctx context.Context, username, password string) (*IssuedToken, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByUsername(ctx, username)
	if err == nil {
		return nil, common.ErrDuplicateUsername
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{
		UserName:     username,
		PasswordHash: digest,
		Role:         common.RoleUser,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "username", user.UserName, "id", user.ID)

	return s.issue(user)
}

// Login checks the credentials and issues a token carrying the account's
// current role. Unknown usernames and wrong passwords are indistinguishable.
func (s *UserService) Login(ctx context.Context, username, password string) (*IssuedToken, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(password, s.dummyDigest)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*IssuedToken, error) {
	token, claims, err := s.tokens.Issue(user.UserName, user.Role)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &IssuedToken{
		AccessToken: token,
		TokenType:   common.TokenType,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func (s *UserService) verify(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("error checking denylist: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, common.ErrTokenRevoked)
	}
	return claims, nil
}

// ResolveCurrentUser maps a bearer token to the live account it was issued
// for. The returned role comes from the store, not from the token.
func (s *UserService) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", common.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// Logout revokes token until its natural expiry.
func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return fmt.Errorf("%w: %w", common.ErrUnauthenticated, common.ErrTokenMalformed)
	}

	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}

	s.logger.Info(ctx, "token revoked", "username", claims.Subject)
	return nil
}

// SetRole changes the role of username. Only admins may call it, and the
// last remaining admin cannot be demoted.
func (s *UserService) SetRole(ctx context.Context, actor *models.User, username, role string) (*models.User, error) {
	if _, err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", common.ErrValidation)
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if err := repo.LockRoles(ctx); err != nil {
			return err
		}

		u, err := repo.UpdateRole(ctx, username, role)
		if err != nil {
			return err
		}

		if role != common.RoleAdmin {
			ok, err := repo.HasAdmin(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: cannot remove the last admin", common.ErrValidation)
			}
		}

		updated = u
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating role: %w", err)
	}

	s.logger.Info(ctx, "role changed", "username", updated.UserName, "role", updated.Role, "by", actor.UserName)
	return updated, nil
}

// BootstrapAdmin makes sure an admin exists. When the store has none, the
// named account is created as admin, or promoted if it already exists.
// It reports whether anything was changed.
func (s *UserService) BootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" {
		return false, nil
	}
	if err := validateCredentials(username, password); err != nil {
		return false, err
	}

	changed := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if err := repo.LockRoles(ctx); err != nil {
			return err
		}

		ok, err := repo.HasAdmin(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		_, err = repo.GetUserByUsername(ctx, username)
		switch {
		case err == nil:
			if _, err := repo.UpdateRole(ctx, username, common.RoleAdmin); err != nil {
				return err
			}
		case errors.Is(err, common.ErrNotFound):
			digest, err := s.hasher.Hash(password)
			if err != nil {
				return err
			}
			if _, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: digest, Role: common.RoleAdmin}); err != nil {
				return err
			}
		default:
			return err
		}

		changed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("error bootstrapping admin: %w", err)
	}

	if changed {
		s.logger.Info(ctx, "bootstrap admin ensured", "username", username)
	}
	return changed, nil
}
