// Package users is the credential store: account rows keyed by unique
// username.
package users

import (
	"context"

	"github.com/dmitrijs2005/projectgate/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in ID and CreatedAt. A taken username
	// yields common.ErrDuplicateUsername.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByUsername returns common.ErrNotFound when absent.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateRole returns the updated account or common.ErrNotFound.
	UpdateRole(ctx context.Context, username, role string) (*models.User, error)
	HasAdmin(ctx context.Context) (bool, error)
	// LockRoles blocks until no other transaction holds the role lock and
	// keeps it until the current transaction ends. Outside a transaction it
	// is released immediately.
	LockRoles(ctx context.Context) error
}
