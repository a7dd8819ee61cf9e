package auth

import (
	"github.com/dmitrijs2005/projectgate/internal/common"
	"github.com/dmitrijs2005/projectgate/internal/server/models"
)

// RequireAdmin passes user through when its role is exactly "admin" and
// fails with common.ErrForbidden otherwise. Role matching is case-sensitive.
func RequireAdmin(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, common.ErrUnauthenticated
	}
	if user.Role != common.RoleAdmin {
		return nil, common.ErrForbidden
	}
	return user, nil
}

// IsAdmin is the boolean form of RequireAdmin.
func IsAdmin(user *models.User) bool {
	_, err := RequireAdmin(user)
	return err == nil
}
