// Package projects stores the admin-managed project resource.
package projects

import (
	"context"

	"github.com/dmitrijs2005/projectgate/internal/server/models"
)

// Repository methods taking an id return common.ErrNotFound when no row
// matches.
type Repository interface {
	List(ctx context.Context) ([]*models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Update(ctx context.Context, id int64, in models.ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, id int64) error
}
