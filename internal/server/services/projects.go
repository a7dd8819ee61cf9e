package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/projectgate/internal/common"
	"github.com/dmitrijs2005/projectgate/internal/logging"
	"github.com/dmitrijs2005/projectgate/internal/server/auth"
	"github.com/dmitrijs2005/projectgate/internal/server/models"
	"github.com/dmitrijs2005/projectgate/internal/server/repositories/repomanager"
)

const maxProjectNameLen = 200

// ProjectService manages projects. Reads are open to any authenticated
// account; every mutation is checked with auth.RequireAdmin before the
// store is touched.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ProjectService {
	return &ProjectService{db: db, repomanager: m, logger: logger}
}

func validateProject(in models.ProjectInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(in.Name) > maxProjectNameLen {
		return fmt.Errorf("%w: name longer than %d characters", common.ErrValidation, maxProjectNameLen)
	}
	return nil
}

func (s *ProjectService) List(ctx context.Context) ([]*models.Project, error) {
	list, err := s.repomanager.Projects(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}
	return list, nil
}

func (s *ProjectService) Create(ctx context.Context, actor *models.User, in models.ProjectInput) (*models.Project, error) {
	admin, err := auth.RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	if err := validateProject(in); err != nil {
		return nil, err
	}

	owner := admin.ID
	p, err := s.repomanager.Projects(s.db).Create(ctx, &models.Project{
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     &owner,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating project: %w", err)
	}

	s.logger.Info(ctx, "project created", "id", p.ID, "by", admin.UserName)
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, actor *models.User, id int64, in models.ProjectInput) (*models.Project, error) {
	admin, err := auth.RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	if err := validateProject(in); err != nil {
		return nil, err
	}

	p, err := s.repomanager.Projects(s.db).Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating project: %w", err)
	}

	s.logger.Info(ctx, "project updated", "id", p.ID, "by", admin.UserName)
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor *models.User, id int64) error {
	admin, err := auth.RequireAdmin(actor)
	if err != nil {
		return err
	}

	if err := s.repomanager.Projects(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("error deleting project: %w", err)
	}

	s.logger.Info(ctx, "project deleted", "id", id, "by", admin.UserName)
	return nil
}
