package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/projectgate/internal/common"
	"github.com/dmitrijs2005/projectgate/internal/dbx"
	"github.com/dmitrijs2005/projectgate/internal/server/models"
	"github.com/dmitrijs2005/projectgate/internal/server/repositories/projects"
	"github.com/dmitrijs2005/projectgate/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	mu     sync.Mutex
	byName map[string]*models.User
	nextID int64

	getErr      error
	createErr   error
	updateErr   error
	hasAdminErr error
	lockErr     error

	createCalls int
	// ops records role-related calls in order.
	ops []string
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}}
}

func (f *fakeUsersRepo) put(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.byName[u.UserName] = &u
	cp := u
	return &cp
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	f.createCalls++
	if f.createErr != nil {
		f.mu.Unlock()
		return nil, f.createErr
	}
	if _, ok := f.byName[u.UserName]; ok {
		f.mu.Unlock()
		return nil, common.ErrDuplicateUsername
	}
	f.mu.Unlock()
	return f.put(*u), nil
}

func (f *fakeUsersRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdateRole(ctx context.Context, username, role string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "update")
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) LockRoles(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "lock")
	return f.lockErr
}

func (f *fakeUsersRepo) HasAdmin(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "has_admin")
	if f.hasAdminErr != nil {
		return false, f.hasAdminErr
	}
	for _, u := range f.byName {
		if u.Role == common.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

type fakeProjectsRepo struct {
	mu     sync.Mutex
	rows   map[int64]*models.Project
	nextID int64
	err    error
	calls  int
}

func newFakeProjectsRepo() *fakeProjectsRepo {
	return &fakeProjectsRepo{rows: map[int64]*models.Project{}}
}

func (f *fakeProjectsRepo) List(ctx context.Context) ([]*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Project, 0, len(f.rows))
	for id := int64(1); id <= f.nextID; id++ {
		if p, ok := f.rows[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProjectsRepo) Get(ctx context.Context, id int64) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectsRepo) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.rows[p.ID] = &cp
	return p, nil
}

func (f *fakeProjectsRepo) Update(ctx context.Context, id int64, in models.ProjectInput) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	p.Name, p.Description = in.Name, in.Description
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (f *fakeProjectsRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakeProjectsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository            { return m.u }
func (m *fakeRepoManager) Projects(db dbx.DBTX) projects.Repository      { return m.p }
