package rest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/projectgate/internal/common"
	"github.com/dmitrijs2005/projectgate/internal/server/auth"
	"github.com/dmitrijs2005/projectgate/internal/server/models"
	"github.com/dmitrijs2005/projectgate/internal/server/services"
)

type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[string]string
	tokens    map[string]string // token -> username
	nextID    int64

	resolveErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:     map[string]*models.User{},
		passwords: map[string]string{},
		tokens:    map[string]string{},
	}
}

func (f *fakeUsers) add(name, password, role string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.users[name] = &models.User{ID: f.nextID, UserName: name, Role: role}
	f.passwords[name] = password
	tok := fmt.Sprintf("tok-%s-%d", name, f.nextID)
	f.tokens[tok] = name
	return tok
}

func (f *fakeUsers) issue(name string) *services.IssuedToken {
	f.nextID++
	tok := fmt.Sprintf("tok-%s-%d", name, f.nextID)
	f.tokens[tok] = name
	return &services.IssuedToken{AccessToken: tok, TokenType: common.TokenType}
}

func (f *fakeUsers) Signup(ctx context.Context, username, password string) (*services.IssuedToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrValidation)
	}
	if _, ok := f.users[username]; ok {
		return nil, common.ErrDuplicateUsername
	}
	f.users[username] = &models.User{ID: f.nextID + 1, UserName: username, Role: common.RoleUser}
	f.passwords[username] = password
	return f.issue(username), nil
}

func (f *fakeUsers) Login(ctx context.Context, username, password string) (*services.IssuedToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.passwords[username]; !ok || p != password {
		return nil, common.ErrInvalidCredentials
	}
	return f.issue(username), nil
}

func (f *fakeUsers) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	name, ok := f.tokens[token]
	if !ok {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, common.ErrTokenSignature)
	}
	u := *f.users[name]
	return &u, nil
}

func (f *fakeUsers) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeUsers) SetRole(ctx context.Context, actor *models.User, username, role string) (*models.User, error) {
	if _, err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

type fakeProjects struct {
	mu     sync.Mutex
	rows   map[int64]*models.Project
	nextID int64
	calls  int
	err    error
	panic  bool
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{rows: map[int64]*models.Project{}}
}

func (f *fakeProjects) List(ctx context.Context) ([]*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Project, 0, len(f.rows))
	for id := int64(1); id <= f.nextID; id++ {
		if p, ok := f.rows[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjects) Create(ctx context.Context, actor *models.User, in models.ProjectInput) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	f.nextID++
	owner := actor.ID
	p := &models.Project{ID: f.nextID, Name: in.Name, Description: in.Description, OwnerID: &owner}
	f.rows[p.ID] = p
	return p, nil
}

func (f *fakeProjects) Update(ctx context.Context, actor *models.User, id int64, in models.ProjectInput) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	p.Name, p.Description = in.Name, in.Description
	return p, nil
}

func (f *fakeProjects) Delete(ctx context.Context, actor *models.User, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := f.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}
