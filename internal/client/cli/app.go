package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/projectgate/internal/client/api"
	"github.com/dmitrijs2005/projectgate/internal/client/config"
)

// apiClient is the part of api.Client the commands use.
type apiClient interface {
	Token() string
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*api.Me, error)
	ListProjects(ctx context.Context) ([]api.Project, error)
	CreateProject(ctx context.Context, name, description string) (*api.Project, error)
	UpdateProject(ctx context.Context, id int64, name, description string) (*api.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	SetRole(ctx context.Context, username, role string) (*api.User, error)
}

type App struct {
	config   *config.Config
	client   apiClient
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config) (*App, error) {
	client, err := api.NewClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &App{config: c, client: client, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) isLoggedIn() bool {
	return a.client.Token() != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "Welcome to projectgate CLI, server %s (type 'help' for commands)\n", a.config.ServerURL)
	runREPL(ctx, a, a.getStatus, a.reader)
	if a.isLoggedIn() {
		_ = a.client.Logout(ctx)
	}
}
