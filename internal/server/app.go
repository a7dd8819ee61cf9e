// Package server wires configuration, storage, services and the HTTP
// transport together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/projectgate/internal/logging"
	"github.com/dmitrijs2005/projectgate/internal/server/auth"
	"github.com/dmitrijs2005/projectgate/internal/server/config"
	"github.com/dmitrijs2005/projectgate/internal/server/denylist"
	"github.com/dmitrijs2005/projectgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/projectgate/internal/server/rest"
	"github.com/dmitrijs2005/projectgate/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	redis          *redis.Client
	repomanager    repomanager.RepositoryManager
	userService    *services.UserService
	projectService *services.ProjectService
}

// seams for tests
var (
	sqlOpen        = sql.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	gin.SetMode(rest.GinMode(c.LogLevel))

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, repomanager: newRepoManager()}

	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	var dl denylist.Denylist = denylist.NewMemory()
	if c.RedisURL != "" {
		client, err := denylist.NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			return fmt.Errorf("redis init error: %w", err)
		}
		app.redis = client
		dl = denylist.NewRedis(client)
	}

	hasher, err := auth.NewHasher(c.PasswordHashScheme, c.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenCodec(c.SecretKey, c.Algorithm, c.AccessTokenValidityDuration)
	if err != nil {
		return err
	}

	us, err := services.NewUserService(app.db, app.repomanager, hasher, tokens, dl, app.logger.With("module", "users"))
	if err != nil {
		return err
	}
	app.userService = us
	app.projectService = services.NewProjectService(app.db, app.repomanager, app.logger.With("module", "projects"))

	created, err := us.BootstrapAdmin(ctx, c.BootstrapAdminUsername, c.BootstrapAdminPassword)
	if err != nil {
		return err
	}
	if created {
		app.logger.Info(ctx, "bootstrap admin ready", "username", c.BootstrapAdminUsername)
	}
	return nil
}

func (app *App) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(app.config.HTTPAddr, app.logger, app.userService, app.projectService, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(ctx, "App stopped")
}
