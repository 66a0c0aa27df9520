// Package server wires the DeepNote backend: PostgreSQL storage, the user,
// note and audio services, and the gRPC and HTTP servers that expose them.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/logging"
	"github.com/dmitrijs2005/deepnote/internal/server/config"
	"github.com/dmitrijs2005/deepnote/internal/server/httpapi"
	"github.com/dmitrijs2005/deepnote/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/deepnote/internal/server/services"

	gs "github.com/dmitrijs2005/deepnote/internal/server/grpc"
)

const tokenPurgeInterval = time.Hour

var openDB = repomanager.Open

type runner interface {
	Run(ctx context.Context) error
}

type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	servers map[string]runner
	purger  tokenPurger

	purgeInterval time.Duration
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	ns := services.NewNoteService(db, rm)
	as := services.NewAudioService(ns, c)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		servers: map[string]runner{
			"grpc": gs.NewGRPCServer(c.EndpointAddrGRPC, logger, us, ns, as),
			"http": httpapi.NewServer(c.EndpointAddrHTTP, logger, us, ns, c.SyncRateLimit, c.SyncBurst),
		},
		purger:        us,
		purgeInterval: tokenPurgeInterval,
	}, nil
}

// purgeTokens drops expired refresh tokens every purgeInterval until ctx
// is done.
func (app *App) purgeTokens(ctx context.Context) {
	ticker := time.NewTicker(app.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.purger.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "refresh token purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired refresh tokens purged", "count", n)
			}
		}
	}
}

// Run serves until ctx is cancelled or one of the servers fails, then waits
// for all of them to stop.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	for name, s := range app.servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Run(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				cancelFunc()
			}
		}()
	}

	if app.purger != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.purgeTokens(ctx)
		}()
	}

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
