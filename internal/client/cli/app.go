package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/deepnote/internal/client/appstate"
	"github.com/dmitrijs2005/deepnote/internal/client/client"
	"github.com/dmitrijs2005/deepnote/internal/client/config"
	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/client/notes"
	"github.com/dmitrijs2005/deepnote/internal/client/repositories/cache"
	"github.com/dmitrijs2005/deepnote/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/deepnote/internal/client/repositories/synctasks"
	"github.com/dmitrijs2005/deepnote/internal/client/services"
	"github.com/dmitrijs2005/deepnote/internal/client/worker"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/filex"
	"github.com/dmitrijs2005/deepnote/internal/logging"
	"github.com/dmitrijs2005/deepnote/internal/rpc"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// noteStore is the part of notes.Store the commands use.
type noteStore interface {
	Fetch(ctx context.Context) (bool, error)
	Reset()
	List(f models.Filter) []*models.Note
	Get(id string) (*models.Note, error)
	Create(ctx context.Context, in rpc.NoteInput) (*models.Note, error)
	Update(ctx context.Context, id string, patch rpc.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, id string) error
	Pin(ctx context.Context, id string, pinned bool) (*models.Note, error)
	Archive(ctx context.Context, id string, archived bool) (*models.Note, error)
	AttachAudio(ctx context.Context, id, path string) (*models.Note, error)
	AudioURL(ctx context.Context, id string) (string, error)
}

type stateStore interface {
	Save(ctx context.Context, st appstate.State)
	Load(ctx context.Context) appstate.State
	IsInstallable() bool
	IsInstalled() bool
}

// offlineLayer is the worker registration as seen by the commands.
type offlineLayer interface {
	Register(ctx context.Context, w *worker.Worker) error
	Sync(ctx context.Context, tag string) error
	PostMessage(ctx context.Context, msg worker.Message) error
	Active() *worker.Worker
	Waiting() *worker.Worker
	Wait()
}

type queueLen interface {
	Len(ctx context.Context) (int, error)
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	auth      services.AuthService
	session   *client.Credentials
	notes     noteStore
	state     stateStore
	reg       offlineLayer
	queue     queueLen
	watcher   *worker.OnlineWatcher
	newWorker func(version string) *worker.Worker
	closers   []func() error

	reader *bufio.Reader
	out    io.Writer

	mu       sync.Mutex
	userName string
	mode     Mode
	filter   models.Filter
}

// NewApp opens the local database and wires the remote clients, the worker
// registration and the note store.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	dataFile, err := filex.EnsureParentDir(c.DataFile)
	if err != nil {
		return nil, fmt.Errorf("prepare data file: %w", err)
	}

	db, err := client.InitDatabase(ctx, dataFile)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	creds := &client.Credentials{}
	grpcClient, err := client.NewGRPCClient(c.ServerEndpointAddr, creds)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	network := http.DefaultTransport
	reg := worker.NewRegistration(network, logger)
	page := reg.Attach()

	queue := synctasks.NewQueue(db, creds)
	caches := cache.NewStore(db)
	// the worker replays the queue over the raw network, not through itself
	syncSender := client.NewRESTClient(c.ServerHTTPURL, network, creds, grpcClient)
	lister := client.NewRESTClient(c.ServerHTTPURL, page.Transport(), creds, grpcClient)

	auth := services.NewAuthService(grpcClient, creds, db)
	a := &App{
		config:  c,
		logger:  logger.With("module", "cli"),
		auth:    auth,
		session: creds,
		notes:   notes.NewStore(lister, grpcClient, queue, creds, logger),
		state: appstate.NewService(metadata.NewSQLiteRepository(db),
			appstate.StaticSignals{Mode: c.DisplayMode, Prompt: c.InstallPrompt}, logger),
		reg:     reg,
		queue:   queue,
		watcher: worker.NewOnlineWatcher(auth, 0, logger),
		newWorker: func(version string) *worker.Worker {
			return worker.New(worker.Config{
				CacheName:          version,
				BaseURL:            c.ServerHTTPURL,
				Assets:             c.PrecacheAssets,
				NetworkTimeout:     c.NetworkTimeout,
				InstallTimeout:     c.InstallTimeout,
				SyncRequestTimeout: c.SyncRequestTimeout,
			}, network, caches, queue, syncSender, logger)
		},
		closers: []func() error{
			func() error { return page.Release(context.Background()) },
			grpcClient.Close,
			db.Close,
		},
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	a.watcher.OnOnline = a.onOnline
	a.watcher.OnOffline = func(context.Context) { a.setMode(ModeOffline) }
	return a, nil
}

// Run registers the worker, starts the connectivity watcher and the REPL,
// and saves the session and app state on the way out.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.shutdown(context.WithoutCancel(ctx))

	a.restoreState(ctx)
	a.registerWorker(ctx, a.config.CacheVersion)
	if a.watcher.Check(ctx) {
		a.setMode(ModeOnline)
	}

	_ = a.Login(ctx)

	go a.watcher.Run(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) shutdown(ctx context.Context) {
	a.saveState(ctx)
	if err := a.auth.SaveSession(ctx); err != nil {
		a.logger.Warn(ctx, "failed to save session", "error", err)
	}
	a.reg.Wait()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn(ctx, "close failed", "error", err)
		}
	}
}

// onOnline resumes the session, retries a failed worker install and
// replays the offline queue.
func (a *App) onOnline(ctx context.Context) {
	a.setMode(ModeOnline)
	if err := a.auth.Resume(ctx); err != nil {
		a.logger.Warn(ctx, "session not resumed", "error", err)
	}
	if a.reg.Active() == nil && a.reg.Waiting() == nil {
		a.registerWorker(ctx, a.config.CacheVersion)
	}
	if err := a.reg.Sync(ctx, common.SyncTagNotes); err != nil {
		a.logger.Warn(ctx, "sync not raised", "error", err)
	}
}

func (a *App) registerWorker(ctx context.Context, version string) {
	if err := a.reg.Register(ctx, a.newWorker(version)); err != nil {
		a.logger.Warn(ctx, "worker not installed", "cache", version, "error", err)
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.logger.Info(context.Background(), "switched mode", "mode", string(mode))
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.session.UserID() != ""
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.mode != "" {
		s += string(a.mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
