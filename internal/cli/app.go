package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/raphaelgruber/moodon/internal/auth"
	"github.com/raphaelgruber/moodon/internal/chat"
	"github.com/raphaelgruber/moodon/internal/client"
	"github.com/raphaelgruber/moodon/internal/config"
	"github.com/raphaelgruber/moodon/internal/metrics"
	"github.com/raphaelgruber/moodon/internal/pending"
	"github.com/raphaelgruber/moodon/internal/profile"
	"github.com/raphaelgruber/moodon/internal/store"
)

// App holds the wired components shared by all commands.
type App struct {
	Store     *store.Store
	Client    *client.Client
	Auth      *auth.Facade
	Codes     *auth.CodeLimiter
	Pending   *pending.Queue
	Sync      *chat.Synchronizer
	Favorites *profile.Favorites
	Metrics   *metrics.Collector
}

// terminalPrompter asks the user to log in from the shell.
type terminalPrompter struct{ out io.Writer }

func (p terminalPrompter) PromptLogin() {
	fmt.Fprintln(p.out, "로그인이 필요합니다. 'moodon login'으로 로그인해 주세요.")
}

// terminalNavigator reports the logout.
type terminalNavigator struct{ out io.Writer }

func (n terminalNavigator) ToLogin() {
	fmt.Fprintln(n.out, "로그아웃되었습니다.")
}

// NewApp opens the local store and wires the client, auth facade, pending
// queue and synchronizer.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	st := store.New(backend, cfg.StorePrefix, logger)
	collector := metrics.NewCollector()

	c, err := client.New(client.Config{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.ClientTimeout,
		CSRFCookieName: cfg.CSRFCookie,
		Cookies:        auth.NewCookieJar(st),
		Logger:         logger,
		Metrics:        collector,
	})
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}

	facade := auth.NewFacade(ctx, c, st, auth.Options{
		Prompter:  terminalPrompter{out: os.Stderr},
		Navigator: terminalNavigator{out: os.Stdout},
		Logger:    logger,
	})
	queue := pending.New(ctx, st, logger)
	synchronizer := chat.New(c, facade, queue, chat.Options{
		PollInterval:    cfg.PollInterval,
		PollMaxDuration: cfg.PollMaxDuration,
		Logger:          logger,
		Metrics:         collector,
	})

	return &App{
		Store:     st,
		Client:    c,
		Auth:      facade,
		Codes:     auth.NewCodeLimiter(st, nil),
		Pending:   queue,
		Sync:      synchronizer,
		Favorites: profile.NewFavorites(st, c, logger),
		Metrics:   collector,
	}, nil
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemoryBackend(), nil
	case config.StoreSurreal:
		b, err := store.NewSurrealBackend(ctx, store.SurrealConfig{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to surrealdb: %w", err)
		}
		return b, nil
	case config.StoreFile, "":
		b, err := store.NewFileBackend(cfg.StorePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want file, surreal or memory)", cfg.Store)
	}
}

// Close stops background work and releases the store.
func (a *App) Close(ctx context.Context) error {
	a.Sync.Close()
	return a.Store.Close(ctx)
}
