// File: internal/application/app.go
package application

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"chatbot-feedback/internal/config"
	"chatbot-feedback/internal/domain/ports/adapter"
	"chatbot-feedback/internal/domain/ports/repository"
	"chatbot-feedback/internal/infra/adapters/responder"
	pg "chatbot-feedback/internal/infra/db/postgres"
	"chatbot-feedback/internal/infra/db/sqlite"
	"chatbot-feedback/internal/infra/i18n"
	"chatbot-feedback/internal/infra/metrics"
	red "chatbot-feedback/internal/infra/redis"
	"chatbot-feedback/internal/infra/scheduler"
	"chatbot-feedback/internal/infra/security"
	"chatbot-feedback/internal/infra/store"
	"chatbot-feedback/internal/infra/web"
	"chatbot-feedback/internal/usecase"
)

// App composes the storage slot, store, responder and event loop that every
// front end shares.
type App struct {
	Config     *config.Config
	Log        *zerolog.Logger
	Slot       repository.NamedSlot
	Store      *store.ConversationStore
	Responder  adapter.Responder
	Translator *i18n.Translator
	Loop       *scheduler.Loop
	Feedback   usecase.FeedbackUseCase

	closers []func()
}

type options struct {
	clock  scheduler.Clock
	noLock bool
}

type Option func(*options)

// WithClock replaces the wall clock of the loop and of id allocation.
func WithClock(c scheduler.Clock) Option { return func(o *options) { o.clock = c } }

// ReadOnly skips the redis owner lock; for commands that never write.
func ReadOnly() Option { return func(o *options) { o.noLock = true } }

func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, opts ...Option) (*App, error) {
	o := options{clock: scheduler.SystemClock{}}
	for _, fn := range opts {
		fn(&o)
	}
	metrics.MustRegister()

	a := &App{Config: cfg, Log: logger}
	slot, closeSlot, err := OpenSlot(ctx, cfg, logger, !o.noLock)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeSlot)
	a.Slot = slot

	if cfg.Responder.RepliesFile != "" {
		a.Responder, err = responder.NewFromFile(cfg.Responder.RepliesFile)
	} else {
		a.Responder, err = responder.NewDefault()
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("responder: %w", err)
	}

	a.Translator, err = i18n.NewDefault(cfg.UI.Language)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("translator: %w", err)
	}

	a.Loop = scheduler.NewLoop(o.clock, logger)
	a.Store = store.Open(ctx, slot, store.WithClock(o.clock.Now), store.WithLogger(logger))
	a.Feedback = usecase.NewFeedbackUseCase(a.Store, logger)

	logger.Info().
		Str("driver", slot.Driver()).
		Str("key", cfg.Storage.Key).
		Bool("encrypted", cfg.Storage.EncryptionKey != "").
		Msg("storage ready")
	return a, nil
}

// NewSession builds the controller with n as its event sink.
func (a *App) NewSession(n adapter.Notifier) usecase.SessionUseCase {
	return usecase.NewSessionUseCase(a.Store, a.Responder, a.Loop, a.Log,
		usecase.WithNotifier(n),
		usecase.WithReplyDelay(a.Config.Responder.ReplyDelay),
		usecase.WithDevMode(a.Config.Runtime.Dev),
	)
}

// StartAdmin serves /health and /metrics when admin.port is set.
func (a *App) StartAdmin() {
	if a.Config.Admin.Port <= 0 {
		return
	}
	srv := web.NewServer(a.Store, a.Slot.Driver(), a.Log)
	go func() {
		if err := srv.Start(a.Config.Admin.Port); err != nil {
			a.Log.Error().Err(err).Msg("admin endpoint stopped")
		}
	}()
	a.closers = append(a.closers, func() { _ = srv.Shutdown(context.Background()) })
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// OpenSlot opens the configured driver, wrapped with encryption and metrics.
func OpenSlot(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, lock bool) (repository.NamedSlot, func(), error) {
	var (
		slot    repository.NamedSlot
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		slot = store.NewMemorySlot()

	case config.DriverFile:
		dir := cfg.Storage.Path
		if dir == "" {
			d, err := store.DefaultDir()
			if err != nil {
				return nil, nil, fmt.Errorf("resolve data dir: %w", err)
			}
			dir = d
		}
		fs, err := store.NewFileSlot(dir, cfg.Storage.Key)
		if err != nil {
			return nil, nil, err
		}
		slot = fs

	case config.DriverSQLite:
		path := cfg.Storage.Path
		if path == "" {
			p, err := sqlite.DefaultDBPath()
			if err != nil {
				return nil, nil, fmt.Errorf("resolve db path: %w", err)
			}
			path = p
		}
		s, err := sqlite.Open(filepath.Clean(path), cfg.Storage.Key)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = s.Close() })
		slot = s

	case config.DriverPostgres:
		pool, err := pg.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			closeAll()
			return nil, nil, err
		}
		slot = pg.NewSlotRepo(pool, cfg.Storage.Key)

	case config.DriverRedis:
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		closers = append(closers, func() { _ = c.Close() })
		if lock {
			release, err := red.Hold(ctx, red.NewLocker(c), red.LockKey(cfg.Storage.Key), cfg.Redis.LockTTL, logger)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("lock slot %s: %w", cfg.Storage.Key, err)
			}
			closers = append(closers, release)
		}
		slot = red.NewSlot(c, cfg.Storage.Key)

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Storage.EncryptionKey != "" {
		enc, err := security.NewEncryptionService(cfg.Storage.EncryptionKey)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("encryption: %w", err)
		}
		slot = security.NewSealedSlot(slot, enc)
	}
	return store.Instrument(slot), closeAll, nil
}
