package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/five82/frontdesk/internal/backend"
	"github.com/five82/frontdesk/internal/cache"
	"github.com/five82/frontdesk/internal/config"
	"github.com/five82/frontdesk/internal/prefs"
	"github.com/five82/frontdesk/internal/realtime"
	"github.com/five82/frontdesk/internal/ui"
)

// Options configure the frontdesk application.
type Options struct {
	ConfigPath string
	PrefsPath  string    // empty uses default ~/.config/frontdesk/prefs.toml
	Server     string    // overrides the configured server when set
	LogLevel   string    // overrides the configured level when set
	LogWriter  io.Writer // nil writes to the configured log file
	NoCache    bool      // start empty and never persist
}

// Runtime is the wired application: config, logger, REST client and the
// realtime engine over the session cache.
type Runtime struct {
	Config config.Config
	Prefs  prefs.Prefs
	Logger zerolog.Logger
	Client *backend.Client
	Cache  *cache.Cache
	Engine *realtime.Engine
	TabID  string

	prefsPath string
	storage   cache.Storage
	logCloser io.Closer
}

// Open loads configuration and wires the engine. Nothing touches the
// network until the engine is started and someone subscribes.
func Open(opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if s := strings.TrimSpace(opts.Server); s != "" {
		cfg.Server = s
	}
	if l := strings.TrimSpace(opts.LogLevel); l != "" {
		if _, err := zerolog.ParseLevel(l); err != nil {
			return nil, fmt.Errorf("log level %q: %w", l, err)
		}
		cfg.LogLevel = l
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return nil, fmt.Errorf("load prefs: %w", err)
	}

	logger, logCloser, err := NewLogger(cfg, opts.LogWriter)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:    cfg,
		Prefs:     userPrefs,
		Logger:    logger,
		prefsPath: opts.PrefsPath,
		logCloser: logCloser,
	}

	backendKind := cfg.CacheBackend
	if opts.NoCache {
		backendKind = "memory"
	}
	storage, err := cache.Open(backendKind, cfg.CacheDir)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	rt.storage = storage
	rt.TabID = cache.TabID(storage)
	rt.Cache = cache.New(cache.Options{Storage: storage, Logger: logger})

	client, err := backend.NewClient(cfg.Server, cfg.Secure)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("init rest client: %w", err)
	}
	rt.Client = client

	url, err := realtime.BuildURL(cfg.Server, cfg.Secure, rt.TabID)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("build socket url: %w", err)
	}

	initial := rt.Cache.Load(cfg.CacheTTL)
	if opts.NoCache {
		rt.Cache = nil
	}
	engine, err := realtime.New(realtime.Options{
		URL:             url,
		Fallback:        client,
		Cache:           rt.Cache,
		Initial:         initial,
		Logger:          logger,
		QueueTimeout:    cfg.QueueTimeout,
		FlushInterval:   cfg.FlushInterval,
		EchoTTL:         cfg.EchoTTL,
		ChatEchoTTL:     cfg.ChatEchoTTL,
		DisconnectGrace: cfg.DisconnectGrace,
		UndoDepth:       cfg.UndoDepth,
	})
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("init engine: %w", err)
	}
	rt.Engine = engine

	logger.Info().
		Str("component", "app").
		Str("url", url).
		Str("cache", backendKind).
		Int("cached_customers", len(initial.Conversations)+len(initial.Reservations)).
		Msg("frontdesk ready")
	return rt, nil
}

// Start runs the engine in the background until ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) *Runner {
	return StartEngine(ctx, r.Engine, r.Logger)
}

// Close releases the cache storage and the log file. Stop the engine first
// so its final persist lands.
func (r *Runtime) Close() error {
	var errs []error
	if r.storage != nil {
		if err := r.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
		r.storage = nil
	}
	if r.logCloser != nil {
		if err := r.logCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log: %w", err))
		}
		r.logCloser = nil
	}
	return errors.Join(errs...)
}

// Run boots the frontdesk TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := Open(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	runner := rt.Start(ctx)

	uiErr := ui.Run(ui.Options{
		Context:   ctx,
		Engine:    rt.Engine,
		Prefs:     rt.Prefs,
		PrefsPath: rt.prefsPath,
		Logger:    rt.Logger,
	})

	cancel()
	if err := runner.Wait(); err != nil && uiErr == nil {
		return err
	}
	return uiErr
}
