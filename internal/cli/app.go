package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/scribe/internal/config"
	"github.com/harun/scribe/internal/logger"
	"github.com/harun/scribe/internal/metrics"
	"github.com/harun/scribe/internal/observability"
	"github.com/harun/scribe/internal/tracing"
	"github.com/harun/scribe/pkg/snapshot"
	"github.com/harun/scribe/pkg/store"
)

const serviceName = "scribe"

// App is everything a command needs once the store is open
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	Audit   *observability.AuditLogger
	Files   *snapshot.FileSync
	Store   *store.Store
}

// loadConfig loads the config file and applies the global flags on top of it
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(o.cfgFile).LoadWith(func(c *config.Config) {
		if o.dataDir != "" {
			c.DataDir = o.dataDir
		}
		if o.storeDir != "" {
			c.Store.Dir = o.storeDir
		}
		if o.logLevel != "" {
			c.Logging.Level = o.logLevel
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openApp builds the logger, metrics and snapshot sync, then loads the store
func openApp(ctx context.Context, opts *rootOptions) (*App, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.Logging.Level,
		File:     cfg.Logging.File,
		Console:  cfg.Logging.Console,
		Pretty:   cfg.Logging.Pretty,
		MaxSize:  cfg.Logging.MaxSize,
		MaxAge:   cfg.Logging.MaxAge,
		Compress: cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if err := tracing.InitOpenTelemetry(serviceName); err != nil {
		log.Warn().Err(err).Msg("Tracing disabled")
	}

	m := metrics.NewMetrics()

	format, err := snapshot.ParseFormat(cfg.Store.Format)
	if err != nil {
		log.Close()
		return nil, err
	}

	audit, err := observability.NewAuditLogger(cfg.Logging.AuditFile)
	if err != nil {
		log.Close()
		return nil, err
	}
	fail := func(err error) (*App, error) {
		audit.Close()
		log.Close()
		return nil, err
	}

	files, err := snapshot.NewFileSync(snapshot.Config{
		Dir:         cfg.Store.Dir,
		Format:      format,
		Concurrency: cfg.Store.LoadConcurrency,
		Logger:      log.GetZerolog(),
		Metrics:     m,
	})
	if err != nil {
		return fail(err)
	}

	st := store.New(store.Config{
		Syncer:  files,
		Logger:  log.GetZerolog(),
		Metrics: m,
	})
	if err := st.Initialize(ctx); err != nil {
		return fail(fmt.Errorf("failed to initialize store: %w", err))
	}

	return &App{
		Config:  cfg,
		Logger:  log,
		Metrics: m,
		Audit:   audit,
		Files:   files,
		Store:   st,
	}, nil
}

// Close releases the audit journal and the log file
func (a *App) Close() error {
	return errors.Join(a.Audit.Close(), a.Logger.Close())
}

type appKey struct{}

func withAppContext(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func appFromContext(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, errors.New("store is not open")
	}
	return app, nil
}

// withApp opens the store before run and closes it afterwards.
// run finds the App in the command context.
func withApp(opts *rootOptions, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := tracing.NewOperationContext(tracing.NewCommandContext(cmd.Context(), cmd.Name()))

		app, err := openApp(ctx, opts)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open store", err)
		}
		defer func() {
			if cerr := app.Close(); err == nil && cerr != nil {
				err = cerr
			}
		}()

		tracing.LoggerFromContext(ctx, app.Logger.GetZerolog()).Debug().
			Strs("args", args).
			Msg("Running command")

		cmd.SetContext(withAppContext(ctx, app))
		return run(cmd, args)
	}
}
