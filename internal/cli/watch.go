package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/harun/scribe/internal/tracing"
	"github.com/harun/scribe/pkg/snapshot"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the store whenever snapshot files change",
		Long: `Watch the snapshot directory and reload the store whenever files change.
When watch.verify_schedule is set the store is verified on that schedule.
Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, app, cmd.OutOrStdout())
		}),
	}
}

// runWatch reloads the store on snapshot changes until ctx is done
func runWatch(ctx context.Context, app *App, out io.Writer) error {
	log := tracing.LoggerFromContext(ctx, app.Logger.GetZerolog())

	watcher, err := snapshot.NewWatcher(snapshot.WatcherConfig{
		Dir:      app.Files.Dir(),
		Debounce: app.Config.Watch.Debounce(),
		Logger:   *log,
		OnChange: func(path string) {
			if err := app.Store.Reload(ctx); err != nil {
				log.Error().Err(err).Str("path", path).Msg("Failed to reload store")
				return
			}
			log.Info().
				Str("path", path).
				Int("count", app.Store.Stats().Resources).
				Msg("Store reloaded")
		},
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	if schedule := app.Config.Watch.VerifySchedule; schedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := c.AddFunc(schedule, func() {
			if err := app.Store.Verify(ctx); err != nil {
				log.Error().Err(err).Msg("Scheduled verification failed")
				return
			}
			log.Debug().Msg("Scheduled verification passed")
		}); err != nil {
			return fmt.Errorf("failed to schedule verification: %w", err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	fmt.Fprintf(out, "watching %s\n", app.Files.Dir())
	<-ctx.Done()
	return nil
}
