package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/harun/scribe/internal/tracing"
)

const version = "0.1.0"

// rootOptions holds the global flags shared by every command
type rootOptions struct {
	cfgFile  string
	dataDir  string
	storeDir string
	logLevel string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "scribe",
		Short: "scribe - tagged notes with full-text lookup",
		Long: `scribe keeps short notes ("resources") addressed by the hash of their content.
Each resource carries a set of tags and is saved as one file per resource.
Resources can be looked up by tag, by a single word, or by a set of words.`,
		Version:      version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.scribe/scribe.json)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (default is $HOME/.scribe)")
	cmd.PersistentFlags().StringVar(&opts.storeDir, "dir", "", "snapshot directory (default is <data-dir>/resources)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	// Version template
	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	cmd.AddCommand(
		newTagCmd(opts),
		newIndexCmd(opts),
		newSearchCmd(opts),
		newNewCmd(opts),
		newLsCmd(opts),
		newRmCmd(opts),
		newDropCmd(opts),
		newShowCmd(opts),
		newSweepCmd(opts),
		newVerifyCmd(opts),
		newStatsCmd(opts),
		newSchemaCmd(),
		newWatchCmd(opts),
		newShellCmd(opts),
		newConfigureCmd(opts),
	)

	return cmd
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	defer tracing.ShutdownOpenTelemetry(context.Background())
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
