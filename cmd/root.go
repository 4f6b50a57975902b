// Package cmd holds the govdata command line: the HTTP server and one-shot
// queries against the upstream data sources.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/giygas/govdata-api/config"
	"github.com/giygas/govdata-api/logging"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagVerbose bool

	// loaded by the root command before any subcommand runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "govdata",
	Short:         "US government health data API and CLI",
	Long:          "govdata serves and queries the Medicaid metastore, CDC weekly mortality counts and the FDA Orange Book.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		logging.InitLoggerWithOptions(logging.Options{
			LogDir:         cfg.LogDir,
			Env:            cfg.Env,
			Level:          cfg.LogLevel,
			Verbose:        flagVerbose,
			RetentionWeeks: cfg.LogRetentionWeeks,
			MaxFileSize:    cfg.MaxLogFileSize,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log to the console even in test mode")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(metastoreCmd)
	rootCmd.AddCommand(mortalityCmd)
	rootCmd.AddCommand(orangebookCmd)
	rootCmd.AddCommand(cacheCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// no config needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "govdata %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// printJSON writes v indented, followed by a newline
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
