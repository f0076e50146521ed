package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "prnotify",
	Short: "Slack direct messages for GitHub pull request activity",
	Long: `prnotify receives GitHub pull request webhooks and tells the people
involved what happened, by Slack direct message.

  review requested          -> each requested reviewer
  review submitted          -> the pull request author
  review comment created    -> the author and the requested reviewers

Get started:
  prnotify onboard    Interactive setup wizard
  prnotify doctor     Verify config, directory and Slack credentials
  prnotify serve      Start the webhook gateway
  prnotify classify   Preview the messages a payload would produce
  prnotify watch      Live dashboard for a running gateway`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.prnotify/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		onboardCmd,
		serveCmd,
		classifyCmd,
		usersCmd,
		watchCmd,
		configCmd,
		doctorCmd,
	)
}

func initLogging() {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}
