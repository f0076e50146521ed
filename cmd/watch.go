package cmd

import (
	"context"
	"fmt"

	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/tui"
	"github.com/spf13/cobra"
)

var watchURL string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Launch the terminal dashboard for a running gateway",
	Long: `Opens an interactive terminal UI that follows a running 'prnotify serve':
delivery counters, the live event stream, and the user directory.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "",
		"gateway base URL (default: http://<gateway.host>:<gateway.port>)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	base := watchURL
	if base == "" {
		base = "http://" + cfg.Addr()
	}

	dir, closeDir, err := openDirectory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDir()

	app := tui.NewApp(base, dir.List)
	return app.Run()
}
