package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/directory"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var usersSlackID string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the user directory database",
	Long: `Add, remove, list and import GitHub login to email mappings stored in
the prnotify database. The gateway consults the database after the config
"users" map and the users file, and only when database.enabled is true.`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s *directory.Store) error {
			entries, err := s.List(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No users yet. Add one with: prnotify users set <login> <email>")
				return nil
			}
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(dimStyle).
				Headers("LOGIN", "EMAIL", "SLACK ID")
			for _, e := range entries {
				t.Row(e.Login, e.Email, e.SlackUserID)
			}
			fmt.Println(t.Render())
			return nil
		})
	},
}

var usersSetCmd = &cobra.Command{
	Use:   "set <login> <email>",
	Short: "Add or update a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s *directory.Store) error {
			e := directory.Entry{Login: args[0], Email: args[1], SlackUserID: usersSlackID}
			if err := s.Put(ctx, e); err != nil {
				return err
			}
			fmt.Printf("Saved %s -> %s\n", e.Login, e.Email)
			return nil
		})
	},
}

var usersRemoveCmd = &cobra.Command{
	Use:   "remove <login>",
	Short: "Remove a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s *directory.Store) error {
			if err := s.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		})
	},
}

var usersImportCmd = &cobra.Command{
	Use:   "import <users.yaml>",
	Short: "Import users from a YAML users file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := directory.ReadUsersFile(args[0])
		if err != nil {
			return err
		}
		return withStore(func(ctx context.Context, s *directory.Store) error {
			n, err := s.Import(ctx, entries)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d users from %s\n", n, args[0])
			return nil
		})
	},
}

func init() {
	usersSetCmd.Flags().StringVar(&usersSlackID, "slack-id", "",
		"Slack user ID (skips the email lookup)")
	usersCmd.AddCommand(usersListCmd, usersSetCmd, usersRemoveCmd, usersImportCmd)
}

func withStore(fn func(ctx context.Context, s *directory.Store) error) error {
	ctx := context.Background()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Database.Enabled {
		fmt.Fprintln(os.Stderr, warnStyle.Render("database.enabled is false; the gateway will not read these users."))
	}
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, directory.NewStore(db))
}
