package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/directory"
	"github.com/CosmoTheDev/prnotify/internal/gateway"
	"github.com/CosmoTheDev/prnotify/internal/notify"
	"github.com/CosmoTheDev/prnotify/internal/slack"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify config, user directory and Slack credentials",
	Long: `Checks that the config loads, the Slack token is accepted by auth.test,
the users file and database can be read, and at least one notification
channel is configured.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	allOK := true
	fail := func(format string, a ...any) {
		fmt.Println(failStyle.Render("FAIL") + " " + fmt.Sprintf(format, a...))
		allOK = false
	}
	warn := func(format string, a ...any) {
		fmt.Println(warnStyle.Render("WARN") + " " + fmt.Sprintf(format, a...))
	}
	ok := func(format string, a ...any) {
		fmt.Println(successStyle.Render("OK") + " " + fmt.Sprintf(format, a...))
	}

	fmt.Println("=== prnotify doctor ===")
	fmt.Println()

	// Config file
	fmt.Print("Config file .............. ")
	p, _ := config.ConfigPath(cfgFile)
	if _, err := os.Stat(p); err != nil {
		warn("(%s not found; using defaults and environment)", p)
	} else {
		ok("(%s)", p)
	}

	// Slack
	fmt.Print("Slack token .............. ")
	switch {
	case cfg.Notify.DryRun:
		warn("(dry run: every channel only logs, nothing is sent)")
	case cfg.Slack.Token == "":
		fail("(not configured; run 'prnotify onboard')")
	default:
		info, err := slack.New(cfg.Slack.Token, slack.WithBaseURL(cfg.Slack.APIURL)).AuthTest(ctx)
		if err != nil {
			fail("(%s)", err)
		} else {
			ok("(%s as %s)", info.Team, info.User)
		}
	}

	// Webhook secret
	fmt.Print("Webhook secret ........... ")
	if cfg.GitHub.WebhookSecret == "" {
		warn("(not set; deliveries are not verified)")
	} else {
		ok("(set)")
	}

	// Users map
	fmt.Print("Config users ............. ")
	ok("(%d)", len(directory.NewStatic(cfg.Users).Entries()))

	// Users file
	fmt.Print("Users file ............... ")
	if cfg.Directory.UsersFile == "" {
		fmt.Println(dimStyle.Render("not configured"))
	} else if entries, err := directory.ReadUsersFile(cfg.Directory.UsersFile); err != nil {
		fail("(%s)", err)
	} else {
		ok("(%d users in %s)", len(entries), cfg.Directory.UsersFile)
	}

	fmt.Print("Reload schedule .......... ")
	if expr := cfg.Directory.ReloadSchedule; expr == "" {
		fmt.Println(dimStyle.Render("not configured"))
	} else if err := gateway.ValidateSchedule(expr); err != nil {
		fail("(%q: %s)", expr, err)
	} else {
		ok("(%s)", expr)
	}

	// Database
	fmt.Print("Database ................. ")
	if !cfg.Database.Enabled {
		fmt.Println(dimStyle.Render("disabled"))
	} else if db, err := openDatabase(ctx, cfg); err != nil {
		fail("(%s)", err)
	} else {
		if entries, err := directory.NewStore(db).List(ctx); err != nil {
			fail("(%s)", err)
		} else {
			ok("(%s, %d users)", db.Driver(), len(entries))
		}
		db.Close()
	}

	fmt.Print("GitHub profile lookup .... ")
	switch {
	case !cfg.Directory.GitHubLookup:
		fmt.Println(dimStyle.Render("disabled"))
	case cfg.GitHub.Token == "":
		warn("(%s, unauthenticated; rate limited)", cfg.GitHub.Host)
	default:
		ok("(%s)", cfg.GitHub.Host)
	}

	// Channels
	fmt.Print("Channels ................. ")
	dir, closeDir, err := openDirectory(ctx, cfg)
	if err != nil {
		fail("(%s)", err)
	} else {
		d := notify.FromConfig(cfg, dir)
		if d.IsAnyConfigured() {
			ok("(%s)", strings.Join(d.Names(), ", "))
		} else {
			fail("(none configured)")
		}
		closeDir()
	}

	fmt.Print("Gateway .................. ")
	fmt.Println(dimStyle.Render("http://" + cfg.Addr() + "/webhook"))

	fmt.Println()
	if allOK {
		fmt.Println(successStyle.Render("All checks passed. prnotify is ready!"))
	} else {
		fmt.Println(warnStyle.Render("Some checks failed. Run 'prnotify onboard' to fix."))
	}
	return nil
}
