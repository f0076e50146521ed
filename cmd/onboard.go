package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/gateway"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Interactive setup wizard for prnotify",
	Long: `Walks you through configuring prnotify:
  - Slack bot token (or dry-run mode)
  - GitHub webhook secret
  - Gateway listen address
  - Who is who: GitHub login to email mappings`,
	RunE: runOnboard,
}

func runOnboard(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println(headerStyle.Render("  prnotify · pull request activity in Slack"))
	fmt.Println(dimStyle.Render("  Answers are saved to the config file; re-run any time to change them.\n"))

	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = &config.Config{}
	}

	// --- Step 1: Slack ---
	fmt.Println(headerStyle.Render("  Step 1/4 · Slack"))
	slackToken := cfg.Slack.Token
	dryRun := cfg.Notify.DryRun
	slackForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Slack bot token").
				Description("Create an app at api.slack.com/apps with the chat:write and users:read.email scopes.").
				Placeholder("xoxb-...").
				EchoMode(huh.EchoModePassword).
				Value(&slackToken),
			huh.NewConfirm().
				Title("Dry run?").
				Description("Log messages instead of sending them. Useful while wiring up webhooks.").
				Value(&dryRun),
		),
	)
	if err := slackForm.Run(); err != nil {
		return err
	}
	cfg.Slack.Token = strings.TrimSpace(slackToken)
	cfg.Notify.DryRun = dryRun

	// --- Step 2: GitHub webhook secret ---
	fmt.Println(headerStyle.Render("\n  Step 2/4 · GitHub webhook"))
	secret := cfg.GitHub.WebhookSecret
	ghForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Webhook secret").
				Description("Paste the secret configured on GitHub, or leave blank to generate one.").
				EchoMode(huh.EchoModePassword).
				Value(&secret),
		),
	)
	if err := ghForm.Run(); err != nil {
		return err
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if secret, err = randomSecret(); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("  Generated secret: " + secret))
		fmt.Println(dimStyle.Render("  Paste it into the webhook settings on GitHub.\n"))
	}
	cfg.GitHub.WebhookSecret = secret

	// --- Step 3: Gateway ---
	fmt.Println(headerStyle.Render("\n  Step 3/4 · Gateway"))
	host := cfg.Gateway.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := strconv.Itoa(config.DefaultPort)
	if cfg.Gateway.Port != 0 {
		port = strconv.Itoa(cfg.Gateway.Port)
	}
	gwForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen host").
				Description("Use 0.0.0.0 to accept deliveries from outside this machine.").
				Value(&host),
			huh.NewInput().
				Title("Listen port").
				Value(&port).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 || n > 65535 {
						return fmt.Errorf("enter a port between 1 and 65535")
					}
					return nil
				}),
		),
	)
	if err := gwForm.Run(); err != nil {
		return err
	}
	cfg.Gateway.Host = strings.TrimSpace(host)
	cfg.Gateway.Port, _ = strconv.Atoi(strings.TrimSpace(port))

	// --- Step 4: Directory ---
	fmt.Println(headerStyle.Render("\n  Step 4/4 · Who is who"))
	fmt.Println(dimStyle.Render("  prnotify finds each person's Slack account by the email mapped to their GitHub login.\n"))
	usersText := formatUsers(cfg.Users)
	usersFile := cfg.Directory.UsersFile
	reload := cfg.Directory.ReloadSchedule
	useDB := cfg.Database.Enabled
	dirForm := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Users").
				Description("One login=email per line.").
				Placeholder("octocat=octocat@example.com").
				Value(&usersText).
				Validate(func(s string) error {
					_, err := parseUsers(s)
					return err
				}),
			huh.NewInput().
				Title("Users file (optional)").
				Description("YAML file with a users: list of login/email/slack_user_id.").
				Placeholder("~/.prnotify/users.yaml").
				Value(&usersFile),
			huh.NewInput().
				Title("Users file reload schedule (optional)").
				Description("Cron expression, e.g. @every 10m").
				Value(&reload).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return gateway.ValidateSchedule(strings.TrimSpace(s))
				}),
			huh.NewConfirm().
				Title("Use the user database?").
				Description("Enables 'prnotify users' management backed by SQLite.").
				Value(&useDB),
		),
	)
	if err := dirForm.Run(); err != nil {
		return err
	}
	cfg.Users, _ = parseUsers(usersText)
	cfg.Directory.UsersFile = strings.TrimSpace(usersFile)
	cfg.Directory.ReloadSchedule = strings.TrimSpace(reload)
	cfg.Database.Enabled = useDB

	cfgPath, _ := config.ConfigPath(cfgFile)
	if err := config.Save(cfg, cfgPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Println(successStyle.Render("  Saved " + cfgPath))
	fmt.Println(dimStyle.Render("  Next: prnotify doctor, then prnotify serve"))
	fmt.Println(dimStyle.Render(fmt.Sprintf("  Webhook URL: http://%s/webhook", cfg.Addr())))
	return nil
}

// parseUsers reads "login=email" lines. Blank lines are skipped.
func parseUsers(text string) (map[string]string, error) {
	users := make(map[string]string)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		login, email, ok := strings.Cut(line, "=")
		login, email = strings.TrimSpace(login), strings.TrimSpace(email)
		if !ok || login == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("line %d: expected login=email", i+1)
		}
		users[login] = email
	}
	return users, nil
}

func formatUsers(users map[string]string) string {
	logins := make([]string, 0, len(users))
	for l := range users {
		logins = append(logins, l)
	}
	sort.Strings(logins)
	var b strings.Builder
	for _, l := range logins {
		fmt.Fprintf(&b, "%s=%s\n", l, users[l])
	}
	return b.String()
}

func randomSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
