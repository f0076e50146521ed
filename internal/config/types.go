package config

// Config is the root configuration structure for prnotify.
// Serialised to ~/.prnotify/config.json.
type Config struct {
	Slack     SlackConfig       `mapstructure:"slack"     json:"slack"`
	GitHub    GitHubConfig      `mapstructure:"github"    json:"github"`
	Users     map[string]string `mapstructure:"users"     json:"users"`
	Directory DirectoryConfig   `mapstructure:"directory" json:"directory"`
	Database  DatabaseConfig    `mapstructure:"database"  json:"database"`
	Gateway   GatewayConfig     `mapstructure:"gateway"   json:"gateway"`
	Notify    NotifyConfig      `mapstructure:"notify"    json:"notify"`
}

// SlackConfig holds the bot credential used to send direct messages.
type SlackConfig struct {
	// Token is a bot token (xoxb-...) with chat:write and users:read.email scopes.
	Token string `mapstructure:"token"   json:"token"`
	// APIURL overrides https://slack.com/api/ (tests, proxies).
	APIURL string `mapstructure:"api_url" json:"api_url"`
}

// GitHubConfig controls how webhook deliveries are accepted.
type GitHubConfig struct {
	// WebhookSecret enables X-Hub-Signature-256 verification when non-empty.
	WebhookSecret string `mapstructure:"webhook_secret" json:"webhook_secret"`
	// Token authenticates profile lookups (directory.github_lookup). Optional.
	Token string `mapstructure:"token"          json:"token"`
	// Host is github.com or a GitHub Enterprise hostname.
	Host string `mapstructure:"host"           json:"host"`
}

// DirectoryConfig points at extra sources of login → contact mappings.
type DirectoryConfig struct {
	// UsersFile is an optional YAML file of users (see directory.File).
	UsersFile string `mapstructure:"users_file"      json:"users_file"`
	// ReloadSchedule is a cron expression ("@every 10m") for re-reading UsersFile.
	ReloadSchedule string `mapstructure:"reload_schedule" json:"reload_schedule"`
	// GitHubLookup falls back to the public email on a login's GitHub profile.
	GitHubLookup bool `mapstructure:"github_lookup"   json:"github_lookup"`
}

// DatabaseConfig controls the optional user directory database.
type DatabaseConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver"  json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"    json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"     json:"dsn"`
}

// GatewayConfig controls the webhook HTTP listener.
type GatewayConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// NotifyConfig selects the transports message batches are handed to.
type NotifyConfig struct {
	// DryRun logs messages instead of sending them through any channel.
	DryRun  bool                `mapstructure:"dry_run" json:"dry_run"`
	Email   EmailNotifyConfig   `mapstructure:"email"   json:"email"`
	Webhook WebhookNotifyConfig `mapstructure:"webhook" json:"webhook"`
}

// EmailNotifyConfig mails each message to the recipient's directory address.
type EmailNotifyConfig struct {
	SMTPHost string `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" json:"smtp_port"`
	Username string `mapstructure:"username"  json:"username"`
	Password string `mapstructure:"password"  json:"password"`
	From     string `mapstructure:"from"      json:"from"`
	UseTLS   bool   `mapstructure:"use_tls"   json:"use_tls"`
}

// WebhookNotifyConfig relays message batches to a generic HTTP endpoint.
type WebhookNotifyConfig struct {
	URL    string `mapstructure:"url"    json:"url"`
	Secret string `mapstructure:"secret" json:"secret"`
}
