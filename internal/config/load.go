package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"perfgate/internal/notify"
	"perfgate/internal/store"
	"perfgate/internal/threshold"
)

// EnvPrefix is prepended to every environment override, e.g. PERFGATE_BRANCH.
const EnvPrefix = "PERFGATE"

// Load initializes the configuration from file and environment variables.
// A missing config.yaml is not an error; a missing explicit cfgFile is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("perfgate")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// SetDefaults registers the default value of every known key.
func SetDefaults() {
	viper.SetDefault("branch", "main")
	viper.SetDefault("testbed", "localhost")
	viper.SetDefault("adapter", "magic")
	viper.SetDefault("iter", 1)
	viper.SetDefault("store.type", "sqlite")
	viper.SetDefault("store.dsn", store.DefaultPath)
	viper.SetDefault("metrics_enabled", false)
	viper.SetDefault("metrics_port", 2112)
	viper.SetDefault("verbose", false)

	// Notification defaults
	slackToken := os.Getenv("SLACK_BOT_USER_TOKEN")
	viper.SetDefault("notifications.slack.enabled", slackToken != "")
	viper.SetDefault("notifications.slack.token", slackToken)
	viper.SetDefault("notifications.slack.channel", "#general")
	viper.SetDefault("notifications.discord.enabled", false)
	viper.SetDefault("notifications.discord.webhook_url", os.Getenv("DISCORD_WEBHOOK_URL"))
}

// Thresholds decodes the thresholds list.
func Thresholds() ([]threshold.Spec, error) {
	var specs []threshold.Spec
	if !viper.IsSet("thresholds") {
		return nil, nil
	}
	if err := viper.UnmarshalKey("thresholds", &specs); err != nil {
		return nil, fmt.Errorf("decode thresholds: %w", err)
	}
	return specs, nil
}

// MetricsAddr returns the address the metrics server listens on. An explicit
// address wins; otherwise metrics_enabled serves on metrics_port on every
// interface. Empty means no server.
func MetricsAddr(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if viper.GetBool("metrics_enabled") {
		return fmt.Sprintf(":%d", viper.GetInt("metrics_port"))
	}
	return ""
}

// Store returns the configured storage backend.
func Store() store.Config {
	return store.Config{
		Type: viper.GetString("store.type"),
		DSN:  viper.GetString("store.dsn"),
	}
}

// Notifications returns the configured notification providers.
func Notifications() notify.Config {
	return notify.Config{
		SlackEnabled:      viper.GetBool("notifications.slack.enabled"),
		SlackToken:        viper.GetString("notifications.slack.token"),
		SlackChannel:      viper.GetString("notifications.slack.channel"),
		SlackWebhookURL:   viper.GetString("notifications.slack.webhook_url"),
		SlackAPIURL:       viper.GetString("notifications.slack.api_url"),
		DiscordEnabled:    viper.GetBool("notifications.discord.enabled"),
		DiscordWebhookURL: viper.GetString("notifications.discord.webhook_url"),
	}
}
