package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"perfgate/internal/adapter"
	"perfgate/internal/fold"
)

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after viper has loaded the configuration.
func ValidateConfig() error {
	var errors []string

	if viper.IsSet("iter") {
		if iter := viper.GetInt("iter"); iter < 1 {
			errors = append(errors, fmt.Sprintf("iter must be at least 1, got: %d", iter))
		}
	}

	if viper.IsSet("adapter") {
		if _, err := adapter.ParseKind(viper.GetString("adapter")); err != nil {
			errors = append(errors, fmt.Sprintf("adapter: %v", err))
		}
	}

	if viper.IsSet("average") {
		if _, err := adapter.ParseAverage(viper.GetString("average")); err != nil {
			errors = append(errors, fmt.Sprintf("average: %v", err))
		}
	}

	if viper.IsSet("fold") {
		if _, err := fold.ParseOp(viper.GetString("fold")); err != nil {
			errors = append(errors, fmt.Sprintf("fold: %v", err))
		}
	}

	if viper.IsSet("metrics_port") {
		port := viper.GetInt("metrics_port")
		if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("metrics_port must be between 1 and 65535, got: %d", port))
		}
	}

	if viper.IsSet("store.type") {
		switch t := strings.ToLower(viper.GetString("store.type")); t {
		case "sqlite", "sqlite3", "postgres", "postgresql":
		default:
			errors = append(errors, fmt.Sprintf("store.type must be sqlite or postgres, got: %s", t))
		}
	}

	specs, err := Thresholds()
	if err != nil {
		errors = append(errors, err.Error())
	}
	for i, s := range specs {
		if err := s.Validate(); err != nil {
			errors = append(errors, fmt.Sprintf("thresholds[%d]: %v", i, err))
		}
	}

	if viper.GetBool("notifications.discord.enabled") && viper.GetString("notifications.discord.webhook_url") == "" {
		errors = append(errors, "notifications.discord.webhook_url is required when discord is enabled")
	}

	// If there are any errors, return them
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errors, "\n  "))
	}

	return nil
}
