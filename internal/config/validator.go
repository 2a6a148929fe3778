package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after viper has loaded the configuration.
func ValidateConfig() error {
	var problems []string

	if viper.IsSet("post.timeout") {
		if p := timeoutProblem("post.timeout"); p != "" {
			problems = append(problems, p)
		}
	}
	if viper.IsSet("cam.generate_timeout") {
		if p := timeoutProblem("cam.generate_timeout"); p != "" {
			problems = append(problems, p)
		}
	}

	if viper.IsSet("output.base_dir") && viper.GetString("output.base_dir") == "" {
		problems = append(problems, "output.base_dir cannot be empty")
	}
	if viper.IsSet("counter.path") && viper.GetString("counter.path") == "" {
		problems = append(problems, "counter.path cannot be empty")
	}

	if viper.IsSet("journal.type") {
		switch viper.GetString("journal.type") {
		case "sqlite", "postgres", "none":
		default:
			problems = append(problems, fmt.Sprintf("journal.type must be sqlite, postgres or none, got: %q", viper.GetString("journal.type")))
		}
	}

	if viper.GetBool("metrics.enabled") {
		port := viper.GetInt("metrics.port")
		if port < 1 || port > 65535 {
			problems = append(problems, fmt.Sprintf("metrics.port must be between 1 and 65535, got: %d", port))
		}
	}

	if viper.GetBool("notifications.slack.enabled") && viper.GetString("notifications.slack.webhook") == "" {
		problems = append(problems, "notifications.slack.webhook is required when slack notifications are enabled")
	}
	if viper.GetBool("notifications.file.enabled") && viper.GetString("notifications.file.path") == "" {
		problems = append(problems, "notifications.file.path is required when file notifications are enabled")
	}

	if len(problems) > 0 {
		msg := problems[0]
		for i := 1; i < len(problems); i++ {
			msg += "\n  " + problems[i]
		}
		return fmt.Errorf("configuration validation failed:\n  %s", msg)
	}

	return nil
}

// timeoutProblem checks that a duration key parses and is not negative.
// Zero is allowed; it disables the bound.
func timeoutProblem(key string) string {
	raw := viper.GetString(key)
	if raw == "" {
		return ""
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return fmt.Sprintf("%s must not be negative, got: %s", key, raw)
		}
		return ""
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			return fmt.Sprintf("%s must not be negative, got: %s", key, raw)
		}
		return ""
	}
	return fmt.Sprintf("%s is not a valid duration: %q", key, raw)
}

// ValidateAndExit validates the configuration and exits with a non-zero code if validation fails.
// This is a convenience function that prints errors to stderr and exits.
func ValidateAndExit() {
	if err := ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
