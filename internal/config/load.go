package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load initializes the configuration from file and environment variables.
// Precedence: explicit viper.Set > CAMPIPE_* environment > config file >
// defaults. A missing config file is not an error; defaults carry the run.
func Load(cfgFile string) {
	// explicit .env loading, missing file is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CAMPIPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Honor a bare SLACK_WEBHOOK_URL when the prefixed variable is not set.
	if os.Getenv("CAMPIPE_NOTIFICATIONS_SLACK_WEBHOOK") == "" && os.Getenv("SLACK_WEBHOOK_URL") != "" {
		viper.SetDefault("notifications.slack.webhook", os.Getenv("SLACK_WEBHOOK_URL"))
	}

	// Set defaults
	viper.SetDefault("output.base_dir", "output")
	viper.SetDefault("output.include_timestamp", false)
	viper.SetDefault("post.config", "richauto.cps")
	viper.SetDefault("post.timeout", "60s")
	viper.SetDefault("cam.generate_timeout", "300s")
	viper.SetDefault("counter.path", "nc_program_counter.txt")
	viper.SetDefault("models.dir", "models")
	viper.SetDefault("journal.type", "sqlite")
	viper.SetDefault("journal.dsn", "campipe.db")
	viper.SetDefault("schema.path", "schema.json")
	viper.SetDefault("log.file", "")
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.port", 2112)
	viper.SetDefault("verbose", false)

	// Notification Defaults
	slackEnabled := viper.GetString("notifications.slack.webhook") != ""
	viper.SetDefault("notifications.slack.enabled", slackEnabled)
	viper.SetDefault("notifications.slack.channel", "#shop-floor")
	viper.SetDefault("notifications.file.enabled", false)
	viper.SetDefault("notifications.file.path", "notifications.log")
	viper.SetDefault("notifications.events.on_order_start", true)
	viper.SetDefault("notifications.events.on_order_success", true)
	viper.SetDefault("notifications.events.on_order_partial", true)
	viper.SetDefault("notifications.events.on_order_failure", true)
	viper.SetDefault("notifications.events.on_component_failure", true)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
