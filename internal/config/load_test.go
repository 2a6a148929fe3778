package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	defer viper.Reset()

	t.Run("Defaults", func(t *testing.T) {
		viper.Reset()
		Load("")

		assert.Equal(t, "output", viper.GetString("output.base_dir"))
		assert.Equal(t, "richauto.cps", viper.GetString("post.config"))
		assert.Equal(t, "nc_program_counter.txt", viper.GetString("counter.path"))
		assert.Equal(t, "models", viper.GetString("models.dir"))
		assert.Equal(t, "sqlite", viper.GetString("journal.type"))
		assert.Equal(t, 2112, viper.GetInt("metrics.port"))
		assert.False(t, viper.GetBool("output.include_timestamp"))
		assert.False(t, viper.GetBool("metrics.enabled"))
		assert.True(t, viper.GetBool("notifications.events.on_order_failure"))
		assert.True(t, viper.GetBool("notifications.events.on_component_failure"))
	})

	t.Run("EnvOverride", func(t *testing.T) {
		viper.Reset()
		t.Setenv("CAMPIPE_POST_CONFIG", "fanuc.cps")
		t.Setenv("CAMPIPE_OUTPUT_BASE_DIR", "/var/nc")

		Load("")
		assert.Equal(t, "fanuc.cps", viper.GetString("post.config"))
		assert.Equal(t, "/var/nc", viper.GetString("output.base_dir"))
	})

	t.Run("SlackWebhookEnv", func(t *testing.T) {
		viper.Reset()
		t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.example.com/services/T0/B0/x")

		Load("")
		assert.True(t, viper.GetBool("notifications.slack.enabled"))
		assert.Equal(t, "https://hooks.example.com/services/T0/B0/x",
			viper.GetString("notifications.slack.webhook"))
	})

	t.Run("SlackDisabledWithoutWebhook", func(t *testing.T) {
		viper.Reset()
		Load("")
		assert.False(t, viper.GetBool("notifications.slack.enabled"))
	})

	t.Run("ConfigFile", func(t *testing.T) {
		viper.Reset()
		cfg := filepath.Join(t.TempDir(), "campipe.yaml")
		content := "post:\n  timeout: 90s\noutput:\n  base_dir: nc_out\n"
		require.NoError(t, os.WriteFile(cfg, []byte(content), 0644))

		Load(cfg)
		assert.Equal(t, "nc_out", viper.GetString("output.base_dir"))
		assert.Equal(t, 90*time.Second, Timeout("post.timeout"))
		// Untouched keys keep their defaults.
		assert.Equal(t, "richauto.cps", viper.GetString("post.config"))
	})
}

func TestTimeout(t *testing.T) {
	defer viper.Reset()

	tests := []struct {
		name  string
		value interface{}
		want  time.Duration
	}{
		{"DurationString", "60s", 60 * time.Second},
		{"Minutes", "2m", 2 * time.Minute},
		{"BareInt", 120, 120 * time.Second},
		{"BareIntString", "45", 45 * time.Second},
		{"Zero", 0, 0},
		{"Garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			viper.Set("some.timeout", tt.value)
			if got := Timeout("some.timeout"); got != tt.want {
				t.Errorf("Timeout(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	t.Run("Unset", func(t *testing.T) {
		viper.Reset()
		if got := Timeout("some.timeout"); got != 0 {
			t.Errorf("Timeout(unset) = %v, want 0", got)
		}
	})
}

func TestCurrent(t *testing.T) {
	defer viper.Reset()
	viper.Reset()
	Load("")
	viper.Set("journal.dsn", "/tmp/runs.db")
	viper.Set("output.include_timestamp", true)

	s := Current()
	assert.Equal(t, "output", s.OutputBaseDir)
	assert.True(t, s.IncludeTimestamp)
	assert.Equal(t, "richauto.cps", s.PostConfig)
	assert.Equal(t, 60*time.Second, s.PostTimeout)
	assert.Equal(t, 5*time.Minute, s.GenerateTimeout)
	assert.Equal(t, "nc_program_counter.txt", s.CounterPath)
	assert.Equal(t, "sqlite", s.JournalType)
	assert.Equal(t, "/tmp/runs.db", s.JournalDSN)
}
