package config

import (
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Settings is a snapshot of the configuration the pipeline consumes.
type Settings struct {
	OutputBaseDir    string
	IncludeTimestamp bool
	PostConfig       string
	PostTimeout      time.Duration
	GenerateTimeout  time.Duration
	CounterPath      string
	ModelsDir        string
	JournalType      string
	JournalDSN       string
	SchemaPath       string
	LogFile          string
	Verbose          bool
}

// Current reads the pipeline settings out of viper.
func Current() Settings {
	return Settings{
		OutputBaseDir:    viper.GetString("output.base_dir"),
		IncludeTimestamp: viper.GetBool("output.include_timestamp"),
		PostConfig:       viper.GetString("post.config"),
		PostTimeout:      Timeout("post.timeout"),
		GenerateTimeout:  Timeout("cam.generate_timeout"),
		CounterPath:      viper.GetString("counter.path"),
		ModelsDir:        viper.GetString("models.dir"),
		JournalType:      viper.GetString("journal.type"),
		JournalDSN:       viper.GetString("journal.dsn"),
		SchemaPath:       viper.GetString("schema.path"),
		LogFile:          viper.GetString("log.file"),
		Verbose:          viper.GetBool("verbose"),
	}
}

// Timeout reads a duration key, treating bare numbers as seconds. Unset,
// zero or unparseable values come back as 0, which disables the bound.
func Timeout(key string) time.Duration {
	raw := viper.GetString(key)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return 0
}
