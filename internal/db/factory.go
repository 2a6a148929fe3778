package db

import (
	"fmt"
	"strings"
)

// StoreConfig holds configuration for the journal backend
type StoreConfig struct {
	Type string // "sqlite", "postgres" or "none"
	DSN  string // file path for SQLite, connection string for Postgres
}

// NewStore creates a new Store instance based on the provided configuration
func NewStore(config StoreConfig) (Store, error) {
	switch strings.ToLower(config.Type) {
	case "postgres", "postgresql":
		if config.DSN == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(config.DSN)
	case "sqlite", "sqlite3", "":
		dsn := config.DSN
		if dsn == "" {
			dsn = "campipe.db"
		}
		return NewSQLiteStore(dsn)
	case "none":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported journal type: %s", config.Type)
	}
}

// NopStore discards every write. It backs journal.type "none".
type NopStore struct{}

func (NopStore) Close() error                                    { return nil }
func (NopStore) CreateRun(Run) error                             { return nil }
func (NopStore) FinishRun(string, string, string, int) error     { return nil }
func (NopStore) SaveComponent(ComponentRecord) error             { return nil }
func (NopStore) SaveProgram(ProgramRecord) error                 { return nil }
func (NopStore) RecentRuns(int) ([]Run, error)                   { return nil, nil }
func (NopStore) GetRun(id string) (Run, error)                   { return Run{}, fmt.Errorf("run not found: %s", id) }
func (NopStore) RunComponents(string) ([]ComponentRecord, error) { return nil, nil }
func (NopStore) RunPrograms(string) ([]ProgramRecord, error)     { return nil, nil }

var _ Store = NopStore{}
