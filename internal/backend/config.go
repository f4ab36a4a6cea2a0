package backend

import (
	"errors"
	"fmt"

	"schoolledger/internal/config"
)

// FromAppConfig extracts the storage and writer settings.
func FromAppConfig(appConfig *config.Config) (Config, WriterConfig, error) {
	if appConfig == nil {
		return Config{}, WriterConfig{}, errors.New("app config is nil")
	}

	c := Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresURL:  appConfig.PostgresURL,
		SeedFile:     appConfig.MemorySeedFile,
	}
	w := WriterConfig{
		Type:      WriterType(appConfig.SheetsBackend),
		OutputDir: appConfig.SheetsOutputDir,
	}
	if err := c.Validate(); err != nil {
		return Config{}, WriterConfig{}, err
	}
	if !w.Type.IsValid() {
		return Config{}, WriterConfig{}, fmt.Errorf("invalid sheets backend: %s", w.Type)
	}
	return c, w, nil
}

func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return errors.New("DATABASE_URL is required for postgres backend")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, PostgresBackend, MemoryBackend}
}
