// Package backend builds the ledger repository and the report sheet writer
// selected by configuration.
package backend

import (
	"context"

	"schoolledger/internal/repo"
	"schoolledger/internal/sheets"
)

type CleanupFunc func() error

// Result holds a repository and the function releasing it.
type Result struct {
	Repository repo.Repository
	Cleanup    CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
	CreateReportWriter(ctx context.Context, config WriterConfig) (sheets.ReportWriter, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresURL  string

	// SeedFile optionally preloads the memory backend from YAML.
	SeedFile string
}

type WriterConfig struct {
	Type WriterType

	// OutputDir makes the memory writer also write CSV files.
	OutputDir string
}

type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

type WriterType string

const (
	GoogleWriter WriterType = "google"
	MemoryWriter WriterType = "memory"
)

func (wt WriterType) IsValid() bool {
	return wt == GoogleWriter || wt == MemoryWriter
}
