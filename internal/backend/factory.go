package backend

import (
	"context"
	"fmt"
	"log/slog"

	"schoolledger/internal/repo/memory"
	"schoolledger/internal/sheets"
	gsheet "schoolledger/internal/sheets/google"
	sheetsmem "schoolledger/internal/sheets/memory"
	"schoolledger/internal/storage"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		r, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &Result{Repository: r, Cleanup: r.Close}, nil

	case PostgresBackend:
		r, err := storage.NewPostgresRepository(config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("initialize PostgreSQL repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized PostgreSQL backend")
		return &Result{Repository: r, Cleanup: r.Close}, nil

	default:
		return f.createMemoryBackend(ctx, config)
	}
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	if config.SeedFile == "" {
		f.logger.InfoContext(ctx, "Initialized empty memory backend")
		return &Result{Repository: memory.New(), Cleanup: nil}, nil
	}

	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("seed memory backend: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.SeedFile)
	return &Result{Repository: store, Cleanup: nil}, nil
}

func (f *DefaultFactory) CreateReportWriter(ctx context.Context, config WriterConfig) (sheets.ReportWriter, error) {
	switch config.Type {
	case GoogleWriter:
		c, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		return c, nil

	case MemoryWriter:
		if config.OutputDir == "" {
			f.logger.InfoContext(ctx, "Report tabs kept in memory only")
			return sheetsmem.New(), nil
		}
		s, err := sheetsmem.NewWithDir(config.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("initialize CSV report writer: %w", err)
		}
		f.logger.InfoContext(ctx, "Report tabs written as CSV", "dir", config.OutputDir)
		return s, nil

	default:
		return nil, fmt.Errorf("invalid sheets backend: %s", config.Type)
	}
}
