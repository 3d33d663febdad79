package storage

import (
	"fmt"
	"io"

	"github.com/absmach/federator/pkg/storage/badger"
	"github.com/absmach/federator/pkg/storage/file"
	"github.com/absmach/federator/pkg/storage/postgres"
	"github.com/absmach/federator/pkg/storage/sqlite"
)

// Config selects and configures a parameters backend. Tags are unprefixed;
// parse with env.Options{Prefix: ...} per service.
type Config struct {
	Type string `env:"STORAGE_TYPE" envDefault:"memory"`

	FileDir string `env:"STORAGE_FILE_DIR" envDefault:"./data/params"`

	BadgerPath string `env:"BADGER_PATH" envDefault:"./data/badger"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"./federator.db"`

	PostgresHost    string `env:"POSTGRES_HOST"    envDefault:"localhost"`
	PostgresPort    string `env:"POSTGRES_PORT"    envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER"    envDefault:"federator"`
	PostgresPass    string `env:"POSTGRES_PASS"    envDefault:"federator"`
	PostgresDB      string `env:"POSTGRES_DB"      envDefault:"federator"`
	PostgresSSLMode string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

type Repository struct {
	Parameters ParametersRepository
	// Closer closes the underlying persistent storage connection.
	// It is nil for the in-memory and file backends.
	Closer io.Closer
}

func NewRepository(cfg Config) (*Repository, error) {
	switch cfg.Type {
	case "memory":
		return &Repository{Parameters: NewInMemoryRepository()}, nil
	case "file":
		repo, err := file.NewRepository(cfg.FileDir)
		if err != nil {
			return nil, err
		}

		return &Repository{Parameters: repo}, nil
	case "badger":
		db, err := badger.NewDatabase(cfg.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
		}

		return &Repository{Parameters: badger.NewParametersRepository(db), Closer: db}, nil
	case "sqlite":
		db, err := sqlite.NewDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
		}

		return &Repository{Parameters: sqlite.NewParametersRepository(db), Closer: db}, nil
	case "postgres":
		db, err := postgres.NewDatabase(
			cfg.PostgresHost,
			cfg.PostgresPort,
			cfg.PostgresUser,
			cfg.PostgresPass,
			cfg.PostgresDB,
			cfg.PostgresSSLMode,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
		}

		return &Repository{Parameters: postgres.NewParametersRepository(db), Closer: db}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cfg.Type)
	}
}
