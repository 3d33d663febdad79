package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/federator/pkg/errors"
	"github.com/absmach/federator/pkg/fl"
)

type dbParameters struct {
	Version   int64     `db:"version"`
	Tensors   string    `db:"tensors"`
	UpdatedAt time.Time `db:"updated_at"`
}

type ParametersRepository struct {
	db *Database
}

func NewParametersRepository(db *Database) *ParametersRepository {
	return &ParametersRepository{db: db}
}

func (r *ParametersRepository) Save(ctx context.Context, p fl.Parameters) error {
	tensors, err := json.Marshal(p.Tensors)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var latest sql.NullInt64
	if err := tx.GetContext(ctx, &latest, `SELECT MAX(version) FROM parameters`); err != nil {
		return fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	if latest.Valid && int64(p.Version) != latest.Int64+1 {
		return fmt.Errorf("%w: latest %d, got %d", pkgerrors.ErrVersionGap, latest.Int64, p.Version)
	}

	query := `INSERT INTO parameters (version, tensors, updated_at) VALUES (:version, :tensors, :updated_at)`
	row := dbParameters{
		Version:   int64(p.Version),
		Tensors:   string(tensors),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *ParametersRepository) Latest(ctx context.Context) (fl.Parameters, error) {
	return r.one(ctx, `SELECT version, tensors, updated_at FROM parameters ORDER BY version DESC LIMIT 1`)
}

func (r *ParametersRepository) Get(ctx context.Context, version uint64) (fl.Parameters, error) {
	p, err := r.one(ctx, `SELECT version, tensors, updated_at FROM parameters WHERE version = ?`, int64(version))
	if err != nil {
		return fl.Parameters{}, fmt.Errorf("version %d: %w", version, err)
	}

	return p, nil
}

func (r *ParametersRepository) one(ctx context.Context, query string, args ...any) (fl.Parameters, error) {
	var row dbParameters
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fl.Parameters{}, pkgerrors.ErrNotFound
		}

		return fl.Parameters{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var tensors fl.Tensors
	if err := json.Unmarshal([]byte(row.Tensors), &tensors); err != nil {
		return fl.Parameters{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return fl.Parameters{
		Version:   uint64(row.Version),
		Tensors:   tensors,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
