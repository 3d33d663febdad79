package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/absmach/federator/pkg/errors"
	"github.com/absmach/federator/pkg/fl"
)

const fileTemplate = "params_v%d.json"

// Repository keeps one JSON document per parameters version in a directory.
type Repository struct {
	dir string
	mu  sync.RWMutex
}

func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create parameters directory: %w", err)
	}

	return &Repository{dir: dir}, nil
}

func (r *Repository) Save(_ context.Context, p fl.Parameters) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	versions, err := r.versions()
	if err != nil {
		return err
	}
	if latest, ok := maxVersion(versions); ok && p.Version != latest+1 {
		return fmt.Errorf("%w: latest %d, got %d", errors.ErrVersionGap, latest, p.Version)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	// Write then rename so a crash never leaves a truncated version behind.
	path := r.path(p.Version)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write parameters file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit parameters file: %w", err)
	}

	return nil
}

func (r *Repository) Latest(ctx context.Context) (fl.Parameters, error) {
	r.mu.RLock()
	versions, err := r.versions()
	r.mu.RUnlock()
	if err != nil {
		return fl.Parameters{}, err
	}

	latest, ok := maxVersion(versions)
	if !ok {
		return fl.Parameters{}, errors.ErrNotFound
	}

	return r.Get(ctx, latest)
}

func (r *Repository) Get(_ context.Context, version uint64) (fl.Parameters, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path(version))
	if err != nil {
		if os.IsNotExist(err) {
			return fl.Parameters{}, fmt.Errorf("%w: version %d", errors.ErrNotFound, version)
		}

		return fl.Parameters{}, fmt.Errorf("failed to read parameters file: %w", err)
	}

	var p fl.Parameters
	if err := json.Unmarshal(data, &p); err != nil {
		return fl.Parameters{}, fmt.Errorf("failed to unmarshal parameters: %w", err)
	}

	return p, nil
}

func (r *Repository) path(version uint64) string {
	return filepath.Join(r.dir, fmt.Sprintf(fileTemplate, version))
}

func (r *Repository) versions() ([]uint64, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}

	var versions []uint64
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		var version uint64
		if _, err := fmt.Sscanf(entry.Name(), fileTemplate, &version); err == nil {
			versions = append(versions, version)
		}
	}

	return versions, nil
}

func maxVersion(versions []uint64) (uint64, bool) {
	if len(versions) == 0 {
		return 0, false
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		latest = max(latest, v)
	}

	return latest, true
}
