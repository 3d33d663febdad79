// Package params holds the authoritative global model parameters.
package params

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/absmach/federator/pkg/errors"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/storage"
)

// Store publishes parameters atomically: readers always observe a complete
// version, never a partially written one.
type Store struct {
	repo    storage.ParametersRepository
	mu      sync.Mutex
	current atomic.Pointer[fl.Parameters]
}

// NewStore loads the latest persisted version. An empty repository is seeded
// with version 0 holding initial.
func NewStore(ctx context.Context, repo storage.ParametersRepository, initial fl.Tensors) (*Store, error) {
	latest, err := repo.Latest(ctx)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		latest = fl.Parameters{
			Version:   0,
			Tensors:   initial.Clone(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := repo.Save(ctx, latest); err != nil {
			return nil, fmt.Errorf("failed to seed parameters: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}

	s := &Store{repo: repo}
	s.current.Store(&latest)

	return s, nil
}

// Get returns a copy of the current parameters.
func (s *Store) Get() fl.Parameters {
	return s.current.Load().Clone()
}

func (s *Store) Shape() fl.Shape {
	return s.current.Load().Tensors.Shape()
}

func (s *Store) Version() uint64 {
	return s.current.Load().Version
}

// Set persists tensors as the next version and then publishes it.
func (s *Store) Set(ctx context.Context, tensors fl.Tensors) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fl.Parameters{
		Version:   s.current.Load().Version + 1,
		Tensors:   tensors.Clone(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return 0, fmt.Errorf("failed to persist parameters version %d: %w", next.Version, err)
	}
	s.current.Store(&next)

	return next.Version, nil
}

// At returns a historical version.
func (s *Store) At(ctx context.Context, version uint64) (fl.Parameters, error) {
	if cur := s.current.Load(); cur.Version == version {
		return cur.Clone(), nil
	}

	return s.repo.Get(ctx, version)
}

// ReadTensorsFile reads initial tensors from a JSON file holding either a
// bare array of tensors or an object with a "tensors" field.
func ReadTensorsFile(path string) (fl.Tensors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read initial parameters: %w", err)
	}

	var tensors fl.Tensors
	if err := json.Unmarshal(data, &tensors); err == nil {
		return tensors, nil
	}

	var doc struct {
		Tensors fl.Tensors `json:"tensors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode initial parameters: %w", err)
	}

	return doc.Tensors, nil
}
