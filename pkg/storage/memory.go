package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/absmach/federator/pkg/errors"
	"github.com/absmach/federator/pkg/fl"
)

var _ ParametersRepository = (*inMemoryRepository)(nil)

type inMemoryRepository struct {
	sync.RWMutex

	versions map[uint64]fl.Parameters
	latest   uint64
	empty    bool
}

func NewInMemoryRepository() ParametersRepository {
	return &inMemoryRepository{
		versions: make(map[uint64]fl.Parameters),
		empty:    true,
	}
}

func (r *inMemoryRepository) Save(_ context.Context, p fl.Parameters) error {
	r.Lock()
	defer r.Unlock()

	if !r.empty && p.Version != r.latest+1 {
		return fmt.Errorf("%w: latest %d, got %d", errors.ErrVersionGap, r.latest, p.Version)
	}

	r.versions[p.Version] = p.Clone()
	r.latest = p.Version
	r.empty = false

	return nil
}

func (r *inMemoryRepository) Latest(_ context.Context) (fl.Parameters, error) {
	r.RLock()
	defer r.RUnlock()

	if r.empty {
		return fl.Parameters{}, errors.ErrNotFound
	}

	return r.versions[r.latest].Clone(), nil
}

func (r *inMemoryRepository) Get(_ context.Context, version uint64) (fl.Parameters, error) {
	r.RLock()
	defer r.RUnlock()

	p, ok := r.versions[version]
	if !ok {
		return fl.Parameters{}, fmt.Errorf("%w: version %d", errors.ErrNotFound, version)
	}

	return p.Clone(), nil
}
