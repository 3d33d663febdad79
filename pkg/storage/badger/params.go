package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/absmach/federator/pkg/errors"
	"github.com/absmach/federator/pkg/fl"
	"github.com/dgraph-io/badger/v4"
)

const paramsPrefix = "params:"

type ParametersRepository struct {
	db *Database
}

func NewParametersRepository(db *Database) *ParametersRepository {
	return &ParametersRepository{db: db}
}

func (r *ParametersRepository) Save(_ context.Context, p fl.Parameters) error {
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return r.db.update(func(txn *badger.Txn) error {
		latest, ok, err := latestVersion(txn)
		if err != nil {
			return err
		}
		if ok && p.Version != latest+1 {
			return fmt.Errorf("%w: latest %d, got %d", pkgerrors.ErrVersionGap, latest, p.Version)
		}

		return txn.Set(paramsKey(p.Version), val)
	})
}

func (r *ParametersRepository) Latest(_ context.Context) (fl.Parameters, error) {
	_, val, err := r.db.lastWithPrefix([]byte(paramsPrefix))
	if err != nil {
		return fl.Parameters{}, err
	}

	return decode(val)
}

func (r *ParametersRepository) Get(_ context.Context, version uint64) (fl.Parameters, error) {
	val, err := r.db.get(paramsKey(version))
	if err != nil {
		return fl.Parameters{}, fmt.Errorf("version %d: %w", version, err)
	}

	return decode(val)
}

// Version keys are zero padded so lexical order equals numeric order.
func paramsKey(version uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", paramsPrefix, version)
}

func latestVersion(txn *badger.Txn) (uint64, bool, error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchValues = false
	opts.Prefix = []byte(paramsPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	it.Seek(append([]byte(paramsPrefix), 0xff))
	if !it.ValidForPrefix([]byte(paramsPrefix)) {
		return 0, false, nil
	}

	key := strings.TrimPrefix(string(it.Item().Key()), paramsPrefix)
	version, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed parameters key %q: %w", key, err)
	}

	return version, true, nil
}

func decode(val []byte) (fl.Parameters, error) {
	var p fl.Parameters
	if err := json.Unmarshal(val, &p); err != nil {
		return fl.Parameters{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return p, nil
}
