package badger

import (
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/federator/pkg/errors"
	"github.com/dgraph-io/badger/v4"
)

var (
	ErrDBConnection = errors.New("badger database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrUpdate       = errors.New("update error")
)

type Database struct {
	db *badger.DB
}

func NewDatabase(path string) (*Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) get(key []byte) ([]byte, error) {
	var val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, pkgerrors.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return val, nil
}

// update runs fn in a read-write transaction.
func (d *Database) update(fn func(txn *badger.Txn) error) error {
	if err := d.db.Update(fn); err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

// lastWithPrefix returns the key and value of the lexically greatest key
// under prefix.
func (d *Database) lastWithPrefix(prefix []byte) ([]byte, []byte, error) {
	var key, val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the greatest key <= target.
		it.Seek(append(append([]byte{}, prefix...), 0xff))
		if !it.ValidForPrefix(prefix) {
			return pkgerrors.ErrNotFound
		}

		item := it.Item()
		key = item.KeyCopy(nil)
		var err error
		val, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, nil, err
		}

		return nil, nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return key, val, nil
}
