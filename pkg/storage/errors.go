package storage

import "errors"

var (
	ErrDBConnection = errors.New("database connection error")
	ErrUnsupported  = errors.New("unsupported storage type")
)
