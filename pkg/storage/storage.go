package storage

import (
	"context"

	"github.com/absmach/federator/pkg/fl"
)

// ParametersRepository persists every published version of the global
// model. Implementations return errors wrapping pkg/errors.ErrNotFound for
// unknown versions and ErrVersionGap when a save does not extend the
// history by exactly one.
type ParametersRepository interface {
	Save(ctx context.Context, p fl.Parameters) error
	Latest(ctx context.Context) (fl.Parameters, error)
	Get(ctx context.Context, version uint64) (fl.Parameters, error)
}
