package fl

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput      = errors.New("no updates to aggregate")
	ErrShapeMismatch   = errors.New("update shape does not match model shape")
	ErrEmptyTensors    = errors.New("update carries an empty tensor")
	ErrNonFinite       = errors.New("update carries a non-finite value")
	ErrStaleRound      = errors.New("update targets a round that is not open")
	ErrDuplicateUpdate = errors.New("participant already submitted for this round")
	ErrRoundClosed     = errors.New("no round is accepting updates")
)

// Rejection reasons reported back to participants.
const (
	ReasonStaleRound  = "stale_round"
	ReasonDuplicate   = "duplicate"
	ReasonRoundClosed = "round_closed"
)

// RejectedUpdateError is returned when the collector refuses an update.
type RejectedUpdateError struct {
	ParticipantID string
	RoundID       uint64
	OpenRoundID   uint64
	Reason        string
	Err           error
}

func (e *RejectedUpdateError) Error() string {
	return fmt.Sprintf("update from %q for round %d rejected (open round %d): %s", e.ParticipantID, e.RoundID, e.OpenRoundID, e.Err)
}

func (e *RejectedUpdateError) Unwrap() error {
	return e.Err
}

// ExcludedUpdateError marks an update left out of aggregation. Err is
// ErrShapeMismatch or ErrNonFinite.
type ExcludedUpdateError struct {
	ParticipantID string
	Expected      Shape
	Got           Shape
	Err           error
}

func (e *ExcludedUpdateError) Error() string {
	if errors.Is(e.Err, ErrShapeMismatch) {
		return fmt.Sprintf("update from %q has shape %s, expected %s", e.ParticipantID, e.Got, e.Expected)
	}

	return fmt.Sprintf("update from %q excluded: %s", e.ParticipantID, e.Err)
}

func (e *ExcludedUpdateError) Unwrap() error {
	return e.Err
}
