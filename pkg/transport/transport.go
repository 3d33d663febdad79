// Package transport carries coordinator to participant calls.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
	"golang.org/x/sync/errgroup"
)

const (
	OpTrigger = "trigger"
	OpPush    = "push-parameters"

	RoundIDKey = "round_id"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client notifies participants. Every call is bounded by its own timeout.
type Client interface {
	Trigger(ctx context.Context, p registry.Participant, roundID uint64) error
	PushParameters(ctx context.Context, p registry.Participant, params fl.Parameters) error
}

// PushRequest is the body of a push-parameters call.
type PushRequest struct {
	Weights fl.Tensors `json:"weights"`
	Version uint64     `json:"version"`
}

// TriggerResponse is what a participant answers to a trigger.
type TriggerResponse struct {
	Status  string `json:"status"`
	RoundID uint64 `json:"round_id"`
}

// TransportError describes a failed call to one participant.
type TransportError struct {
	ParticipantID string
	Op            string
	StatusCode    int
	Err           error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s to participant %q failed with status %d: %s", e.Op, e.ParticipantID, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s to participant %q failed: %s", e.Op, e.ParticipantID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call ran out of time.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error

	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Result is the outcome of one fan-out call.
type Result struct {
	Participant registry.Participant
	Err         error
	Duration    time.Duration
}

// Fanout calls fn for every participant concurrently, at most limit at a
// time when limit is positive. A failing participant never affects the
// others; results keep the order of participants.
func Fanout(ctx context.Context, participants []registry.Participant, limit int, fn func(context.Context, registry.Participant) error) []Result {
	results := make([]Result, len(participants))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range participants {
		g.Go(func() error {
			start := time.Now()
			err := fn(ctx, p)
			results[i] = Result{
				Participant: p,
				Err:         err,
				Duration:    time.Since(start),
			}

			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed returns the ids of participants whose call failed.
func Failed(results []Result) []string {
	var ids []string
	for _, r := range results {
		if r.Err != nil {
			ids = append(ids, r.Participant.ID)
		}
	}

	return ids
}
