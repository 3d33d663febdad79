package coordinator

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/federator/pkg/errors"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
)

const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"

	reasonNoRound        = "no_round_open"
	reasonRoundAdvanced  = "round_advanced"
	reasonNoUpdates      = "no_updates"
	reasonNoValidUpdates = "no_valid_updates"
	reasonAggregateError = "aggregation_failed"
	reasonPersistError   = "persist_failed"
)

var ErrRoundInFlight = fmt.Errorf("%w: a round is already in flight", pkgerrors.ErrConflict)

// Service coordinates federated training rounds.
type Service interface {
	// FetchParameters returns the current global parameters together with
	// the round currently accepting updates.
	FetchParameters(ctx context.Context, participantID string) (Snapshot, error)
	// ParametersAt returns a previously published version.
	ParametersAt(ctx context.Context, version uint64) (fl.Parameters, error)
	// SubmitUpdate hands an update to the open round. A refused update is
	// reported in the result, not as an error.
	SubmitUpdate(ctx context.Context, u fl.Update) (SubmitResult, error)
	// AggregateNow closes the round observed at call time.
	AggregateNow(ctx context.Context) (fl.Outcome, error)
	// TriggerRound starts a round when idle. It returns ErrRoundInFlight
	// instead of waiting when one is already running.
	TriggerRound(ctx context.Context) (fl.Round, error)
	CurrentRound(ctx context.Context) (fl.Round, error)

	ListParticipants(ctx context.Context) ([]registry.Participant, error)
	JoinParticipant(ctx context.Context, p registry.Participant) (registry.Participant, error)
	LeaveParticipant(ctx context.Context, id string) error

	// Subscribe starts accepting updates over the message broker, if any.
	Subscribe(ctx context.Context) error
	// Shutdown waits for background round work to settle.
	Shutdown(ctx context.Context) error
}

// Snapshot is what a participant needs to start local training.
type Snapshot struct {
	fl.Parameters
	RoundID uint64 `json:"round_id"`
	Open    bool   `json:"open"`
}

type SubmitResult struct {
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	RoundID  uint64 `json:"round_id"`
	Received int    `json:"received"`
}

// ParameterStore is the authoritative holder of the global model.
type ParameterStore interface {
	Get() fl.Parameters
	Shape() fl.Shape
	Version() uint64
	Set(ctx context.Context, tensors fl.Tensors) (uint64, error)
	At(ctx context.Context, version uint64) (fl.Parameters, error)
}

// Registry is the set of participants rounds fan out to.
type Registry interface {
	List(ctx context.Context) []registry.Participant
	Get(ctx context.Context, id string) (registry.Participant, error)
	Join(ctx context.Context, p registry.Participant) error
	Leave(ctx context.Context, id string) error
	Mark(id string, status registry.Status, cause error)
}

type Config struct {
	// FanoutLimit bounds concurrent participant calls; zero is unbounded.
	FanoutLimit int
	// RoundWindow, when positive, lets a scheduler tick close a round
	// that has been collecting for longer.
	RoundWindow time.Duration
	// TopicPrefix roots the broker topics, e.g. "fl".
	TopicPrefix string
}

// RoundEvent is published when a round starts.
type RoundEvent struct {
	RoundID      uint64    `json:"round_id"`
	Version      uint64    `json:"version"`
	Participants []string  `json:"participants"`
	StartedAt    time.Time `json:"started_at"`
	Deadline     time.Time `json:"deadline,omitzero"`
}
