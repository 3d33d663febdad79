// Package participant runs the local side of federated rounds: it answers
// coordinator triggers by training on the current global parameters and
// keeps a copy of every model pushed back to it.
package participant

import (
	"context"
	"errors"
	"time"

	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/sdk"
)

const DefTrainTimeout = 25 * time.Second

var (
	ErrBusy        = errors.New("a local round is already running")
	ErrStaleModel  = errors.New("pushed model is older than the local one")
	ErrEmptyResult = errors.New("trainer returned no tensors")
)

// Trainer produces a local update from the global parameters.
type Trainer interface {
	Train(ctx context.Context, req TrainRequest) (TrainResult, error)
}

// TrainRequest is written to the trainer's standard input.
type TrainRequest struct {
	ParticipantID string     `json:"participant_id"`
	RoundID       uint64     `json:"round_id"`
	Version       uint64     `json:"version"`
	Tensors       fl.Tensors `json:"tensors"`
}

// TrainResult is read from the trainer's standard output.
type TrainResult struct {
	Tensors    fl.Tensors `json:"tensors"`
	NumSamples uint64     `json:"num_samples,omitempty"`
}

// Coordinator is the part of the coordinator API a participant calls.
type Coordinator interface {
	FetchParameters(participantID string) (sdk.Parameters, error)
	ParametersAt(version uint64) (sdk.Parameters, error)
	SubmitUpdate(u fl.Update) (sdk.SubmitResult, error)
	JoinParticipant(p sdk.Participant) (sdk.Participant, error)
}

type Service interface {
	// Trigger starts one local round in the background. It returns ErrBusy
	// while a previous round is still running.
	Trigger(ctx context.Context, roundID uint64) error
	// ReceiveModel stores parameters pushed by the coordinator.
	ReceiveModel(ctx context.Context, p fl.Parameters) error
	// Model returns the latest locally stored parameters.
	Model(ctx context.Context) (fl.Parameters, error)
	// Register announces this participant to the coordinator.
	Register(ctx context.Context) error
	// Shutdown waits for a running local round.
	Shutdown(ctx context.Context) error
}

type Config struct {
	ID           string
	AdvertiseURL string
	TrainTimeout time.Duration
}
