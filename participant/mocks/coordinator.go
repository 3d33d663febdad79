package mocks

import (
	"context"

	"github.com/absmach/federator/participant"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/sdk"
	"github.com/stretchr/testify/mock"
)

var (
	_ participant.Coordinator = (*Coordinator)(nil)
	_ participant.Trainer     = (*Trainer)(nil)
)

type Coordinator struct {
	mock.Mock
}

func (m *Coordinator) FetchParameters(participantID string) (sdk.Parameters, error) {
	args := m.Called(participantID)

	return args.Get(0).(sdk.Parameters), args.Error(1)
}

func (m *Coordinator) ParametersAt(version uint64) (sdk.Parameters, error) {
	args := m.Called(version)

	return args.Get(0).(sdk.Parameters), args.Error(1)
}

func (m *Coordinator) SubmitUpdate(u fl.Update) (sdk.SubmitResult, error) {
	args := m.Called(u)

	return args.Get(0).(sdk.SubmitResult), args.Error(1)
}

func (m *Coordinator) JoinParticipant(p sdk.Participant) (sdk.Participant, error) {
	args := m.Called(p)

	return args.Get(0).(sdk.Participant), args.Error(1)
}

type Trainer struct {
	mock.Mock
}

func (m *Trainer) Train(ctx context.Context, req participant.TrainRequest) (participant.TrainResult, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(participant.TrainResult), args.Error(1)
}
