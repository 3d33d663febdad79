package mocks

import (
	"context"

	"github.com/absmach/federator/coordinator"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
	"github.com/stretchr/testify/mock"
)

var _ coordinator.Service = (*Service)(nil)

type Service struct {
	mock.Mock
}

func (m *Service) FetchParameters(ctx context.Context, participantID string) (coordinator.Snapshot, error) {
	args := m.Called(ctx, participantID)

	return args.Get(0).(coordinator.Snapshot), args.Error(1)
}

func (m *Service) ParametersAt(ctx context.Context, version uint64) (fl.Parameters, error) {
	args := m.Called(ctx, version)

	return args.Get(0).(fl.Parameters), args.Error(1)
}

func (m *Service) SubmitUpdate(ctx context.Context, u fl.Update) (coordinator.SubmitResult, error) {
	args := m.Called(ctx, u)

	return args.Get(0).(coordinator.SubmitResult), args.Error(1)
}

func (m *Service) AggregateNow(ctx context.Context) (fl.Outcome, error) {
	args := m.Called(ctx)

	return args.Get(0).(fl.Outcome), args.Error(1)
}

func (m *Service) TriggerRound(ctx context.Context) (fl.Round, error) {
	args := m.Called(ctx)

	return args.Get(0).(fl.Round), args.Error(1)
}

func (m *Service) CurrentRound(ctx context.Context) (fl.Round, error) {
	args := m.Called(ctx)

	return args.Get(0).(fl.Round), args.Error(1)
}

func (m *Service) ListParticipants(ctx context.Context) ([]registry.Participant, error) {
	args := m.Called(ctx)

	return args.Get(0).([]registry.Participant), args.Error(1)
}

func (m *Service) JoinParticipant(ctx context.Context, p registry.Participant) (registry.Participant, error) {
	args := m.Called(ctx, p)

	return args.Get(0).(registry.Participant), args.Error(1)
}

func (m *Service) LeaveParticipant(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *Service) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *Service) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
