package mocks

import (
	"context"

	"github.com/absmach/federator/participant"
	"github.com/absmach/federator/pkg/fl"
	"github.com/stretchr/testify/mock"
)

var _ participant.Service = (*Service)(nil)

type Service struct {
	mock.Mock
}

func (m *Service) Trigger(ctx context.Context, roundID uint64) error {
	args := m.Called(ctx, roundID)

	return args.Error(0)
}

func (m *Service) ReceiveModel(ctx context.Context, p fl.Parameters) error {
	args := m.Called(ctx, p)

	return args.Error(0)
}

func (m *Service) Model(ctx context.Context) (fl.Parameters, error) {
	args := m.Called(ctx)

	return args.Get(0).(fl.Parameters), args.Error(1)
}

func (m *Service) Register(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *Service) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
