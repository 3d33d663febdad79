package mocks

import (
	"context"

	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
	"github.com/absmach/federator/pkg/transport"
	"github.com/stretchr/testify/mock"
)

var _ transport.Client = (*Client)(nil)

type Client struct {
	mock.Mock
}

func (m *Client) Trigger(ctx context.Context, p registry.Participant, roundID uint64) error {
	args := m.Called(ctx, p, roundID)

	return args.Error(0)
}

func (m *Client) PushParameters(ctx context.Context, p registry.Participant, params fl.Parameters) error {
	args := m.Called(ctx, p, params)

	return args.Error(0)
}
