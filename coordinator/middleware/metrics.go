package middleware

import (
	"context"
	"time"

	"github.com/absmach/federator/coordinator"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
	"github.com/go-kit/kit/metrics"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) FetchParameters(ctx context.Context, participantID string) (coordinator.Snapshot, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "fetch-parameters").Add(1)
		mm.latency.With("method", "fetch-parameters").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.FetchParameters(ctx, participantID)
}

func (mm *metricsMiddleware) ParametersAt(ctx context.Context, version uint64) (fl.Parameters, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-parameters-version").Add(1)
		mm.latency.With("method", "get-parameters-version").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ParametersAt(ctx, version)
}

func (mm *metricsMiddleware) SubmitUpdate(ctx context.Context, u fl.Update) (coordinator.SubmitResult, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-update").Add(1)
		mm.latency.With("method", "submit-update").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitUpdate(ctx, u)
}

func (mm *metricsMiddleware) AggregateNow(ctx context.Context) (fl.Outcome, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "aggregate-now").Add(1)
		mm.latency.With("method", "aggregate-now").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AggregateNow(ctx)
}

func (mm *metricsMiddleware) TriggerRound(ctx context.Context) (fl.Round, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "trigger-round").Add(1)
		mm.latency.With("method", "trigger-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.TriggerRound(ctx)
}

func (mm *metricsMiddleware) CurrentRound(ctx context.Context) (fl.Round, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "current-round").Add(1)
		mm.latency.With("method", "current-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CurrentRound(ctx)
}

func (mm *metricsMiddleware) ListParticipants(ctx context.Context) ([]registry.Participant, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-participants").Add(1)
		mm.latency.With("method", "list-participants").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListParticipants(ctx)
}

func (mm *metricsMiddleware) JoinParticipant(ctx context.Context, p registry.Participant) (registry.Participant, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "join-participant").Add(1)
		mm.latency.With("method", "join-participant").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.JoinParticipant(ctx, p)
}

func (mm *metricsMiddleware) LeaveParticipant(ctx context.Context, id string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "leave-participant").Add(1)
		mm.latency.With("method", "leave-participant").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.LeaveParticipant(ctx, id)
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) error {
	return mm.svc.Subscribe(ctx)
}

func (mm *metricsMiddleware) Shutdown(ctx context.Context) error {
	return mm.svc.Shutdown(ctx)
}
