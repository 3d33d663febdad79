package middleware

import (
	"context"

	"github.com/absmach/federator/coordinator"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) FetchParameters(ctx context.Context, participantID string) (coordinator.Snapshot, error) {
	ctx, span := tm.tracer.Start(ctx, "fetch-parameters", trace.WithAttributes(
		attribute.String("participant_id", participantID),
	))
	defer span.End()

	return tm.svc.FetchParameters(ctx, participantID)
}

func (tm *tracing) ParametersAt(ctx context.Context, version uint64) (fl.Parameters, error) {
	ctx, span := tm.tracer.Start(ctx, "get-parameters-version", trace.WithAttributes(
		attribute.Int64("version", int64(version)),
	))
	defer span.End()

	return tm.svc.ParametersAt(ctx, version)
}

func (tm *tracing) SubmitUpdate(ctx context.Context, u fl.Update) (coordinator.SubmitResult, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-update", trace.WithAttributes(
		attribute.String("participant_id", u.ParticipantID),
		attribute.Int64("round_id", int64(u.RoundID)),
		attribute.Int("tensors", len(u.Tensors)),
	))
	defer span.End()

	return tm.svc.SubmitUpdate(ctx, u)
}

func (tm *tracing) AggregateNow(ctx context.Context) (fl.Outcome, error) {
	ctx, span := tm.tracer.Start(ctx, "aggregate-now")
	defer span.End()

	return tm.svc.AggregateNow(ctx)
}

func (tm *tracing) TriggerRound(ctx context.Context) (fl.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "trigger-round")
	defer span.End()

	return tm.svc.TriggerRound(ctx)
}

func (tm *tracing) CurrentRound(ctx context.Context) (fl.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "current-round")
	defer span.End()

	return tm.svc.CurrentRound(ctx)
}

func (tm *tracing) ListParticipants(ctx context.Context) ([]registry.Participant, error) {
	ctx, span := tm.tracer.Start(ctx, "list-participants")
	defer span.End()

	return tm.svc.ListParticipants(ctx)
}

func (tm *tracing) JoinParticipant(ctx context.Context, p registry.Participant) (registry.Participant, error) {
	ctx, span := tm.tracer.Start(ctx, "join-participant", trace.WithAttributes(
		attribute.String("id", p.ID),
		attribute.String("address", p.Address),
	))
	defer span.End()

	return tm.svc.JoinParticipant(ctx, p)
}

func (tm *tracing) LeaveParticipant(ctx context.Context, id string) error {
	ctx, span := tm.tracer.Start(ctx, "leave-participant", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.LeaveParticipant(ctx, id)
}

func (tm *tracing) Subscribe(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "subscribe")
	defer span.End()

	return tm.svc.Subscribe(ctx)
}

func (tm *tracing) Shutdown(ctx context.Context) error {
	return tm.svc.Shutdown(ctx)
}
