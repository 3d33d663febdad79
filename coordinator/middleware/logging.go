package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/federator/coordinator"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) FetchParameters(ctx context.Context, participantID string) (snap coordinator.Snapshot, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("participant_id", participantID),
			slog.Group("parameters",
				slog.Uint64("version", snap.Version),
				slog.Uint64("round_id", snap.RoundID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Fetch parameters failed", args...)

			return
		}
		lm.logger.Debug("Fetch parameters completed successfully", args...)
	}(time.Now())

	return lm.svc.FetchParameters(ctx, participantID)
}

func (lm *loggingMiddleware) ParametersAt(ctx context.Context, version uint64) (params fl.Parameters, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("version", version),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get parameters version failed", args...)

			return
		}
		lm.logger.Info("Get parameters version completed successfully", args...)
	}(time.Now())

	return lm.svc.ParametersAt(ctx, version)
}

func (lm *loggingMiddleware) SubmitUpdate(ctx context.Context, u fl.Update) (res coordinator.SubmitResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("update",
				slog.String("participant_id", u.ParticipantID),
				slog.Uint64("round_id", u.RoundID),
				slog.String("shape", u.Tensors.Shape().String()),
			),
			slog.String("status", res.Status),
		}
		if res.Reason != "" {
			args = append(args, slog.String("reason", res.Reason))
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit update failed", args...)

			return
		}
		lm.logger.Info("Submit update completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitUpdate(ctx, u)
}

func (lm *loggingMiddleware) AggregateNow(ctx context.Context) (out fl.Outcome, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("outcome",
				slog.String("status", string(out.Status)),
				slog.Uint64("round_id", out.RoundID),
				slog.Uint64("version", out.Version),
				slog.Int("included", len(out.Included)),
				slog.String("reason", out.Reason),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Aggregate now failed", args...)

			return
		}
		lm.logger.Info("Aggregate now completed successfully", args...)
	}(time.Now())

	return lm.svc.AggregateNow(ctx)
}

func (lm *loggingMiddleware) TriggerRound(ctx context.Context) (r fl.Round, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Uint64("id", r.ID),
				slog.String("state", r.State.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Trigger round failed", args...)

			return
		}
		lm.logger.Info("Trigger round completed successfully", args...)
	}(time.Now())

	return lm.svc.TriggerRound(ctx)
}

func (lm *loggingMiddleware) CurrentRound(ctx context.Context) (r fl.Round, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("round_id", r.ID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Current round failed", args...)

			return
		}
		lm.logger.Debug("Current round completed successfully", args...)
	}(time.Now())

	return lm.svc.CurrentRound(ctx)
}

func (lm *loggingMiddleware) ListParticipants(ctx context.Context) (ps []registry.Participant, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("total", len(ps)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List participants failed", args...)

			return
		}
		lm.logger.Info("List participants completed successfully", args...)
	}(time.Now())

	return lm.svc.ListParticipants(ctx)
}

func (lm *loggingMiddleware) JoinParticipant(ctx context.Context, p registry.Participant) (resp registry.Participant, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("participant",
				slog.String("id", p.ID),
				slog.String("address", p.Address),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Join participant failed", args...)

			return
		}
		lm.logger.Info("Join participant completed successfully", args...)
	}(time.Now())

	return lm.svc.JoinParticipant(ctx, p)
}

func (lm *loggingMiddleware) LeaveParticipant(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("participant_id", id),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Leave participant failed", args...)

			return
		}
		lm.logger.Info("Leave participant completed successfully", args...)
	}(time.Now())

	return lm.svc.LeaveParticipant(ctx, id)
}

func (lm *loggingMiddleware) Subscribe(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Subscribe failed", args...)

			return
		}
		lm.logger.Info("Subscribe completed successfully", args...)
	}(time.Now())

	return lm.svc.Subscribe(ctx)
}

func (lm *loggingMiddleware) Shutdown(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Shutdown failed", args...)

			return
		}
		lm.logger.Info("Shutdown completed successfully", args...)
	}(time.Now())

	return lm.svc.Shutdown(ctx)
}
