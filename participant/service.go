package participant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/absmach/federator/pkg/errors"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/sdk"
	"github.com/absmach/federator/pkg/storage"
)

type service struct {
	cfg         Config
	coordinator Coordinator
	trainer     Trainer
	models      storage.ParametersRepository
	logger      *slog.Logger

	busy atomic.Bool
	// mu serializes writes to models.
	mu sync.Mutex
	wg sync.WaitGroup
}

func NewService(cfg Config, coordinator Coordinator, trainer Trainer, models storage.ParametersRepository, logger *slog.Logger) Service {
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = DefTrainTimeout
	}

	return &service{
		cfg:         cfg,
		coordinator: coordinator,
		trainer:     trainer,
		models:      models,
		logger:      logger,
	}
}

func (svc *service) Trigger(ctx context.Context, roundID uint64) error {
	if !svc.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	ctx = context.WithoutCancel(ctx)
	svc.wg.Add(1)
	go func() {
		defer svc.wg.Done()
		defer svc.busy.Store(false)

		start := time.Now()
		if err := svc.runRound(ctx, roundID); err != nil {
			svc.logger.Error("local round failed",
				slog.Uint64("round_id", roundID),
				slog.String("duration", time.Since(start).String()),
				slog.String("error", err.Error()),
			)

			return
		}
		svc.logger.Info("local round finished",
			slog.Uint64("round_id", roundID),
			slog.String("duration", time.Since(start).String()),
		)
	}()

	return nil
}

func (svc *service) runRound(ctx context.Context, roundID uint64) error {
	params, err := svc.coordinator.FetchParameters(svc.cfg.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch parameters: %w", err)
	}
	if !params.Open {
		svc.logger.Info("no round is open, skipping", slog.Uint64("round_id", roundID))

		return nil
	}
	if roundID != 0 && params.RoundID != roundID {
		svc.logger.Info("round already advanced, skipping",
			slog.Uint64("round_id", roundID),
			slog.Uint64("open_round_id", params.RoundID),
		)

		return nil
	}

	trainCtx, cancel := context.WithTimeout(ctx, svc.cfg.TrainTimeout)
	defer cancel()

	res, err := svc.trainer.Train(trainCtx, TrainRequest{
		ParticipantID: svc.cfg.ID,
		RoundID:       params.RoundID,
		Version:       params.Version,
		Tensors:       params.Tensors,
	})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	if len(res.Tensors) == 0 {
		return ErrEmptyResult
	}

	submitted, err := svc.coordinator.SubmitUpdate(fl.Update{
		ParticipantID: svc.cfg.ID,
		RoundID:       params.RoundID,
		Tensors:       res.Tensors,
		NumSamples:    res.NumSamples,
	})
	if err != nil {
		return fmt.Errorf("failed to submit update: %w", err)
	}
	svc.logger.Info("update submitted",
		slog.Uint64("round_id", params.RoundID),
		slog.String("status", submitted.Status),
		slog.String("reason", submitted.Reason),
	)

	return nil
}

// ReceiveModel stores p. Versions missing between the local copy and p
// are fetched from the coordinator first.
func (svc *service) ReceiveModel(ctx context.Context, p fl.Parameters) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	latest, err := svc.models.Latest(ctx)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return svc.models.Save(ctx, p)
	case err != nil:
		return err
	case p.Version <= latest.Version:
		return fmt.Errorf("%w: local %d, pushed %d", ErrStaleModel, latest.Version, p.Version)
	}

	for v := latest.Version + 1; v < p.Version; v++ {
		missing, err := svc.coordinator.ParametersAt(v)
		if err != nil {
			return fmt.Errorf("failed to fetch missing version %d: %w", v, err)
		}
		if err := svc.models.Save(ctx, fl.Parameters{
			Version:   missing.Version,
			Tensors:   missing.Tensors,
			UpdatedAt: missing.UpdatedAt,
		}); err != nil {
			return err
		}
	}

	if err := svc.models.Save(ctx, p); err != nil {
		return err
	}
	svc.logger.Info("model received", slog.Uint64("version", p.Version))

	return nil
}

func (svc *service) Model(ctx context.Context) (fl.Parameters, error) {
	return svc.models.Latest(ctx)
}

func (svc *service) Register(_ context.Context) error {
	if svc.cfg.AdvertiseURL == "" {
		return nil
	}

	_, err := svc.coordinator.JoinParticipant(sdk.Participant{
		ID:      svc.cfg.ID,
		Address: svc.cfg.AdvertiseURL,
	})
	switch {
	case errors.Is(err, sdk.ErrConflict):
		svc.logger.Info("already registered with coordinator", slog.String("address", svc.cfg.AdvertiseURL))

		return nil
	case err != nil:
		return fmt.Errorf("failed to register with coordinator: %w", err)
	}
	svc.logger.Info("registered with coordinator", slog.String("address", svc.cfg.AdvertiseURL))

	return nil
}

func (svc *service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		svc.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
