package federatord

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/federator/participant"
	"github.com/absmach/federator/participant/api"
	"github.com/absmach/federator/participant/trainers"
	"github.com/absmach/federator/pkg/sdk"
	"github.com/absmach/federator/pkg/storage"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	participantName    = "participant"
	defParticipantPort = "6001"

	TrainerHost = "host"
	TrainerWasm = "wasm"
)

var registerInterval = 5 * time.Second

type ParticipantConfig struct {
	LogLevel        string         `env:"PARTICIPANT_LOG_LEVEL"        envDefault:"info"`
	InstanceID      string         `env:"PARTICIPANT_INSTANCE_ID"`
	ID              string         `env:"PARTICIPANT_ID"`
	CoordinatorURL  string         `env:"PARTICIPANT_COORDINATOR_URL"  envDefault:"http://localhost:5000"`
	AdvertiseURL    string         `env:"PARTICIPANT_ADVERTISE_URL"`
	CBOR            bool           `env:"PARTICIPANT_CBOR"             envDefault:"false"`
	TLSVerification bool           `env:"PARTICIPANT_TLS_VERIFICATION" envDefault:"true"`
	Trainer         string         `env:"PARTICIPANT_TRAINER"          envDefault:"host"`
	TrainerCommand  string         `env:"PARTICIPANT_TRAINER_COMMAND"`
	WasmFile        string         `env:"PARTICIPANT_WASM_FILE"`
	TrainTimeout    time.Duration  `env:"PARTICIPANT_TRAIN_TIMEOUT"    envDefault:"25s"`
	Storage         storage.Config `envPrefix:"PARTICIPANT_"`
	Server          server.Config  `envPrefix:"PARTICIPANT_HTTP_"`
	OTELURL         url.URL        `env:"PARTICIPANT_OTEL_URL"`
	TraceRatio      float64        `env:"PARTICIPANT_TRACE_RATIO"      envDefault:"0"`
}

func (cfg *ParticipantConfig) setDefaults() {
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.ID == "" {
		cfg.ID = namegenerator.NewGenerator().Generate()
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = defParticipantPort
	}
}

func StartParticipant(ctx context.Context, cancel context.CancelFunc, cfg ParticipantConfig) error {
	g, ctx := errgroup.WithContext(ctx)
	cfg.setDefaults()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = logger.With(slog.String("participant_id", cfg.ID))

	_, flush, err := newTracerProvider(ctx, participantName, cfg.InstanceID, cfg.OTELURL, cfg.TraceRatio, logger)
	if err != nil {
		return err
	}
	defer flush()

	trainer, err := newTrainer(cfg, logger)
	if err != nil {
		return err
	}

	repo, err := storage.NewRepository(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Type, err)
	}
	if repo.Closer != nil {
		defer func() {
			if err := repo.Closer.Close(); err != nil {
				logger.Error("failed to close storage", slog.Any("error", err))
			}
		}()
	}

	client := sdk.NewSDK(sdk.Config{
		CoordinatorURL:  cfg.CoordinatorURL,
		TLSVerification: cfg.TLSVerification,
		CBOR:            cfg.CBOR,
	})

	svc := participant.NewService(participant.Config{
		ID:           cfg.ID,
		AdvertiseURL: cfg.AdvertiseURL,
		TrainTimeout: cfg.TrainTimeout,
	}, client, trainer, repo.Parameters, logger)

	hs := httpserver.NewServer(ctx, cancel, participantName, cfg.Server, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		register(ctx, svc, logger)

		return nil
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, participantName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", participantName, err))
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Warn("local round abandoned", slog.Any("error", err))
	}

	return nil
}

func newTrainer(cfg ParticipantConfig, logger *slog.Logger) (participant.Trainer, error) {
	switch cfg.Trainer {
	case TrainerHost:
		fields := strings.Fields(cfg.TrainerCommand)
		if len(fields) == 0 {
			return nil, trainers.ErrMissingCommand
		}

		return trainers.NewHostTrainer(logger, fields[0], fields[1:]...)
	case TrainerWasm:
		return trainers.NewWasmTrainerFromFile(logger, cfg.WasmFile)
	default:
		return nil, fmt.Errorf("unknown trainer %q", cfg.Trainer)
	}
}

// register retries until the coordinator accepts the participant or ctx
// ends.
func register(ctx context.Context, svc participant.Service, logger *slog.Logger) {
	ticker := time.NewTicker(registerInterval)
	defer ticker.Stop()

	for {
		err := svc.Register(ctx)
		if err == nil {
			return
		}
		logger.Warn("registration failed, retrying", slog.Any("error", err))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
