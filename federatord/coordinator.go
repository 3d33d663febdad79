package federatord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/absmach/federator"
	"github.com/absmach/federator/coordinator"
	"github.com/absmach/federator/coordinator/api"
	"github.com/absmach/federator/coordinator/middleware"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/mqtt"
	"github.com/absmach/federator/pkg/params"
	"github.com/absmach/federator/pkg/registry"
	"github.com/absmach/federator/pkg/storage"
	"github.com/absmach/federator/pkg/transport"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	coordinatorName    = "coordinator"
	defCoordinatorPort = "5000"
	shutdownTimeout    = 10 * time.Second
)

type CoordinatorConfig struct {
	LogLevel         string           `env:"COORDINATOR_LOG_LEVEL"        envDefault:"info"`
	InstanceID       string           `env:"COORDINATOR_INSTANCE_ID"`
	Participants     string           `env:"COORDINATOR_PARTICIPANTS"`
	ParticipantsFile string           `env:"COORDINATOR_PARTICIPANTS_FILE"`
	InitialParams    string           `env:"COORDINATOR_INITIAL_PARAMS"`
	RoundInterval    time.Duration    `env:"COORDINATOR_ROUND_INTERVAL"   envDefault:"30s"`
	RoundSchedule    string           `env:"COORDINATOR_ROUND_SCHEDULE"`
	RoundTimezone    string           `env:"COORDINATOR_ROUND_TIMEZONE"`
	RoundWindow      time.Duration    `env:"COORDINATOR_ROUND_WINDOW"     envDefault:"0s"`
	TriggerOnStart   bool             `env:"COORDINATOR_TRIGGER_ON_START" envDefault:"true"`
	FanoutLimit      int              `env:"COORDINATOR_FANOUT_LIMIT"     envDefault:"0"`
	MQTTAddress      string           `env:"COORDINATOR_MQTT_ADDRESS"`
	MQTTQoS          uint8            `env:"COORDINATOR_MQTT_QOS"         envDefault:"1"`
	MQTTTimeout      time.Duration    `env:"COORDINATOR_MQTT_TIMEOUT"     envDefault:"30s"`
	MQTTTopic        string           `env:"COORDINATOR_MQTT_TOPIC"       envDefault:"fl"`
	MQTTUsername     string           `env:"COORDINATOR_MQTT_USERNAME"`
	MQTTPassword     string           `env:"COORDINATOR_MQTT_PASSWORD"`
	Storage          storage.Config   `envPrefix:"COORDINATOR_"`
	Transport        transport.Config `envPrefix:"COORDINATOR_"`
	Server           server.Config    `envPrefix:"COORDINATOR_HTTP_"`
	OTELURL          url.URL          `env:"COORDINATOR_OTEL_URL"`
	TraceRatio       float64          `env:"COORDINATOR_TRACE_RATIO"      envDefault:"0"`
}

func (cfg *CoordinatorConfig) setDefaults() {
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = defCoordinatorPort
	}
}

func StartCoordinator(ctx context.Context, cancel context.CancelFunc, cfg CoordinatorConfig) error {
	g, ctx := errgroup.WithContext(ctx)
	cfg.setDefaults()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	tp, flush, err := newTracerProvider(ctx, coordinatorName, cfg.InstanceID, cfg.OTELURL, cfg.TraceRatio, logger)
	if err != nil {
		return err
	}
	defer flush()
	tracer := tp.Tracer(coordinatorName)

	seed, fileCfg, err := loadParticipants(cfg)
	if err != nil {
		return err
	}
	reg, err := registry.New(seed...)
	if err != nil {
		return fmt.Errorf("failed to seed participant registry: %w", err)
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

	var initial fl.Tensors
	if cfg.InitialParams != "" {
		if initial, err = params.ReadTensorsFile(cfg.InitialParams); err != nil {
			return err
		}
	}
	store, err := params.NewStore(ctx, repo.Parameters, initial)
	if err != nil {
		return err
	}

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		mqttCfg := mqtt.Config{
			Address:   cfg.MQTTAddress,
			QoS:       cfg.MQTTQoS,
			ClientID:  fmt.Sprintf("%s-%s", coordinatorName, cfg.InstanceID),
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Timeout:   cfg.MQTTTimeout,
			WillTopic: cfg.MQTTTopic + "/coordinator/offline",
		}
		if mqttCfg.Username == "" && fileCfg != nil {
			mqttCfg.Username = fileCfg.Coordinator.MQTTUsername
			mqttCfg.Password = fileCfg.Coordinator.MQTTPassword
		}
		if pubsub, err = mqtt.NewPubSub(mqttCfg, logger); err != nil {
			return fmt.Errorf("failed to initialize mqtt pubsub: %w", err)
		}
	}

	svc := coordinator.NewService(
		coordinator.Config{
			FanoutLimit: cfg.FanoutLimit,
			RoundWindow: cfg.RoundWindow,
			TopicPrefix: cfg.MQTTTopic,
		},
		store,
		fl.NewMeanAggregator(),
		reg,
		transport.NewHTTPClient(cfg.Transport, nil),
		pubsub,
		logger,
	)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(coordinatorName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if err := svc.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to update topic: %w", err)
	}

	sched, err := coordinator.NewScheduler(svc, coordinator.SchedulerConfig{
		Interval:       cfg.RoundInterval,
		Schedule:       cfg.RoundSchedule,
		Timezone:       cfg.RoundTimezone,
		TriggerOnStart: cfg.TriggerOnStart,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create round scheduler: %w", err)
	}

	logger.Info("coordinator starting",
		slog.Int("participants", len(seed)),
		slog.Uint64("version", store.Version()),
		slog.String("storage", cfg.Storage.Type),
	)

	hs := httpserver.NewServer(ctx, cancel, coordinatorName, cfg.Server, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, coordinatorName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", coordinatorName, err))
	}

	sched.Stop()
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Warn("in-flight round abandoned", slog.Any("error", err))
	}

	return nil
}

// loadParticipants merges the inline list with the TOML file, inline
// entries first.
func loadParticipants(cfg CoordinatorConfig) ([]registry.Participant, *federator.Config, error) {
	seed, err := registry.ParseList(cfg.Participants)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ParticipantsFile == "" {
		return seed, nil, nil
	}

	fileCfg, err := federator.LoadConfig(cfg.ParticipantsFile)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range fileCfg.Participants {
		seed = append(seed, registry.Participant{ID: p.ID, Address: p.Address})
	}

	return seed, fileCfg, nil
}
