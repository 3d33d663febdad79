package federatord

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// NewCoordinatorCmd returns the coordinator command. Flag defaults come from
// the COORDINATOR_* environment.
func NewCoordinatorCmd() *cobra.Command {
	cfg := CoordinatorConfig{}
	envErr := env.Parse(&cfg)

	start := &cobra.Command{
		Use:   "start",
		Short: "Start coordinator",
		Long:  `Start the round coordinator.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if envErr != nil {
				cmd.PrintErrf("failed to load configuration: %s\n", envErr)

				return
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := StartCoordinator(ctx, cancel, cfg); err != nil {
				cmd.PrintErrf("failed to start coordinator: %s\n", err)
			}
		},
	}

	cmd := &cobra.Command{
		Use:   "coordinator [start]",
		Short: "Coordinator management",
		Long:  `Run the federated training round coordinator.`,
	}
	cmd.AddCommand(start)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfg.LogLevel, "log-level", "l", cfg.LogLevel, "Log level")
	flags.StringVarP(&cfg.Server.Port, "port", "p", cfg.Server.Port, "HTTP port")
	flags.StringVarP(&cfg.Participants, "participants", "P", cfg.Participants, "Participants as id=url pairs separated by commas")
	flags.StringVarP(&cfg.ParticipantsFile, "participants-file", "f", cfg.ParticipantsFile, "TOML file listing participants")
	flags.StringVar(&cfg.InitialParams, "initial-params", cfg.InitialParams, "JSON file holding the initial tensors")
	flags.DurationVarP(&cfg.RoundInterval, "round-interval", "i", cfg.RoundInterval, "Time between scheduled rounds")
	flags.StringVarP(&cfg.RoundSchedule, "round-schedule", "s", cfg.RoundSchedule, "Cron expression for scheduled rounds")
	flags.DurationVarP(&cfg.RoundWindow, "round-window", "w", cfg.RoundWindow, "Close a round after this long (0 disables)")
	flags.BoolVar(&cfg.TriggerOnStart, "trigger-on-start", cfg.TriggerOnStart, "Start a round as soon as the coordinator is up")
	flags.StringVarP(&cfg.Storage.Type, "storage", "S", cfg.Storage.Type, "Parameter storage: memory, file, badger, sqlite or postgres")
	flags.StringVarP(&cfg.MQTTAddress, "mqtt-address", "m", cfg.MQTTAddress, "MQTT broker address")

	return cmd
}

// NewParticipantCmd returns the participant command. Flag defaults come from
// the PARTICIPANT_* environment.
func NewParticipantCmd() *cobra.Command {
	cfg := ParticipantConfig{}
	envErr := env.Parse(&cfg)

	start := &cobra.Command{
		Use:   "start",
		Short: "Start participant",
		Long:  `Start a participant node.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if envErr != nil {
				cmd.PrintErrf("failed to load configuration: %s\n", envErr)

				return
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := StartParticipant(ctx, cancel, cfg); err != nil {
				cmd.PrintErrf("failed to start participant: %s\n", err)
			}
		},
	}

	cmd := &cobra.Command{
		Use:   "participant [start]",
		Short: "Participant management",
		Long:  `Run a participant node that trains on trigger.`,
	}
	cmd.AddCommand(start)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfg.LogLevel, "log-level", "l", cfg.LogLevel, "Log level")
	flags.StringVarP(&cfg.ID, "id", "i", cfg.ID, "Participant ID")
	flags.StringVarP(&cfg.Server.Port, "port", "p", cfg.Server.Port, "HTTP port")
	flags.StringVarP(&cfg.CoordinatorURL, "coordinator-url", "c", cfg.CoordinatorURL, "Coordinator URL")
	flags.StringVarP(&cfg.AdvertiseURL, "advertise-url", "a", cfg.AdvertiseURL, "URL the coordinator uses to reach this node")
	flags.StringVarP(&cfg.Trainer, "trainer", "t", cfg.Trainer, "Trainer runtime: host or wasm")
	flags.StringVar(&cfg.TrainerCommand, "trainer-command", cfg.TrainerCommand, "Command run by the host trainer")
	flags.StringVar(&cfg.WasmFile, "wasm-file", cfg.WasmFile, "WASI module run by the wasm trainer")
	flags.DurationVar(&cfg.TrainTimeout, "train-timeout", cfg.TrainTimeout, "Local training timeout")
	flags.BoolVar(&cfg.CBOR, "cbor", cfg.CBOR, "Submit updates as CBOR")

	return cmd
}
