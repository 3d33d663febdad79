package federatord

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/federator"
	"github.com/absmach/federator/participant/mocks"
	"github.com/absmach/federator/participant/trainers"
	"github.com/absmach/federator/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLoadParticipants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "participants.toml")
	require.NoError(t, federator.SaveConfig(path, federator.Config{
		Coordinator: federator.CoordinatorConfig{URL: "http://localhost:5000", MQTTUsername: "fl"},
		Participants: []federator.ParticipantConfig{
			{ID: "p3", Address: "http://p3.local:6001"},
		},
	}))

	cases := []struct {
		desc string
		cfg  CoordinatorConfig
		ids  []string
		file bool
		err  bool
	}{
		{desc: "none"},
		{
			desc: "inline list",
			cfg:  CoordinatorConfig{Participants: "p1=http://p1.local:6001, p2=http://p2.local:6001"},
			ids:  []string{"p1", "p2"},
		},
		{
			desc: "inline list and file",
			cfg:  CoordinatorConfig{Participants: "p1=http://p1.local:6001", ParticipantsFile: path},
			ids:  []string{"p1", "p3"},
			file: true,
		},
		{desc: "malformed list", cfg: CoordinatorConfig{Participants: "p1"}, err: true},
		{desc: "missing file", cfg: CoordinatorConfig{ParticipantsFile: filepath.Join(t.TempDir(), "nope.toml")}, err: true},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			seed, fileCfg, err := loadParticipants(tc.cfg)
			if tc.err {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)

			var ids []string
			for _, p := range seed {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tc.ids, ids)
			if tc.file {
				require.NotNil(t, fileCfg)
				assert.Equal(t, "fl", fileCfg.Coordinator.MQTTUsername)
			}

			_, err = registry.New(seed...)
			assert.NoError(t, err)
		})
	}
}

func TestNewTrainer(t *testing.T) {
	cases := []struct {
		desc string
		cfg  ParticipantConfig
		err  error
	}{
		{desc: "host", cfg: ParticipantConfig{Trainer: TrainerHost, TrainerCommand: "sh -c true"}},
		{desc: "host without command", cfg: ParticipantConfig{Trainer: TrainerHost}, err: trainers.ErrMissingCommand},
		{desc: "wasm without module", cfg: ParticipantConfig{Trainer: TrainerWasm, WasmFile: filepath.Join(t.TempDir(), "missing.wasm")}},
		{desc: "unknown", cfg: ParticipantConfig{Trainer: "gpu"}},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			trainer, err := newTrainer(tc.cfg, logger(t))
			switch {
			case tc.err != nil:
				assert.ErrorIs(t, err, tc.err)
			case tc.cfg.Trainer == TrainerHost:
				assert.NoError(t, err)
				assert.NotNil(t, trainer)
			default:
				assert.Error(t, err)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	c := CoordinatorConfig{}
	c.setDefaults()
	assert.NotEmpty(t, c.InstanceID)
	assert.Equal(t, defCoordinatorPort, c.Server.Port)

	p := ParticipantConfig{ID: "p1"}
	p.Server.Port = "7001"
	p.setDefaults()
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "7001", p.Server.Port)

	p = ParticipantConfig{}
	p.setDefaults()
	assert.NotEmpty(t, p.ID)
}

func TestRegisterRetries(t *testing.T) {
	interval := registerInterval
	registerInterval = 10 * time.Millisecond
	t.Cleanup(func() { registerInterval = interval })

	var calls atomic.Int32
	svc := new(mocks.Service)
	svc.On("Register", mock.Anything).Run(func(mock.Arguments) { calls.Add(1) }).Return(errors.New("connection refused")).Once()
	svc.On("Register", mock.Anything).Run(func(mock.Arguments) { calls.Add(1) }).Return(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	register(ctx, svc, logger(t))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRegisterStopsWithContext(t *testing.T) {
	svc := new(mocks.Service)
	svc.On("Register", mock.Anything).Return(errors.New("connection refused"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		register(ctx, svc, logger(t))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register did not stop")
	}
}

func TestCommands(t *testing.T) {
	t.Setenv("COORDINATOR_ROUND_INTERVAL", "1m")
	t.Setenv("COORDINATOR_STORAGE_TYPE", "sqlite")

	cmd := NewCoordinatorCmd()
	interval, err := cmd.PersistentFlags().GetDuration("round-interval")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, interval)

	storageType, err := cmd.PersistentFlags().GetString("storage")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", storageType)

	pcmd := NewParticipantCmd()
	trainer, err := pcmd.PersistentFlags().GetString("trainer")
	require.NoError(t, err)
	assert.Equal(t, TrainerHost, trainer)
}

func logger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
