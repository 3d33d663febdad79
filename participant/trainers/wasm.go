package trainers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/absmach/federator/participant"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

var ErrEmptyModule = errors.New("wasm module is empty")

type wasmTrainer struct {
	binary []byte
	cache  wazero.CompilationCache
	logger *slog.Logger
}

// NewWasmTrainer runs a WASI command module for every round, with the same
// standard input and output contract as the host trainer.
func NewWasmTrainer(logger *slog.Logger, binary []byte) (participant.Trainer, error) {
	if len(binary) == 0 {
		return nil, ErrEmptyModule
	}

	return &wasmTrainer{
		binary: binary,
		cache:  wazero.NewCompilationCache(),
		logger: logger,
	}, nil
}

func NewWasmTrainerFromFile(logger *slog.Logger, path string) (participant.Trainer, error) {
	binary, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wasm file: %w", err)
	}

	return NewWasmTrainer(logger, binary)
}

func (t *wasmTrainer) Train(ctx context.Context, req participant.TrainRequest) (participant.TrainResult, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return participant.TrainResult{}, err
	}

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithCompilationCache(t.cache).
		WithCloseOnContextDone(true))
	defer r.Close(context.WithoutCancel(ctx))

	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	stdout, stderr := bytes.Buffer{}, bytes.Buffer{}
	cfg := wazero.NewModuleConfig().
		WithName("trainer").
		WithArgs("trainer").
		WithStdin(bytes.NewReader(input)).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithSysWalltime().
		WithSysNanotime()

	mod, err := r.InstantiateWithConfig(ctx, t.binary, cfg)
	if mod != nil {
		defer mod.Close(context.WithoutCancel(ctx))
	}
	if err != nil {
		var exitErr *sys.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 0 {
			t.logger.Warn("wasm trainer failed",
				slog.Uint64("round_id", req.RoundID),
				slog.String("stderr", stderr.String()),
			)

			return participant.TrainResult{}, errors.Join(errors.New("failed to run wasm trainer"), err)
		}
	}

	return decodeResult(stdout.Bytes())
}
