package trainers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/absmach/federator/participant"
)

// waitDelay bounds how long a killed trainer's children may hold its
// output open.
const waitDelay = time.Second

var ErrMissingCommand = errors.New("trainer command is empty")

type hostTrainer struct {
	command string
	args    []string
	logger  *slog.Logger
}

// NewHostTrainer runs command for every round. The train request is
// written to its standard input as JSON and the result is read from its
// standard output.
func NewHostTrainer(logger *slog.Logger, command string, args ...string) (participant.Trainer, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrMissingCommand
	}

	return &hostTrainer{
		command: command,
		args:    args,
		logger:  logger,
	}, nil
}

func (t *hostTrainer) Train(ctx context.Context, req participant.TrainRequest) (participant.TrainResult, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return participant.TrainResult{}, err
	}

	cmd := exec.CommandContext(ctx, t.command, t.args...)
	cmd.Stdin = bytes.NewReader(input)
	stdout, stderr := bytes.Buffer{}, bytes.Buffer{}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		t.logger.Warn("trainer command failed",
			slog.String("command", t.command),
			slog.Uint64("round_id", req.RoundID),
			slog.String("stderr", stderr.String()),
		)

		return participant.TrainResult{}, fmt.Errorf("error running trainer: %w", err)
	}

	return decodeResult(stdout.Bytes())
}

func decodeResult(data []byte) (participant.TrainResult, error) {
	var res participant.TrainResult
	if err := json.Unmarshal(bytes.TrimSpace(data), &res); err != nil {
		return participant.TrainResult{}, fmt.Errorf("invalid trainer output: %w", err)
	}

	return res, nil
}
