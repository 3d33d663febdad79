package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ContentType = "application/json"

	DefTriggerPath = "/get_update"
	DefPushPath    = "/receive_model"

	maxErrorBody = 512
)

// Config is parsed with the service prefix, e.g. COORDINATOR_TRIGGER_TIMEOUT.
type Config struct {
	TriggerPath    string        `env:"TRIGGER_PATH"    envDefault:"/get_update"`
	PushPath       string        `env:"PUSH_PATH"       envDefault:"/receive_model"`
	TriggerTimeout time.Duration `env:"TRIGGER_TIMEOUT" envDefault:"10s"`
	PushTimeout    time.Duration `env:"PUSH_TIMEOUT"    envDefault:"5s"`
}

type httpClient struct {
	cfg    Config
	client *http.Client
}

var _ Client = (*httpClient)(nil)

// NewHTTPClient returns a Client speaking HTTP. A nil hc uses an
// otelhttp-instrumented default client.
func NewHTTPClient(cfg Config, hc *http.Client) Client {
	if cfg.TriggerPath == "" {
		cfg.TriggerPath = DefTriggerPath
	}
	if cfg.PushPath == "" {
		cfg.PushPath = DefPushPath
	}
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	return &httpClient{cfg: cfg, client: hc}
}

func (c *httpClient) Trigger(ctx context.Context, p registry.Participant, roundID uint64) error {
	if c.cfg.TriggerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.TriggerTimeout)
		defer cancel()
	}

	u, err := url.Parse(p.Address + c.cfg.TriggerPath)
	if err != nil {
		return &TransportError{ParticipantID: p.ID, Op: OpTrigger, Err: err}
	}
	q := u.Query()
	q.Set(RoundIDKey, strconv.FormatUint(roundID, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &TransportError{ParticipantID: p.ID, Op: OpTrigger, Err: err}
	}

	return c.do(req, p.ID, OpTrigger)
}

func (c *httpClient) PushParameters(ctx context.Context, p registry.Participant, params fl.Parameters) error {
	if c.cfg.PushTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.PushTimeout)
		defer cancel()
	}

	data, err := json.Marshal(PushRequest{Weights: params.Tensors, Version: params.Version})
	if err != nil {
		return &TransportError{ParticipantID: p.ID, Op: OpPush, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Address+c.cfg.PushPath, bytes.NewReader(data))
	if err != nil {
		return &TransportError{ParticipantID: p.ID, Op: OpPush, Err: err}
	}
	req.Header.Set("Content-Type", ContentType)

	return c.do(req, p.ID, OpPush)
}

func (c *httpClient) do(req *http.Request, participantID, op string) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{ParticipantID: participantID, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return &TransportError{
			ParticipantID: participantID,
			Op:            op,
			StatusCode:    resp.StatusCode,
			Err:           fmt.Errorf("%w: %s", ErrUnexpectedStatus, bytes.TrimSpace(body)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
