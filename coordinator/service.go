package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/mqtt"
	"github.com/absmach/federator/pkg/registry"
	"github.com/absmach/federator/pkg/transport"
)

type service struct {
	store      ParameterStore
	collector  *fl.Collector
	aggregator fl.Aggregator
	registry   Registry
	client     transport.Client
	pubsub     mqtt.PubSub
	cfg        Config
	logger     *slog.Logger

	// phase serializes trigger, aggregation and broadcast.
	phase sync.Mutex

	mu    sync.RWMutex
	round fl.Round

	// expected holds the ids registered when the round opened.
	expected map[string]struct{}

	bgMu    sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewService returns the round coordinator. pubsub may be nil, in which
// case round events are not published and Subscribe is a no-op.
func NewService(
	cfg Config, store ParameterStore, aggregator fl.Aggregator, reg Registry,
	client transport.Client, pubsub mqtt.PubSub, logger *slog.Logger,
) Service {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefTopicPrefix
	}

	return &service{
		store:      store,
		collector:  fl.NewCollector(),
		aggregator: aggregator,
		registry:   reg,
		client:     client,
		pubsub:     pubsub,
		cfg:        cfg,
		logger:     logger,
		round:      fl.Round{State: fl.Idle, Version: store.Version()},
	}
}

func (svc *service) FetchParameters(_ context.Context, participantID string) (Snapshot, error) {
	if participantID != "" {
		svc.registry.Mark(participantID, registry.StatusResponded, nil)
	}
	roundID, open := svc.collector.RoundID()

	return Snapshot{
		Parameters: svc.store.Get(),
		RoundID:    roundID,
		Open:       open,
	}, nil
}

func (svc *service) ParametersAt(ctx context.Context, version uint64) (fl.Parameters, error) {
	return svc.store.At(ctx, version)
}

func (svc *service) SubmitUpdate(ctx context.Context, u fl.Update) (SubmitResult, error) {
	u.ReceivedAt = time.Now().UTC()
	if err := svc.collector.Submit(u); err != nil {
		var rejected *fl.RejectedUpdateError
		if errors.As(err, &rejected) {
			svc.logger.Debug("update rejected",
				slog.String("participant_id", u.ParticipantID),
				slog.Uint64("round_id", u.RoundID),
				slog.String("reason", rejected.Reason),
			)

			return SubmitResult{
				Status:  StatusRejected,
				Reason:  rejected.Reason,
				RoundID: rejected.OpenRoundID,
			}, nil
		}

		return SubmitResult{}, err
	}
	svc.registry.Mark(u.ParticipantID, registry.StatusResponded, nil)

	received := svc.collector.Count()
	r := svc.snapshot()
	if r.ID == u.RoundID && r.State == fl.Collecting && svc.allExpectedReceived(r) {
		svc.closeInBackground(ctx, r.ID)
	}

	return SubmitResult{
		Status:   StatusAccepted,
		RoundID:  u.RoundID,
		Received: received,
	}, nil
}

func (svc *service) AggregateNow(ctx context.Context) (fl.Outcome, error) {
	// A round that started closing finishes even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	observed := svc.snapshot()

	svc.phase.Lock()
	current := svc.snapshot()

	if observed.State == fl.Idle && current.State == fl.Idle {
		svc.retrigger(ctx)

		return fl.Outcome{
			Status:  fl.OutcomeSkipped,
			Version: svc.store.Version(),
			Reason:  reasonNoRound,
		}, nil
	}

	outcome, closed := svc.close(ctx, observed.ID)
	if !closed {
		svc.phase.Unlock()

		return outcome, nil
	}
	svc.retrigger(ctx)

	return outcome, nil
}

func (svc *service) TriggerRound(ctx context.Context) (fl.Round, error) {
	if !svc.phase.TryLock() {
		return svc.current(), ErrRoundInFlight
	}
	defer svc.phase.Unlock()

	ctx = context.WithoutCancel(ctx)
	r := svc.snapshot()
	switch {
	case r.State == fl.Idle:
		return svc.trigger(ctx), nil
	case r.State == fl.Collecting && !r.Deadline.IsZero() && !time.Now().Before(r.Deadline):
		svc.logger.Info("round window elapsed", slog.Uint64("round_id", r.ID))
		if _, closed := svc.close(ctx, r.ID); closed {
			return svc.trigger(ctx), nil
		}
	}

	return svc.current(), ErrRoundInFlight
}

func (svc *service) CurrentRound(_ context.Context) (fl.Round, error) {
	return svc.current(), nil
}

func (svc *service) ListParticipants(ctx context.Context) ([]registry.Participant, error) {
	return svc.registry.List(ctx), nil
}

func (svc *service) JoinParticipant(ctx context.Context, p registry.Participant) (registry.Participant, error) {
	if err := svc.registry.Join(ctx, p); err != nil {
		return registry.Participant{}, err
	}
	svc.logger.Info("participant joined", slog.String("participant_id", p.ID), slog.String("address", p.Address))

	return svc.registry.Get(ctx, p.ID)
}

func (svc *service) LeaveParticipant(ctx context.Context, id string) error {
	if err := svc.registry.Leave(ctx, id); err != nil {
		return err
	}
	svc.logger.Info("participant left", slog.String("participant_id", id))

	return nil
}

func (svc *service) Subscribe(ctx context.Context) error {
	if svc.pubsub == nil {
		return nil
	}

	return svc.pubsub.Subscribe(ctx, svc.topic(topicIngress), svc.Handle(ctx))
}

func (svc *service) Shutdown(ctx context.Context) error {
	svc.bgMu.Lock()
	svc.stopped = true
	svc.bgMu.Unlock()

	done := make(chan struct{})
	go func() {
		svc.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if svc.pubsub != nil {
		return svc.pubsub.Disconnect(ctx)
	}

	return nil
}

// trigger opens the next round and notifies every participant. The caller
// holds phase.
func (svc *service) trigger(ctx context.Context) fl.Round {
	r, participants := svc.open(ctx)
	svc.notify(ctx, r, participants)

	return svc.current()
}

// retrigger opens the next round right away and hands phase over to a
// goroutine that notifies participants and releases it.
func (svc *service) retrigger(ctx context.Context) {
	r, participants := svc.open(ctx)
	ctx = context.WithoutCancel(ctx)

	started := svc.background(func() {
		defer svc.phase.Unlock()
		svc.notify(ctx, r, participants)
	})
	if !started {
		svc.phase.Unlock()
	}
}

func (svc *service) open(ctx context.Context) (fl.Round, []registry.Participant) {
	participants := svc.registry.List(ctx)
	now := time.Now().UTC()
	expected := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		expected[p.ID] = struct{}{}
	}

	svc.mu.Lock()
	r := fl.Round{
		ID:        svc.round.ID + 1,
		State:     fl.Triggered,
		StartedAt: now,
		Expected:  len(participants),
		Version:   svc.store.Version(),
	}
	if svc.cfg.RoundWindow > 0 {
		r.Deadline = now.Add(svc.cfg.RoundWindow)
	}
	svc.round = r
	svc.expected = expected
	svc.mu.Unlock()

	svc.collector.Open(r.ID)

	return r, participants
}

func (svc *service) notify(ctx context.Context, r fl.Round, participants []registry.Participant) {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	svc.publish(ctx, svc.topic(topicStarted), RoundEvent{
		RoundID:      r.ID,
		Version:      r.Version,
		Participants: ids,
		StartedAt:    r.StartedAt,
		Deadline:     r.Deadline,
	})
	svc.logger.Info("round triggered",
		slog.Uint64("round_id", r.ID),
		slog.Uint64("version", r.Version),
		slog.Int("participants", len(participants)),
	)

	results := transport.Fanout(ctx, participants, svc.cfg.FanoutLimit, func(ctx context.Context, p registry.Participant) error {
		return svc.client.Trigger(ctx, p, r.ID)
	})
	svc.record(transport.OpTrigger, r.ID, results)

	svc.setState(r.ID, fl.Collecting)
	if svc.allExpectedReceived(r) {
		svc.closeInBackground(ctx, r.ID)
	}
}

// close aggregates round id and broadcasts the result. It reports false,
// doing nothing, when id is no longer the round being collected. The
// caller holds phase.
func (svc *service) close(ctx context.Context, id uint64) (fl.Outcome, bool) {
	r := svc.snapshot()
	if r.ID != id || r.State != fl.Collecting {
		return fl.Outcome{
			Status:  fl.OutcomeSkipped,
			RoundID: id,
			Version: svc.store.Version(),
			Reason:  reasonRoundAdvanced,
		}, false
	}

	svc.setState(id, fl.Aggregating)
	updates := svc.collector.Drain()
	outcome := svc.aggregate(ctx, id, updates)
	svc.publish(ctx, svc.topic(topicCompleted), outcome)

	return outcome, true
}

func (svc *service) aggregate(ctx context.Context, id uint64, updates []fl.Update) fl.Outcome {
	outcome := fl.Outcome{
		Status:  fl.OutcomeSkipped,
		RoundID: id,
		Version: svc.store.Version(),
	}
	if len(updates) == 0 {
		outcome.Reason = reasonNoUpdates
		svc.logger.Info("round closed without updates", slog.Uint64("round_id", id))

		return outcome
	}

	res, err := svc.aggregator.Aggregate(svc.store.Shape(), updates)
	for _, e := range res.Excluded {
		outcome.Excluded = append(outcome.Excluded, e.ParticipantID)
		svc.logger.Warn("update excluded from aggregation",
			slog.Uint64("round_id", id),
			slog.String("participant_id", e.ParticipantID),
			slog.String("error", e.Error()),
		)
	}
	switch {
	case errors.Is(err, fl.ErrEmptyInput):
		outcome.Reason = reasonNoValidUpdates
		svc.logger.Info("round closed without valid updates", slog.Uint64("round_id", id))

		return outcome
	case err != nil:
		outcome.Reason = reasonAggregateError
		svc.logger.Error("aggregation failed", slog.Uint64("round_id", id), slog.String("error", err.Error()))

		return outcome
	}

	version, err := svc.store.Set(ctx, res.Tensors)
	if err != nil {
		outcome.Reason = reasonPersistError
		svc.logger.Error("failed to store aggregated parameters", slog.Uint64("round_id", id), slog.String("error", err.Error()))

		return outcome
	}
	outcome.Status = fl.OutcomeSuccess
	outcome.Version = version
	outcome.Included = res.Included

	svc.mu.Lock()
	if svc.round.ID == id {
		svc.round.State = fl.Broadcasting
		svc.round.Version = version
	}
	svc.mu.Unlock()

	params := svc.store.Get()
	participants := svc.registry.List(ctx)
	results := transport.Fanout(ctx, participants, svc.cfg.FanoutLimit, func(ctx context.Context, p registry.Participant) error {
		return svc.client.PushParameters(ctx, p, params)
	})
	svc.record(transport.OpPush, id, results)
	outcome.Failed = transport.Failed(results)
	outcome.Pushed = len(results) - len(outcome.Failed)

	svc.logger.Info("round aggregated",
		slog.Uint64("round_id", id),
		slog.Uint64("version", version),
		slog.Int("included", len(res.Included)),
		slog.Int("excluded", len(res.Excluded)),
		slog.Int("pushed", outcome.Pushed),
	)

	return outcome
}

// closeInBackground closes round id once phase is free, then starts the
// next round.
func (svc *service) closeInBackground(ctx context.Context, id uint64) {
	ctx = context.WithoutCancel(ctx)
	svc.background(func() {
		svc.phase.Lock()
		defer svc.phase.Unlock()

		if _, closed := svc.close(ctx, id); closed {
			svc.trigger(ctx)
		}
	})
}

func (svc *service) background(fn func()) bool {
	svc.bgMu.Lock()
	defer svc.bgMu.Unlock()

	if svc.stopped {
		return false
	}
	svc.wg.Add(1)
	go func() {
		defer svc.wg.Done()
		fn()
	}()

	return true
}

func (svc *service) record(op string, roundID uint64, results []transport.Result) {
	for _, res := range results {
		if res.Err == nil {
			svc.registry.Mark(res.Participant.ID, registry.StatusResponded, nil)

			continue
		}

		status := registry.StatusFailed
		var terr *transport.TransportError
		if (errors.As(res.Err, &terr) && terr.Timeout()) || errors.Is(res.Err, context.DeadlineExceeded) {
			status = registry.StatusTimedOut
		}
		svc.registry.Mark(res.Participant.ID, status, res.Err)
		svc.logger.Warn("participant call failed",
			slog.String("op", op),
			slog.Uint64("round_id", roundID),
			slog.String("participant_id", res.Participant.ID),
			slog.String("status", string(status)),
			slog.String("duration", res.Duration.String()),
			slog.String("error", res.Err.Error()),
		)
	}
}

func (svc *service) publish(ctx context.Context, topic string, msg any) {
	if svc.pubsub == nil {
		return
	}
	if err := svc.pubsub.Publish(ctx, topic, msg); err != nil {
		svc.logger.Warn("failed to publish round event", slog.String("topic", topic), slog.String("error", err.Error()))
	}
}

func (svc *service) snapshot() fl.Round {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return svc.round
}

func (svc *service) current() fl.Round {
	r := svc.snapshot()
	if r.State == fl.Triggered || r.State == fl.Collecting {
		r.Received = svc.collector.Count()
	}
	if r.State == fl.Idle {
		r.Version = svc.store.Version()
	}

	return r
}

// allExpectedReceived reports whether every participant registered when r
// opened has submitted. Updates from other ids do not count.
func (svc *service) allExpectedReceived(r fl.Round) bool {
	if r.Expected == 0 {
		return false
	}
	svc.mu.RLock()
	expected := svc.expected
	svc.mu.RUnlock()

	return svc.collector.CountFrom(expected) >= r.Expected
}

func (svc *service) setState(id uint64, state fl.RoundState) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.round.ID == id {
		svc.round.State = state
	}
}
