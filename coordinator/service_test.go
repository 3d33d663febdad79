package coordinator_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/absmach/federator/coordinator"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/mqtt"
	mqttmocks "github.com/absmach/federator/pkg/mqtt/mocks"
	"github.com/absmach/federator/pkg/params"
	"github.com/absmach/federator/pkg/registry"
	"github.com/absmach/federator/pkg/storage"
	"github.com/absmach/federator/pkg/transport"
	"github.com/absmach/federator/pkg/transport/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type fixture struct {
	svc    coordinator.Service
	store  *params.Store
	reg    *registry.Registry
	client *mocks.Client
}

func newFixture(t *testing.T, cfg coordinator.Config, ids ...string) fixture {
	t.Helper()

	ctx := context.Background()
	store, err := params.NewStore(ctx, storage.NewInMemoryRepository(), fl.Tensors{{0, 0}})
	require.NoError(t, err)

	reg, err := registry.New()
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, reg.Join(ctx, registry.Participant{ID: id, Address: "http://" + id + ".local:6001"}))
	}

	client := new(mocks.Client)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := coordinator.NewService(cfg, store, fl.NewMeanAggregator(), reg, client, nil, logger)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		assert.NoError(t, svc.Shutdown(ctx))
	})

	return fixture{svc: svc, store: store, reg: reg, client: client}
}

func participantIs(id string) any {
	return mock.MatchedBy(func(p registry.Participant) bool { return p.ID == id })
}

// respondOnFirstRound makes participants answer the first trigger with
// their value in every coordinate.
func (f fixture) respondOnFirstRound(t *testing.T, values map[string]float64) {
	f.client.On("Trigger", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(registry.Participant)
			roundID := args.Get(2).(uint64)
			v, ok := values[p.ID]
			if !ok || roundID != 1 {
				return
			}
			res, err := f.svc.SubmitUpdate(context.Background(), fl.Update{
				ParticipantID: p.ID,
				RoundID:       roundID,
				Tensors:       fl.Tensors{{v, v}},
			})
			assert.NoError(t, err)
			assert.Equal(t, coordinator.StatusAccepted, res.Status)
		}).
		Return(nil)
}

func (f fixture) waitForRound(t *testing.T, id uint64) {
	t.Helper()

	assert.Eventually(t, func() bool {
		r, err := f.svc.CurrentRound(context.Background())

		return err == nil && r.ID == id && r.State == fl.Collecting
	}, waitFor, 5*time.Millisecond)
}

func TestRoundAggregatesAndBroadcasts(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1", "p2", "p3")
	f.respondOnFirstRound(t, map[string]float64{"p1": 1, "p2": 2, "p3": 3})
	f.client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	r, err := f.svc.TriggerRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.ID)

	// All expected updates arrived, so the round closes on its own and the
	// next one starts.
	f.waitForRound(t, 2)

	got := f.store.Get()
	assert.Equal(t, uint64(1), got.Version)
	assert.Equal(t, fl.Tensors{{2, 2}}, got.Tensors)
	f.client.AssertNumberOfCalls(t, "PushParameters", 3)
	f.client.AssertCalled(t, "PushParameters", mock.Anything, participantIs("p2"),
		mock.MatchedBy(func(p fl.Parameters) bool { return p.Version == 1 }))

	for _, p := range f.reg.List(context.Background()) {
		assert.Equal(t, registry.StatusResponded, p.Status, p.ID)
	}
}

func TestAggregateNow(t *testing.T) {
	cases := []struct {
		desc      string
		responses map[string]float64
		status    fl.OutcomeStatus
		reason    string
		version   uint64
		tensors   fl.Tensors
		included  []string
	}{
		{
			desc:     "no updates is a skipped round",
			status:   fl.OutcomeSkipped,
			reason:   "no_updates",
			version:  0,
			tensors:  fl.Tensors{{0, 0}},
			included: nil,
		},
		{
			desc:      "partial round aggregates what arrived",
			responses: map[string]float64{"p1": 1, "p3": 3},
			status:    fl.OutcomeSuccess,
			version:   1,
			tensors:   fl.Tensors{{2, 2}},
			included:  []string{"p1", "p3"},
		},
		{
			desc:      "single update",
			responses: map[string]float64{"p2": 4},
			status:    fl.OutcomeSuccess,
			version:   1,
			tensors:   fl.Tensors{{4, 4}},
			included:  []string{"p2"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			f := newFixture(t, coordinator.Config{}, "p1", "p2", "p3")
			f.respondOnFirstRound(t, tc.responses)
			f.client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)

			_, err := f.svc.TriggerRound(context.Background())
			require.NoError(t, err)

			out, err := f.svc.AggregateNow(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.status, out.Status)
			assert.Equal(t, tc.reason, out.Reason)
			assert.Equal(t, uint64(1), out.RoundID)
			assert.Equal(t, tc.version, out.Version)
			assert.Equal(t, tc.included, out.Included)
			assert.Equal(t, tc.tensors, f.store.Get().Tensors)

			if tc.status == fl.OutcomeSkipped {
				f.client.AssertNotCalled(t, "PushParameters", mock.Anything, mock.Anything, mock.Anything)
			} else {
				assert.Equal(t, 3, out.Pushed)
			}

			f.waitForRound(t, 2)
		})
	}
}

func TestAggregateNowWithoutRoundStartsOne(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1")
	f.client.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	out, err := f.svc.AggregateNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fl.OutcomeSkipped, out.Status)
	assert.Equal(t, "no_round_open", out.Reason)
	assert.Equal(t, uint64(0), out.Version)

	f.waitForRound(t, 1)
}

func TestTriggerFailuresDoNotBlockRound(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1", "p2", "p3")
	f.client.On("Trigger", mock.Anything, participantIs("p2"), mock.Anything).
		Return(&transport.TransportError{ParticipantID: "p2", Op: transport.OpTrigger, Err: context.DeadlineExceeded})
	f.client.On("Trigger", mock.Anything, participantIs("p3"), mock.Anything).
		Return(&transport.TransportError{ParticipantID: "p3", Op: transport.OpTrigger, StatusCode: 500, Err: transport.ErrUnexpectedStatus})
	f.respondOnFirstRound(t, map[string]float64{"p1": 5})
	f.client.On("PushParameters", mock.Anything, participantIs("p3"), mock.Anything).
		Return(&transport.TransportError{ParticipantID: "p3", Op: transport.OpPush, Err: transport.ErrUnexpectedStatus})
	f.client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.TriggerRound(context.Background())
	require.NoError(t, err)

	p2, err := f.reg.Get(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusTimedOut, p2.Status)
	p3, err := f.reg.Get(context.Background(), "p3")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusFailed, p3.Status)
	assert.NotEmpty(t, p3.LastError)

	out, err := f.svc.AggregateNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fl.OutcomeSuccess, out.Status)
	assert.Equal(t, []string{"p1"}, out.Included)
	assert.Equal(t, 2, out.Pushed)
	assert.Equal(t, []string{"p3"}, out.Failed)
	assert.Equal(t, fl.Tensors{{5, 5}}, f.store.Get().Tensors)

	f.waitForRound(t, 2)
}

func TestShapeMismatchIsExcluded(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1", "p2")
	f.client.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	_, err := f.svc.TriggerRound(ctx)
	require.NoError(t, err)

	_, err = f.svc.SubmitUpdate(ctx, fl.Update{ParticipantID: "p1", RoundID: 1, Tensors: fl.Tensors{{1, 3}}})
	require.NoError(t, err)
	out, err := f.svc.AggregateNow(ctx)
	require.NoError(t, err)
	require.Equal(t, fl.OutcomeSuccess, out.Status)

	f.waitForRound(t, 2)
	_, err = f.svc.SubmitUpdate(ctx, fl.Update{ParticipantID: "p2", RoundID: 2, Tensors: fl.Tensors{{1, 2, 3}}})
	require.NoError(t, err)

	out, err = f.svc.AggregateNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, fl.OutcomeSkipped, out.Status)
	assert.Equal(t, "no_valid_updates", out.Reason)
	assert.Equal(t, []string{"p2"}, out.Excluded)
	assert.Equal(t, uint64(1), f.store.Version())
	assert.Equal(t, fl.Tensors{{1, 3}}, f.store.Get().Tensors)
}

func TestConcurrentAggregateNowClosesOnce(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1", "p2", "p3")
	f.respondOnFirstRound(t, map[string]float64{"p1": 1, "p2": 3})
	f.client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.TriggerRound(context.Background())
	require.NoError(t, err)

	const callers = 8
	outcomes := make([]fl.Outcome, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.svc.AggregateNow(context.Background())
			assert.NoError(t, err)
			outcomes[i] = out
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, out := range outcomes {
		if out.Status == fl.OutcomeSuccess {
			succeeded++
			assert.Equal(t, uint64(1), out.RoundID)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, uint64(1), f.store.Version())
	assert.Equal(t, fl.Tensors{{2, 2}}, f.store.Get().Tensors)
}

func TestSubmitUpdate(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1", "p2", "p3")
	ctx := context.Background()

	res, err := f.svc.SubmitUpdate(ctx, fl.Update{ParticipantID: "p1", RoundID: 1, Tensors: fl.Tensors{{1, 1}}})
	require.NoError(t, err)
	assert.Equal(t, coordinator.StatusRejected, res.Status)
	assert.Equal(t, fl.ReasonRoundClosed, res.Reason)

	f.client.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	_, err = f.svc.TriggerRound(ctx)
	require.NoError(t, err)

	cases := []struct {
		desc     string
		update   fl.Update
		status   string
		reason   string
		received int
	}{
		{
			desc:     "first update is accepted",
			update:   fl.Update{ParticipantID: "p1", RoundID: 1, Tensors: fl.Tensors{{1, 1}}},
			status:   coordinator.StatusAccepted,
			received: 1,
		},
		{
			desc:   "second update from the same participant",
			update: fl.Update{ParticipantID: "p1", RoundID: 1, Tensors: fl.Tensors{{9, 9}}},
			status: coordinator.StatusRejected,
			reason: fl.ReasonDuplicate,
		},
		{
			desc:   "update for an old round",
			update: fl.Update{ParticipantID: "p2", RoundID: 0, Tensors: fl.Tensors{{1, 1}}},
			status: coordinator.StatusRejected,
			reason: fl.ReasonStaleRound,
		},
		{
			desc:   "update for a future round",
			update: fl.Update{ParticipantID: "p2", RoundID: 7, Tensors: fl.Tensors{{1, 1}}},
			status: coordinator.StatusRejected,
			reason: fl.ReasonStaleRound,
		},
		{
			desc:     "participant outside the registry",
			update:   fl.Update{ParticipantID: "stranger", RoundID: 1, Tensors: fl.Tensors{{1, 1}}},
			status:   coordinator.StatusAccepted,
			received: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			res, err := f.svc.SubmitUpdate(ctx, tc.update)
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, uint64(1), res.RoundID)
			assert.Equal(t, tc.received, res.Received)
		})
	}

	r, err := f.svc.CurrentRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Received)
	assert.Equal(t, 3, r.Expected)
}

func TestTriggerRoundInFlight(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1")
	release := make(chan struct{})
	entered := make(chan struct{})
	f.client.On("Trigger", mock.Anything, mock.Anything, uint64(1)).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.TriggerRound(context.Background())
		done <- err
	}()
	<-entered

	r, err := f.svc.TriggerRound(context.Background())
	assert.ErrorIs(t, err, coordinator.ErrRoundInFlight)
	assert.Equal(t, fl.Triggered, r.State)

	close(release)
	require.NoError(t, <-done)

	r, err = f.svc.TriggerRound(context.Background())
	assert.ErrorIs(t, err, coordinator.ErrRoundInFlight)
	assert.Equal(t, fl.Collecting, r.State)
	assert.Equal(t, uint64(1), r.ID)
}

func TestRoundWindowElapsed(t *testing.T) {
	f := newFixture(t, coordinator.Config{RoundWindow: 20 * time.Millisecond}, "p1", "p2")
	f.respondOnFirstRound(t, map[string]float64{"p1": 6})
	f.client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	r, err := f.svc.TriggerRound(context.Background())
	require.NoError(t, err)
	assert.False(t, r.Deadline.IsZero())

	_, err = f.svc.TriggerRound(context.Background())
	assert.ErrorIs(t, err, coordinator.ErrRoundInFlight)

	time.Sleep(30 * time.Millisecond)
	r, err = f.svc.TriggerRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.ID)
	assert.Equal(t, uint64(1), f.store.Version())
	assert.Equal(t, fl.Tensors{{6, 6}}, f.store.Get().Tensors)
}

func TestFetchParameters(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1")
	ctx := context.Background()

	snap, err := f.svc.FetchParameters(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, snap.Open)
	assert.Equal(t, uint64(0), snap.Version)
	assert.Equal(t, fl.Tensors{{0, 0}}, snap.Tensors)

	p, err := f.reg.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusResponded, p.Status)

	f.client.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	_, err = f.svc.TriggerRound(ctx)
	require.NoError(t, err)

	snap, err = f.svc.FetchParameters(ctx, "")
	require.NoError(t, err)
	assert.True(t, snap.Open)
	assert.Equal(t, uint64(1), snap.RoundID)

	snap.Tensors[0][0] = 42
	again, err := f.svc.FetchParameters(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, fl.Tensors{{0, 0}}, again.Tensors)
}

func TestParticipants(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1")
	ctx := context.Background()

	p, err := f.svc.JoinParticipant(ctx, registry.Participant{ID: "p2", Address: "http://p2.local:6001/"})
	require.NoError(t, err)
	assert.Equal(t, "http://p2.local:6001", p.Address)
	assert.Equal(t, registry.StatusUnknown, p.Status)

	_, err = f.svc.JoinParticipant(ctx, registry.Participant{ID: "p2", Address: "http://p2.local:6001"})
	assert.Error(t, err)

	list, err := f.svc.ListParticipants(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, f.svc.LeaveParticipant(ctx, "p1"))
	assert.Error(t, f.svc.LeaveParticipant(ctx, "p1"))

	list, err = f.svc.ListParticipants(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p2", list[0].ID)
}

func TestBrokerIngressAndEvents(t *testing.T) {
	ctx := context.Background()
	store, err := params.NewStore(ctx, storage.NewInMemoryRepository(), fl.Tensors{{0}})
	require.NoError(t, err)
	reg, err := registry.New(
		registry.Participant{ID: "p1", Address: "http://p1.local:6001"},
		registry.Participant{ID: "p3", Address: "http://p3.local:6001"},
	)
	require.NoError(t, err)

	client := new(mocks.Client)
	client.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var handler mqtt.Handler
	pubsub := new(mqttmocks.PubSub)
	pubsub.On("Subscribe", mock.Anything, "fl/#", mock.Anything).
		Run(func(args mock.Arguments) {
			handler = args.Get(2).(mqtt.Handler)
		}).
		Return(nil)
	pubsub.On("Publish", mock.Anything, "fl/rounds/started", mock.AnythingOfType("coordinator.RoundEvent")).Return(nil)
	pubsub.On("Publish", mock.Anything, "fl/rounds/completed", mock.AnythingOfType("fl.Outcome")).Return(nil)
	pubsub.On("Disconnect", mock.Anything).Return(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := coordinator.NewService(coordinator.Config{}, store, fl.NewMeanAggregator(), reg, client, pubsub, logger)
	defer func() {
		assert.NoError(t, svc.Shutdown(ctx))
		pubsub.AssertCalled(t, "Disconnect", mock.Anything)
	}()

	require.NoError(t, svc.Subscribe(ctx))
	require.NotNil(t, handler)

	_, err = svc.TriggerRound(ctx)
	require.NoError(t, err)
	pubsub.AssertCalled(t, "Publish", mock.Anything, "fl/rounds/started", mock.Anything)

	require.NoError(t, handler("fl/participants/join", map[string]any{"id": "p2", "address": "http://p2.local:6001"}))
	_, err = reg.Get(ctx, "p2")
	require.NoError(t, err)

	assert.Error(t, handler("fl/updates", map[string]any{"round_id": 1, "tensors": []any{[]any{4.0}}}))
	assert.ErrorIs(t, handler("fl/updates", map[string]any{"participant_id": "p1", "round_id": 1, "tensors": []any{[]any{}}}), fl.ErrEmptyTensors)
	require.NoError(t, handler("fl/updates", map[string]any{"participant_id": "p1", "round_id": 1, "tensors": []any{[]any{4.0}}}))
	require.NoError(t, handler("fl/rounds/started", map[string]any{"round_id": 1}))

	out, err := svc.AggregateNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, fl.OutcomeSuccess, out.Status)
	assert.Equal(t, fl.Tensors{{4}}, store.Get().Tensors)
	pubsub.AssertCalled(t, "Publish", mock.Anything, "fl/rounds/completed", mock.Anything)
}

func TestUnregisteredUpdatesDoNotCloseRound(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1", "p2", "p3")
	f.client.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	_, err := f.svc.TriggerRound(ctx)
	require.NoError(t, err)

	for id, v := range map[string]float64{"p1": 1, "p2": 2, "stranger": 3} {
		res, err := f.svc.SubmitUpdate(ctx, fl.Update{ParticipantID: id, RoundID: 1, Tensors: fl.Tensors{{v, v}}})
		require.NoError(t, err)
		require.Equal(t, coordinator.StatusAccepted, res.Status)
	}

	assert.Never(t, func() bool {
		r, err := f.svc.CurrentRound(ctx)

		return err != nil || r.ID != 1
	}, 100*time.Millisecond, 5*time.Millisecond)

	res, err := f.svc.SubmitUpdate(ctx, fl.Update{ParticipantID: "p3", RoundID: 1, Tensors: fl.Tensors{{6, 6}}})
	require.NoError(t, err)
	assert.Equal(t, coordinator.StatusAccepted, res.Status)

	f.waitForRound(t, 2)
	assert.Equal(t, fl.Tensors{{3, 3}}, f.store.Get().Tensors)
}

func TestNonFiniteUpdatesKeepModelUsable(t *testing.T) {
	f := newFixture(t, coordinator.Config{}, "p1", "p2", "p3", "p4")
	f.client.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	_, err := f.svc.TriggerRound(ctx)
	require.NoError(t, err)

	huge := fl.Tensors{{math.MaxFloat64, 1.7e308}}
	for _, id := range []string{"p1", "p2"} {
		_, err := f.svc.SubmitUpdate(ctx, fl.Update{ParticipantID: id, RoundID: 1, Tensors: huge})
		require.NoError(t, err)
	}
	out, err := f.svc.AggregateNow(ctx)
	require.NoError(t, err)
	require.Equal(t, fl.OutcomeSuccess, out.Status)
	assert.Equal(t, huge, f.store.Get().Tensors)

	f.waitForRound(t, 2)
	for id, tensors := range map[string]fl.Tensors{
		"p1": {{math.NaN(), 0}},
		"p2": {{math.Inf(-1), 0}},
		"p3": {{1, 1}},
	} {
		_, err := f.svc.SubmitUpdate(ctx, fl.Update{ParticipantID: id, RoundID: 2, Tensors: tensors})
		require.NoError(t, err)
	}
	out, err = f.svc.AggregateNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, fl.OutcomeSuccess, out.Status)
	assert.Equal(t, []string{"p3"}, out.Included)
	assert.Equal(t, []string{"p1", "p2"}, out.Excluded)
	assert.Equal(t, uint64(2), f.store.Version())
	assert.Equal(t, fl.Tensors{{1, 1}}, f.store.Get().Tensors)
}

func TestEmptyModelAdoptsMajorityShape(t *testing.T) {
	ctx := context.Background()
	store, err := params.NewStore(ctx, storage.NewInMemoryRepository(), nil)
	require.NoError(t, err)
	reg, err := registry.New()
	require.NoError(t, err)

	client := new(mocks.Client)
	client.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	client.On("PushParameters", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := coordinator.NewService(coordinator.Config{}, store, fl.NewMeanAggregator(), reg, client, nil, logger)
	defer func() {
		assert.NoError(t, svc.Shutdown(ctx))
	}()

	_, err = svc.TriggerRound(ctx)
	require.NoError(t, err)
	for id, tensors := range map[string]fl.Tensors{
		"a": {{5}},
		"b": {{1, 1}},
		"c": {{3, 3}},
	} {
		_, err := svc.SubmitUpdate(ctx, fl.Update{ParticipantID: id, RoundID: 1, Tensors: tensors})
		require.NoError(t, err)
	}

	out, err := svc.AggregateNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, fl.OutcomeSuccess, out.Status)
	assert.Equal(t, []string{"b", "c"}, out.Included)
	assert.Equal(t, []string{"a"}, out.Excluded)
	assert.Equal(t, fl.Tensors{{2, 2}}, store.Get().Tensors)
}
