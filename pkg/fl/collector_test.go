package fl_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/absmach/federator/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorSubmit(t *testing.T) {
	cases := []struct {
		desc     string
		open     bool
		roundID  uint64
		prior    []fl.Update
		update   fl.Update
		reason   string
		err      error
		expected int
	}{
		{
			desc:     "accept update for open round",
			open:     true,
			roundID:  3,
			update:   fl.Update{ParticipantID: "p1", RoundID: 3, Tensors: fl.Tensors{{1}}},
			expected: 1,
		},
		{
			desc:     "reject update for older round",
			open:     true,
			roundID:  3,
			update:   fl.Update{ParticipantID: "p1", RoundID: 2, Tensors: fl.Tensors{{1}}},
			reason:   fl.ReasonStaleRound,
			err:      fl.ErrStaleRound,
			expected: 0,
		},
		{
			desc:     "reject update for future round",
			open:     true,
			roundID:  3,
			update:   fl.Update{ParticipantID: "p1", RoundID: 4, Tensors: fl.Tensors{{1}}},
			reason:   fl.ReasonStaleRound,
			err:      fl.ErrStaleRound,
			expected: 0,
		},
		{
			desc:     "reject second update from same participant",
			open:     true,
			roundID:  3,
			prior:    []fl.Update{{ParticipantID: "p1", RoundID: 3, Tensors: fl.Tensors{{1}}}},
			update:   fl.Update{ParticipantID: "p1", RoundID: 3, Tensors: fl.Tensors{{9}}},
			reason:   fl.ReasonDuplicate,
			err:      fl.ErrDuplicateUpdate,
			expected: 1,
		},
		{
			desc:     "reject when no round is open",
			open:     false,
			update:   fl.Update{ParticipantID: "p1", RoundID: 0, Tensors: fl.Tensors{{1}}},
			reason:   fl.ReasonRoundClosed,
			err:      fl.ErrRoundClosed,
			expected: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			c := fl.NewCollector()
			if tc.open {
				c.Open(tc.roundID)
			}
			for _, u := range tc.prior {
				require.NoError(t, c.Submit(u))
			}

			err := c.Submit(tc.update)
			assert.ErrorIs(t, err, tc.err)
			if tc.err != nil {
				var rejected *fl.RejectedUpdateError
				require.ErrorAs(t, err, &rejected)
				assert.Equal(t, tc.reason, rejected.Reason)
			}
			assert.Equal(t, tc.expected, c.Count())
		})
	}
}

func TestCollectorFirstSubmissionWins(t *testing.T) {
	c := fl.NewCollector()
	c.Open(1)

	require.NoError(t, c.Submit(fl.Update{ParticipantID: "p1", RoundID: 1, Tensors: fl.Tensors{{1}}}))
	require.Error(t, c.Submit(fl.Update{ParticipantID: "p1", RoundID: 1, Tensors: fl.Tensors{{2}}}))

	drained := c.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, fl.Tensors{{1}}, drained[0].Tensors)
}

func TestCollectorDrain(t *testing.T) {
	c := fl.NewCollector()
	c.Open(5)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, c.Submit(fl.Update{ParticipantID: id, RoundID: 5, Tensors: fl.Tensors{{1}}}))
	}

	drained := c.Drain()
	ids := make([]string, len(drained))
	for i, u := range drained {
		ids[i] = u.ParticipantID
		assert.False(t, u.ReceivedAt.IsZero())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, 0, c.Count())

	roundID, open := c.RoundID()
	assert.Equal(t, uint64(5), roundID)
	assert.False(t, open)

	err := c.Submit(fl.Update{ParticipantID: "late", RoundID: 5})
	assert.ErrorIs(t, err, fl.ErrRoundClosed)
}

func TestCollectorOpenDropsPreviousRound(t *testing.T) {
	c := fl.NewCollector()
	c.Open(1)
	require.NoError(t, c.Submit(fl.Update{ParticipantID: "p1", RoundID: 1}))

	c.Open(2)
	assert.Equal(t, 0, c.Count())
	assert.NoError(t, c.Submit(fl.Update{ParticipantID: "p1", RoundID: 2}))
	assert.ErrorIs(t, c.Submit(fl.Update{ParticipantID: "p2", RoundID: 1}), fl.ErrStaleRound)
}

func TestCollectorConcurrentSubmit(t *testing.T) {
	c := fl.NewCollector()
	c.Open(1)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		for range 2 {
			go func() {
				defer wg.Done()
				_ = c.Submit(fl.Update{ParticipantID: fmt.Sprintf("p%d", i), RoundID: 1})
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, 50, c.Count())
}
