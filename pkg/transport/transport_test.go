package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
	"github.com/absmach/federator/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger(t *testing.T) {
	var gotRound atomic.Value
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, transport.DefTriggerPath, r.URL.Path)
		gotRound.Store(r.URL.Query().Get(transport.RoundIDKey))
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusConflict)
	}))
	defer failing.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	client := transport.NewHTTPClient(transport.Config{TriggerTimeout: 100 * time.Millisecond}, nil)

	cases := []struct {
		desc    string
		address string
		status  int
		timeout bool
		err     bool
	}{
		{
			desc:    "trigger accepted",
			address: ok.URL,
		},
		{
			desc:    "participant answers with error status",
			address: failing.URL,
			status:  http.StatusConflict,
			err:     true,
		},
		{
			desc:    "participant does not answer in time",
			address: slow.URL,
			timeout: true,
			err:     true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := client.Trigger(context.Background(), registry.Participant{ID: "p1", Address: tc.address}, 7)
			if !tc.err {
				require.NoError(t, err)
				assert.Equal(t, "7", gotRound.Load())

				return
			}

			var terr *transport.TransportError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, "p1", terr.ParticipantID)
			assert.Equal(t, transport.OpTrigger, terr.Op)
			assert.Equal(t, tc.status, terr.StatusCode)
			assert.Equal(t, tc.timeout, terr.Timeout())
		})
	}
}

func TestPushParameters(t *testing.T) {
	var got transport.PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/custom", r.URL.Path)
		assert.Equal(t, transport.ContentType, r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := transport.NewHTTPClient(transport.Config{PushPath: "/custom", PushTimeout: time.Second}, srv.Client())
	params := fl.Parameters{Version: 3, Tensors: fl.Tensors{{1, 2}, {3}}}

	require.NoError(t, client.PushParameters(context.Background(), registry.Participant{ID: "p1", Address: srv.URL}, params))
	assert.Equal(t, transport.PushRequest{Weights: params.Tensors, Version: 3}, got)
}

func TestPushParametersUnreachable(t *testing.T) {
	client := transport.NewHTTPClient(transport.Config{PushTimeout: time.Second}, nil)

	err := client.PushParameters(context.Background(), registry.Participant{ID: "gone", Address: "http://127.0.0.1:1"}, fl.Parameters{})

	var terr *transport.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, transport.OpPush, terr.Op)
	assert.Zero(t, terr.StatusCode)
}

func TestFanout(t *testing.T) {
	participants := []registry.Participant{
		{ID: "p1"}, {ID: "p2"}, {ID: "p3"}, {ID: "p4"},
	}
	errBoom := errors.New("boom")

	cases := []struct {
		desc  string
		limit int
	}{
		{desc: "unbounded", limit: 0},
		{desc: "bounded", limit: 2},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var inFlight, peak atomic.Int32
			results := transport.Fanout(context.Background(), participants, tc.limit, func(_ context.Context, p registry.Participant) error {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				if p.ID == "p2" {
					return errBoom
				}

				return nil
			})

			require.Len(t, results, len(participants))
			for i, r := range results {
				assert.Equal(t, participants[i].ID, r.Participant.ID)
			}
			assert.ErrorIs(t, results[1].Err, errBoom)
			assert.Equal(t, []string{"p2"}, transport.Failed(results))
			if tc.limit > 0 {
				assert.LessOrEqual(t, peak.Load(), int32(tc.limit))
			}
		})
	}
}
