package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/absmach/federator/pkg/fl"
	"github.com/fxamacker/cbor/v2"
)

const (
	CTJSON string = "application/json"
	CTCBOR string = "application/cbor"

	defTimeout = 30 * time.Second
)

var (
	ErrUnexpectedStatus = errors.New("unexpected response code")
	// ErrConflict accompanies ErrUnexpectedStatus on a 409 response.
	ErrConflict = errors.New("conflict")
)

type SDK interface {
	// FetchParameters gets the current global parameters and the round
	// accepting updates. participantID may be empty.
	//
	// example:
	//  params, _ := sdk.FetchParameters("participant-1")
	//  fmt.Println(params.Version, params.RoundID)
	FetchParameters(participantID string) (Parameters, error)

	// ParametersAt gets a previously published version.
	//
	// example:
	//  params, _ := sdk.ParametersAt(3)
	//  fmt.Println(params.Tensors)
	ParametersAt(version uint64) (Parameters, error)

	// SubmitUpdate sends a local update. A refused update is not an error;
	// inspect the returned status.
	//
	// example:
	//  res, _ := sdk.SubmitUpdate(fl.Update{
	//    ParticipantID: "participant-1",
	//    RoundID:       params.RoundID,
	//    Tensors:       tensors,
	//  })
	//  fmt.Println(res.Status)
	SubmitUpdate(u fl.Update) (SubmitResult, error)

	// AggregateNow closes the open round.
	//
	// example:
	//  outcome, _ := sdk.AggregateNow()
	//  fmt.Println(outcome.Status, outcome.Version)
	AggregateNow() (fl.Outcome, error)

	// TriggerRound starts a round when none is in flight.
	//
	// example:
	//  round, _ := sdk.TriggerRound()
	//  fmt.Println(round.ID)
	TriggerRound() (fl.Round, error)

	// CurrentRound gets the state of the latest round.
	CurrentRound() (fl.Round, error)

	// ListParticipants lists registered participants.
	ListParticipants() (ParticipantsPage, error)

	// JoinParticipant registers a participant.
	//
	// example:
	//  p, _ := sdk.JoinParticipant(sdk.Participant{
	//    ID:      "participant-1",
	//    Address: "http://10.0.0.5:6001",
	//  })
	JoinParticipant(p Participant) (Participant, error)

	// LeaveParticipant removes a participant.
	LeaveParticipant(id string) error
}

type fedSDK struct {
	coordinatorURL string
	cbor           bool
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
	// CBOR exchanges parameters and updates as CBOR instead of JSON.
	CBOR    bool
	Timeout time.Duration
}

func NewSDK(cfg Config) SDK {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defTimeout
	}

	return &fedSDK{
		coordinatorURL: strings.TrimRight(cfg.CoordinatorURL, "/"),
		cbor:           cfg.CBOR,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

type request struct {
	method      string
	url         string
	contentType string
	accept      string
	data        []byte
}

// processRequest sends req and returns the body when the status is one of
// expectedRespCodes.
func (sdk *fedSDK) processRequest(req request, expectedRespCodes ...int) (body []byte, status int, err error) {
	r, err := http.NewRequest(req.method, req.url, bytes.NewReader(req.data))
	if err != nil {
		return []byte{}, 0, err
	}

	contentType := req.contentType
	if contentType == "" {
		contentType = CTJSON
	}
	r.Header.Add("Content-Type", contentType)
	if req.accept != "" {
		r.Header.Add("Accept", req.accept)
	}

	resp, err := sdk.client.Do(r)
	if err != nil {
		return []byte{}, 0, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, resp.StatusCode, err
	}

	for _, code := range expectedRespCodes {
		if resp.StatusCode == code {
			return body, resp.StatusCode, nil
		}
	}

	err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	var e struct {
		Err string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Err != "" {
		err = fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, e.Err)
	}
	if resp.StatusCode == http.StatusConflict {
		err = errors.Join(ErrConflict, err)
	}

	return []byte{}, resp.StatusCode, err
}

func (sdk *fedSDK) decode(data []byte, contentType string, v any) error {
	if contentType == CTCBOR {
		return cbor.Unmarshal(data, v)
	}

	return json.Unmarshal(data, v)
}
