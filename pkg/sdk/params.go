package sdk

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/absmach/federator/pkg/fl"
	"github.com/fxamacker/cbor/v2"
)

const (
	parametersEndpoint = "/parameters"
	updatesEndpoint    = "/updates"
	cborSuffix         = "/cbor"
)

type Parameters struct {
	Version   uint64     `json:"version"`
	Tensors   fl.Tensors `json:"tensors"`
	UpdatedAt time.Time  `json:"updated_at"`
	RoundID   uint64     `json:"round_id,omitempty"`
	Open      bool       `json:"open,omitempty"`
}

type SubmitResult struct {
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	RoundID  uint64 `json:"round_id"`
	Received int    `json:"received"`
}

func (sdk *fedSDK) FetchParameters(participantID string) (Parameters, error) {
	u := sdk.coordinatorURL + parametersEndpoint
	if participantID != "" {
		u += "?" + url.Values{"participant_id": {participantID}}.Encode()
	}

	return sdk.getParameters(u)
}

func (sdk *fedSDK) ParametersAt(version uint64) (Parameters, error) {
	return sdk.getParameters(sdk.coordinatorURL + parametersEndpoint + "/" + strconv.FormatUint(version, 10))
}

func (sdk *fedSDK) getParameters(u string) (Parameters, error) {
	req := request{method: http.MethodGet, url: u}
	if sdk.cbor {
		req.accept = CTCBOR
	}

	body, _, err := sdk.processRequest(req, http.StatusOK)
	if err != nil {
		return Parameters{}, err
	}

	var p Parameters
	if err := sdk.decode(body, req.accept, &p); err != nil {
		return Parameters{}, err
	}

	return p, nil
}

func (sdk *fedSDK) SubmitUpdate(u fl.Update) (SubmitResult, error) {
	req := request{
		method: http.MethodPost,
		url:    sdk.coordinatorURL + updatesEndpoint,
	}

	var err error
	if sdk.cbor {
		req.url += cborSuffix
		req.contentType = CTCBOR
		req.data, err = cbor.Marshal(u)
	} else {
		req.data, err = json.Marshal(u)
	}
	if err != nil {
		return SubmitResult{}, err
	}

	body, _, err := sdk.processRequest(req, http.StatusOK, http.StatusConflict)
	if err != nil {
		return SubmitResult{}, err
	}

	var res SubmitResult
	if err := json.Unmarshal(body, &res); err != nil {
		return SubmitResult{}, err
	}

	return res, nil
}
