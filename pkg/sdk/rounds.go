package sdk

import (
	"encoding/json"
	"net/http"

	"github.com/absmach/federator/pkg/fl"
)

const roundsEndpoint = "/rounds"

func (sdk *fedSDK) AggregateNow() (fl.Outcome, error) {
	body, _, err := sdk.processRequest(request{
		method: http.MethodPost,
		url:    sdk.coordinatorURL + roundsEndpoint + "/aggregate",
	}, http.StatusOK)
	if err != nil {
		return fl.Outcome{}, err
	}

	var out fl.Outcome
	if err := json.Unmarshal(body, &out); err != nil {
		return fl.Outcome{}, err
	}

	return out, nil
}

func (sdk *fedSDK) TriggerRound() (fl.Round, error) {
	return sdk.round(http.MethodPost, "/trigger")
}

func (sdk *fedSDK) CurrentRound() (fl.Round, error) {
	return sdk.round(http.MethodGet, "/current")
}

func (sdk *fedSDK) round(method, path string) (fl.Round, error) {
	body, _, err := sdk.processRequest(request{
		method: method,
		url:    sdk.coordinatorURL + roundsEndpoint + path,
	}, http.StatusOK)
	if err != nil {
		return fl.Round{}, err
	}

	var r fl.Round
	if err := json.Unmarshal(body, &r); err != nil {
		return fl.Round{}, err
	}

	return r, nil
}
