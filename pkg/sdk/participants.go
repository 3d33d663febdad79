package sdk

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

const participantsEndpoint = "/participants"

type Participant struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Status    string    `json:"status,omitempty"`
	LastSeen  time.Time `json:"last_seen,omitzero"`
	LastError string    `json:"last_error,omitempty"`
	JoinedAt  time.Time `json:"joined_at,omitzero"`
}

type ParticipantsPage struct {
	Total        int           `json:"total"`
	Participants []Participant `json:"participants"`
}

func (sdk *fedSDK) ListParticipants() (ParticipantsPage, error) {
	body, _, err := sdk.processRequest(request{
		method: http.MethodGet,
		url:    sdk.coordinatorURL + participantsEndpoint,
	}, http.StatusOK)
	if err != nil {
		return ParticipantsPage{}, err
	}

	var page ParticipantsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return ParticipantsPage{}, err
	}

	return page, nil
}

func (sdk *fedSDK) JoinParticipant(p Participant) (Participant, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Participant{}, err
	}

	body, _, err := sdk.processRequest(request{
		method: http.MethodPost,
		url:    sdk.coordinatorURL + participantsEndpoint,
		data:   data,
	}, http.StatusCreated)
	if err != nil {
		return Participant{}, err
	}

	var out Participant
	if err := json.Unmarshal(body, &out); err != nil {
		return Participant{}, err
	}

	return out, nil
}

func (sdk *fedSDK) LeaveParticipant(id string) error {
	_, _, err := sdk.processRequest(request{
		method: http.MethodDelete,
		url:    sdk.coordinatorURL + participantsEndpoint + "/" + url.PathEscape(id),
	}, http.StatusNoContent)

	return err
}
