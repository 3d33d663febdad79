package api

import (
	"net/http"
	"strconv"

	"github.com/absmach/federator/coordinator"
	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*paramsResponse)(nil)
	_ supermq.Response = (*versionResponse)(nil)
	_ supermq.Response = (*submitResponse)(nil)
	_ supermq.Response = (*outcomeResponse)(nil)
	_ supermq.Response = (*roundResponse)(nil)
	_ supermq.Response = (*participantResponse)(nil)
	_ supermq.Response = (*listParticipantsResponse)(nil)
)

type paramsResponse struct {
	coordinator.Snapshot
}

func (res paramsResponse) Code() int {
	return http.StatusOK
}

func (res paramsResponse) Headers() map[string]string {
	return map[string]string{
		"X-Parameters-Version": strconv.FormatUint(res.Version, 10),
	}
}

func (res paramsResponse) Empty() bool {
	return false
}

type versionResponse struct {
	fl.Parameters
}

func (res versionResponse) Code() int {
	return http.StatusOK
}

func (res versionResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res versionResponse) Empty() bool {
	return false
}

type submitResponse struct {
	coordinator.SubmitResult
}

func (res submitResponse) Code() int {
	if res.Status == coordinator.StatusRejected {
		return http.StatusConflict
	}

	return http.StatusOK
}

func (res submitResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res submitResponse) Empty() bool {
	return false
}

type outcomeResponse struct {
	fl.Outcome
}

func (res outcomeResponse) Code() int {
	return http.StatusOK
}

func (res outcomeResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res outcomeResponse) Empty() bool {
	return false
}

type roundResponse struct {
	fl.Round
}

func (res roundResponse) Code() int {
	return http.StatusOK
}

func (res roundResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res roundResponse) Empty() bool {
	return false
}

type participantResponse struct {
	registry.Participant
	created bool
	deleted bool
}

func (res participantResponse) Code() int {
	if res.created {
		return http.StatusCreated
	}
	if res.deleted {
		return http.StatusNoContent
	}

	return http.StatusOK
}

func (res participantResponse) Headers() map[string]string {
	if res.created {
		return map[string]string{
			"Location": "/participants/" + res.ID,
		}
	}

	return map[string]string{}
}

func (res participantResponse) Empty() bool {
	return res.deleted
}

type listParticipantsResponse struct {
	Total        int                    `json:"total"`
	Participants []registry.Participant `json:"participants"`
}

func (res listParticipantsResponse) Code() int {
	return http.StatusOK
}

func (res listParticipantsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res listParticipantsResponse) Empty() bool {
	return false
}
