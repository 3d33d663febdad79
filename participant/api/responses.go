package api

import (
	"net/http"

	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/supermq"
)

const (
	statusAccepted = "accepted"
	statusBusy     = "busy"
	statusSuccess  = "success"
)

var (
	_ supermq.Response = (*triggerResponse)(nil)
	_ supermq.Response = (*receiveModelResponse)(nil)
	_ supermq.Response = (*modelResponse)(nil)
)

type triggerResponse struct {
	Status  string `json:"status"`
	RoundID uint64 `json:"round_id"`
}

func (res triggerResponse) Code() int {
	if res.Status == statusBusy {
		return http.StatusConflict
	}

	return http.StatusOK
}

func (res triggerResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res triggerResponse) Empty() bool {
	return false
}

type receiveModelResponse struct {
	Status  string `json:"status"`
	Version uint64 `json:"version"`
}

func (res receiveModelResponse) Code() int {
	return http.StatusOK
}

func (res receiveModelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res receiveModelResponse) Empty() bool {
	return false
}

type modelResponse struct {
	fl.Parameters
}

func (res modelResponse) Code() int {
	return http.StatusOK
}

func (res modelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res modelResponse) Empty() bool {
	return false
}
