package api

import (
	"errors"

	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/registry"
	apiutil "github.com/absmach/supermq/api/http/util"
)

var (
	errMissingTensors = errors.New("missing tensors")
	errMissingAddress = errors.New("missing participant address")
)

type fetchParamsReq struct {
	participantID string
}

func (req *fetchParamsReq) validate() error {
	return nil
}

type versionReq struct {
	version uint64
}

func (req *versionReq) validate() error {
	return nil
}

type updateReq struct {
	fl.Update `json:",inline"`
}

func (req *updateReq) validate() error {
	if req.ParticipantID == "" {
		return apiutil.ErrMissingID
	}
	if len(req.Tensors) == 0 {
		return errMissingTensors
	}

	return req.Tensors.Validate()
}

type participantReq struct {
	registry.Participant `json:",inline"`
}

func (req *participantReq) validate() error {
	if req.ID == "" {
		return apiutil.ErrMissingID
	}
	if req.Address == "" {
		return errMissingAddress
	}

	return nil
}

type entityReq struct {
	id string
}

func (req *entityReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type emptyReq struct{}
