package api

import (
	"errors"

	"github.com/absmach/federator/pkg/transport"
)

var errMissingWeights = errors.New("missing weights")

type triggerReq struct {
	roundID uint64
}

func (req *triggerReq) validate() error {
	return nil
}

type receiveModelReq struct {
	transport.PushRequest `json:",inline"`
}

func (req *receiveModelReq) validate() error {
	if len(req.Weights) == 0 {
		return errMissingWeights
	}

	return nil
}

type emptyReq struct{}
