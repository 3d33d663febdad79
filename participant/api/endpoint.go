package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/absmach/federator/participant"
	pkgerrors "github.com/absmach/federator/pkg/errors"
	"github.com/absmach/federator/pkg/fl"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func triggerEndpoint(svc participant.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(triggerReq)
		if !ok {
			return triggerResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return triggerResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		switch err := svc.Trigger(ctx, req.roundID); {
		case errors.Is(err, participant.ErrBusy):
			return triggerResponse{Status: statusBusy, RoundID: req.roundID}, nil
		case err != nil:
			return triggerResponse{}, err
		}

		return triggerResponse{Status: statusAccepted, RoundID: req.roundID}, nil
	}
}

func receiveModelEndpoint(svc participant.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(receiveModelReq)
		if !ok {
			return receiveModelResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return receiveModelResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		err := svc.ReceiveModel(ctx, fl.Parameters{
			Version: req.Version,
			Tensors: req.Weights,
		})
		switch {
		case errors.Is(err, participant.ErrStaleModel):
			return receiveModelResponse{}, fmt.Errorf("%w: %w", pkgerrors.ErrConflict, err)
		case err != nil:
			return receiveModelResponse{}, err
		}

		return receiveModelResponse{Status: statusSuccess, Version: req.Version}, nil
	}
}

func modelEndpoint(svc participant.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return modelResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		p, err := svc.Model(ctx)
		if err != nil {
			return modelResponse{}, err
		}

		return modelResponse{Parameters: p}, nil
	}
}
