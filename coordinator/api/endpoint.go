package api

import (
	"context"
	"errors"

	"github.com/absmach/federator/coordinator"
	pkgerrors "github.com/absmach/federator/pkg/errors"
	"github.com/absmach/federator/pkg/registry"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func fetchParametersEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(fetchParamsReq)
		if !ok {
			return paramsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return paramsResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		snap, err := svc.FetchParameters(ctx, req.participantID)
		if err != nil {
			return paramsResponse{}, err
		}

		return paramsResponse{Snapshot: snap}, nil
	}
}

func parametersAtEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(versionReq)
		if !ok {
			return versionResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return versionResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		params, err := svc.ParametersAt(ctx, req.version)
		if err != nil {
			return versionResponse{}, err
		}

		return versionResponse{Parameters: params}, nil
	}
}

func submitUpdateEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(updateReq)
		if !ok {
			return submitResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return submitResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.SubmitUpdate(ctx, req.Update)
		if err != nil {
			return submitResponse{}, err
		}

		return submitResponse{SubmitResult: res}, nil
	}
}

func aggregateNowEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return outcomeResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		out, err := svc.AggregateNow(ctx)
		if err != nil {
			return outcomeResponse{}, err
		}

		return outcomeResponse{Outcome: out}, nil
	}
}

func triggerRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		r, err := svc.TriggerRound(ctx)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{Round: r}, nil
	}
}

func currentRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		r, err := svc.CurrentRound(ctx)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{Round: r}, nil
	}
}

func listParticipantsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return listParticipantsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		participants, err := svc.ListParticipants(ctx)
		if err != nil {
			return listParticipantsResponse{}, err
		}

		return listParticipantsResponse{
			Total:        len(participants),
			Participants: participants,
		}, nil
	}
}

func joinParticipantEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(participantReq)
		if !ok {
			return participantResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return participantResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		p, err := svc.JoinParticipant(ctx, req.Participant)
		switch {
		case errors.Is(err, registry.ErrInvalidAddress), errors.Is(err, registry.ErrMissingID):
			return participantResponse{}, errors.Join(apiutil.ErrValidation, err)
		case err != nil:
			return participantResponse{}, err
		}

		return participantResponse{Participant: p, created: true}, nil
	}
}

func leaveParticipantEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return participantResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return participantResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.LeaveParticipant(ctx, req.id); err != nil {
			return participantResponse{}, err
		}

		return participantResponse{deleted: true}, nil
	}
}
