package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/federator/coordinator"
	"github.com/absmach/federator/pkg/api"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	participantIDKey = "participant_id"
	versionKey       = "version"
	participantKey   = "participantID"

	maxUpdateSize = 64 << 20
)

var errInvalidVersion = errors.New("invalid parameters version")

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerBefore(kithttp.PopulateRequestContext),
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/parameters", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			fetchParametersEndpoint(svc),
			decodeFetchParamsReq,
			api.EncodeResponse,
			opts...,
		), "fetch-parameters").ServeHTTP)
		r.Get("/{version}", otelhttp.NewHandler(kithttp.NewServer(
			parametersAtEndpoint(svc),
			decodeVersionReq,
			api.EncodeResponse,
			opts...,
		), "get-parameters-version").ServeHTTP)
	})

	mux.Route("/updates", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			submitUpdateEndpoint(svc),
			decodeUpdateReq,
			api.EncodeResponse,
			opts...,
		), "submit-update").ServeHTTP)
		r.Post("/cbor", otelhttp.NewHandler(kithttp.NewServer(
			submitUpdateEndpoint(svc),
			decodeUpdateCBORReq,
			api.EncodeResponse,
			opts...,
		), "submit-update-cbor").ServeHTTP)
	})

	mux.Route("/rounds", func(r chi.Router) {
		r.Post("/aggregate", otelhttp.NewHandler(kithttp.NewServer(
			aggregateNowEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "aggregate-now").ServeHTTP)
		r.Post("/trigger", otelhttp.NewHandler(kithttp.NewServer(
			triggerRoundEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "trigger-round").ServeHTTP)
		r.Get("/current", otelhttp.NewHandler(kithttp.NewServer(
			currentRoundEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "current-round").ServeHTTP)
	})

	mux.Route("/participants", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listParticipantsEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "list-participants").ServeHTTP)
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			joinParticipantEndpoint(svc),
			decodeParticipantReq,
			api.EncodeResponse,
			opts...,
		), "join-participant").ServeHTTP)
		r.Delete("/{"+participantKey+"}", otelhttp.NewHandler(kithttp.NewServer(
			leaveParticipantEndpoint(svc),
			decodeEntityReq(participantKey),
			api.EncodeResponse,
			opts...,
		), "leave-participant").ServeHTTP)
	})

	mux.Get("/health", supermq.Health("coordinator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeFetchParamsReq(_ context.Context, r *http.Request) (any, error) {
	return fetchParamsReq{
		participantID: r.URL.Query().Get(participantIDKey),
	}, nil
}

func decodeVersionReq(_ context.Context, r *http.Request) (any, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, versionKey), 10, 64)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, errInvalidVersion, err)
	}

	return versionReq{version: v}, nil
}

func decodeUpdateReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req updateReq
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateSize)).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeUpdateCBORReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.CBORContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateSize))
	if err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	var req updateReq
	if err := cbor.Unmarshal(data, &req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeParticipantReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req participantReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return emptyReq{}, nil
}
