package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/federator/participant"
	"github.com/absmach/federator/pkg/api"
	"github.com/absmach/federator/pkg/transport"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func MakeHandler(svc participant.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerBefore(kithttp.PopulateRequestContext),
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Get(transport.DefTriggerPath, otelhttp.NewHandler(kithttp.NewServer(
		triggerEndpoint(svc),
		decodeTriggerReq,
		api.EncodeResponse,
		opts...,
	), "trigger").ServeHTTP)
	mux.Post(transport.DefPushPath, otelhttp.NewHandler(kithttp.NewServer(
		receiveModelEndpoint(svc),
		decodeReceiveModelReq,
		api.EncodeResponse,
		opts...,
	), "receive-model").ServeHTTP)
	mux.Get("/model", otelhttp.NewHandler(kithttp.NewServer(
		modelEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "get-model").ServeHTTP)

	mux.Get("/health", supermq.Health("participant", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeTriggerReq(_ context.Context, r *http.Request) (any, error) {
	roundID, err := apiutil.ReadNumQuery[uint64](r, transport.RoundIDKey, 0)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return triggerReq{roundID: roundID}, nil
}

func decodeReceiveModelReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req receiveModelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return emptyReq{}, nil
}
