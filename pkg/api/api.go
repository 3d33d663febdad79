package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	pkgerrors "github.com/absmach/federator/pkg/errors"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/fxamacker/cbor/v2"
	kithttp "github.com/go-kit/kit/transport/http"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType     = "application/json"
	CBORContentType = "application/cbor"
)

type errorRes struct {
	Err string `json:"error"`
}

// EncodeResponse writes response as JSON, or as CBOR when the request
// context carries an Accept header asking for it. Populate the context
// with kithttp.PopulateRequestContext. Nothing is written when the body
// fails to encode.
func EncodeResponse(ctx context.Context, w http.ResponseWriter, response any) error {
	contentType := ContentType
	if accept, ok := ctx.Value(kithttp.ContextKeyRequestAccept).(string); ok && strings.Contains(accept, CBORContentType) {
		contentType = CBORContentType
	}

	code := http.StatusOK
	var headers map[string]string
	if ar, ok := response.(supermq.Response); ok {
		code = ar.Code()
		headers = ar.Headers()
		if ar.Empty() {
			response = nil
		}
	}

	var data []byte
	if response != nil {
		var err error
		data, err = marshal(contentType, response)
		if err != nil {
			return err
		}
	}

	for k, v := range headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)

	return err
}

func marshal(contentType string, v any) ([]byte, error) {
	if contentType == CBORContentType {
		return cbor.Marshal(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return append(data, '\n'), nil
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, apiutil.ErrUnsupportedContentType):
		w.WriteHeader(http.StatusUnsupportedMediaType)
	case errors.Is(err, apiutil.ErrValidation),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, pkgerrors.ErrInvalidData):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, pkgerrors.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, pkgerrors.ErrEntityExists),
		errors.Is(err, pkgerrors.ErrConflict):
		w.WriteHeader(http.StatusConflict)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	_ = json.NewEncoder(w).Encode(errorRes{Err: err.Error()})
}
