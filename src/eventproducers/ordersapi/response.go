package ordersapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/orders"
)

func setResponse(response interface{}, statusCode int, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("setResponse: encode: %w", err)
	}

	return nil
}

func setErrorResponse(message string, err error, w http.ResponseWriter) {
	webErr := eventmodels.NewWebError(statusCode(err), message, err)

	if webErr.StatusCode >= http.StatusInternalServerError {
		log.Errorf("%s: %v", message, err)
	} else {
		log.Debugf("%s: %v", message, err)
	}

	if encodeErr := setResponse(webErr, webErr.StatusCode, w); encodeErr != nil {
		log.Errorf("setErrorResponse: %v", encodeErr)
	}
}

func statusCode(err error) int {
	var validationErr *orders.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, eventmodels.ErrOrderNotFound), errors.Is(err, eventmodels.ErrExecutionNotFound):
		return http.StatusNotFound
	case errors.Is(err, eventmodels.ErrInstrumentNotFound):
		return http.StatusBadRequest
	case errors.Is(err, eventmodels.ErrGatewayCallFailed), errors.Is(err, eventmodels.ErrNotAuthenticated), errors.Is(err, eventmodels.ErrInstrumentLookupFailed):
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
