package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/iTheRudy/solana-token/api"
	sol "github.com/iTheRudy/solana-token/chains/solana"
	"github.com/iTheRudy/solana-token/token"
	"github.com/iTheRudy/solana-token/wallet"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	maxBodyBytes = 1 << 20
)

// Response is the envelope of every API response
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Status: statusError, Error: message})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, token.ErrInvalidRequest),
		errors.Is(err, sol.ErrInvalidAmount),
		errors.Is(err, wallet.ErrInvalidMnemonic),
		errors.Is(err, token.ErrInsufficientFunds),
		errors.Is(err, token.ErrAccountFrozen):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, token.ErrFreezeAuthorityMissing):
		return http.StatusNotImplemented
	case errors.Is(err, token.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, api.ErrConfirmationTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	log := entryFrom(r.Context()).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Info("request rejected")
	}

	writeError(w, status, err.Error())
}

// decodeBody reads an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("%w: malformed JSON body at offset %d", token.ErrInvalidRequest, syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Errorf("%w: malformed JSON body: %s has the wrong type", token.ErrInvalidRequest, typeErr.Field)
	case err != nil:
		// field decoders such as decimal quote the raw input in their errors
		return fmt.Errorf("%w: malformed JSON body", token.ErrInvalidRequest)
	}
	return nil
}

func required(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", token.ErrInvalidRequest, field)
	}
	return nil
}
