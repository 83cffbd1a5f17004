package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/shopspring/decimal"
)

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the wire shape for failed requests.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps a coreerrors.Kind to its HTTP status and writes the
// response: validation 400, not-found 404, FX and calculation 422,
// provider 502, database and any other error 500.
func writeError(w http.ResponseWriter, err error) {
	var ce *coreerrors.CoreError
	status := http.StatusInternalServerError
	kind := ""
	if errors.As(err, &ce) {
		kind = string(ce.Kind)
		switch ce.Kind {
		case coreerrors.KindValidation:
			status = http.StatusBadRequest
		case coreerrors.KindNotFound:
			status = http.StatusNotFound
		case coreerrors.KindFx, coreerrors.KindCalculation:
			status = http.StatusUnprocessableEntity
		case coreerrors.KindProvider:
			status = http.StatusBadGateway
		case coreerrors.KindDatabase:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

// parseDecimalOrZero parses s as a decimal, returning decimal.Zero for an
// empty string. Malformed non-empty strings also yield zero; Validate on
// the resulting domain value catches anything that matters downstream.
func parseDecimalOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
