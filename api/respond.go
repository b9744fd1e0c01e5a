package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/tracker"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type errorResponse struct {
	Error string `json:"error"`
	// PercentageSum is set when split percentages did not add up to 100.
	PercentageSum *decimal.Decimal `json:"percentage_sum,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a 500 without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr   *requestError
		splitErr *ledger.InvalidSplitError
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: reqErr.msg})
	case errors.As(err, &splitErr):
		resp := errorResponse{Error: splitErr.Error()}
		if !splitErr.Sum.IsZero() {
			resp.PercentageSum = &splitErr.Sum
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, tracker.ErrForbidden):
		s.log.Warn("forbidden request", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, tracker.ErrNotFound),
		errors.Is(err, expense.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, user.ErrEmailExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, tracker.ErrInvalidGrant),
		errors.Is(err, expense.ErrInvalidAmount),
		errors.Is(err, expense.ErrEmptyCategory),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrEmptyCategory),
		errors.Is(err, permission.ErrInvalidRole),
		errors.Is(err, permission.ErrInvalidLevel),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrBlankPassword):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// warnings splits a partial-consistency warning off err. The returned error
// is nil when err carried only a warning.
func warnings(err error) ([]string, error) {
	if err == nil {
		return nil, nil
	}
	var w *tracker.PartialConsistencyWarning
	if !errors.As(err, &w) {
		return nil, err
	}
	msgs := make([]string, 0, len(w.Failures))
	for _, f := range w.Failures {
		msgs = append(msgs, f.Error())
	}
	return msgs, nil
}
