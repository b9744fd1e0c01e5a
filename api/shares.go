package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/tracker"
)

type shareRequest struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

type splitRequest struct {
	Amount      decimal.Decimal     `json:"amount"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	Date        string              `json:"date"`
	PaidBy      string              `json:"paid_by"`
	Splits      []ledger.SplitInput `json:"splits"`
}

type splitResponse struct {
	*tracker.SplitResult
	Warnings []string `json:"warnings,omitempty"`
}

type settleRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	grants, err := s.svc.ListShares(r.Context(), callerID(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grants)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req shareRequest
	if err := s.decode(w, r, schemaShare, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	grant, err := s.svc.ShareExpense(r.Context(), callerID(r), id, req.Email, req.Permission)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grant)
}

func (s *Server) handleRemoveShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.RemoveShare(r.Context(), callerID(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSharedExpenses(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.SharedExpenses(r.Context(), callerID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCreateSplit answers 201 whenever the ledger entry was recorded,
// listing any participant copies that could not be written in warnings.
func (s *Server) handleCreateSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := s.decode(w, r, schemaSplit, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.svc.CreateSplitExpense(r.Context(), callerID(r), tracker.SplitRequest{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
		PaidBy:      req.PaidBy,
		Splits:      req.Splits,
	})
	warns, err := warnings(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, splitResponse{SplitResult: result, Warnings: warns})
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req settleRequest
	if err := s.decode(w, r, schemaSettle, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, err := s.svc.MarkSplitPaid(r.Context(), callerID(r), id, req.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Settlements(r.Context(), callerID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if summary.Balances == nil {
		summary.Balances = []ledger.Balance{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	report, err := s.svc.ReconcileAs(r.Context(), callerID(r), s.staleAfter)
	warns, err := warnings(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("reconcile requested", "user_id", callerID(r), "duration", time.Since(started), "report", report)
	writeJSON(w, http.StatusOK, struct {
		tracker.ReconcileReport
		Warnings []string `json:"warnings,omitempty"`
	}{report, warns})
}
