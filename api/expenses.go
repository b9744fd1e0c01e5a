package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/middleware"
	"github.com/sijujiampugi-arch/SpendWise/report"
	"github.com/sijujiampugi-arch/SpendWise/tracker"
)

const dateLayout = "2006-01-02"

type expenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

func (req expenseRequest) input() (expense.Input, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return expense.Input{}, err
	}
	return expense.Input{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	}, nil
}

type deleteResponse struct {
	*tracker.DeleteReport
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.svc.ListExpenses(r.Context(), callerID(r), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := s.decode(w, r, schemaExpense, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.svc.CreateExpense(r.Context(), callerID(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.svc.GetExpense(r.Context(), callerID(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := s.decode(w, r, schemaExpense, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.svc.EditExpense(r.Context(), callerID(r), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteExpense answers 200 with the delete report. A delete that
// only partly cascaded still answers 200, with the failures in warnings.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	deleted, err := s.svc.DeleteExpense(r.Context(), callerID(r), id)
	warns, err := warnings(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{DeleteReport: deleted, Warnings: warns})
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	caps, err := s.svc.ResolvePermissions(r.Context(), callerID(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, caps)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	stats, err := s.svc.MonthlyStats(r.Context(), callerID(r), year, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleExport writes the caller's feed, with the same filters as the
// listing, as a spreadsheet.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.svc.ListExpenses(r.Context(), callerID(r), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows := make([]expense.Expense, 0, len(items))
	for _, item := range items {
		rows = append(rows, item.Expense)
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rows); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func listOptions(r *http.Request) (tracker.ListOptions, error) {
	year, month, err := yearMonth(r)
	if err != nil {
		return tracker.ListOptions{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return tracker.ListOptions{}, err
	}

	q := r.URL.Query()
	return tracker.ListOptions{
		Year:      year,
		Month:     month,
		Category:  q.Get("category"),
		Limit:     limit,
		OwnedOnly: q.Get("mine") == "true",
	}, nil
}

// yearMonth reads the optional year and month query parameters; zero means
// unset.
func yearMonth(r *http.Request) (int, time.Month, error) {
	year, err := queryInt(r, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(r, "month")
	if err != nil {
		return 0, 0, err
	}
	if month > 12 {
		return 0, 0, badRequest("month must be between 1 and 12")
	}
	return year, time.Month(month), nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", key)
	}
	return n, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, badRequest("date must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid id")
	}
	return id, nil
}

// callerID is only called behind RequireAuth.
func callerID(r *http.Request) uuid.UUID {
	id, _ := middleware.GetUserID(r.Context())
	return id
}
