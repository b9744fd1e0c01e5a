package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/report"
)

// MonthlyStats summarises the caller's own expenses for one month, with the
// trend over the months leading up to it.
func (s *Service) MonthlyStats(ctx context.Context, callerID uuid.UUID, year int, month time.Month) (report.Stats, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return report.Stats{}, err
	}
	if year == 0 || month == 0 {
		now := s.now().UTC()
		year, month = now.Year(), now.Month()
	}

	from, to := report.Window(year, month)
	expenses, err := s.expenses.List(ctx, expense.Filter{OwnerID: caller.ID, From: from, To: to})
	if err != nil {
		return report.Stats{}, fmt.Errorf("listing expenses: %w", err)
	}
	return report.Compute(expenses, year, month), nil
}
