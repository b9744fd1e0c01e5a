// Package report summarises a participant's expenses: monthly statistics
// and spreadsheet export.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/expense"
)

const TrendMonths = 6

type MonthTotal struct {
	Month string          `json:"month"` // "2006-01"
	Total decimal.Decimal `json:"total"`
}

type Stats struct {
	Year              int                        `json:"year"`
	Month             time.Month                 `json:"month"`
	Total             decimal.Decimal            `json:"total_expenses"`
	CategoryBreakdown map[string]decimal.Decimal `json:"category_breakdown"`
	TopCategory       string                     `json:"top_category,omitempty"`
	TopCategoryAmount decimal.Decimal            `json:"top_category_amount"`
	// Trend holds TrendMonths totals ending with the reported month, oldest
	// first.
	Trend []MonthTotal `json:"monthly_trend"`
}

// Window returns the [from, to) range Compute needs expenses for.
func Window(year int, month time.Month) (time.Time, time.Time) {
	from, to := expense.Month(year, month)
	return from.AddDate(0, -(TrendMonths - 1), 0), to
}

// Compute builds the statistics for one month out of expenses covering at
// least Window(year, month). Expenses outside the window are ignored.
func Compute(expenses []expense.Expense, year int, month time.Month) Stats {
	from, to := expense.Month(year, month)
	windowFrom, _ := Window(year, month)

	stats := Stats{
		Year:              year,
		Month:             month,
		Total:             decimal.Zero,
		CategoryBreakdown: make(map[string]decimal.Decimal),
		TopCategoryAmount: decimal.Zero,
	}

	trend := make(map[string]decimal.Decimal, TrendMonths)
	for _, e := range expenses {
		if e.Date.Before(windowFrom) || !e.Date.Before(to) {
			continue
		}
		key := e.Date.Format("2006-01")
		trend[key] = trend[key].Add(e.Amount)

		if e.Date.Before(from) {
			continue
		}
		stats.Total = stats.Total.Add(e.Amount)
		stats.CategoryBreakdown[e.Category] = stats.CategoryBreakdown[e.Category].Add(e.Amount)
	}

	categories := make([]string, 0, len(stats.CategoryBreakdown))
	for c := range stats.CategoryBreakdown {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		if amount := stats.CategoryBreakdown[c]; amount.GreaterThan(stats.TopCategoryAmount) {
			stats.TopCategory = c
			stats.TopCategoryAmount = amount
		}
	}

	stats.Trend = make([]MonthTotal, 0, TrendMonths)
	for m := windowFrom; m.Before(to); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		total, ok := trend[key]
		if !ok {
			total = decimal.Zero
		}
		stats.Trend = append(stats.Trend, MonthTotal{Month: key, Total: total})
	}
	return stats
}
