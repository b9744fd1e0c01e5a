package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/money"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type Direction string

const (
	DirectionOwedToCaller Direction = "owed_to_caller"
	DirectionCallerOwes   Direction = "caller_owes"
)

// Balance is the netted position between the caller and one counterparty.
type Balance struct {
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	Direction    Direction       `json:"direction"`
}

// Summary totals a caller's balances, in the shape of a "friends" overview.
type Summary struct {
	TotalOwedToCaller decimal.Decimal `json:"total_owed_to_you"`
	TotalCallerOwes   decimal.Decimal `json:"total_you_owe"`
	Balances          []Balance       `json:"balances"`
}

// ComputeSettlements nets every unsettled share between the caller and each
// counterparty into one balance. Nets at or below one cent are dropped, and a
// participant never owes themselves. The result is sorted by counterparty.
func ComputeSettlements(caller string, entries []Entry) []Balance {
	caller = user.NormalizeEmail(caller)
	owes := map[string]decimal.Decimal{}
	owed := map[string]decimal.Decimal{}

	for _, entry := range entries {
		payer := user.NormalizeEmail(entry.PaidBy)
		for _, split := range entry.Splits {
			participant := user.NormalizeEmail(split.ParticipantEmail)
			if split.HasPaid || participant == payer {
				continue
			}
			switch {
			case participant == caller:
				owes[payer] = owes[payer].Add(split.Amount)
			case payer == caller:
				owed[participant] = owed[participant].Add(split.Amount)
			}
		}
	}

	counterparties := make(map[string]struct{}, len(owes)+len(owed))
	for c := range owes {
		counterparties[c] = struct{}{}
	}
	for c := range owed {
		counterparties[c] = struct{}{}
	}

	balances := make([]Balance, 0, len(counterparties))
	for c := range counterparties {
		if c == caller {
			continue
		}
		net := owed[c].Sub(owes[c])
		if !net.Abs().GreaterThan(money.Epsilon) {
			continue
		}
		direction := DirectionCallerOwes
		if net.IsPositive() {
			direction = DirectionOwedToCaller
		}
		balances = append(balances, Balance{
			Counterparty: c,
			Amount:       net.Abs(),
			Direction:    direction,
		})
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Counterparty < balances[j].Counterparty
	})
	return balances
}

func Summarize(balances []Balance) Summary {
	s := Summary{
		TotalOwedToCaller: decimal.Zero,
		TotalCallerOwes:   decimal.Zero,
		Balances:          balances,
	}
	for _, b := range balances {
		if b.Direction == DirectionOwedToCaller {
			s.TotalOwedToCaller = s.TotalOwedToCaller.Add(b.Amount)
		} else {
			s.TotalCallerOwes = s.TotalCallerOwes.Add(b.Amount)
		}
	}
	return s
}
