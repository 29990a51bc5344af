package event

import "github.com/shopspring/decimal"

// Summary aggregates one batch of generated transactions for logging and
// driver bookkeeping.
type Summary struct {
	Count         int
	ByType        map[Type]int
	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
}

// Summarize tallies counts and revenue/expense totals by transaction type.
func Summarize(txs []GeneratedTransaction) Summary {
	s := Summary{
		ByType:        make(map[Type]int),
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for i := range txs {
		tx := &txs[i]
		s.Count++
		s.ByType[tx.Type]++
		switch {
		case tx.Type.IsRevenue():
			s.TotalRevenue = s.TotalRevenue.Add(tx.Amount)
		case tx.Type.IsExpense():
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		}
	}
	return s
}
