package harness

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/event"
)

// matches reports whether an entry satisfies every filter an assertion sets.
func matches(e EntrySnapshot, a *Assertion) bool {
	if a.Business != "" && e.Business != a.Business {
		return false
	}
	if a.EntryType != "" && e.Type != a.EntryType {
		return false
	}
	if a.Description != "" && e.Description != a.Description {
		return false
	}
	if a.Date != "" && e.Date != a.Date {
		return false
	}
	if a.Amount != "" {
		want, err := decimal.NewFromString(a.Amount)
		if err != nil || !want.Equal(mustDecimal(e.Amount)) {
			return false
		}
	}
	return true
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func checkAssertion(result *Result, index int, a *Assertion) {
	switch a.Type {
	case AssertEntryContains:
		checkEntryContains(result, index, a)
	case AssertEntryCount:
		checkEntryCount(result, index, a)
	case AssertEntryOrder:
		checkEntryOrder(result, index, a)
	case AssertBusinessTotal:
		checkBusinessTotal(result, index, a)
	}
}

func checkEntryContains(result *Result, index int, a *Assertion) {
	for _, e := range result.Entries {
		if matches(e, a) {
			return
		}
	}
	result.AddError(fmt.Sprintf("assertions[%d]: no entry matches %s", index, describeFilter(a)))
}

func checkEntryCount(result *Result, index int, a *Assertion) {
	count := 0
	for _, e := range result.Entries {
		if matches(e, a) {
			count++
		}
	}
	if count != a.Count {
		result.AddError(fmt.Sprintf("assertions[%d]: expected %d entries matching %s, found %d",
			index, a.Count, describeFilter(a), count))
	}
}

// checkEntryOrder verifies the listed types appear in order among entries
// passing the business filter. Other types may interleave.
func checkEntryOrder(result *Result, index int, a *Assertion) {
	next := 0
	for _, e := range result.Entries {
		if a.Business != "" && e.Business != a.Business {
			continue
		}
		if next < len(a.Types) && e.Type == a.Types[next] {
			next++
		}
	}
	if next != len(a.Types) {
		result.AddError(fmt.Sprintf("assertions[%d]: entry types did not appear in order %s (matched %d of %d)",
			index, strings.Join(a.Types, " -> "), next, len(a.Types)))
	}
}

func checkBusinessTotal(result *Result, index int, a *Assertion) {
	revenue := decimal.Zero
	expenses := decimal.Zero
	for _, e := range result.Entries {
		if e.Business != a.Business {
			continue
		}
		typ := event.Type(e.Type)
		switch {
		case typ.IsRevenue():
			revenue = revenue.Add(mustDecimal(e.Amount))
		case typ.IsExpense():
			expenses = expenses.Add(mustDecimal(e.Amount))
		}
	}
	if a.Revenue != "" && !revenue.Equal(mustDecimal(a.Revenue)) {
		result.AddError(fmt.Sprintf("assertions[%d]: business %s revenue %s, expected %s",
			index, a.Business, revenue.String(), a.Revenue))
	}
	if a.Expenses != "" && !expenses.Equal(mustDecimal(a.Expenses)) {
		result.AddError(fmt.Sprintf("assertions[%d]: business %s expenses %s, expected %s",
			index, a.Business, expenses.String(), a.Expenses))
	}
}

func describeFilter(a *Assertion) string {
	var parts []string
	if a.Business != "" {
		parts = append(parts, "business="+a.Business)
	}
	if a.EntryType != "" {
		parts = append(parts, "type="+a.EntryType)
	}
	if a.Description != "" {
		parts = append(parts, "description="+a.Description)
	}
	if a.Date != "" {
		parts = append(parts, "date="+a.Date)
	}
	if a.Amount != "" {
		parts = append(parts, "amount="+a.Amount)
	}
	if len(parts) == 0 {
		return "(any entry)"
	}
	return strings.Join(parts, " ")
}
