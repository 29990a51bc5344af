// Package tax schedules quarterly estimated tax payments. The scheduler
// emits two distinct actions per quarter: a create action two weeks before
// the IRS due date (the payment gets set up) and a pay action on the due
// date itself. Callers acknowledge each with MarkCreated and MarkPaid so a
// replayed day never duplicates work.
package tax

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/event"
)

// leadDays is how far ahead of the due date a payment is created.
const leadDays = 14

// Config is a business's estimated tax profile.
type Config struct {
	EntityType            string
	EstimatedAnnualIncome decimal.Decimal
	EstimatedTaxRate      decimal.Decimal
	TaxVendor             string
}

// ActionKind distinguishes setting a payment up from paying it.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionPay    ActionKind = "pay"
)

// Action is one step of the quarterly estimated tax workflow.
type Action struct {
	Kind            ActionKind
	TaxYear         int
	Quarter         int
	DueDate         time.Time
	EstimatedIncome decimal.Decimal
	EstimatedTax    decimal.Decimal
	TaxVendor       string
}

type quarterRef struct {
	business event.BusinessKey
	taxYear  int
	quarter  int
}

// Scheduler tracks which quarterly payments have been created and paid.
//
// Not safe for concurrent use.
type Scheduler struct {
	configs map[event.BusinessKey]Config
	created map[quarterRef]bool
	paid    map[quarterRef]bool
}

// New builds a Scheduler over the given tax profiles.
func New(configs map[event.BusinessKey]Config) *Scheduler {
	return &Scheduler{
		configs: configs,
		created: map[quarterRef]bool{},
		paid:    map[quarterRef]bool{},
	}
}

// DueDates returns the four estimated payment due dates for a tax year. Q4
// is due in January of the following year.
func DueDates(taxYear int) [4]time.Time {
	return [4]time.Time{
		dates.New(taxYear, time.April, 15),
		dates.New(taxYear, time.June, 15),
		dates.New(taxYear, time.September, 15),
		dates.New(taxYear+1, time.January, 15),
	}
}

// quarterAmounts splits the annual estimate into one quarter's income and
// tax, both rounded to cents.
func quarterAmounts(cfg Config) (income, tax decimal.Decimal) {
	income = cfg.EstimatedAnnualIncome.Div(decimal.NewFromInt(4)).Round(2)
	tax = income.Mul(cfg.EstimatedTaxRate).Round(2)
	return income, tax
}

// MarkCreated records that a quarter's payment has been set up.
func (s *Scheduler) MarkCreated(key event.BusinessKey, taxYear, quarter int) {
	s.created[quarterRef{key, taxYear, quarter}] = true
}

// MarkPaid records that a quarter's payment has been made.
func (s *Scheduler) MarkPaid(key event.BusinessKey, taxYear, quarter int) {
	s.paid[quarterRef{key, taxYear, quarter}] = true
}

// ActionsFor returns the workflow steps due on the given date. Both the
// prior and current tax years are scanned so Q4 payments created in late
// December and due in January still surface after the year rolls over.
func (s *Scheduler) ActionsFor(key event.BusinessKey, day time.Time) []Action {
	cfg, ok := s.configs[key]
	if !ok {
		return nil
	}
	day = dates.Day(day)
	income, tax := quarterAmounts(cfg)

	var actions []Action
	for _, taxYear := range [2]int{day.Year() - 1, day.Year()} {
		for i, dueDate := range DueDates(taxYear) {
			quarter := i + 1
			ref := quarterRef{key, taxYear, quarter}
			createDate := dueDate.AddDate(0, 0, -leadDays)

			if day.Equal(createDate) && !s.created[ref] {
				actions = append(actions, Action{
					Kind:            ActionCreate,
					TaxYear:         taxYear,
					Quarter:         quarter,
					DueDate:         dueDate,
					EstimatedIncome: income,
					EstimatedTax:    tax,
					TaxVendor:       cfg.TaxVendor,
				})
			}
			if day.Equal(dueDate) && !s.paid[ref] {
				actions = append(actions, Action{
					Kind:            ActionPay,
					TaxYear:         taxYear,
					Quarter:         quarter,
					DueDate:         dueDate,
					EstimatedIncome: income,
					EstimatedTax:    tax,
					TaxVendor:       cfg.TaxVendor,
				})
			}
		}
	}
	return actions
}
