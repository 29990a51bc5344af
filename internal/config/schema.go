package config

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// personaSchema is the CUE schema every persona file must satisfy before
// typed decoding. It guards shape and ranges; the loader handles semantic
// conversions (weekday names, month names, decimal amounts).
const personaSchema = `
#Persona: {
	business: {
		key:       string & !=""
		name:      string & !=""
		industry?: string
	}

	inflation?: {
		annual_rate: number | string
		start_date:  string
	}

	day_patterns?: {[string]: number & >=0}
	seasonality?: {[string]: number & >=0}

	patterns?: [...{
		type:        "invoice" | "bill" | "payment_received" | "bill_payment" | "cash_sale"
		description: string & !=""
		min_amount:  number | string
		max_amount:  number | string
		probability: number & >=0 & <=1
		weekday_only?:        bool
		weekend_boost?:       number & >=0
		active_hours?:        [int & >=0 & <=23, int & >=0 & <=24]
		phase_multipliers?:   {[string]: number & >=0}
		seasonal_multipliers?: {[string]: number & >=0}
	}]

	recurring_transactions?: [...{
		name:         string & !=""
		vendor:       string & !=""
		amount:       number | string
		day_of_month: int & >=1 & <=31
		category?:         string
		anniversary_date?: string
		interval_months?:  int & >=1
	}]

	employees?: [...{
		role:           string & !=""
		count:          int & >=1
		pay_rate:       number | string
		hours_per_week: number | string
	}]

	payroll?: {
		frequency?:      string
		pay_day?:        string | int
		payroll_vendor?: string
		tax_authority?:  string
	}

	tax_config?: {
		entity_type?:            string
		estimated_annual_income: number | string
		estimated_tax_rate:      number | string
		tax_vendor?:             string
	}

	financing?: {
		term_loans?: [...#TermLoan]
		lines_of_credit?: [...#LineOfCredit]
		equipment_financing?: [...#Equipment]
	}

	inventory?: {
		enabled?:             bool
		check_day?:           string | int
		costing_method?:      string
		consumption_driver?:  "revenue" | "appointments"
		average_sale_price?:  number | string
		average_visit_count?: number | string
		items?: [...{
			sku:              string & !=""
			name:             string & !=""
			unit_cost:        number | string
			consumption_rate: number | string
			reorder_level:    number | string
			reorder_quantity: number | string
			vendor:           string & !=""
			category?:        string
		}]
	}

	b2b?: {
		enabled?: bool
		counterparties?: [...{
			org_key:            string & !=""
			relationship?:      "vendor" | "seller" | "customer" | "buyer" | "auto"
			frequency?:         "daily" | "weekly" | "monthly" | "quarterly"
			day_of_month?:      int & >=1 & <=31
			amount_min?:        number | string
			amount_max?:        number | string
			description?:       string
			invoice_terms_days?: int & >=1
			payment_flow?:      "none" | "same_day"
		}]
	}
}

#RateAdjustment: {
	effective_date: string
	rate:           number | string
}

#TermLoan: {
	name:        string & !=""
	principal:   number | string
	annual_rate: number | string
	term_months: int & >=1
	payment_day: int & >=1 & <=31
	lender:      string & !=""
	loan_type?:  string
	start_date?: string
	rate_adjustments?: [...#RateAdjustment]
}

#LineOfCredit: {
	name:        string & !=""
	annual_rate: number | string
	balance:     number | string
	billing_day: int & >=1 & <=31
	lender:      string & !=""
	start_date?: string
	rate_adjustments?: [...#RateAdjustment]
	balance_events?: [...{
		effective_date: string
		balance:        number | string
	}]
}

#Equipment: {
	name:        string & !=""
	principal:   number | string
	annual_rate: number | string
	term_months: int & >=1
	payment_day: int & >=1 & <=31
	lender:      string & !=""
	start_date?: string
	decision?:   "auto" | "lease" | "purchase" | "loan"
	rate_threshold?:      number | string
	principal_threshold?: number | string
	rate_adjustments?: [...#RateAdjustment]
}
`

// validateSchema checks raw persona YAML against the embedded CUE schema.
func validateSchema(filename string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(personaSchema).LookupPath(cue.ParsePath("#Persona"))
	if err := schema.Err(); err != nil {
		return &ValidationError{Code: ErrCodeSchema, Message: "persona schema does not compile: " + err.Error()}
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return &ValidationError{Code: ErrCodeUnreadable, Message: err.Error()}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &ValidationError{Code: ErrCodeUnreadable, Message: err.Error()}
	}

	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Code: ErrCodeSchema, Message: err.Error()}
	}
	return nil
}
