// Package config loads persona files: one YAML document per business
// describing its activity patterns, payroll, financing, inventory, taxes,
// and B2B relationships. Files are validated against an embedded CUE schema
// before typed decoding, so malformed personas fail with a field-level
// error instead of a zero value deep in a generator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atlastown/bizsim/internal/b2b"
	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/econ"
	"github.com/atlastown/bizsim/internal/event"
	"github.com/atlastown/bizsim/internal/financing"
	"github.com/atlastown/bizsim/internal/gen"
	"github.com/atlastown/bizsim/internal/inventory"
	"github.com/atlastown/bizsim/internal/payroll"
	"github.com/atlastown/bizsim/internal/recurring"
	"github.com/atlastown/bizsim/internal/tax"
)

// personaFile mirrors the YAML layout of one persona document.
type personaFile struct {
	Business struct {
		Key      string `yaml:"key"`
		Name     string `yaml:"name"`
		Industry string `yaml:"industry"`
	} `yaml:"business"`

	Inflation *struct {
		AnnualRate Money  `yaml:"annual_rate"`
		StartDate  string `yaml:"start_date"`
	} `yaml:"inflation"`

	DayPatterns map[string]float64 `yaml:"day_patterns"`
	Seasonality map[string]float64 `yaml:"seasonality"`

	Patterns []struct {
		Type                string             `yaml:"type"`
		Description         string             `yaml:"description"`
		MinAmount           Money              `yaml:"min_amount"`
		MaxAmount           Money              `yaml:"max_amount"`
		Probability         float64            `yaml:"probability"`
		WeekdayOnly         bool               `yaml:"weekday_only"`
		WeekendBoost        float64            `yaml:"weekend_boost"`
		ActiveHours         []int              `yaml:"active_hours"`
		PhaseMultipliers    map[string]float64 `yaml:"phase_multipliers"`
		SeasonalMultipliers map[string]float64 `yaml:"seasonal_multipliers"`
	} `yaml:"patterns"`

	Recurring []struct {
		Name            string `yaml:"name"`
		Vendor          string `yaml:"vendor"`
		Amount          Money  `yaml:"amount"`
		DayOfMonth      int    `yaml:"day_of_month"`
		Category        string `yaml:"category"`
		AnniversaryDate string `yaml:"anniversary_date"`
		IntervalMonths  int    `yaml:"interval_months"`
	} `yaml:"recurring_transactions"`

	Employees []struct {
		Role         string `yaml:"role"`
		Count        int    `yaml:"count"`
		PayRate      Money  `yaml:"pay_rate"`
		HoursPerWeek Money  `yaml:"hours_per_week"`
	} `yaml:"employees"`

	Payroll *struct {
		Frequency     string     `yaml:"frequency"`
		PayDay        scalarText `yaml:"pay_day"`
		PayrollVendor string     `yaml:"payroll_vendor"`
		TaxAuthority  string     `yaml:"tax_authority"`
	} `yaml:"payroll"`

	TaxConfig *struct {
		EntityType            string `yaml:"entity_type"`
		EstimatedAnnualIncome Money  `yaml:"estimated_annual_income"`
		EstimatedTaxRate      Money  `yaml:"estimated_tax_rate"`
		TaxVendor             string `yaml:"tax_vendor"`
	} `yaml:"tax_config"`

	Financing *struct {
		TermLoans []struct {
			Name            string              `yaml:"name"`
			Principal       Money               `yaml:"principal"`
			AnnualRate      Money               `yaml:"annual_rate"`
			TermMonths      int                 `yaml:"term_months"`
			PaymentDay      int                 `yaml:"payment_day"`
			Lender          string              `yaml:"lender"`
			LoanType        string              `yaml:"loan_type"`
			StartDate       string              `yaml:"start_date"`
			RateAdjustments []rawRateAdjustment `yaml:"rate_adjustments"`
		} `yaml:"term_loans"`

		LinesOfCredit []struct {
			Name            string              `yaml:"name"`
			AnnualRate      Money               `yaml:"annual_rate"`
			Balance         Money               `yaml:"balance"`
			BillingDay      int                 `yaml:"billing_day"`
			Lender          string              `yaml:"lender"`
			StartDate       string              `yaml:"start_date"`
			RateAdjustments []rawRateAdjustment `yaml:"rate_adjustments"`
			BalanceEvents   []struct {
				EffectiveDate string `yaml:"effective_date"`
				Balance       Money  `yaml:"balance"`
			} `yaml:"balance_events"`
		} `yaml:"lines_of_credit"`

		Equipment []struct {
			Name               string              `yaml:"name"`
			Principal          Money               `yaml:"principal"`
			AnnualRate         Money               `yaml:"annual_rate"`
			TermMonths         int                 `yaml:"term_months"`
			PaymentDay         int                 `yaml:"payment_day"`
			Lender             string              `yaml:"lender"`
			StartDate          string              `yaml:"start_date"`
			Decision           string              `yaml:"decision"`
			RateThreshold      Money               `yaml:"rate_threshold"`
			PrincipalThreshold Money               `yaml:"principal_threshold"`
			RateAdjustments    []rawRateAdjustment `yaml:"rate_adjustments"`
		} `yaml:"equipment_financing"`
	} `yaml:"financing"`

	Inventory *struct {
		Enabled           bool       `yaml:"enabled"`
		CheckDay          scalarText `yaml:"check_day"`
		CostingMethod     string     `yaml:"costing_method"`
		Driver            string     `yaml:"consumption_driver"`
		AverageSalePrice  Money      `yaml:"average_sale_price"`
		AverageVisitCount Money      `yaml:"average_visit_count"`
		Items             []struct {
			SKU             string `yaml:"sku"`
			Name            string `yaml:"name"`
			UnitCost        Money  `yaml:"unit_cost"`
			ConsumptionRate Money  `yaml:"consumption_rate"`
			ReorderLevel    Money  `yaml:"reorder_level"`
			ReorderQuantity Money  `yaml:"reorder_quantity"`
			Vendor          string `yaml:"vendor"`
			Category        string `yaml:"category"`
		} `yaml:"items"`
	} `yaml:"inventory"`

	B2B *struct {
		Enabled        *bool `yaml:"enabled"`
		Counterparties []struct {
			OrgKey           string `yaml:"org_key"`
			Relationship     string `yaml:"relationship"`
			Frequency        string `yaml:"frequency"`
			DayOfMonth       int    `yaml:"day_of_month"`
			AmountMin        Money  `yaml:"amount_min"`
			AmountMax        Money  `yaml:"amount_max"`
			Description      string `yaml:"description"`
			InvoiceTermsDays int    `yaml:"invoice_terms_days"`
			PaymentFlow      string `yaml:"payment_flow"`
		} `yaml:"counterparties"`
	} `yaml:"b2b"`
}

// scalarText accepts either a quoted string or a bare number and keeps the
// literal text, for fields like pay_day that take "friday" or 15.
type scalarText string

func (s *scalarText) UnmarshalYAML(value *yaml.Node) error {
	*s = scalarText(value.Value)
	return nil
}

type rawRateAdjustment struct {
	EffectiveDate string `yaml:"effective_date"`
	Rate          Money  `yaml:"rate"`
}

// Persona is one business's fully typed configuration.
type Persona struct {
	Key      event.BusinessKey
	Name     string
	Industry string

	Inflation    econ.InflationModel
	HasInflation bool

	DayPatterns map[time.Weekday]float64
	Seasonality map[time.Month]float64
	Patterns    []gen.Pattern
	Recurring   []recurring.Spec
	Employees   []payroll.EmployeeSpec
	Payroll     *payroll.Config
	Tax         *tax.Config
	TermLoans   []financing.LoanSpec
	CreditLines []financing.LineOfCreditSpec
	Equipment   []financing.EquipmentSpec
	Inventory   *inventory.Config
	B2B         *b2b.Config
}

// Registry holds every loaded persona, keyed by business.
type Registry struct {
	personas map[event.BusinessKey]*Persona
	keys     []event.BusinessKey
}

// Load reads and validates every persona file (*.yaml, *.yml) in dir.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ValidationError{Code: ErrCodeUnreadable, Message: err.Error()}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	r := &Registry{personas: map[event.BusinessKey]*Persona{}}
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ValidationError{Code: ErrCodeUnreadable, Message: err.Error()}
		}
		persona, err := ParsePersona(name, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, exists := r.personas[persona.Key]; exists {
			return nil, &ValidationError{
				Code:     ErrCodeDuplicate,
				Business: string(persona.Key),
				Message:  "business key defined by more than one persona file",
			}
		}
		r.personas[persona.Key] = persona
		r.keys = append(r.keys, persona.Key)
	}
	sort.Slice(r.keys, func(i, j int) bool { return r.keys[i] < r.keys[j] })
	return r, nil
}

// ParsePersona validates and decodes a single persona document.
func ParsePersona(filename string, data []byte) (*Persona, error) {
	if err := validateSchema(filename, data); err != nil {
		return nil, err
	}
	var raw personaFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Code: ErrCodeUnreadable, Message: err.Error()}
	}
	return convertPersona(&raw)
}

func convertPersona(raw *personaFile) (*Persona, error) {
	key := raw.Business.Key
	p := &Persona{
		Key:      event.BusinessKey(key),
		Name:     raw.Business.Name,
		Industry: raw.Business.Industry,
	}

	if raw.Inflation != nil {
		start, ok := dates.Parse(raw.Inflation.StartDate)
		if !ok {
			return nil, badValue(key, "inflation.start_date", "expected YYYY-MM-DD")
		}
		p.Inflation = econ.New(raw.Inflation.AnnualRate.Decimal, start)
		p.HasInflation = true
	}

	if len(raw.DayPatterns) > 0 {
		p.DayPatterns = map[time.Weekday]float64{}
		for dayName, mult := range raw.DayPatterns {
			weekday, ok := parseWeekday(dayName)
			if !ok {
				return nil, badValue(key, "day_patterns."+dayName, "unknown weekday")
			}
			p.DayPatterns[weekday] = mult
		}
	}

	if len(raw.Seasonality) > 0 {
		p.Seasonality = map[time.Month]float64{}
		for monthName, mult := range raw.Seasonality {
			month, ok := parseMonth(monthName)
			if !ok {
				return nil, badValue(key, "seasonality."+monthName, "unknown month")
			}
			p.Seasonality[month] = mult
		}
	}

	for i, rp := range raw.Patterns {
		field := fmt.Sprintf("patterns[%d]", i)
		txType, ok := parseTransactionType(rp.Type)
		if !ok {
			return nil, badValue(key, field+".type", "unknown transaction type "+rp.Type)
		}
		pattern := gen.Pattern{
			Type:                txType,
			DescriptionTemplate: rp.Description,
			MinAmount:           rp.MinAmount.Decimal,
			MaxAmount:           rp.MaxAmount.Decimal,
			Probability:         rp.Probability,
			WeekdayOnly:         rp.WeekdayOnly,
			WeekendBoost:        rp.WeekendBoost,
		}
		if len(rp.ActiveHours) == 2 {
			pattern.ActiveHours = &gen.HourRange{Start: rp.ActiveHours[0], End: rp.ActiveHours[1]}
		} else if len(rp.ActiveHours) != 0 {
			return nil, badValue(key, field+".active_hours", "expected [start, end]")
		}
		if len(rp.PhaseMultipliers) > 0 {
			pattern.PhaseMultipliers = map[event.Phase]float64{}
			for phaseName, mult := range rp.PhaseMultipliers {
				phase := event.Phase(phaseName)
				if !phase.Valid() {
					return nil, badValue(key, field+".phase_multipliers."+phaseName, "unknown phase")
				}
				pattern.PhaseMultipliers[phase] = mult
			}
		}
		if len(rp.SeasonalMultipliers) > 0 {
			pattern.SeasonalMultipliers = map[time.Month]float64{}
			for monthName, mult := range rp.SeasonalMultipliers {
				month, ok := parseMonth(monthName)
				if !ok {
					return nil, badValue(key, field+".seasonal_multipliers."+monthName, "unknown month")
				}
				pattern.SeasonalMultipliers[month] = mult
			}
		}
		p.Patterns = append(p.Patterns, pattern)
	}

	for i, rr := range raw.Recurring {
		spec := recurring.Spec{
			Name:           rr.Name,
			Vendor:         rr.Vendor,
			Amount:         rr.Amount.Decimal,
			DayOfMonth:     rr.DayOfMonth,
			Category:       rr.Category,
			IntervalMonths: rr.IntervalMonths,
		}
		if rr.AnniversaryDate != "" {
			anniversary, ok := dates.Parse(rr.AnniversaryDate)
			if !ok {
				return nil, badValue(key, fmt.Sprintf("recurring_transactions[%d].anniversary_date", i), "expected YYYY-MM-DD")
			}
			spec.AnniversaryDate = anniversary
		}
		p.Recurring = append(p.Recurring, spec)
	}

	for _, re := range raw.Employees {
		count := re.Count
		if count == 0 {
			count = 1
		}
		p.Employees = append(p.Employees, payroll.EmployeeSpec{
			Role:         re.Role,
			Count:        count,
			PayRate:      re.PayRate.Decimal,
			HoursPerWeek: re.HoursPerWeek.Decimal,
		})
	}

	if raw.Payroll != nil {
		payDayRaw := string(raw.Payroll.PayDay)
		if payDayRaw == "" {
			payDayRaw = "friday"
		}
		payDay, err := payroll.ParsePayDay(payDayRaw)
		if err != nil {
			return nil, badValue(key, "payroll.pay_day", err.Error())
		}
		frequency := raw.Payroll.Frequency
		if frequency == "" {
			frequency = "bi-weekly"
		}
		p.Payroll = &payroll.Config{
			Frequency:     payroll.NormalizeFrequency(frequency),
			PayDay:        payDay,
			PayrollVendor: raw.Payroll.PayrollVendor,
			TaxAuthority:  raw.Payroll.TaxAuthority,
		}
	}

	if raw.TaxConfig != nil {
		entity := raw.TaxConfig.EntityType
		if entity == "" {
			entity = "sole_proprietor"
		}
		p.Tax = &tax.Config{
			EntityType:            entity,
			EstimatedAnnualIncome: raw.TaxConfig.EstimatedAnnualIncome.Decimal,
			EstimatedTaxRate:      raw.TaxConfig.EstimatedTaxRate.Decimal,
			TaxVendor:             raw.TaxConfig.TaxVendor,
		}
	}

	if raw.Financing != nil {
		if err := convertFinancing(key, raw, p); err != nil {
			return nil, err
		}
	}

	if raw.Inventory != nil {
		if err := convertInventory(key, raw, p); err != nil {
			return nil, err
		}
	}

	if raw.B2B != nil {
		cfg := &b2b.Config{Enabled: true}
		if raw.B2B.Enabled != nil {
			cfg.Enabled = *raw.B2B.Enabled
		}
		for _, rc := range raw.B2B.Counterparties {
			cfg.Counterparties = append(cfg.Counterparties, b2b.CounterpartySpec{
				OrgKey:           event.BusinessKey(rc.OrgKey),
				Relationship:     rc.Relationship,
				Frequency:        rc.Frequency,
				DayOfMonth:       rc.DayOfMonth,
				AmountMin:        rc.AmountMin.Decimal,
				AmountMax:        rc.AmountMax.Decimal,
				Description:      rc.Description,
				InvoiceTermsDays: rc.InvoiceTermsDays,
				PaymentFlow:      rc.PaymentFlow,
			})
		}
		p.B2B = cfg
	}

	return p, nil
}

func convertFinancing(key string, raw *personaFile, p *Persona) error {
	for i, rl := range raw.Financing.TermLoans {
		field := fmt.Sprintf("financing.term_loans[%d]", i)
		spec := financing.LoanSpec{
			Name:       rl.Name,
			Principal:  rl.Principal.Decimal,
			AnnualRate: rl.AnnualRate.Decimal,
			TermMonths: rl.TermMonths,
			PaymentDay: rl.PaymentDay,
			Lender:     rl.Lender,
			LoanType:   rl.LoanType,
		}
		if rl.StartDate != "" {
			start, ok := dates.Parse(rl.StartDate)
			if !ok {
				return badValue(key, field+".start_date", "expected YYYY-MM-DD")
			}
			spec.StartDate = start
		}
		adjustments, err := convertAdjustments(key, field, rl.RateAdjustments)
		if err != nil {
			return err
		}
		spec.RateAdjustments = adjustments
		p.TermLoans = append(p.TermLoans, spec)
	}

	for i, rl := range raw.Financing.LinesOfCredit {
		field := fmt.Sprintf("financing.lines_of_credit[%d]", i)
		spec := financing.LineOfCreditSpec{
			Name:       rl.Name,
			AnnualRate: rl.AnnualRate.Decimal,
			Balance:    rl.Balance.Decimal,
			BillingDay: rl.BillingDay,
			Lender:     rl.Lender,
		}
		if rl.StartDate != "" {
			start, ok := dates.Parse(rl.StartDate)
			if !ok {
				return badValue(key, field+".start_date", "expected YYYY-MM-DD")
			}
			spec.StartDate = start
		}
		adjustments, err := convertAdjustments(key, field, rl.RateAdjustments)
		if err != nil {
			return err
		}
		spec.RateAdjustments = adjustments
		for j, re := range rl.BalanceEvents {
			effective, ok := dates.Parse(re.EffectiveDate)
			if !ok {
				return badValue(key, fmt.Sprintf("%s.balance_events[%d].effective_date", field, j), "expected YYYY-MM-DD")
			}
			spec.BalanceEvents = append(spec.BalanceEvents, financing.BalanceEvent{
				EffectiveDate: effective,
				Balance:       re.Balance.Decimal,
			})
		}
		p.CreditLines = append(p.CreditLines, spec)
	}

	for i, re := range raw.Financing.Equipment {
		field := fmt.Sprintf("financing.equipment_financing[%d]", i)
		decision := financing.EquipmentDecision(re.Decision)
		if decision == "" {
			decision = financing.DecisionAuto
		}
		spec := financing.EquipmentSpec{
			Name:               re.Name,
			Principal:          re.Principal.Decimal,
			AnnualRate:         re.AnnualRate.Decimal,
			TermMonths:         re.TermMonths,
			PaymentDay:         re.PaymentDay,
			Lender:             re.Lender,
			Decision:           decision,
			RateThreshold:      re.RateThreshold.Decimal,
			PrincipalThreshold: re.PrincipalThreshold.Decimal,
		}
		if re.StartDate != "" {
			start, ok := dates.Parse(re.StartDate)
			if !ok {
				return badValue(key, field+".start_date", "expected YYYY-MM-DD")
			}
			spec.StartDate = start
		}
		adjustments, err := convertAdjustments(key, field, re.RateAdjustments)
		if err != nil {
			return err
		}
		spec.RateAdjustments = adjustments
		p.Equipment = append(p.Equipment, spec)
	}
	return nil
}

func convertAdjustments(key, field string, raw []rawRateAdjustment) ([]financing.RateAdjustment, error) {
	var adjustments []financing.RateAdjustment
	for i, ra := range raw {
		effective, ok := dates.Parse(ra.EffectiveDate)
		if !ok {
			return nil, badValue(key, fmt.Sprintf("%s.rate_adjustments[%d].effective_date", field, i), "expected YYYY-MM-DD")
		}
		adjustments = append(adjustments, financing.RateAdjustment{
			EffectiveDate: effective,
			Rate:          ra.Rate.Decimal,
		})
	}
	sort.Slice(adjustments, func(i, j int) bool {
		return adjustments[i].EffectiveDate.Before(adjustments[j].EffectiveDate)
	})
	return adjustments, nil
}

func convertInventory(key string, raw *personaFile, p *Persona) error {
	checkDayRaw := string(raw.Inventory.CheckDay)
	if checkDayRaw == "" {
		checkDayRaw = "monday"
	}
	checkDay, ok := parseWeekday(checkDayRaw)
	if !ok {
		return badValue(key, "inventory.check_day", "unknown weekday")
	}
	driver := inventory.Driver(raw.Inventory.Driver)
	if driver == "" {
		driver = inventory.DriverRevenue
	}
	cfg := &inventory.Config{
		Enabled:           raw.Inventory.Enabled,
		CheckDay:          checkDay,
		CostingMethod:     raw.Inventory.CostingMethod,
		Driver:            driver,
		AverageSalePrice:  raw.Inventory.AverageSalePrice.Decimal,
		AverageVisitCount: raw.Inventory.AverageVisitCount.Decimal,
	}
	for _, item := range raw.Inventory.Items {
		cfg.Items = append(cfg.Items, inventory.ItemSpec{
			SKU:             item.SKU,
			Name:            item.Name,
			UnitCost:        item.UnitCost.Decimal,
			ConsumptionRate: item.ConsumptionRate.Decimal,
			ReorderLevel:    item.ReorderLevel.Decimal,
			ReorderQuantity: item.ReorderQuantity.Decimal,
			Vendor:          item.Vendor,
			Category:        item.Category,
		})
	}
	p.Inventory = cfg
	return nil
}

// Keys returns the loaded business keys in sorted order.
func (r *Registry) Keys() []event.BusinessKey {
	return r.keys
}

// Persona returns the persona for a business key.
func (r *Registry) Persona(key event.BusinessKey) (*Persona, bool) {
	p, ok := r.personas[key]
	return p, ok
}

// GeneratorConfig assembles the transaction generator's activity tables.
// Personas that omit a table inherit the built-in defaults for their key.
func (r *Registry) GeneratorConfig() gen.Config {
	cfg := gen.Config{
		Patterns:    map[event.BusinessKey][]gen.Pattern{},
		Seasonality: gen.DefaultSeasonality(),
		DayPatterns: gen.DefaultDayPatterns(),
		Templates:   gen.DefaultTemplates(),
		Holidays:    gen.DefaultHolidays(),
	}
	for _, key := range r.keys {
		p := r.personas[key]
		if len(p.Patterns) > 0 {
			cfg.Patterns[key] = p.Patterns
		} else if defaults := gen.DefaultPatterns()[key]; len(defaults) > 0 {
			cfg.Patterns[key] = defaults
		}
		if len(p.Seasonality) > 0 {
			cfg.Seasonality[key] = p.Seasonality
		}
		if len(p.DayPatterns) > 0 {
			cfg.DayPatterns[key] = p.DayPatterns
		}
	}
	return cfg
}

// RecurringSpecs returns the per-business recurring bill specs.
func (r *Registry) RecurringSpecs() map[event.BusinessKey][]recurring.Spec {
	out := map[event.BusinessKey][]recurring.Spec{}
	for _, key := range r.keys {
		if specs := r.personas[key].Recurring; len(specs) > 0 {
			out[key] = specs
		}
	}
	return out
}

// EmployeeRosters returns the per-business payroll rosters.
func (r *Registry) EmployeeRosters() map[event.BusinessKey][]payroll.EmployeeSpec {
	out := map[event.BusinessKey][]payroll.EmployeeSpec{}
	for _, key := range r.keys {
		if roster := r.personas[key].Employees; len(roster) > 0 {
			out[key] = roster
		}
	}
	return out
}

// PayrollConfigs returns the per-business payroll schedules.
func (r *Registry) PayrollConfigs() map[event.BusinessKey]payroll.Config {
	out := map[event.BusinessKey]payroll.Config{}
	for _, key := range r.keys {
		if cfg := r.personas[key].Payroll; cfg != nil {
			out[key] = *cfg
		}
	}
	return out
}

// TaxConfigs returns the per-business estimated tax profiles.
func (r *Registry) TaxConfigs() map[event.BusinessKey]tax.Config {
	out := map[event.BusinessKey]tax.Config{}
	for _, key := range r.keys {
		if cfg := r.personas[key].Tax; cfg != nil {
			out[key] = *cfg
		}
	}
	return out
}

// FinancingSpecs returns the per-business financing instruments.
func (r *Registry) FinancingSpecs() (
	map[event.BusinessKey][]financing.LoanSpec,
	map[event.BusinessKey][]financing.LineOfCreditSpec,
	map[event.BusinessKey][]financing.EquipmentSpec,
) {
	loans := map[event.BusinessKey][]financing.LoanSpec{}
	locs := map[event.BusinessKey][]financing.LineOfCreditSpec{}
	equipment := map[event.BusinessKey][]financing.EquipmentSpec{}
	for _, key := range r.keys {
		p := r.personas[key]
		if len(p.TermLoans) > 0 {
			loans[key] = p.TermLoans
		}
		if len(p.CreditLines) > 0 {
			locs[key] = p.CreditLines
		}
		if len(p.Equipment) > 0 {
			equipment[key] = p.Equipment
		}
	}
	return loans, locs, equipment
}

// InventoryConfigs returns the per-business inventory configs.
func (r *Registry) InventoryConfigs() map[event.BusinessKey]inventory.Config {
	out := map[event.BusinessKey]inventory.Config{}
	for _, key := range r.keys {
		if cfg := r.personas[key].Inventory; cfg != nil {
			out[key] = *cfg
		}
	}
	return out
}

// B2BConfigs returns the per-business B2B configs.
func (r *Registry) B2BConfigs() map[event.BusinessKey]b2b.Config {
	out := map[event.BusinessKey]b2b.Config{}
	for _, key := range r.keys {
		if cfg := r.personas[key].B2B; cfg != nil {
			out[key] = *cfg
		}
	}
	return out
}

func parseWeekday(raw string) (time.Weekday, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if w, ok := dates.WeekdayFromName(raw); ok {
		return w, true
	}
	// Numeric day keys count from Monday, matching common payroll configs.
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 6 {
		return time.Weekday((n + 1) % 7), true
	}
	return 0, false
}

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

func parseMonth(raw string) (time.Month, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if m, ok := monthsByName[normalized]; ok {
		return m, true
	}
	if n, err := strconv.Atoi(normalized); err == nil && n >= 1 && n <= 12 {
		return time.Month(n), true
	}
	return 0, false
}

func parseTransactionType(raw string) (event.Type, bool) {
	t := event.Type(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case event.TypeInvoice, event.TypeBill, event.TypePaymentReceived,
		event.TypeBillPayment, event.TypeCashSale:
		return t, true
	}
	return "", false
}
