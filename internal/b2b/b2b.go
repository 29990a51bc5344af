// Package b2b plans paired transactions between simulated organizations:
// the seller books an invoice and the buyer books the matching bill, linked
// by a deterministic pair id so both sides reconcile to the same record.
//
// All ids and amounts derive from name-based UUIDs over the pair and date,
// so independent runs plan identical pairs without sharing state.
package b2b

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/econ"
	"github.com/atlastown/bizsim/internal/event"
)

// Namespace scopes every pair-related UUID the coordinator mints.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("atlas-town-b2b"))

// Relationship direction values accepted in counterparty configs.
const (
	RelationshipAuto     = "auto"
	RelationshipVendor   = "vendor"
	RelationshipSeller   = "seller"
	RelationshipCustomer = "customer"
	RelationshipBuyer    = "buyer"
)

const (
	DefaultFrequency   = "monthly"
	DefaultDayOfMonth  = 10
	DefaultTermsDays   = 30
	DefaultPaymentFlow = "same_day" // or "none"
)

// Fuzzy name matching tolerance for linking customer records to org names.
const nameMatchMaxDistance = 2

// Default invoice ranges per selling organization; unknown sellers fall
// back to a generic range.
var defaultAmountRanges = map[event.BusinessKey][2]decimal.Decimal{
	"craig":  {decimal.NewFromInt(300), decimal.NewFromInt(2500)},
	"tony":   {decimal.NewFromInt(150), decimal.NewFromInt(1200)},
	"maya":   {decimal.NewFromInt(1000), decimal.NewFromInt(9000)},
	"chen":   {decimal.NewFromInt(300), decimal.NewFromInt(3500)},
	"marcus": {decimal.NewFromInt(800), decimal.NewFromInt(12000)},
}

var fallbackAmountRange = [2]decimal.Decimal{decimal.NewFromInt(250), decimal.NewFromInt(2500)}

// Org identifies one participating organization.
type Org struct {
	Key  event.BusinessKey
	ID   uuid.UUID
	Name string
}

// CounterpartySpec is one configured counterparty relationship.
type CounterpartySpec struct {
	OrgKey           event.BusinessKey
	Relationship     string // vendor|customer|auto
	Frequency        string
	DayOfMonth       int
	AmountMin        decimal.Decimal
	AmountMax        decimal.Decimal
	Description      string
	InvoiceTermsDays int
	PaymentFlow      string
}

// Config is one organization's B2B setup.
type Config struct {
	Enabled        bool
	Counterparties []CounterpartySpec
}

// pairSpec is a resolved seller-to-buyer relationship.
type pairSpec struct {
	sellerKey        event.BusinessKey
	buyerKey         event.BusinessKey
	frequency        string
	dayOfMonth       int
	amountMin        decimal.Decimal
	amountMax        decimal.Decimal
	hasAmountRange   bool
	description      string
	invoiceTermsDays int
	paymentFlow      string
}

// PlannedPair is one B2B transaction due on a given day.
type PlannedPair struct {
	PairID      string
	SellerKey   event.BusinessKey
	BuyerKey    event.BusinessKey
	SellerOrgID uuid.UUID
	BuyerOrgID  uuid.UUID
	SellerName  string
	BuyerName   string
	Amount      decimal.Decimal
	Description string
	DueDate     time.Time
	PaymentFlow string
}

// Coordinator plans cross-org pairs and remembers which it has emitted.
//
// Not safe for concurrent use.
type Coordinator struct {
	orgs      map[event.BusinessKey]Org
	configs   map[event.BusinessKey]Config
	seen      map[string]bool
	inflation econ.InflationModel
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithInflation sets the inflation model applied to planned pair amounts.
func WithInflation(m econ.InflationModel) Option {
	return func(c *Coordinator) { c.inflation = m }
}

// New builds a Coordinator for the given organizations and configs.
func New(orgs map[event.BusinessKey]Org, configs map[event.BusinessKey]Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		orgs:      orgs,
		configs:   configs,
		seen:      map[string]bool{},
		inflation: econ.Disabled(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarkPairSeen records a pair as already materialized so replaying the same
// day does not plan it again.
func (c *Coordinator) MarkPairSeen(pairID string) {
	c.seen[pairID] = true
}

// normalizeName strips apostrophes, collapses whitespace, and lowercases.
func normalizeName(name string) string {
	cleaned := strings.ReplaceAll(name, "'", "")
	return strings.ToLower(strings.Join(strings.Fields(cleaned), " "))
}

// namesMatch links a customer record to an org name: exact, substring, or
// within a small edit distance to absorb punctuation and typo drift.
func namesMatch(left, right string) bool {
	l, r := normalizeName(left), normalizeName(right)
	if l == "" || r == "" {
		return false
	}
	if l == r || strings.Contains(l, r) || strings.Contains(r, l) {
		return true
	}
	return levenshtein.ComputeDistance(l, r) <= nameMatchMaxDistance
}

// PairID derives the deterministic id for a seller/buyer pair on a date.
func PairID(sellerOrgID, buyerOrgID uuid.UUID, day time.Time) string {
	seed := sellerOrgID.String() + ":" + buyerOrgID.String() + ":" + dates.Key(day)
	return uuid.NewSHA1(Namespace, []byte(seed)).String()
}

// PlanPairs returns the pairs due on the given date. customersByOrg maps
// each org to its customer records, used both for auto-discovering pairs
// and for inferring relationship direction.
func (c *Coordinator) PlanPairs(
	day time.Time,
	customersByOrg map[event.BusinessKey][]event.Party,
) []PlannedPair {
	day = dates.Day(day)
	specs := c.resolvePairSpecs(customersByOrg)

	var planned []PlannedPair
	for _, spec := range specs {
		if !pairDue(&spec, day) {
			continue
		}
		seller, okSeller := c.orgs[spec.sellerKey]
		buyer, okBuyer := c.orgs[spec.buyerKey]
		if !okSeller || !okBuyer {
			continue
		}

		pairID := PairID(seller.ID, buyer.ID, day)
		if c.seen[pairID] {
			continue
		}

		description := spec.description
		if description == "" {
			description = "B2B services - " + seller.Name + " to " + buyer.Name
		}
		planned = append(planned, PlannedPair{
			PairID:      pairID,
			SellerKey:   spec.sellerKey,
			BuyerKey:    spec.buyerKey,
			SellerOrgID: seller.ID,
			BuyerOrgID:  buyer.ID,
			SellerName:  seller.Name,
			BuyerName:   buyer.Name,
			Amount:      c.pairAmount(&spec, day),
			Description: description,
			DueDate:     day.AddDate(0, 0, spec.invoiceTermsDays),
			PaymentFlow: spec.paymentFlow,
		})
	}
	return planned
}

// resolvePairSpecs merges config-driven pairs with auto-discovered ones.
// Org keys are visited in sorted order so the plan is stable run to run.
func (c *Coordinator) resolvePairSpecs(
	customersByOrg map[event.BusinessKey][]event.Party,
) []pairSpec {
	type specKey struct{ seller, buyer event.BusinessKey }
	known := map[specKey]bool{}
	var specs []pairSpec

	for _, orgKey := range sortedKeys(c.configs) {
		cfg := c.configs[orgKey]
		if !cfg.Enabled {
			continue
		}
		for _, counterparty := range cfg.Counterparties {
			sellerKey, buyerKey := c.resolveDirection(orgKey, &counterparty, customersByOrg)
			if sellerKey == "" || buyerKey == "" {
				continue
			}
			sk := specKey{sellerKey, buyerKey}
			if known[sk] {
				continue
			}
			known[sk] = true

			spec := pairSpec{
				sellerKey:        sellerKey,
				buyerKey:         buyerKey,
				frequency:        counterparty.Frequency,
				dayOfMonth:       counterparty.DayOfMonth,
				description:      counterparty.Description,
				invoiceTermsDays: counterparty.InvoiceTermsDays,
				paymentFlow:      counterparty.PaymentFlow,
			}
			if spec.frequency == "" {
				spec.frequency = DefaultFrequency
			}
			if spec.dayOfMonth == 0 {
				spec.dayOfMonth = DefaultDayOfMonth
			}
			if spec.invoiceTermsDays == 0 {
				spec.invoiceTermsDays = DefaultTermsDays
			}
			if spec.paymentFlow == "" {
				spec.paymentFlow = DefaultPaymentFlow
			}
			if !counterparty.AmountMin.IsZero() || !counterparty.AmountMax.IsZero() {
				spec.amountMin = counterparty.AmountMin
				spec.amountMax = counterparty.AmountMax
				spec.hasAmountRange = true
			}
			specs = append(specs, spec)
		}
	}

	// Auto-discover: an org whose customer list contains another org's name
	// is selling to it.
	for _, sellerKey := range sortedKeys(customersByOrg) {
		sellerName := c.orgName(sellerKey)
		if sellerName == "" {
			continue
		}
		customers := customersByOrg[sellerKey]
		for _, buyerKey := range sortedKeys(c.orgs) {
			if buyerKey == sellerKey {
				continue
			}
			buyerName := c.orgName(buyerKey)
			if buyerName == "" || !customersMatchOrg(customers, buyerName) {
				continue
			}
			sk := specKey{sellerKey, buyerKey}
			if known[sk] {
				continue
			}
			known[sk] = true
			specs = append(specs, pairSpec{
				sellerKey:        sellerKey,
				buyerKey:         buyerKey,
				frequency:        DefaultFrequency,
				dayOfMonth:       DefaultDayOfMonth,
				invoiceTermsDays: DefaultTermsDays,
				paymentFlow:      DefaultPaymentFlow,
			})
		}
	}
	return specs
}

// resolveDirection decides who sells and who buys. Explicit relationships
// win; auto infers from customer lists and finally assumes the configuring
// org is the seller.
func (c *Coordinator) resolveDirection(
	orgKey event.BusinessKey,
	counterparty *CounterpartySpec,
	customersByOrg map[event.BusinessKey][]event.Party,
) (seller, buyer event.BusinessKey) {
	switch strings.ToLower(strings.TrimSpace(counterparty.Relationship)) {
	case RelationshipVendor, RelationshipSeller:
		return orgKey, counterparty.OrgKey
	case RelationshipCustomer, RelationshipBuyer:
		return counterparty.OrgKey, orgKey
	}

	if customersMatchOrg(customersByOrg[orgKey], c.orgName(counterparty.OrgKey)) {
		return orgKey, counterparty.OrgKey
	}
	if customersMatchOrg(customersByOrg[counterparty.OrgKey], c.orgName(orgKey)) {
		return counterparty.OrgKey, orgKey
	}
	return orgKey, counterparty.OrgKey
}

func (c *Coordinator) orgName(key event.BusinessKey) string {
	return c.orgs[key].Name
}

func customersMatchOrg(customers []event.Party, orgName string) bool {
	if orgName == "" {
		return false
	}
	for _, customer := range customers {
		if namesMatch(customer.DisplayName, orgName) {
			return true
		}
	}
	return false
}

// pairDue applies the frequency rule for the date.
func pairDue(spec *pairSpec, day time.Time) bool {
	switch strings.ToLower(strings.TrimSpace(spec.frequency)) {
	case "daily":
		return true
	case "weekly":
		return day.Weekday() == time.Monday
	case "quarterly":
		switch day.Month() {
		case time.January, time.April, time.July, time.October:
		default:
			return false
		}
	}
	return day.Day() == dates.ClampDay(spec.dayOfMonth, day)
}

// pairAmount draws the pair's amount from a triangular distribution seeded
// by the pair and date, snapped to a five-cent grid, then inflation-adjusted
// for the plan date.
func (c *Coordinator) pairAmount(spec *pairSpec, day time.Time) decimal.Decimal {
	amountMin, amountMax := spec.amountMin, spec.amountMax
	if !spec.hasAmountRange {
		if r, ok := defaultAmountRanges[spec.sellerKey]; ok {
			amountMin, amountMax = r[0], r[1]
		} else {
			amountMin, amountMax = fallbackAmountRange[0], fallbackAmountRange[1]
		}
	}
	if amountMin.Equal(amountMax) {
		return c.inflation.Apply(amountMin.Round(2), day)
	}

	seedID := uuid.NewSHA1(Namespace,
		[]byte(string(spec.sellerKey)+":"+string(spec.buyerKey)+":"+dates.Key(day)))
	var seed int64
	for _, b := range seedID {
		seed = seed<<8 | int64(b&0xff)
		seed &= 0x7fffffffffffffff
	}
	rng := rand.New(rand.NewSource(seed))

	low, _ := amountMin.Float64()
	high, _ := amountMax.Float64()
	mode := low + (high-low)*0.3
	u := rng.Float64()
	cut := (mode - low) / (high - low)
	if u > cut {
		u = 1 - u
		cut = 1 - cut
		low, high = high, low
	}
	raw := low + (high-low)*math.Sqrt(u*cut)
	snapped := math.Round(raw/0.05) * 0.05
	return c.inflation.Apply(decimal.NewFromFloat(snapped).Round(2), day)
}

func sortedKeys[M ~map[event.BusinessKey]V, V any](m M) []event.BusinessKey {
	keys := make([]event.BusinessKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
