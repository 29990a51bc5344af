package event

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type identifies the kind of financial activity a generated transaction
// represents. The downstream ledger maps each type to a concrete API call
// (create invoice, create bill, record payment, ...).
type Type string

const (
	TypeInvoice         Type = "invoice"
	TypeBill            Type = "bill"
	TypePaymentReceived Type = "payment_received"
	TypeBillPayment     Type = "bill_payment"
	TypeCashSale        Type = "cash_sale"
)

// IsRevenue reports whether the type increases business income.
func (t Type) IsRevenue() bool {
	switch t {
	case TypeInvoice, TypeCashSale, TypePaymentReceived:
		return true
	}
	return false
}

// IsExpense reports whether the type decreases business income.
func (t Type) IsExpense() bool {
	switch t {
	case TypeBill, TypeBillPayment:
		return true
	}
	return false
}

// BusinessKey is an opaque identifier for one simulated company ("craig",
// "tony", ...). The set of valid keys is data-driven: it comes from the
// persona configuration, never from a compile-time enum.
type BusinessKey string

// Party is a customer or vendor record as supplied by the caller. Only the
// fields the engine needs are modeled; the ledger owns the full entity.
type Party struct {
	ID          uuid.UUID
	DisplayName string
	Category    string
}

// Metadata keys the engine emits for the downstream ledger.
const (
	MetaExpenseAccountHint = "expense_account_hint"
	MetaFinancingType      = "financing_type"
	MetaInventorySKU       = "inventory_sku"
	MetaB2BPairID          = "b2b_pair_id"
)

// GeneratedTransaction is the engine's sole output unit. It is created fresh
// each time an event fires and never mutated afterwards; ownership transfers
// to the caller immediately.
type GeneratedTransaction struct {
	Type        Type
	Description string
	Amount      decimal.Decimal
	CustomerID  *uuid.UUID
	VendorID    *uuid.UUID
	Metadata    map[string]any
}

// Meta returns the metadata map, allocating it on first use.
func (t *GeneratedTransaction) Meta() map[string]any {
	if t.Metadata == nil {
		t.Metadata = make(map[string]any)
	}
	return t.Metadata
}
