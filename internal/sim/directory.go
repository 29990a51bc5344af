package sim

import (
	"github.com/google/uuid"

	"github.com/atlastown/bizsim/internal/b2b"
	"github.com/atlastown/bizsim/internal/config"
	"github.com/atlastown/bizsim/internal/event"
)

// partyNamespace roots deterministic party IDs so every run resolves the
// same names to the same UUIDs.
var partyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("atlas-town-parties"))

// PartyID derives the stable UUID for a named party within a business.
func PartyID(key event.BusinessKey, name string) uuid.UUID {
	return uuid.NewSHA1(partyNamespace, []byte(string(key)+":"+name))
}

// OrgID derives the stable UUID for a business organization.
func OrgID(key event.BusinessKey) uuid.UUID {
	return uuid.NewSHA1(partyNamespace, []byte("org:"+string(key)))
}

// Directory holds every counterparty a run can transact with: retail
// customers, vendors collected from the persona configuration, and the
// org records used for cross-business pairs.
type Directory struct {
	Customers map[event.BusinessKey][]event.Party
	Vendors   map[event.BusinessKey][]event.Party
	Orgs      map[event.BusinessKey]b2b.Org

	// vendorCategories resolves a vendor ID back to its category for
	// 1099 tracking.
	vendorCategories map[uuid.UUID]string
}

// Stock retail customers. Every business gets the same roster; IDs still
// differ per business because PartyID scopes by key.
var defaultCustomerNames = []string{
	"Johnson family",
	"Rivera household",
	"Oakdale HOA",
	"Summit Office Park",
	"Miller & Sons",
}

// BuildDirectory derives the party directory from loaded personas. Vendor
// lists are assembled in persona declaration order and deduplicated by name,
// so the directory is identical run to run.
func BuildDirectory(registry *config.Registry) Directory {
	dir := Directory{
		Customers:        map[event.BusinessKey][]event.Party{},
		Vendors:          map[event.BusinessKey][]event.Party{},
		Orgs:             map[event.BusinessKey]b2b.Org{},
		vendorCategories: map[uuid.UUID]string{},
	}

	for _, key := range registry.Keys() {
		persona, _ := registry.Persona(key)

		for _, name := range defaultCustomerNames {
			dir.Customers[key] = append(dir.Customers[key], event.Party{
				ID:          PartyID(key, name),
				DisplayName: name,
			})
		}

		seen := map[string]bool{}
		addVendor := func(name, category string) {
			if name == "" || seen[name] {
				return
			}
			seen[name] = true
			id := PartyID(key, name)
			dir.Vendors[key] = append(dir.Vendors[key], event.Party{
				ID:          id,
				DisplayName: name,
				Category:    category,
			})
			dir.vendorCategories[id] = category
		}

		for _, spec := range persona.Recurring {
			addVendor(spec.Vendor, spec.Category)
		}
		if persona.Payroll != nil {
			addVendor(persona.Payroll.PayrollVendor, "payroll")
			addVendor(persona.Payroll.TaxAuthority, "tax")
		}
		if persona.Tax != nil {
			addVendor(persona.Tax.TaxVendor, "tax")
		}
		for _, loan := range persona.TermLoans {
			addVendor(loan.Lender, "financing")
		}
		for _, loc := range persona.CreditLines {
			addVendor(loc.Lender, "financing")
		}
		for _, equipment := range persona.Equipment {
			addVendor(equipment.Lender, "financing")
		}
		if persona.Inventory != nil {
			for _, item := range persona.Inventory.Items {
				addVendor(item.Vendor, "supplies")
			}
		}

		dir.Orgs[key] = b2b.Org{
			Key:  key,
			ID:   OrgID(key),
			Name: persona.Name,
		}
	}

	return dir
}

// VendorCategory resolves a vendor ID to the category it was registered
// under. Unknown IDs return the empty string.
func (d *Directory) VendorCategory(id uuid.UUID) string {
	return d.vendorCategories[id]
}
