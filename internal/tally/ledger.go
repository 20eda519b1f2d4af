package tally

import (
	"strings"

	"github.com/PremSaiBollamoni/tallybridge/internal/invoice"
)

// Account groups the pipeline posts into. TallyPrime ships these as part of
// its default chart of accounts.
const (
	// GroupSundryCreditors is the payable group vendor ledgers live under.
	GroupSundryCreditors = "Sundry Creditors"
	// GroupPurchaseAccounts is the expense group purchase ledgers live under.
	GroupPurchaseAccounts = "Purchase Accounts"

	// PurchaseAccountLedger is the generic purchase-expense ledger used for
	// lump-sum postings.
	PurchaseAccountLedger = "Purchase Account"
)

// LedgerSpec describes one chart-of-accounts entry an invoice requires.
// Specs are ephemeral: constructed, sent, discarded. The external chart of
// accounts is never mirrored locally; Tally tolerates creation requests for
// ledgers that already exist.
type LedgerSpec struct {
	Name     string
	Parent   string
	Billwise bool
}

// Message builds the ledger-creation message for this spec.
func (s LedgerSpec) Message() Ledger {
	return Ledger{
		NameAttr:   s.Name,
		Action:     actionCreate,
		Name:       s.Name,
		Parent:     s.Parent,
		BillwiseOn: YesNo(s.Billwise),
	}
}

// RequiredLedgers derives the chart-of-accounts entries posting the given
// invoice needs: the vendor as a bill-wise payable, the generic purchase
// ledger, and one purchase ledger per distinct non-empty line-item
// description. Names are sanitized here so deduplication sees what Tally
// will see; duplicates collapse to a single creation attempt.
func RequiredLedgers(rec invoice.Record) []LedgerSpec {
	specs := []LedgerSpec{
		{Name: Sanitize(rec.VendorName), Parent: GroupSundryCreditors, Billwise: true},
		{Name: PurchaseAccountLedger, Parent: GroupPurchaseAccounts},
	}

	seen := make(map[string]bool)
	for _, item := range rec.LineItems {
		if strings.TrimSpace(item.Description) == "" {
			continue
		}
		name := Sanitize(item.Description)
		if name == PurchaseAccountLedger || seen[name] {
			continue
		}
		seen[name] = true
		specs = append(specs, LedgerSpec{Name: name, Parent: GroupPurchaseAccounts})
	}

	return specs
}
