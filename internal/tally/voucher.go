package tally

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/PremSaiBollamoni/tallybridge/internal/invoice"
)

const (
	// VoucherTypePurchase is the only voucher type this pipeline posts.
	VoucherTypePurchase = "Purchase"

	// ReconcileTolerance is the absolute difference, in currency units,
	// under which the itemized line totals are considered to agree with the
	// invoice total and the voucher is posted itemized.
	ReconcileTolerance = 1.0

	// FallbackAmount replaces a non-positive invoice total. Tally rejects
	// zero-amount postings; this is a named placeholder, not a correction.
	FallbackAmount = 1.0

	// tallyDateLayout renders dates as DDMMYYYY, the encoding the gateway
	// accepts for DATE elements.
	tallyDateLayout = "02012006"
)

// Synthesizer builds balanced purchase vouchers from invoice records.
type Synthesizer struct {
	// Now supplies the posting date. Vouchers are dated with the processing
	// date, not the invoice's own date text: extracted dates arrive in
	// arbitrary formats and a mis-parsed date outside the company's fiscal
	// year makes Tally reject the whole voucher. Override for tests or for
	// backdated posting.
	Now func() time.Time

	log zerolog.Logger
}

// NewSynthesizer creates a synthesizer posting at the current date.
func NewSynthesizer(log zerolog.Logger) *Synthesizer {
	return &Synthesizer{Now: time.Now, log: log}
}

// Synthesize builds one balanced purchase voucher from the merged invoice
// record. The record is only read, never modified.
//
// If the invoice carries line items and their sum agrees with the invoice
// total within ReconcileTolerance, one deemed-positive entry is emitted per
// line item; otherwise a single lump-sum entry against the generic purchase
// ledger carries the full total. A negative party entry for the vendor is
// prepended, offsetting the positive entries exactly so the voucher balances
// to zero.
func (s *Synthesizer) Synthesize(rec invoice.Record) Voucher {
	vendor := Sanitize(rec.VendorName)
	number := Sanitize(rec.InvoiceNumber)

	total := rec.TotalAmount
	if total <= 0 {
		s.log.Warn().
			Float64("total_amount", rec.TotalAmount).
			Float64("fallback", FallbackAmount).
			Str("invoice_number", number).
			Msg("Non-positive invoice total, posting fallback amount")
		total = FallbackAmount
	}

	var positives []LedgerEntry
	itemsTotal := rec.LineItemsTotal()
	if len(rec.LineItems) > 0 && math.Abs(itemsTotal-total) < ReconcileTolerance {
		for _, item := range rec.LineItems {
			positives = append(positives, LedgerEntry{
				LedgerName:     Sanitize(item.Description),
				DeemedPositive: true,
				Amount:         Amount(item.Amount),
			})
		}
	} else {
		if len(rec.LineItems) > 0 {
			s.log.Info().
				Float64("line_items_total", itemsTotal).
				Float64("total_amount", total).
				Msg("Line items do not reconcile with invoice total, posting lump sum")
		}
		positives = []LedgerEntry{{
			LedgerName:     PurchaseAccountLedger,
			DeemedPositive: true,
			Amount:         Amount(total),
		}}
	}

	var positiveSum float64
	for _, entry := range positives {
		positiveSum += float64(entry.Amount)
	}

	entries := make([]LedgerEntry, 0, len(positives)+1)
	entries = append(entries, LedgerEntry{
		LedgerName:     vendor,
		DeemedPositive: false,
		Amount:         Amount(-positiveSum),
	})
	entries = append(entries, positives...)

	return Voucher{
		VchType:         VoucherTypePurchase,
		Action:          actionCreate,
		Date:            s.Now().Format(tallyDateLayout),
		VoucherTypeName: VoucherTypePurchase,
		VoucherNumber:   number,
		PartyLedgerName: vendor,
		Entries:         entries,
	}
}
