// Package invoice defines the canonical invoice record produced by page
// extraction and the merge rule that consolidates multi-page extractions.
package invoice

// LineItem is one billed line on an invoice. Items have no identity beyond
// their position; order is significant and preserved across merges.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Record is one consolidated invoice extraction. Every field is optional;
// the extractor may leave any of them at its zero value and downstream code
// must treat that as defaulted, never as an error.
type Record struct {
	InvoiceNumber string     `json:"invoice_number"`
	Date          string     `json:"date"`
	VendorName    string     `json:"vendor_name"`
	VendorAddress string     `json:"vendor_address"`
	TotalAmount   float64    `json:"total_amount"`
	TaxAmount     float64    `json:"tax_amount"`
	LineItems     []LineItem `json:"line_items"`
}

// LineItemsTotal sums the amounts of all line items.
func (r Record) LineItemsTotal() float64 {
	var total float64
	for _, item := range r.LineItems {
		total += item.Amount
	}
	return total
}

// Merge consolidates per-page extraction records into one invoice record.
//
// Header fields (invoice number, date, vendor name/address) come from the
// first record: page 1 is assumed canonical. Line items are concatenated in
// page order. Totals are the maximum observed across pages rather than a sum,
// because repeated or partial totals on continuation pages make summation
// unsafe; max favors the most complete page. It is a heuristic, not a
// verified aggregation.
func Merge(records []Record) Record {
	if len(records) == 0 {
		return Record{}
	}
	if len(records) == 1 {
		return records[0]
	}

	merged := records[0]

	var items []LineItem
	var totalAmount, taxAmount float64
	for _, rec := range records {
		items = append(items, rec.LineItems...)
		totalAmount = max(totalAmount, rec.TotalAmount)
		taxAmount = max(taxAmount, rec.TaxAmount)
	}

	merged.LineItems = items
	merged.TotalAmount = totalAmount
	merged.TaxAmount = taxAmount

	return merged
}
