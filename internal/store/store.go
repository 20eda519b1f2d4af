// Package store persists pipeline outputs as flat files: the merged invoice
// record as JSON and the generated voucher as XML, paired by a run timestamp
// key.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PremSaiBollamoni/tallybridge/internal/invoice"
)

const (
	invoicePrefix = "invoice_"
	voucherPrefix = "voucher_"

	// keyLayout is the run key format. Second resolution: two runs started
	// within the same second collide. Known hazard, accepted for now since
	// runs are processed strictly sequentially.
	keyLayout = "20060102_150405"
)

// RunFiles names the pair of artifacts persisted for one run.
type RunFiles struct {
	InvoiceJSON string `json:"invoice_json"`
	VoucherXML  string `json:"voucher_xml,omitempty"`
}

// HistoryEntry summarizes one persisted run for listings.
type HistoryEntry struct {
	Timestamp     string  `json:"timestamp"`
	InvoiceNumber string  `json:"invoice_number"`
	VendorName    string  `json:"vendor_name"`
	TotalAmount   float64 `json:"total_amount"`
	InvoiceJSON   string  `json:"json_file"`
	VoucherXML    string  `json:"xml_file"`
}

// Store is an append-only flat-file results store rooted at one directory.
type Store struct {
	dir string
}

// New creates the results directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create results dir %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the results directory.
func (s *Store) Dir() string { return s.dir }

// NewKey returns a run key for the given processing time.
func NewKey(t time.Time) string {
	return t.Format(keyLayout)
}

// SaveRun writes the merged invoice record and, when non-empty, the voucher
// XML under the given run key.
func (s *Store) SaveRun(key string, rec invoice.Record, voucherXML []byte) (RunFiles, error) {
	files := RunFiles{InvoiceJSON: invoicePrefix + key + ".json"}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return RunFiles{}, fmt.Errorf("store: marshal invoice record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, files.InvoiceJSON), data, 0o644); err != nil {
		return RunFiles{}, fmt.Errorf("store: write %s: %w", files.InvoiceJSON, err)
	}

	if len(voucherXML) > 0 {
		files.VoucherXML = voucherPrefix + key + ".xml"
		if err := os.WriteFile(filepath.Join(s.dir, files.VoucherXML), voucherXML, 0o644); err != nil {
			return RunFiles{}, fmt.Errorf("store: write %s: %w", files.VoucherXML, err)
		}
	}

	return files, nil
}

// History lists persisted runs, newest first. Unreadable entries are skipped
// rather than failing the whole listing.
func (s *Store) History() ([]HistoryEntry, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, invoicePrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("store: list results: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var rec invoice.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}

		name := filepath.Base(path)
		key := strings.TrimSuffix(strings.TrimPrefix(name, invoicePrefix), ".json")

		entry := HistoryEntry{
			Timestamp:     key,
			InvoiceNumber: rec.InvoiceNumber,
			VendorName:    rec.VendorName,
			TotalAmount:   rec.TotalAmount,
			InvoiceJSON:   name,
			VoucherXML:    voucherPrefix + key + ".xml",
		}
		if _, err := os.Stat(filepath.Join(s.dir, entry.VoucherXML)); err != nil {
			entry.VoucherXML = ""
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

// Read returns the contents of a stored artifact by bare filename. Path
// separators are rejected so callers cannot escape the results directory.
func (s *Store) Read(name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("store: invalid artifact name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	return data, nil
}
