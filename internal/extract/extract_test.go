package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/PremSaiBollamoni/tallybridge/internal/invoice"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already clean",
			input: `{"invoice_number": "INV-1"}`,
			want:  `{"invoice_number": "INV-1"}`,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"invoice_number\": \"INV-1\"}\n```",
			want:  `{"invoice_number": "INV-1"}`,
		},
		{
			name:  "bare code fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "prose around the object",
			input: "Here is the data:\n{\"a\": 1}\nHope that helps!",
			want:  `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.input); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeRecord(t *testing.T) {
	raw := "```json\n" + `{
		"invoice_number": "INV-1",
		"vendor_name": "Acme",
		"total_amount": 99.5,
		"line_items": [{"description": "Paper", "quantity": 2, "rate": 20, "amount": 40}]
	}` + "\n```"

	rec, err := decodeRecord(raw)
	if err != nil {
		t.Fatalf("decodeRecord() error = %v", err)
	}
	if rec.InvoiceNumber != "INV-1" || rec.VendorName != "Acme" || rec.TotalAmount != 99.5 {
		t.Errorf("decoded record = %+v", rec)
	}
	if len(rec.LineItems) != 1 || rec.LineItems[0].Amount != 40 {
		t.Errorf("decoded line items = %+v", rec.LineItems)
	}
}

func TestDecodeRecord_MissingFieldsDefault(t *testing.T) {
	rec, err := decodeRecord(`{"vendor_name": "Acme"}`)
	if err != nil {
		t.Fatalf("decodeRecord() error = %v", err)
	}
	if rec.TotalAmount != 0 || rec.InvoiceNumber != "" || rec.LineItems != nil {
		t.Errorf("missing fields should default: %+v", rec)
	}
}

func TestDecodeRecord_Invalid(t *testing.T) {
	if _, err := decodeRecord("no json here"); err == nil {
		t.Error("decodeRecord() of non-JSON: expected error, got nil")
	}
}

// stubPages returns a fixed record per call, counting pages.
type stubPages struct {
	calls int
	err   error
}

func (s *stubPages) ExtractPage(ctx context.Context, image []byte) (invoice.Record, error) {
	s.calls++
	if s.err != nil {
		return invoice.Record{}, s.err
	}
	return invoice.Record{InvoiceNumber: fmt.Sprintf("page-%d", s.calls)}, nil
}

func TestExtractFile_SingleImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, []byte("not really a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	stub := &stubPages{}
	records, err := NewFileExtractor(stub).ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if len(records) != 1 || stub.calls != 1 {
		t.Errorf("got %d records / %d calls, want 1 / 1", len(records), stub.calls)
	}
}

func TestExtractFile_UnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileExtractor(&stubPages{}).ExtractFile(context.Background(), path); err == nil {
		t.Error("ExtractFile() of .txt: expected error, got nil")
	}
}

func TestExtractFile_PageError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.jpg")
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	stub := &stubPages{err: fmt.Errorf("model unavailable")}
	if _, err := NewFileExtractor(stub).ExtractFile(context.Background(), path); err == nil {
		t.Error("ExtractFile() with failing page extractor: expected error, got nil")
	}
}
