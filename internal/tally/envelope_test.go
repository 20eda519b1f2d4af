package tally

import (
	"reflect"
	"strings"
	"testing"
)

func TestSerialize_LedgerEnvelope(t *testing.T) {
	spec := LedgerSpec{Name: "Acme Supplies", Parent: GroupSundryCreditors, Billwise: true}

	data, err := NewLedgerEnvelope(spec.Message()).Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	text := string(data)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<TALLYREQUEST>Import Data</TALLYREQUEST>`,
		`<REPORTNAME>All Masters</REPORTNAME>`,
		`xmlns:UDF="TallyUDF"`,
		`<LEDGER NAME="Acme Supplies" ACTION="Create">`,
		`<NAME>Acme Supplies</NAME>`,
		`<PARENT>Sundry Creditors</PARENT>`,
		`<ISBILLWISEON>Yes</ISBILLWISEON>`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("serialized ledger envelope missing %q:\n%s", want, text)
		}
	}
}

func TestSerialize_VoucherEnvelope(t *testing.T) {
	v := Voucher{
		VchType:         VoucherTypePurchase,
		Action:          "Create",
		Date:            "12122025",
		VoucherTypeName: VoucherTypePurchase,
		VoucherNumber:   "INV-7",
		PartyLedgerName: "Acme Supplies",
		Entries: []LedgerEntry{
			{LedgerName: "Acme Supplies", DeemedPositive: false, Amount: -99.5},
			{LedgerName: "Paper", DeemedPositive: true, Amount: 40},
			{LedgerName: "Ink", DeemedPositive: true, Amount: 59.5},
		},
	}

	data, err := NewVoucherEnvelope(v).Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	text := string(data)
	for _, want := range []string{
		`<REPORTNAME>Vouchers</REPORTNAME>`,
		`<VOUCHER REMOTEID="" VCHKEY="" VCHTYPE="Purchase" ACTION="Create">`,
		`<DATE>12122025</DATE>`,
		`<VOUCHERTYPENAME>Purchase</VOUCHERTYPENAME>`,
		`<VOUCHERNUMBER>INV-7</VOUCHERNUMBER>`,
		`<PARTYLEDGERNAME>Acme Supplies</PARTYLEDGERNAME>`,
		`<ALLLEDGERENTRIES.LIST>`,
		`<ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE>`,
		`<ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE>`,
		`<AMOUNT>-99.5</AMOUNT>`,
		`<AMOUNT>40</AMOUNT>`,
		`<AMOUNT>59.5</AMOUNT>`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("serialized voucher envelope missing %q:\n%s", want, text)
		}
	}
}

func TestVoucherEnvelope_RoundTrip(t *testing.T) {
	v := Voucher{
		VchType:         VoucherTypePurchase,
		Action:          "Create",
		Date:            "12122025",
		VoucherTypeName: VoucherTypePurchase,
		VoucherNumber:   "INV-7",
		PartyLedgerName: "Acme",
		Entries: []LedgerEntry{
			{LedgerName: "Acme", DeemedPositive: false, Amount: -100},
			{LedgerName: "Purchase Account", DeemedPositive: true, Amount: 100},
		},
	}

	data, err := NewVoucherEnvelope(v).Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	parsed, err := ParseEnvelope(data)
	if err != nil {
		t.Fatalf("ParseEnvelope() error = %v", err)
	}

	got := parsed.Body.ImportData.RequestData.Message.Voucher
	if got == nil {
		t.Fatal("parsed envelope has no voucher message")
	}
	if !reflect.DeepEqual(got.Entries, v.Entries) {
		t.Errorf("round-tripped entries = %+v, want %+v", got.Entries, v.Entries)
	}
	if got.VoucherNumber != v.VoucherNumber || got.Date != v.Date || got.PartyLedgerName != v.PartyLedgerName {
		t.Errorf("round-tripped header = %+v, want %+v", got, v)
	}
	if parsed.Body.ImportData.RequestDesc.ReportName != ReportVouchers {
		t.Errorf("ReportName = %q, want %q", parsed.Body.ImportData.RequestDesc.ReportName, ReportVouchers)
	}
}

func TestLedgerEnvelope_RoundTrip(t *testing.T) {
	spec := LedgerSpec{Name: "Ink", Parent: GroupPurchaseAccounts}

	data, err := NewLedgerEnvelope(spec.Message()).Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	parsed, err := ParseEnvelope(data)
	if err != nil {
		t.Fatalf("ParseEnvelope() error = %v", err)
	}

	got := parsed.Body.ImportData.RequestData.Message.Ledger
	if got == nil {
		t.Fatal("parsed envelope has no ledger message")
	}
	if got.Name != "Ink" || got.Parent != GroupPurchaseAccounts || bool(got.BillwiseOn) {
		t.Errorf("round-tripped ledger = %+v", got)
	}
}
