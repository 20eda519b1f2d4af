package tally

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// Tally import-data request constants.
const (
	tallyRequestImport = "Import Data"
	udfNamespace       = "TallyUDF"
	actionCreate       = "Create"

	// ReportAllMasters targets chart-of-accounts (ledger) creation.
	ReportAllMasters = "All Masters"
	// ReportVouchers targets voucher posting.
	ReportVouchers = "Vouchers"
)

// YesNo is a boolean that serializes as Tally's literal "Yes"/"No" text.
type YesNo bool

// MarshalXML implements xml.Marshaler.
func (y YesNo) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	text := "No"
	if y {
		text = "Yes"
	}
	return e.EncodeElement(text, start)
}

// UnmarshalXML implements xml.Unmarshaler.
func (y *YesNo) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}
	*y = text == "Yes"
	return nil
}

// Amount is a signed decimal amount serialized without an exponent and with
// no trailing zeros, the way the Tally gateway expects it.
type Amount float64

// MarshalXML implements xml.Marshaler.
func (a Amount) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(strconv.FormatFloat(float64(a), 'f', -1, 64), start)
}

// UnmarshalXML implements xml.Unmarshaler.
func (a *Amount) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("tally: invalid AMOUNT %q: %w", text, err)
	}
	*a = Amount(v)
	return nil
}

// Envelope is the outer wrapper of every Tally import-data request.
type Envelope struct {
	XMLName xml.Name `xml:"ENVELOPE"`
	Header  Header   `xml:"HEADER"`
	Body    Body     `xml:"BODY"`
}

// Header declares the request kind.
type Header struct {
	TallyRequest string `xml:"TALLYREQUEST"`
}

// Body carries exactly one import-data block.
type Body struct {
	ImportData ImportData `xml:"IMPORTDATA"`
}

// ImportData pairs a request description with its data block.
type ImportData struct {
	RequestDesc RequestDesc `xml:"REQUESTDESC"`
	RequestData RequestData `xml:"REQUESTDATA"`
}

// RequestDesc names the report the import targets.
type RequestDesc struct {
	ReportName string `xml:"REPORTNAME"`
}

// RequestData carries one Tally message.
type RequestData struct {
	Message Message `xml:"TALLYMESSAGE"`
}

// Message is a TALLYMESSAGE block holding either a ledger-creation or a
// voucher-creation payload.
type Message struct {
	UDF     string   `xml:"xmlns:UDF,attr"`
	Ledger  *Ledger  `xml:"LEDGER,omitempty"`
	Voucher *Voucher `xml:"VOUCHER,omitempty"`
}

// Ledger is a ledger-creation message for one chart-of-accounts entry.
type Ledger struct {
	NameAttr string `xml:"NAME,attr"`
	Action   string `xml:"ACTION,attr"`

	Name       string `xml:"NAME"`
	Parent     string `xml:"PARENT"`
	BillwiseOn YesNo  `xml:"ISBILLWISEON"`
}

// Voucher is a voucher-creation message: header fields plus an ordered
// sequence of ledger entry lines. A well-formed voucher balances - the signed
// entry amounts sum to zero, with the party entry negative.
type Voucher struct {
	RemoteID string `xml:"REMOTEID,attr"`
	VchKey   string `xml:"VCHKEY,attr"`
	VchType  string `xml:"VCHTYPE,attr"`
	Action   string `xml:"ACTION,attr"`

	Date            string        `xml:"DATE"`
	VoucherTypeName string        `xml:"VOUCHERTYPENAME"`
	VoucherNumber   string        `xml:"VOUCHERNUMBER"`
	PartyLedgerName string        `xml:"PARTYLEDGERNAME"`
	Entries         []LedgerEntry `xml:"ALLLEDGERENTRIES.LIST"`
}

// LedgerEntry is one signed entry line of a voucher.
type LedgerEntry struct {
	LedgerName     string `xml:"LEDGERNAME"`
	DeemedPositive YesNo  `xml:"ISDEEMEDPOSITIVE"`
	Amount         Amount `xml:"AMOUNT"`
}

// EntriesTotal returns the sum of all signed entry amounts.
func (v *Voucher) EntriesTotal() float64 {
	var total float64
	for _, e := range v.Entries {
		total += float64(e.Amount)
	}
	return total
}

// NewLedgerEnvelope wraps one ledger-creation message in a full import-data
// envelope targeting All Masters.
func NewLedgerEnvelope(ledger Ledger) Envelope {
	return newEnvelope(ReportAllMasters, Message{UDF: udfNamespace, Ledger: &ledger})
}

// NewVoucherEnvelope wraps one voucher-creation message in a full import-data
// envelope targeting Vouchers.
func NewVoucherEnvelope(voucher Voucher) Envelope {
	return newEnvelope(ReportVouchers, Message{UDF: udfNamespace, Voucher: &voucher})
}

func newEnvelope(report string, msg Message) Envelope {
	return Envelope{
		Header: Header{TallyRequest: tallyRequestImport},
		Body: Body{
			ImportData: ImportData{
				RequestDesc: RequestDesc{ReportName: report},
				RequestData: RequestData{Message: msg},
			},
		},
	}
}

// Serialize renders the envelope as the XML document sent over the wire,
// including the XML declaration.
func (e Envelope) Serialize() ([]byte, error) {
	body, err := xml.MarshalIndent(e, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("tally: marshal envelope: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// ParseEnvelope decodes a serialized envelope. It exists so the wire format
// can be verified by round-trip in tests and diagnostics.
func ParseEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := xml.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("tally: parse envelope: %w", err)
	}
	return e, nil
}
