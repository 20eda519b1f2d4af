package tally

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Per-call timeouts. The gateway answers a bare probe quickly; master and
// voucher imports can take longer while Tally revalidates its books.
const (
	ProbeTimeout   = 5 * time.Second
	LedgerTimeout  = 15 * time.Second
	VoucherTimeout = 20 * time.Second
)

const (
	contentTypeXML = "application/xml"

	// createdMarker is Tally's literal success marker for an imported voucher.
	createdMarker = "<CREATED>1</CREATED>"
)

// lineErrorPattern extracts the message of a line-level rejection.
var lineErrorPattern = regexp.MustCompile(`<LINEERROR>(.*?)</LINEERROR>`)

// PostingError is a line-level rejection reported by the Tally gateway. The
// message is Tally's own error text, surfaced verbatim for operator diagnosis.
type PostingError struct {
	Message string
}

func (e *PostingError) Error() string {
	return "tally: " + e.Message
}

// Client talks to a TallyPrime HTTP gateway. Each call is a single attempt
// with its own timeout; there is no internal retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client for the gateway at baseURL
// (e.g. "http://localhost:9000").
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		log:        log,
	}
}

// Probe checks that the gateway is reachable and answering. It sends no
// payload and treats any non-success status as a failure.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("tally: build probe request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tally: cannot connect to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tally: gateway not responding (HTTP %d)", resp.StatusCode)
	}
	return nil
}

// CreateLedger issues one ledger-creation request. Tally treats creation of
// an existing ledger as a no-op, so callers may send specs unconditionally.
func (c *Client) CreateLedger(ctx context.Context, spec LedgerSpec) error {
	payload, err := NewLedgerEnvelope(spec.Message()).Serialize()
	if err != nil {
		return err
	}

	status, _, err := c.post(ctx, payload, LedgerTimeout)
	if err != nil {
		return fmt.Errorf("tally: create ledger %q: %w", spec.Name, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("tally: create ledger %q: HTTP %d", spec.Name, status)
	}
	return nil
}

// LedgerOutcome is the result of one independent ledger-creation attempt.
type LedgerOutcome struct {
	Spec LedgerSpec
	Err  error
}

// OK reports whether the creation attempt succeeded.
func (o LedgerOutcome) OK() bool { return o.Err == nil }

// CreateLedgers attempts every spec in order, best-effort: a failed creation
// is logged and recorded but never stops the remaining attempts. Ledger
// existence is not a precondition of voucher posting, so callers typically
// only log the outcomes.
func (c *Client) CreateLedgers(ctx context.Context, specs []LedgerSpec) []LedgerOutcome {
	outcomes := make([]LedgerOutcome, 0, len(specs))
	for _, spec := range specs {
		err := c.CreateLedger(ctx, spec)
		if err != nil {
			c.log.Warn().Err(err).Str("ledger", spec.Name).Msg("Ledger creation failed")
		} else {
			c.log.Debug().Str("ledger", spec.Name).Str("parent", spec.Parent).Msg("Ledger created")
		}
		outcomes = append(outcomes, LedgerOutcome{Spec: spec, Err: err})
	}
	return outcomes
}

// ImportVoucher posts one serialized voucher envelope and classifies the
// response: Tally's created marker means success, a LINEERROR block means a
// posting rejection (returned as *PostingError with Tally's message), and a
// bare success status with neither marker counts as a provisional success,
// since the gateway omits markers for some accepted requests.
func (c *Client) ImportVoucher(ctx context.Context, payload []byte) error {
	status, body, err := c.post(ctx, payload, VoucherTimeout)
	if err != nil {
		return fmt.Errorf("tally: import voucher: %w", err)
	}

	text := string(body)
	if strings.Contains(text, createdMarker) {
		return nil
	}
	if m := lineErrorPattern.FindStringSubmatch(text); m != nil {
		return &PostingError{Message: m[1]}
	}
	if strings.Contains(text, "LINEERROR") {
		return &PostingError{Message: "Tally reported an error"}
	}
	if status == http.StatusOK {
		c.log.Debug().Msg("Import accepted without explicit created marker")
		return nil
	}
	return fmt.Errorf("tally: import voucher: HTTP %d", status)
}

func (c *Client) post(ctx context.Context, payload []byte, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", contentTypeXML)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}
