package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/PremSaiBollamoni/tallybridge/internal/invoice"
	"github.com/PremSaiBollamoni/tallybridge/internal/store"
	"github.com/PremSaiBollamoni/tallybridge/internal/tally"
)

// Extractor turns one uploaded file into per-page invoice records.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) ([]invoice.Record, error)
}

// Gateway is the subset of the Tally client the pipeline drives.
type Gateway interface {
	Probe(ctx context.Context) error
	CreateLedgers(ctx context.Context, specs []tally.LedgerSpec) []tally.LedgerOutcome
	ImportVoucher(ctx context.Context, payload []byte) error
}

// ResultSink persists the artifacts of a finished run.
type ResultSink interface {
	SaveRun(key string, rec invoice.Record, voucherXML []byte) (store.RunFiles, error)
}

// Orchestrator runs the import pipeline for one file at a time.
type Orchestrator struct {
	extractor Extractor
	gateway   Gateway
	results   ResultSink
	synth     *tally.Synthesizer
	log       zerolog.Logger

	// now is injectable for tests; it stamps both the run key and, via the
	// synthesizer, the voucher date.
	now func() time.Time
}

// NewOrchestrator wires a pipeline over the given collaborators.
func NewOrchestrator(extractor Extractor, gateway Gateway, results ResultSink, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		gateway:   gateway,
		results:   results,
		synth:     tally.NewSynthesizer(log),
		log:       log,
		now:       time.Now,
	}
}

// ProcessFile runs the full pipeline on one uploaded file. All failures are
// captured in the returned run; the run is always terminal.
func (o *Orchestrator) ProcessFile(ctx context.Context, path string) *ImportRun {
	run := newRun(store.NewKey(o.now()))
	log := o.log.With().Str("run", run.Key).Str("file", path).Logger()
	log.Info().Msg("Starting invoice import")

	// Step 1: extraction. Nothing downstream can run without a record, so a
	// failure here skips everything else.
	run.Extraction.Status = StatusProcessing
	records, err := o.extractor.ExtractFile(ctx, path)
	if err != nil {
		log.Error().Err(err).Msg("Extraction failed")
		run.Extraction = StepStatus{Status: StatusFailed, Message: err.Error()}
		run.Error = err.Error()
		run.skipRemaining()
		return run
	}
	merged := invoice.Merge(records)
	run.Extraction = StepStatus{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Extracted %d page(s)", len(records)),
		Data: map[string]any{
			"pages":          len(records),
			"invoice_number": merged.InvoiceNumber,
			"vendor_name":    merged.VendorName,
			"total_amount":   merged.TotalAmount,
		},
	}

	// Step 2: connectivity. Informational only; a dead gateway will surface
	// again as a transport error on the voucher import, so the pipeline
	// presses on either way.
	run.Connectivity.Status = StatusProcessing
	if err := o.gateway.Probe(ctx); err != nil {
		log.Warn().Err(err).Msg("Tally gateway unreachable")
		run.Connectivity = StepStatus{Status: StatusFailed, Message: err.Error()}
	} else {
		run.Connectivity = StepStatus{Status: StatusSuccess, Message: "Tally gateway reachable"}
	}

	// Step 3: ledger creation, best-effort. The step succeeds once every spec
	// has been attempted; individual failures are recorded in the step data.
	run.LedgerCreation.Status = StatusProcessing
	specs := tally.RequiredLedgers(merged)
	outcomes := o.gateway.CreateLedgers(ctx, specs)
	created, failed := 0, 0
	failures := make([]string, 0)
	for _, out := range outcomes {
		if out.OK() {
			created++
		} else {
			failed++
			failures = append(failures, out.Spec.Name)
		}
	}
	ledgerData := map[string]any{"attempted": len(outcomes), "created": created, "failed": failed}
	if failed > 0 {
		ledgerData["failed_ledgers"] = failures
	}
	run.LedgerCreation = StepStatus{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Attempted %d ledger(s), %d failed", len(outcomes), failed),
		Data:    ledgerData,
	}

	// Step 4: voucher synthesis and import.
	run.VoucherCreation.Status = StatusProcessing
	o.synth.Now = o.now
	voucher := o.synth.Synthesize(merged)
	payload, err := tally.NewVoucherEnvelope(voucher).Serialize()
	if err != nil {
		log.Error().Err(err).Msg("Voucher serialization failed")
		run.VoucherCreation = StepStatus{Status: StatusFailed, Message: err.Error()}
		run.Error = err.Error()
	} else {
		switch err := o.gateway.ImportVoucher(ctx, payload); {
		case err == nil:
			log.Info().Str("voucher", voucher.VoucherNumber).Msg("Voucher imported")
			run.VoucherCreation = StepStatus{
				Status:  StatusSuccess,
				Message: "Voucher imported successfully",
				Data:    map[string]any{"voucher_number": voucher.VoucherNumber},
			}
			run.Success = true
		default:
			var postErr *tally.PostingError
			if errors.As(err, &postErr) {
				log.Error().Str("tally_error", postErr.Message).Msg("Voucher rejected by Tally")
				run.VoucherCreation = StepStatus{Status: StatusFailed, Message: postErr.Message}
			} else {
				log.Error().Err(err).Msg("Voucher import failed")
				run.VoucherCreation = StepStatus{Status: StatusFailed, Message: err.Error()}
			}
			run.Error = run.VoucherCreation.Message
		}
	}

	// Persist the merged record and generated XML regardless of import
	// outcome; a rejected voucher is still useful for manual import.
	files, err := o.results.SaveRun(run.Key, merged, payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist run artifacts")
	} else {
		run.Files = RunFiles{InvoiceJSON: files.InvoiceJSON, VoucherXML: files.VoucherXML}
	}

	return run
}
