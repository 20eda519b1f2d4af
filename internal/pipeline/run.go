// Package pipeline orchestrates a single invoice import: extraction, gateway
// connectivity check, ledger creation, and voucher import, with per-step
// status reporting.
package pipeline

// Status is the lifecycle state of one pipeline step.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// skippedMessage marks steps that never ran because an earlier step failed.
const skippedMessage = "Skipped due to previous error"

// StepStatus reports the outcome of one pipeline step.
type StepStatus struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// RunFiles names the artifacts persisted for a run.
type RunFiles struct {
	InvoiceJSON string `json:"invoice_json,omitempty"`
	VoucherXML  string `json:"voucher_xml,omitempty"`
}

// ImportRun is the full record of one invoice import attempt. A returned run
// is always terminal: every step is either success or failed, never pending.
type ImportRun struct {
	Key             string     `json:"key"`
	Extraction      StepStatus `json:"extraction"`
	Connectivity    StepStatus `json:"connectivity"`
	LedgerCreation  StepStatus `json:"ledger_creation"`
	VoucherCreation StepStatus `json:"voucher_creation"`
	Success         bool       `json:"success"`
	Error           string     `json:"error,omitempty"`
	Files           RunFiles   `json:"files"`
}

func newRun(key string) *ImportRun {
	pending := StepStatus{Status: StatusPending}
	return &ImportRun{
		Key:             key,
		Extraction:      pending,
		Connectivity:    pending,
		LedgerCreation:  pending,
		VoucherCreation: pending,
	}
}

// skipRemaining marks every still-pending step as failed with the skip
// message, keeping the run terminal after an early failure.
func (r *ImportRun) skipRemaining() {
	for _, step := range []*StepStatus{&r.Extraction, &r.Connectivity, &r.LedgerCreation, &r.VoucherCreation} {
		if step.Status == StatusPending || step.Status == StatusProcessing {
			step.Status = StatusFailed
			step.Message = skippedMessage
		}
	}
}
