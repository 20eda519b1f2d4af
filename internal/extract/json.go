package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PremSaiBollamoni/tallybridge/internal/invoice"
)

// decodeRecord parses a model response into an invoice record, tolerating the
// Markdown fences and surrounding prose models emit despite instructions.
func decodeRecord(raw string) (invoice.Record, error) {
	clean := cleanModelJSON(raw)

	var rec invoice.Record
	if err := json.Unmarshal([]byte(clean), &rec); err != nil {
		return invoice.Record{}, fmt.Errorf("unmarshal model JSON: %w\nraw response: %s", err, raw)
	}
	return rec, nil
}

// cleanModelJSON strips code fences and keeps only the outermost JSON object
// when the model wrapped it in extra text.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}' if junk remains around it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
