package shared

import "fmt"

// Document number prefixes. Persisted numbers are externally visible and
// monotonically increasing per document type.
const (
	DocTypeJournalEntry  = "JE"
	DocTypeSalesOrder    = "SO"
	DocTypePurchaseOrder = "PO"
)

// FormatDocNumber renders a sequence value as a zero-padded document number,
// e.g. FormatDocNumber("JE", 123) == "JE-000123".
func FormatDocNumber(docType string, seq int64) string {
	return fmt.Sprintf("%s-%06d", docType, seq)
}
