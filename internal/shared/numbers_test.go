package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatDocNumber(t *testing.T) {
	require.Equal(t, "JE-000001", FormatDocNumber(DocTypeJournalEntry, 1))
	require.Equal(t, "SO-000045", FormatDocNumber(DocTypeSalesOrder, 45))
	require.Equal(t, "PO-123456", FormatDocNumber(DocTypePurchaseOrder, 123456))
	// Numbers beyond six digits keep growing rather than wrapping.
	require.Equal(t, "JE-1000000", FormatDocNumber(DocTypeJournalEntry, 1000000))
}
