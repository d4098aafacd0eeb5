package accounts

// Codes names the chart-of-accounts codes the document engines post against.
// They are configuration, resolved to account rows at posting time; a missing
// code aborts the document transaction.
type Codes struct {
	Cash       string
	Receivable string
	Inventory  string
	Payable    string
	Revenue    string
	COGS       string
}

// DefaultCodes matches the seeded chart of accounts.
func DefaultCodes() Codes {
	return Codes{
		Cash:       "1100",
		Receivable: "1200",
		Inventory:  "1300",
		Payable:    "2100",
		Revenue:    "4000",
		COGS:       "5100",
	}
}

// All lists every configured code, in a stable order, for startup
// verification.
func (c Codes) All() []string {
	return []string{c.Cash, c.Receivable, c.Inventory, c.Payable, c.Revenue, c.COGS}
}
