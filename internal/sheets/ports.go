// Package sheets defines the outbound port used to export the ledger to a
// spreadsheet, plus the row layout shared by every adapter.
package sheets

import (
	"context"

	"caisse/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter appends one ledger transaction as a spreadsheet row.
	LedgerWriter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)

// Header is the first row of an exported ledger sheet.
var Header = []any{"Date", "Type", "Catégorie", "Description", "Montant", "Méthode", "Transaction"}

// DateLayout is how transaction timestamps are written to the sheet.
const DateLayout = "2006-01-02 15:04:05"

// Row renders a transaction in Header order. The amount is written as a
// plain decimal string so the sheet parses it as a number.
func Row(tx core.Transaction) []any {
	method := ""
	if tx.PaymentMethod != nil {
		method = string(*tx.PaymentMethod)
	}
	return []any{
		tx.CreatedAt.UTC().Format(DateLayout),
		string(tx.Type),
		tx.Category,
		tx.Description,
		tx.Amount.StringFixed(2),
		method,
		tx.ID,
	}
}
