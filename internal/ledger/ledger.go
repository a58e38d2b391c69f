// Package ledger derives the transactions that mirror invoices and expenses.
//
// Every invoice and expense gets exactly one transaction when it is created.
// Later changes to the source record never touch the ledger: it records
// origination events only, so a cancelled invoice still counts as revenue.
package ledger

import (
	"fmt"
	"sort"

	"caisse/internal/core"
)

// ForInvoice returns the income entry recorded for a newly created invoice.
// The invoice must already have its id and number.
func ForInvoice(inv core.Invoice) core.Transaction {
	id := inv.ID
	return core.Transaction{
		UserID:           inv.UserID,
		Type:             core.TxIncome,
		Category:         core.SalesCategory,
		Description:      fmt.Sprintf("Invoice %s - %s", inv.InvoiceNumber, inv.ClientName),
		Amount:           inv.Amount,
		RelatedInvoiceID: &id,
	}
}

// ForExpense returns the expense entry recorded for a newly created expense.
func ForExpense(e core.Expense) core.Transaction {
	id := e.ID
	return core.Transaction{
		UserID:           e.UserID,
		Type:             core.TxExpense,
		Category:         e.Category,
		Description:      e.Description,
		Amount:           e.Amount,
		PaymentMethod:    e.PaymentMethod,
		RelatedExpenseID: &id,
	}
}

// Manual strips any source reference from a hand-entered transaction.
func Manual(tx core.Transaction) core.Transaction {
	tx.RelatedInvoiceID = nil
	tx.RelatedExpenseID = nil
	return tx
}

// SortNewestFirst orders transactions by creation time, most recent first.
// Equal timestamps fall back to the higher id first so repeated reads agree.
func SortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.After(txs[j].CreatedAt)
		}
		return txs[i].ID > txs[j].ID
	})
}

// Recent returns at most n transactions from an already sorted slice.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	if len(txs) > n {
		txs = txs[:n]
	}
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	return out
}
