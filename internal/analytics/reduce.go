package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"caisse/internal/core"
)

// Summarize reduces a user's ledger and invoices to the summary of period p.
// Revenue and expenses only count transactions created within p (in loc);
// pending invoices are counted regardless of when they were issued.
func Summarize(txs []core.Transaction, invoices []core.Invoice, p core.Period, loc *time.Location) core.FinancialSummary {
	revenue, expenses := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if !p.Contains(tx.CreatedAt.In(loc)) {
			continue
		}
		switch tx.Type {
		case core.TxIncome:
			revenue = revenue.Add(tx.Amount)
		case core.TxExpense:
			expenses = expenses.Add(tx.Amount)
		}
	}

	pendingCount, pendingAmount := 0, decimal.Zero
	for _, inv := range invoices {
		if inv.Status == core.InvoicePending {
			pendingCount++
			pendingAmount = pendingAmount.Add(inv.Amount)
		}
	}

	// Profit is derived from the converted totals so that it always equals
	// TotalRevenue - TotalExpenses as seen by the caller.
	rev, exp := core.ToFloat(revenue), core.ToFloat(expenses)
	return core.FinancialSummary{
		TotalRevenue:    rev,
		TotalExpenses:   exp,
		NetProfit:       rev - exp,
		PendingInvoices: pendingCount,
		PendingAmount:   core.ToFloat(pendingAmount),
	}
}

// LowStock keeps the items at or below their reorder level, preserving order.
func LowStock(items []core.InventoryItem) []core.InventoryItem {
	out := make([]core.InventoryItem, 0)
	for _, item := range items {
		if item.IsLowStock() {
			out = append(out, item)
		}
	}
	return out
}

// ExpensesByCategory totals every expense ever recorded, per category.
func ExpensesByCategory(expenses []core.Expense) map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}
	out := make(map[string]float64, len(sums))
	for category, sum := range sums {
		out[category] = core.ToFloat(sum)
	}
	return out
}

// MonthlySeries summarizes each period in order, labelled for charting.
func MonthlySeries(txs []core.Transaction, invoices []core.Invoice, periods []core.Period, loc *time.Location) []core.MonthlyPoint {
	out := make([]core.MonthlyPoint, 0, len(periods))
	for _, p := range periods {
		s := Summarize(txs, invoices, p, loc)
		out = append(out, core.MonthlyPoint{
			Month:    p.Label(),
			Revenue:  s.TotalRevenue,
			Expenses: s.TotalExpenses,
			Profit:   s.NetProfit,
		})
	}
	return out
}
