package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caisse/internal/core"
	"caisse/internal/log"
	"caisse/internal/storage/memory"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func amt(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := core.ParseAmount(s)
	require.NoError(t, err)
	return d
}

func setup(t *testing.T, start time.Time) (*memory.Store, *Aggregator, *clock) {
	t.Helper()
	c := &clock{t: start}
	store := memory.New(memory.WithClock(c.now))
	agg := New(store, WithClock(c.now), WithLocation(time.UTC), WithLogger(log.Discard()))
	return store, agg, c
}

func TestFinancialSummaryFiltersByPeriod(t *testing.T) {
	store, agg, c := setup(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, _, err := store.CreateInvoice(ctx, core.Invoice{UserID: 1, ClientName: "Avril", Amount: amt(t, "400")})
	require.NoError(t, err)

	c.t = time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)
	_, _, err = store.CreateInvoice(ctx, core.Invoice{UserID: 1, ClientName: "Mai", Amount: amt(t, "1000.10")})
	require.NoError(t, err)
	_, _, err = store.CreateExpense(ctx, core.Expense{UserID: 1, Category: core.CategoryRent, Description: "Loyer", Amount: amt(t, "250.05")})
	require.NoError(t, err)

	may, err := agg.FinancialSummary(ctx, 1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1000.10, may.TotalRevenue, 1e-9)
	assert.InDelta(t, 250.05, may.TotalExpenses, 1e-9)
	assert.Equal(t, may.TotalRevenue-may.TotalExpenses, may.NetProfit)

	// Both invoices are pending, whatever the requested month.
	assert.Equal(t, 2, may.PendingInvoices)
	assert.InDelta(t, 1400.10, may.PendingAmount, 1e-9)

	april := core.Period{Year: 2024, Month: time.April}
	apr, err := agg.FinancialSummary(ctx, 1, &april)
	require.NoError(t, err)
	assert.InDelta(t, 400, apr.TotalRevenue, 1e-9)
	assert.Zero(t, apr.TotalExpenses)
	assert.Equal(t, 2, apr.PendingInvoices)
}

func TestFinancialSummaryKeepsCancelledInvoiceRevenue(t *testing.T) {
	store, agg, _ := setup(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	inv, _, err := store.CreateInvoice(ctx, core.Invoice{UserID: 1, ClientName: "Alice", Amount: amt(t, "1000")})
	require.NoError(t, err)
	cancelled := core.InvoiceCancelled
	_, _, err = store.UpdateInvoice(ctx, inv.ID, 1, core.InvoicePatch{Status: &cancelled})
	require.NoError(t, err)

	s, err := agg.FinancialSummary(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, s.TotalRevenue)
	assert.Zero(t, s.PendingInvoices)
	assert.Zero(t, s.PendingAmount)
}

func TestLowStockThresholdIsInclusive(t *testing.T) {
	store, agg, _ := setup(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	five, ten := 5, 10

	for _, item := range []core.InventoryItem{
		{UserID: 1, Name: "Égal", Quantity: 5, MinStockLevel: &five},
		{UserID: 1, Name: "Au-dessus", Quantity: 6, MinStockLevel: &five},
		{UserID: 1, Name: "Défaut", Quantity: 4},
		{UserID: 1, Name: "Seuil haut", Quantity: 9, MinStockLevel: &ten},
	} {
		item.UnitPrice = amt(t, "1")
		_, err := store.CreateInventoryItem(ctx, item)
		require.NoError(t, err)
	}

	low, err := agg.LowStockItems(ctx, 1)
	require.NoError(t, err)
	var names []string
	for _, item := range low {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"Égal", "Défaut", "Seuil haut"}, names)
}

func TestDashboardSummary(t *testing.T) {
	store, agg, c := setup(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		c.t = c.t.Add(time.Minute)
		_, _, err := store.CreateExpense(ctx, core.Expense{UserID: 1, Category: core.CategoryTransport, Description: "Taxi", Amount: amt(t, "2")})
		require.NoError(t, err)
	}
	_, err := store.CreateInventoryItem(ctx, core.InventoryItem{UserID: 1, Name: "Riz", Quantity: 1, UnitPrice: amt(t, "30")})
	require.NoError(t, err)

	d, err := agg.DashboardSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 24.0, d.TotalExpenses)
	assert.Equal(t, -24.0, d.NetProfit)
	assert.Equal(t, 1, d.LowStockCount)
	require.Len(t, d.RecentTransactions, RecentTransactionsLimit)
	assert.True(t, d.RecentTransactions[0].CreatedAt.After(d.RecentTransactions[9].CreatedAt))
}

func TestChartData(t *testing.T) {
	store, agg, c := setup(t, time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	// Outside the six-month window, still part of the category totals.
	_, _, err := store.CreateExpense(ctx, core.Expense{UserID: 1, Category: core.CategoryRent, Description: "Loyer juin", Amount: amt(t, "100")})
	require.NoError(t, err)

	c.t = time.Date(2023, 11, 2, 12, 0, 0, 0, time.UTC)
	_, _, err = store.CreateInvoice(ctx, core.Invoice{UserID: 1, ClientName: "Novembre", Amount: amt(t, "500")})
	require.NoError(t, err)

	c.t = time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	_, _, err = store.CreateExpense(ctx, core.Expense{UserID: 1, Category: core.CategoryRent, Description: "Loyer février", Amount: amt(t, "120")})
	require.NoError(t, err)
	_, _, err = store.CreateExpense(ctx, core.Expense{UserID: 1, Category: core.CategoryUtilities, Description: "SNEL", Amount: amt(t, "35.5")})
	require.NoError(t, err)

	chart, err := agg.ChartData(ctx, 1)
	require.NoError(t, err)

	require.Len(t, chart.MonthlyData, ChartMonths)
	var labels []string
	for _, m := range chart.MonthlyData {
		labels = append(labels, m.Month)
	}
	assert.Equal(t, []string{"sept.", "oct.", "nov.", "déc.", "janv.", "févr."}, labels)
	assert.Equal(t, 500.0, chart.MonthlyData[2].Revenue)
	assert.Equal(t, 155.5, chart.MonthlyData[5].Expenses)
	assert.Equal(t, -155.5, chart.MonthlyData[5].Profit)

	assert.Equal(t, map[string]float64{core.CategoryRent: 220, core.CategoryUtilities: 35.5}, chart.ExpensesByCategory)
}

func TestOtherUsersAreInvisible(t *testing.T) {
	store, agg, _ := setup(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, _, err := store.CreateInvoice(ctx, core.Invoice{UserID: 1, ClientName: "Alice", Amount: amt(t, "10")})
	require.NoError(t, err)

	s, err := agg.FinancialSummary(ctx, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, core.FinancialSummary{}, s)

	chart, err := agg.ChartData(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, chart.ExpensesByCategory)
}

type failingSource struct{ Source }

func (failingSource) ListTransactions(context.Context, int64) ([]core.Transaction, error) {
	return nil, errors.New("disk I/O error")
}

func (failingSource) ListInvoices(context.Context, int64) ([]core.Invoice, error) {
	return nil, nil
}

func TestFinancialSummaryPropagatesStoreErrors(t *testing.T) {
	agg := New(failingSource{}, WithLogger(log.Discard()))

	_, err := agg.FinancialSummary(context.Background(), 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list transactions")
}

func TestSummarizeNetProfitIdentity(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		{Type: core.TxIncome, Amount: amt(t, "0.1"), CreatedAt: now},
		{Type: core.TxIncome, Amount: amt(t, "0.2"), CreatedAt: now},
		{Type: core.TxExpense, Amount: amt(t, "0.3"), CreatedAt: now},
	}
	s := Summarize(txs, nil, core.PeriodOf(now), time.UTC)
	assert.Equal(t, 0.3, s.TotalRevenue, "decimal sums avoid float drift")
	assert.Equal(t, s.TotalRevenue-s.TotalExpenses, s.NetProfit)
}
