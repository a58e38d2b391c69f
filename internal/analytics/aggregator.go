// Package analytics computes the read-only dashboard views. Nothing is
// cached: every call reloads the user's records from the store.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"caisse/internal/core"
	"caisse/internal/ledger"
	"caisse/internal/log"
)

const (
	// RecentTransactionsLimit is how many ledger entries the dashboard shows.
	RecentTransactionsLimit = 10
	// ChartMonths is the length of the monthly revenue series.
	ChartMonths = 6
)

// Source is the part of the store the aggregator reads.
type Source interface {
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	ListInvoices(ctx context.Context, userID int64) ([]core.Invoice, error)
	ListInventory(ctx context.Context, userID int64) ([]core.InventoryItem, error)
	ListExpenses(ctx context.Context, userID int64, category string) ([]core.Expense, error)
}

type Aggregator struct {
	source Source
	now    func() time.Time
	loc    *time.Location
	logger *log.Logger
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLocation sets the time zone in which calendar months are evaluated.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) { a.loc = loc }
}

func WithLogger(logger *log.Logger) Option {
	return func(a *Aggregator) { a.logger = logger.WithComponent(log.ComponentAnalytics) }
}

func New(source Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		source: source,
		now:    time.Now,
		loc:    time.Local,
		logger: log.Default().WithComponent(log.ComponentAnalytics),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CurrentPeriod is the calendar month containing now.
func (a *Aggregator) CurrentPeriod() core.Period {
	return core.PeriodOf(a.now().In(a.loc))
}

// FinancialSummary summarizes period p, or the current month when p is nil.
func (a *Aggregator) FinancialSummary(ctx context.Context, userID int64, p *core.Period) (core.FinancialSummary, error) {
	period := a.CurrentPeriod()
	if p != nil {
		period = *p
	}

	var (
		txs      []core.Transaction
		invoices []core.Invoice
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = a.source.ListTransactions(gctx, userID)
		return wrap("list transactions", err)
	})
	g.Go(func() (err error) {
		invoices, err = a.source.ListInvoices(gctx, userID)
		return wrap("list invoices", err)
	})
	if err := g.Wait(); err != nil {
		return core.FinancialSummary{}, err
	}

	summary := Summarize(txs, invoices, period, a.loc)
	a.logger.DebugContext(ctx, "Computed financial summary",
		log.FieldUserID, userID,
		log.FieldYear, period.Year,
		log.FieldMonth, int(period.Month),
		"net_profit", summary.NetProfit)
	return summary, nil
}

// LowStockItems lists the items at or below their reorder level.
func (a *Aggregator) LowStockItems(ctx context.Context, userID int64) ([]core.InventoryItem, error) {
	items, err := a.source.ListInventory(ctx, userID)
	if err != nil {
		return nil, wrap("list inventory", err)
	}
	return LowStock(items), nil
}

// ExpensesByCategory totals all of the user's expenses per category.
func (a *Aggregator) ExpensesByCategory(ctx context.Context, userID int64) (map[string]float64, error) {
	expenses, err := a.source.ListExpenses(ctx, userID, "")
	if err != nil {
		return nil, wrap("list expenses", err)
	}
	return ExpensesByCategory(expenses), nil
}

// RecentTransactions returns up to n ledger entries, newest first.
func (a *Aggregator) RecentTransactions(ctx context.Context, userID int64, n int) ([]core.Transaction, error) {
	txs, err := a.source.ListTransactions(ctx, userID)
	if err != nil {
		return nil, wrap("list transactions", err)
	}
	ledger.SortNewestFirst(txs)
	return ledger.Recent(txs, n), nil
}

// DashboardSummary is the current month's summary, the low-stock count and
// the latest transactions. The three reads run concurrently.
func (a *Aggregator) DashboardSummary(ctx context.Context, userID int64) (core.DashboardSummary, error) {
	var (
		txs      []core.Transaction
		invoices []core.Invoice
		items    []core.InventoryItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = a.source.ListTransactions(gctx, userID)
		return wrap("list transactions", err)
	})
	g.Go(func() (err error) {
		invoices, err = a.source.ListInvoices(gctx, userID)
		return wrap("list invoices", err)
	})
	g.Go(func() (err error) {
		items, err = a.source.ListInventory(gctx, userID)
		return wrap("list inventory", err)
	})
	if err := g.Wait(); err != nil {
		return core.DashboardSummary{}, err
	}

	ledger.SortNewestFirst(txs)
	return core.DashboardSummary{
		FinancialSummary:   Summarize(txs, invoices, a.CurrentPeriod(), a.loc),
		LowStockCount:      len(LowStock(items)),
		RecentTransactions: ledger.Recent(txs, RecentTransactionsLimit),
	}, nil
}

// ChartData is the trailing six-month series ending this month, oldest
// first, with the expense breakdown over all time.
func (a *Aggregator) ChartData(ctx context.Context, userID int64) (core.ChartData, error) {
	var (
		txs      []core.Transaction
		invoices []core.Invoice
		expenses []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = a.source.ListTransactions(gctx, userID)
		return wrap("list transactions", err)
	})
	g.Go(func() (err error) {
		invoices, err = a.source.ListInvoices(gctx, userID)
		return wrap("list invoices", err)
	})
	g.Go(func() (err error) {
		expenses, err = a.source.ListExpenses(gctx, userID, "")
		return wrap("list expenses", err)
	})
	if err := g.Wait(); err != nil {
		return core.ChartData{}, err
	}

	return core.ChartData{
		MonthlyData:        MonthlySeries(txs, invoices, a.CurrentPeriod().Trailing(ChartMonths), a.loc),
		ExpensesByCategory: ExpensesByCategory(expenses),
	}, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
