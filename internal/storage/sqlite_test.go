package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caisse/internal/core"
)

func newTestRepository(t *testing.T) (*SQLiteRepository, *time.Time) {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "caisse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return now })
	return repo, &now
}

func newInvoice(t *testing.T, s string) core.Invoice {
	t.Helper()
	d, err := core.ParseAmount(s)
	require.NoError(t, err)
	return core.Invoice{UserID: DemoUserID, ClientName: "Alice", Amount: d}
}

func TestSQLiteSeedsDemoUserOnce(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "caisse.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	u, ok, err := repo.GetUser(ctx, DemoUserID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "jeankabila", u.Username)
	assert.Equal(t, "Boutique JK", u.BusinessLabel())

	// The reopened store continues after the demo user's id.
	inv, _, err := repo.CreateInvoice(ctx, core.Invoice{UserID: DemoUserID, ClientName: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), inv.ID)
}

func TestSQLiteCreateInvoiceWritesLedgerEntry(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	inv, entry, err := repo.CreateInvoice(ctx, newInvoice(t, "1000.50"))
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-0002", inv.InvoiceNumber)
	assert.Equal(t, core.InvoicePending, inv.Status)

	assert.Equal(t, int64(3), entry.ID)
	assert.Equal(t, core.TxIncome, entry.Type)
	assert.Equal(t, core.SalesCategory, entry.Category)
	assert.Equal(t, "Invoice INV-2024-0002 - Alice", entry.Description)
	require.NotNil(t, entry.RelatedInvoiceID)
	assert.Equal(t, inv.ID, *entry.RelatedInvoiceID)

	got, ok, err := repo.GetInvoice(ctx, inv.ID, DemoUserID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, inv.Amount.Equal(got.Amount))
	assert.True(t, inv.CreatedAt.Equal(got.CreatedAt))

	txs, err := repo.ListTransactions(ctx, DemoUserID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "1000.5", txs[0].Amount.String())
}

func TestSQLiteCreateExpenseWritesLedgerEntry(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	method := core.MPesa
	amt, err := core.ParseAmount("250")
	require.NoError(t, err)

	e, entry, err := repo.CreateExpense(ctx, core.Expense{
		UserID: DemoUserID, Category: core.CategoryRent, Description: "Loyer mai", Amount: amt, PaymentMethod: &method,
	})
	require.NoError(t, err)

	assert.Equal(t, core.TxExpense, entry.Type)
	assert.Equal(t, core.CategoryRent, entry.Category)
	assert.Equal(t, "Loyer mai", entry.Description)
	require.NotNil(t, entry.PaymentMethod)
	assert.Equal(t, core.MPesa, *entry.PaymentMethod)
	require.NotNil(t, entry.RelatedExpenseID)
	assert.Equal(t, e.ID, *entry.RelatedExpenseID)
	assert.Nil(t, entry.RelatedInvoiceID)

	rent, err := repo.ListExpenses(ctx, DemoUserID, core.CategoryRent)
	require.NoError(t, err)
	assert.Len(t, rent, 1)

	other, err := repo.ListExpenses(ctx, DemoUserID, core.CategoryTransport)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLiteUpdatesAndDeletesKeepLedger(t *testing.T) {
	repo, now := newTestRepository(t)
	ctx := context.Background()

	inv, _, err := repo.CreateInvoice(ctx, newInvoice(t, "500"))
	require.NoError(t, err)

	*now = now.Add(time.Hour)
	paid := core.InvoicePaid
	updated, ok, err := repo.UpdateInvoice(ctx, inv.ID, DemoUserID, core.InvoicePatch{Status: &paid})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.InvoicePaid, updated.Status)
	require.NotNil(t, updated.PaidDate)
	assert.True(t, now.Equal(*updated.PaidDate))

	deleted, err := repo.DeleteInvoice(ctx, inv.ID, DemoUserID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err = repo.GetInvoice(ctx, inv.ID, DemoUserID)
	require.NoError(t, err)
	assert.False(t, ok)

	txs, err := repo.ListTransactions(ctx, DemoUserID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "500", txs[0].Amount.String())
}

func TestSQLiteOtherUsersDataIsNotFound(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	other, err := repo.CreateUser(ctx, core.User{Username: "marie"})
	require.NoError(t, err)

	inv, _, err := repo.CreateInvoice(ctx, newInvoice(t, "100"))
	require.NoError(t, err)

	_, ok, err := repo.GetInvoice(ctx, inv.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repo.UpdateInvoice(ctx, inv.ID, other.ID, core.InvoicePatch{})
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err := repo.DeleteInvoice(ctx, inv.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	txs, err := repo.ListTransactions(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestSQLiteInventoryDefaultsAndPatch(t *testing.T) {
	repo, now := newTestRepository(t)
	ctx := context.Background()
	price, err := core.ParseAmount("12,50")
	require.NoError(t, err)

	item, err := repo.CreateInventoryItem(ctx, core.InventoryItem{
		UserID: DemoUserID, Name: "Savon", Category: "hygiene", Quantity: 3, UnitPrice: price,
	})
	require.NoError(t, err)
	require.NotNil(t, item.MinStockLevel)
	assert.Equal(t, core.DefaultMinStockLevel, *item.MinStockLevel)
	assert.True(t, item.IsLowStock())

	*now = now.Add(time.Minute)
	qty := 40
	updated, ok, err := repo.UpdateInventoryItem(ctx, item.ID, DemoUserID, core.InventoryPatch{Quantity: &qty})
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, updated.IsLowStock())
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	items, err := repo.ListInventory(ctx, DemoUserID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 40, items[0].Quantity)
	assert.Equal(t, "12.5", items[0].UnitPrice.String())
}

func TestSQLiteTransactionsNewestFirst(t *testing.T) {
	repo, now := newTestRepository(t)
	ctx := context.Background()
	amt, err := core.ParseAmount("10")
	require.NoError(t, err)

	first, err := repo.CreateTransaction(ctx, core.Transaction{UserID: DemoUserID, Type: core.TxIncome, Category: "sales", Description: "a", Amount: amt})
	require.NoError(t, err)
	second, err := repo.CreateTransaction(ctx, core.Transaction{UserID: DemoUserID, Type: core.TxIncome, Category: "sales", Description: "b", Amount: amt})
	require.NoError(t, err)
	*now = now.Add(time.Second)
	third, err := repo.CreateTransaction(ctx, core.Transaction{UserID: DemoUserID, Type: core.TxExpense, Category: "other", Description: "c", Amount: amt})
	require.NoError(t, err)

	txs, err := repo.ListTransactions(ctx, DemoUserID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{txs[0].ID, txs[1].ID, txs[2].ID})
}

func TestSQLitePaymentLinks(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	inv, _, err := repo.CreateInvoice(ctx, newInvoice(t, "75"))
	require.NoError(t, err)

	link, err := repo.CreatePaymentLink(ctx, core.PaymentLink{
		UserID: DemoUserID, InvoiceID: inv.ID, PaymentMethod: core.AirtelMoney, Amount: inv.Amount,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^pay_\d+_[0-9a-z]{9}$`, link.LinkID)
	assert.Equal(t, core.LinkActive, link.Status)

	used := core.LinkUsed
	updated, ok, err := repo.UpdatePaymentLink(ctx, link.LinkID, DemoUserID, core.PaymentLinkPatch{Status: &used})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.LinkUsed, updated.Status)

	byInvoice, err := repo.ListPaymentLinksByInvoice(ctx, inv.ID, DemoUserID)
	require.NoError(t, err)
	require.Len(t, byInvoice, 1)
	assert.Equal(t, core.LinkUsed, byInvoice[0].Status)

	_, ok, err = repo.GetPaymentLink(ctx, "pay_0_missing00", DemoUserID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunMigrationsReportsVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	version, err := RunMigrations(dbPath)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	// Re-running is a no-op.
	version, err = RunMigrations(dbPath)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
