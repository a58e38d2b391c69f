// Package storage defines the entity store used by the HTTP service, the
// worker and the CLI, plus the SQLite implementation. Every accessor is
// scoped by user: an entity owned by someone else is reported as absent.
//
// Lookups return (value, found, error). The error is reserved for backend
// failures; a missing entity is never an error at this layer.
package storage

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"caisse/internal/core"
)

type Users interface {
	GetUser(ctx context.Context, id int64) (core.User, bool, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, bool, error)
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	UpdateUser(ctx context.Context, id int64, patch core.UserPatch) (core.User, bool, error)
}

// Invoices persists invoices. CreateInvoice also appends the matching
// income transaction and returns it.
type Invoices interface {
	ListInvoices(ctx context.Context, userID int64) ([]core.Invoice, error)
	GetInvoice(ctx context.Context, id, userID int64) (core.Invoice, bool, error)
	CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, core.Transaction, error)
	UpdateInvoice(ctx context.Context, id, userID int64, patch core.InvoicePatch) (core.Invoice, bool, error)
	DeleteInvoice(ctx context.Context, id, userID int64) (bool, error)
}

// Expenses persists expenses. CreateExpense also appends the matching
// expense transaction and returns it.
type Expenses interface {
	ListExpenses(ctx context.Context, userID int64, category string) ([]core.Expense, error)
	GetExpense(ctx context.Context, id, userID int64) (core.Expense, bool, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, core.Transaction, error)
	UpdateExpense(ctx context.Context, id, userID int64, patch core.ExpensePatch) (core.Expense, bool, error)
	DeleteExpense(ctx context.Context, id, userID int64) (bool, error)
}

type Inventory interface {
	ListInventory(ctx context.Context, userID int64) ([]core.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id, userID int64) (core.InventoryItem, bool, error)
	CreateInventoryItem(ctx context.Context, item core.InventoryItem) (core.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id, userID int64, patch core.InventoryPatch) (core.InventoryItem, bool, error)
	DeleteInventoryItem(ctx context.Context, id, userID int64) (bool, error)
}

// Transactions exposes the ledger. ListTransactions returns the newest first.
type Transactions interface {
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, bool, error)
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
}

type PaymentLinks interface {
	ListPaymentLinks(ctx context.Context, userID int64) ([]core.PaymentLink, error)
	ListPaymentLinksByInvoice(ctx context.Context, invoiceID, userID int64) ([]core.PaymentLink, error)
	GetPaymentLink(ctx context.Context, linkID string, userID int64) (core.PaymentLink, bool, error)
	CreatePaymentLink(ctx context.Context, link core.PaymentLink) (core.PaymentLink, error)
	UpdatePaymentLink(ctx context.Context, linkID string, userID int64, patch core.PaymentLinkPatch) (core.PaymentLink, bool, error)
}

// Store is the full entity store.
type Store interface {
	Users
	Invoices
	Expenses
	Inventory
	Transactions
	PaymentLinks

	Ping(ctx context.Context) error
	Close() error
}

// DemoUserID is the id of the seeded shopkeeper.
const DemoUserID int64 = 1

// DemoUser is the single user every fresh store starts with.
func DemoUser(now time.Time) core.User {
	businessName := "Boutique JK"
	email := "jean@boutiquejk.cd"
	phone := "+243891234567"
	return core.User{
		ID:           DemoUserID,
		Username:     "jeankabila",
		BusinessName: &businessName,
		Email:        &email,
		Phone:        &phone,
		CreatedAt:    now,
	}
}

// InvoiceNumber formats the number of the invoice with the given id.
// Ids are never reused, so numbers cannot collide.
func InvoiceNumber(id int64, year int) string {
	return fmt.Sprintf("INV-%d-%04d", year, id)
}

const linkAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewLinkID returns a payment link id of the form pay_<unix millis>_<9 base36 chars>.
// Uniqueness is probabilistic; the stores reject the rare duplicate.
func NewLinkID(now time.Time) string {
	var b strings.Builder
	b.Grow(9)
	max := big.NewInt(int64(len(linkAlphabet)))
	for i := 0; i < 9; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			n = big.NewInt(now.UnixNano() % int64(len(linkAlphabet)))
		}
		b.WriteByte(linkAlphabet[n.Int64()])
	}
	return fmt.Sprintf("pay_%d_%s", now.UnixMilli(), b.String())
}
