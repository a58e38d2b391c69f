// Package memory is the in-process entity store. It starts with the demo
// user and loses everything on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"caisse/internal/core"
	"caisse/internal/ledger"
	"caisse/internal/storage"
)

// Store keeps every entity in maps behind one mutex. A single counter hands
// out ids for all entity kinds, so ids are unique store-wide.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time
	linkID func(time.Time) string

	users     *table[core.User]
	invoices  *table[core.Invoice]
	expenses  *table[core.Expense]
	inventory *table[core.InventoryItem]
	txs       *table[core.Transaction]
	links     *table[core.PaymentLink]
	linkIndex map[string]int64
}

var _ storage.Store = (*Store)(nil)

type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLinkIDGenerator overrides payment link id generation.
func WithLinkIDGenerator(gen func(time.Time) string) Option {
	return func(s *Store) { s.linkID = gen }
}

// New returns a store seeded with the demo user; the next id handed out is 2.
func New(opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		linkID:    storage.NewLinkID,
		users:     newTable[core.User](),
		invoices:  newTable[core.Invoice](),
		expenses:  newTable[core.Expense](),
		inventory: newTable[core.InventoryItem](),
		txs:       newTable[core.Transaction](),
		links:     newTable[core.PaymentLink](),
		linkIndex: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	demo := storage.DemoUser(s.now())
	s.users.insert(demo.ID, demo)
	s.nextID = demo.ID + 1
	return s
}

// allocID must be called with mu held.
func (s *Store) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// Users

func (s *Store) GetUser(_ context.Context, id int64) (core.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users.get(id, id)
	return u, ok, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.users.order {
		if u := s.users.rows[id]; u.Username == username {
			return u, true, nil
		}
	}
	return core.User{}, false, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.users.order {
		if s.users.rows[id].Username == u.Username {
			return core.User{}, fmt.Errorf("username %q already taken", u.Username)
		}
	}
	u.ID = s.allocID()
	u.CreatedAt = s.now()
	s.users.insert(u.ID, u)
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, patch core.UserPatch) (core.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.update(id, id, func(u *core.User) error { return patch.Apply(u) })
}

// Invoices

func (s *Store) ListInvoices(_ context.Context, userID int64) ([]core.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.invoices.find(userID, nil)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) GetInvoice(_ context.Context, id, userID int64) (core.Invoice, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices.get(id, userID)
	return inv, ok, nil
}

// CreateInvoice stores the invoice and its income transaction under the same
// lock, so no reader ever sees one without the other.
func (s *Store) CreateInvoice(_ context.Context, inv core.Invoice) (core.Invoice, core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	inv.ID = s.allocID()
	inv.InvoiceNumber = storage.InvoiceNumber(inv.ID, now.Year())
	inv.CreatedAt = now
	if inv.Status == "" {
		inv.Status = core.InvoicePending
	}
	inv.StampPaid(now)
	s.invoices.insert(inv.ID, inv)

	tx := ledger.ForInvoice(inv)
	tx.ID = s.allocID()
	tx.CreatedAt = now
	s.txs.insert(tx.ID, tx)

	return inv, tx, nil
}

func (s *Store) UpdateInvoice(_ context.Context, id, userID int64, patch core.InvoicePatch) (core.Invoice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	return s.invoices.update(id, userID, func(inv *core.Invoice) error { return patch.Apply(inv, now) })
}

func (s *Store) DeleteInvoice(_ context.Context, id, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoices.remove(id, userID), nil
}

// Expenses

func (s *Store) ListExpenses(_ context.Context, userID int64, category string) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var match func(core.Expense) bool
	if category != "" {
		match = func(e core.Expense) bool { return e.Category == category }
	}
	out := s.expenses.find(userID, match)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id, userID int64) (core.Expense, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses.get(id, userID)
	return e, ok, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e.ID = s.allocID()
	e.CreatedAt = now
	s.expenses.insert(e.ID, e)

	tx := ledger.ForExpense(e)
	tx.ID = s.allocID()
	tx.CreatedAt = now
	s.txs.insert(tx.ID, tx)

	return e, tx, nil
}

func (s *Store) UpdateExpense(_ context.Context, id, userID int64, patch core.ExpensePatch) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses.update(id, userID, func(e *core.Expense) error { return patch.Apply(e) })
}

func (s *Store) DeleteExpense(_ context.Context, id, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses.remove(id, userID), nil
}

// Inventory

func (s *Store) ListInventory(_ context.Context, userID int64) ([]core.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inventory.find(userID, nil), nil
}

func (s *Store) GetInventoryItem(_ context.Context, id, userID int64) (core.InventoryItem, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.inventory.get(id, userID)
	return item, ok, nil
}

func (s *Store) CreateInventoryItem(_ context.Context, item core.InventoryItem) (core.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	item.ID = s.allocID()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.MinStockLevel == nil {
		level := core.DefaultMinStockLevel
		item.MinStockLevel = &level
	}
	s.inventory.insert(item.ID, item)
	return item, nil
}

func (s *Store) UpdateInventoryItem(_ context.Context, id, userID int64, patch core.InventoryPatch) (core.InventoryItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	return s.inventory.update(id, userID, func(item *core.InventoryItem) error {
		if err := patch.Apply(item); err != nil {
			return err
		}
		item.UpdatedAt = now
		return nil
	})
}

func (s *Store) DeleteInventoryItem(_ context.Context, id, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inventory.remove(id, userID), nil
}

// Transactions

func (s *Store) ListTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.txs.find(userID, nil)
	ledger.SortNewestFirst(out)
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id, userID int64) (core.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs.get(id, userID)
	return tx, ok, nil
}

// CreateTransaction records a manual ledger entry.
func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx = ledger.Manual(tx)
	tx.ID = s.allocID()
	tx.CreatedAt = s.now()
	s.txs.insert(tx.ID, tx)
	return tx, nil
}

// Payment links

func (s *Store) ListPaymentLinks(_ context.Context, userID int64) ([]core.PaymentLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.links.find(userID, nil)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListPaymentLinksByInvoice(_ context.Context, invoiceID, userID int64) ([]core.PaymentLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links.find(userID, func(l core.PaymentLink) bool { return l.InvoiceID == invoiceID }), nil
}

func (s *Store) GetPaymentLink(_ context.Context, linkID string, userID int64) (core.PaymentLink, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.linkIndex[linkID]
	if !ok {
		return core.PaymentLink{}, false, nil
	}
	link, ok := s.links.get(id, userID)
	return link, ok, nil
}

func (s *Store) CreatePaymentLink(_ context.Context, link core.PaymentLink) (core.PaymentLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	link.LinkID = s.linkID(now)
	if _, taken := s.linkIndex[link.LinkID]; taken {
		return core.PaymentLink{}, fmt.Errorf("payment link id %s already in use", link.LinkID)
	}
	link.ID = s.allocID()
	link.CreatedAt = now
	if link.Status == "" {
		link.Status = core.LinkActive
	}
	s.links.insert(link.ID, link)
	s.linkIndex[link.LinkID] = link.ID
	return link, nil
}

func (s *Store) UpdatePaymentLink(_ context.Context, linkID string, userID int64, patch core.PaymentLinkPatch) (core.PaymentLink, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.linkIndex[linkID]
	if !ok {
		return core.PaymentLink{}, false, nil
	}
	return s.links.update(id, userID, func(l *core.PaymentLink) error { return patch.Apply(l) })
}
