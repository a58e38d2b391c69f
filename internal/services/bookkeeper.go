package services

import (
	"context"
	"errors"
	"fmt"

	"caisse/internal/amqp"
	"caisse/internal/core"
	"caisse/internal/log"
	"caisse/internal/metrics"
	"caisse/internal/storage"
)

// EventPublisher is the outbound side of the broker. *amqp.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.Event) error
	Close() error
}

// Bookkeeper performs every write on the store. Writes that touch the ledger
// or invoice status also emit an event; a failed publish is logged and never
// fails the write, since the data is already committed.
type Bookkeeper struct {
	store     storage.Store
	publisher EventPublisher
	logger    *log.StructuredLogger
}

func NewBookkeeper(store storage.Store, publisher EventPublisher, logger *log.Logger) *Bookkeeper {
	if logger == nil {
		logger = log.Default()
	}
	return &Bookkeeper{
		store:     store,
		publisher: publisher,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentLedger)),
	}
}

// Store exposes the underlying store for reads.
func (b *Bookkeeper) Store() storage.Store { return b.store }

func (b *Bookkeeper) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	created, entry, err := b.store.CreateInvoice(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	b.recorded(ctx, entry)
	return created, nil
}

// UpdateInvoice applies patch. A status change is announced so that, for
// example, the worker can close the invoice's payment links once it is paid.
func (b *Bookkeeper) UpdateInvoice(ctx context.Context, id, userID int64, patch core.InvoicePatch) (core.Invoice, error) {
	inv, ok, err := b.store.UpdateInvoice(ctx, id, userID, patch)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice %d: %w", id, err)
	}
	if !ok {
		return core.Invoice{}, core.ErrNotFound
	}
	if patch.Status != nil {
		b.publish(ctx, amqp.NewInvoiceUpdated(userID, inv.ID, string(inv.Status)))
	}
	return inv, nil
}

func (b *Bookkeeper) DeleteInvoice(ctx context.Context, id, userID int64) error {
	return found(b.store.DeleteInvoice(ctx, id, userID))
}

func (b *Bookkeeper) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	created, entry, err := b.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	b.recorded(ctx, entry)
	return created, nil
}

func (b *Bookkeeper) UpdateExpense(ctx context.Context, id, userID int64, patch core.ExpensePatch) (core.Expense, error) {
	return updated(b.store.UpdateExpense(ctx, id, userID, patch))
}

func (b *Bookkeeper) DeleteExpense(ctx context.Context, id, userID int64) error {
	return found(b.store.DeleteExpense(ctx, id, userID))
}

func (b *Bookkeeper) CreateInventoryItem(ctx context.Context, item core.InventoryItem) (core.InventoryItem, error) {
	created, err := b.store.CreateInventoryItem(ctx, item)
	if err != nil {
		return core.InventoryItem{}, fmt.Errorf("create inventory item: %w", err)
	}
	return created, nil
}

func (b *Bookkeeper) UpdateInventoryItem(ctx context.Context, id, userID int64, patch core.InventoryPatch) (core.InventoryItem, error) {
	return updated(b.store.UpdateInventoryItem(ctx, id, userID, patch))
}

func (b *Bookkeeper) DeleteInventoryItem(ctx context.Context, id, userID int64) error {
	return found(b.store.DeleteInventoryItem(ctx, id, userID))
}

// RecordTransaction appends a manual ledger entry.
func (b *Bookkeeper) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	entry, err := b.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	b.recorded(ctx, entry)
	return entry, nil
}

// CreatePaymentLink creates a link for one of the user's invoices. A missing
// amount defaults to the invoice amount.
func (b *Bookkeeper) CreatePaymentLink(ctx context.Context, userID int64, in core.NewPaymentLink) (core.PaymentLink, error) {
	inv, ok, err := b.store.GetInvoice(ctx, in.InvoiceID, userID)
	if err != nil {
		return core.PaymentLink{}, fmt.Errorf("load invoice %d: %w", in.InvoiceID, err)
	}
	if !ok {
		return core.PaymentLink{}, core.ErrNotFound
	}
	link, err := in.ToPaymentLink(userID, inv)
	if err != nil {
		return core.PaymentLink{}, err
	}
	created, err := b.store.CreatePaymentLink(ctx, link)
	if err != nil {
		return core.PaymentLink{}, fmt.Errorf("create payment link: %w", err)
	}
	return created, nil
}

func (b *Bookkeeper) UpdatePaymentLink(ctx context.Context, linkID string, userID int64, patch core.PaymentLinkPatch) (core.PaymentLink, error) {
	return updated(b.store.UpdatePaymentLink(ctx, linkID, userID, patch))
}

// CloseInvoiceLinks marks every active link of a paid invoice as used and
// returns how many were changed.
func (b *Bookkeeper) CloseInvoiceLinks(ctx context.Context, invoiceID, userID int64) (int, error) {
	links, err := b.store.ListPaymentLinksByInvoice(ctx, invoiceID, userID)
	if err != nil {
		return 0, err
	}
	used := core.LinkUsed
	closed := 0
	for _, l := range links {
		if l.Status != core.LinkActive {
			continue
		}
		if _, _, err := b.store.UpdatePaymentLink(ctx, l.LinkID, userID, core.PaymentLinkPatch{Status: &used}); err != nil {
			return closed, fmt.Errorf("close payment link %s: %w", l.LinkID, err)
		}
		closed++
	}
	return closed, nil
}

func (b *Bookkeeper) UpdateUser(ctx context.Context, id int64, patch core.UserPatch) (core.User, error) {
	return updated(b.store.UpdateUser(ctx, id, patch))
}

// recorded logs, counts and announces a freshly written ledger entry.
func (b *Bookkeeper) recorded(ctx context.Context, entry core.Transaction) {
	b.logger.LogLedgerEntry(ctx, entry.UserID, entry.ID, string(entry.Type), entry.Category, entry.Amount.String())
	metrics.ObserveLedgerEntry(string(entry.Type), entry.Category)
	b.publish(ctx, amqp.NewTransactionRecorded(entry.UserID, entry.ID))
}

func (b *Bookkeeper) publish(ctx context.Context, event *amqp.Event) {
	if b.publisher == nil {
		metrics.ObservePublish(string(event.Type), "skipped")
		return
	}
	if err := b.publisher.Publish(ctx, event); err != nil {
		metrics.ObservePublish(string(event.Type), "error")
		b.logger.LogError(ctx, "Failed to publish event", err, log.OpPublish,
			log.NewFields().WithUser(event.UserID).WithEventType(string(event.Type)))
		return
	}
	metrics.ObservePublish(string(event.Type), "ok")
}

// Close releases the store and the publisher.
func (b *Bookkeeper) Close() error {
	var errs []error
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}

func updated[T any](v T, ok bool, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		var zero T
		return zero, core.ErrNotFound
	}
	return v, nil
}

func found(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrNotFound
	}
	return nil
}
