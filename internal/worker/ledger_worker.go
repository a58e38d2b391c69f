// Package worker handles ledger events consumed from the message broker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caisse/internal/amqp"
	"caisse/internal/core"
	"caisse/internal/log"
	"caisse/internal/metrics"
	"caisse/internal/sheets"
)

// TransactionReader loads the ledger entry an event refers to.
type TransactionReader interface {
	GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, bool, error)
}

// LinkCloser retires the payment links of a paid invoice.
type LinkCloser interface {
	CloseInvoiceLinks(ctx context.Context, invoiceID, userID int64) (int, error)
}

// LedgerWorker exports recorded transactions to the spreadsheet and closes
// payment links once their invoice is paid.
type LedgerWorker struct {
	txs     TransactionReader
	sheets  sheets.LedgerWriter
	links   LinkCloser
	timeout time.Duration
	logger  *log.Logger
}

func NewLedgerWorker(txs TransactionReader, writer sheets.LedgerWriter, links LinkCloser, timeout time.Duration, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &LedgerWorker{
		txs:     txs,
		sheets:  writer,
		links:   links,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one event. A returned error asks the broker for a
// redelivery; events that can never succeed are logged and acknowledged.
func (w *LedgerWorker) HandleEvent(ctx context.Context, event *amqp.Event) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	var err error
	switch event.Type {
	case amqp.EventTransactionRecorded:
		err = w.exportTransaction(ctx, event)
	case amqp.EventInvoiceUpdated:
		err = w.invoiceUpdated(ctx, event)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event", log.FieldEventType, string(event.Type))
		metrics.ObserveWorkerEvent(string(event.Type), "skipped")
		return nil
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ObserveWorkerEvent(string(event.Type), result)
	return err
}

func (w *LedgerWorker) exportTransaction(ctx context.Context, event *amqp.Event) error {
	tx, ok, err := w.txs.GetTransaction(ctx, event.TransactionID, event.UserID)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", event.TransactionID, err)
	}
	if !ok {
		w.logger.WarnContext(ctx, "Transaction not found, dropping event",
			log.FieldTransactionID, event.TransactionID,
			log.FieldUserID, event.UserID)
		return nil
	}

	ref, err := w.sheets.AppendTransaction(ctx, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("append transaction %d: timed out after %v: %w", tx.ID, w.timeout, err)
		}
		return fmt.Errorf("append transaction %d: %w", tx.ID, err)
	}

	w.logger.InfoContext(ctx, "Exported transaction",
		log.FieldTransactionID, tx.ID,
		log.FieldTxType, string(tx.Type),
		log.FieldAmount, tx.Amount.String(),
		"sheets_ref", ref)
	return nil
}

func (w *LedgerWorker) invoiceUpdated(ctx context.Context, event *amqp.Event) error {
	if core.InvoiceStatus(event.Status) != core.InvoicePaid {
		return nil
	}
	if w.links == nil {
		return nil
	}
	closed, err := w.links.CloseInvoiceLinks(ctx, event.InvoiceID, event.UserID)
	if err != nil {
		return fmt.Errorf("close links of invoice %d: %w", event.InvoiceID, err)
	}
	if closed > 0 {
		w.logger.InfoContext(ctx, "Closed payment links of paid invoice",
			log.FieldEntityID, event.InvoiceID,
			"closed", closed)
	}
	return nil
}
