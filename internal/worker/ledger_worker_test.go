package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caisse/internal/amqp"
	"caisse/internal/core"
	"caisse/internal/log"
	"caisse/internal/services"
	sheetsmem "caisse/internal/sheets/memory"
	"caisse/internal/storage/memory"
)

type failingWriter struct{ err error }

func (f failingWriter) AppendTransaction(context.Context, core.Transaction) (string, error) {
	return "", f.err
}

type blockingWriter struct{}

func (blockingWriter) AppendTransaction(ctx context.Context, _ core.Transaction) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func setup(t *testing.T) (*services.Bookkeeper, *sheetsmem.Writer, *LedgerWorker) {
	t.Helper()
	store := memory.New()
	bk := services.NewBookkeeper(store, nil, log.Discard())
	writer := sheetsmem.New()
	return bk, writer, NewLedgerWorker(store, writer, bk, time.Second, log.Discard())
}

func createInvoice(t *testing.T, bk *services.Bookkeeper) core.Invoice {
	t.Helper()
	inv, err := bk.CreateInvoice(context.Background(), core.Invoice{
		UserID:     1,
		ClientName: "Mama Neema",
		Amount:     decimal.NewFromInt(120),
	})
	require.NoError(t, err)
	return inv
}

func TestLedgerWorker_ExportsRecordedTransaction(t *testing.T) {
	bk, writer, w := setup(t)
	inv := createInvoice(t, bk)
	txs, err := bk.Store().ListTransactions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	err = w.HandleEvent(context.Background(), amqp.NewTransactionRecorded(1, txs[0].ID))
	require.NoError(t, err)

	rows := writer.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "income", rows[0][1])
	assert.Equal(t, "Invoice "+inv.InvoiceNumber+" - Mama Neema", rows[0][3])
	assert.Equal(t, "120.00", rows[0][4])
}

func TestLedgerWorker_MissingTransactionIsDropped(t *testing.T) {
	_, writer, w := setup(t)

	err := w.HandleEvent(context.Background(), amqp.NewTransactionRecorded(1, 999))

	assert.NoError(t, err)
	assert.Empty(t, writer.Rows())
}

func TestLedgerWorker_OtherUsersTransactionIsNotExported(t *testing.T) {
	bk, writer, w := setup(t)
	createInvoice(t, bk)
	txs, err := bk.Store().ListTransactions(context.Background(), 1)
	require.NoError(t, err)

	err = w.HandleEvent(context.Background(), amqp.NewTransactionRecorded(2, txs[0].ID))

	assert.NoError(t, err)
	assert.Empty(t, writer.Rows())
}

func TestLedgerWorker_SheetFailureRequestsRedelivery(t *testing.T) {
	store := memory.New()
	bk := services.NewBookkeeper(store, nil, log.Discard())
	createInvoice(t, bk)
	txs, err := store.ListTransactions(context.Background(), 1)
	require.NoError(t, err)

	w := NewLedgerWorker(store, failingWriter{err: errors.New("quota exceeded")}, bk, time.Second, log.Discard())
	err = w.HandleEvent(context.Background(), amqp.NewTransactionRecorded(1, txs[0].ID))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestLedgerWorker_MessageTimeout(t *testing.T) {
	store := memory.New()
	bk := services.NewBookkeeper(store, nil, log.Discard())
	createInvoice(t, bk)
	txs, err := store.ListTransactions(context.Background(), 1)
	require.NoError(t, err)

	w := NewLedgerWorker(store, blockingWriter{}, bk, 20*time.Millisecond, log.Discard())
	err = w.HandleEvent(context.Background(), amqp.NewTransactionRecorded(1, txs[0].ID))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLedgerWorker_PaidInvoiceClosesActiveLinks(t *testing.T) {
	bk, _, w := setup(t)
	ctx := context.Background()
	inv := createInvoice(t, bk)
	link, err := bk.CreatePaymentLink(ctx, 1, core.NewPaymentLink{InvoiceID: inv.ID, PaymentMethod: core.MPesa})
	require.NoError(t, err)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewInvoiceUpdated(1, inv.ID, string(core.InvoiceOverdue))))
	got, _, err := bk.Store().GetPaymentLink(ctx, link.LinkID, 1)
	require.NoError(t, err)
	assert.Equal(t, core.LinkActive, got.Status)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewInvoiceUpdated(1, inv.ID, string(core.InvoicePaid))))
	got, _, err = bk.Store().GetPaymentLink(ctx, link.LinkID, 1)
	require.NoError(t, err)
	assert.Equal(t, core.LinkUsed, got.Status)
}

func TestLedgerWorker_UnknownEventIsAcknowledged(t *testing.T) {
	_, _, w := setup(t)

	err := w.HandleEvent(context.Background(), &amqp.Event{Type: "stock.changed", UserID: 1})

	assert.NoError(t, err)
}
