package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caisse/internal/core"
)

func TestWriter_AppendTransaction(t *testing.T) {
	w := New()
	ctx := context.Background()

	ref, err := w.AppendTransaction(ctx, core.Transaction{ID: 3, Type: core.TxIncome, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	ref, err = w.AppendTransaction(ctx, core.Transaction{ID: 5, Type: core.TxExpense, Amount: decimal.NewFromInt(20)})
	require.NoError(t, err)
	assert.Equal(t, "mem:2", ref)

	rows := w.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(5), rows[1][6])
}

func TestWriter_RedeliveryKeepsOneRow(t *testing.T) {
	w := New()
	ctx := context.Background()
	tx := core.Transaction{ID: 9, Type: core.TxIncome, Amount: decimal.NewFromInt(1)}

	first, err := w.AppendTransaction(ctx, tx)
	require.NoError(t, err)
	second, err := w.AppendTransaction(ctx, tx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, w.Rows(), 1)
}

func TestWriter_RejectsUnsavedTransaction(t *testing.T) {
	_, err := New().AppendTransaction(context.Background(), core.Transaction{})
	assert.Error(t, err)
}
