package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"caisse/internal/core"
)

func TestRow(t *testing.T) {
	method := core.MPesa
	tx := core.Transaction{
		ID:            42,
		Type:          core.TxExpense,
		Category:      core.CategoryRent,
		Description:   "Loyer mai",
		Amount:        decimal.RequireFromString("150.5"),
		PaymentMethod: &method,
		CreatedAt:     time.Date(2024, 5, 3, 9, 30, 0, 0, time.FixedZone("CAT", 2*3600)),
	}

	row := Row(tx)

	assert.Len(t, row, len(Header))
	assert.Equal(t, []any{"2024-05-03 07:30:00", "expense", core.CategoryRent, "Loyer mai", "150.50", "mpesa", int64(42)}, row)
}

func TestRow_NoPaymentMethod(t *testing.T) {
	row := Row(core.Transaction{ID: 7, Type: core.TxIncome, Amount: decimal.NewFromInt(10)})

	assert.Equal(t, "", row[5])
	assert.Equal(t, "10.00", row[4])
}
