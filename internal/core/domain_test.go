package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestInventoryItemIsLowStock(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		min      *int
		low      bool
	}{
		{"equal to threshold", 5, intPtr(5), true},
		{"above threshold", 6, intPtr(5), false},
		{"below threshold", 0, intPtr(5), true},
		{"default threshold boundary", 5, nil, true},
		{"default threshold above", 6, nil, false},
		{"zero threshold", 0, intPtr(0), true},
		{"custom threshold", 11, intPtr(10), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := InventoryItem{Quantity: tc.quantity, MinStockLevel: tc.min}
			assert.Equal(t, tc.low, item.IsLowStock())
		})
	}
}

func TestInvoicePatchApply(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	inv := Invoice{ClientName: "Alice", Status: InvoicePending}

	paid := InvoicePaid
	amount := AmountText("250,50")
	err := InvoicePatch{Status: &paid, Amount: &amount}.Apply(&inv, now)

	assert.NoError(t, err)
	assert.Equal(t, InvoicePaid, inv.Status)
	assert.Equal(t, "250.5", inv.Amount.String())
	if assert.NotNil(t, inv.PaidDate) {
		assert.Equal(t, now, *inv.PaidDate)
	}
	assert.Equal(t, "Alice", inv.ClientName)
}

func TestInvoicePatchKeepsExplicitPaidDate(t *testing.T) {
	explicit := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	inv := Invoice{Status: InvoicePending}
	paid := InvoicePaid

	err := InvoicePatch{Status: &paid, PaidDate: &explicit}.Apply(&inv, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, explicit, *inv.PaidDate)
}

func TestNewPaymentLinkDefaultsToInvoiceAmount(t *testing.T) {
	amount, _ := ParseAmount("1000")
	inv := Invoice{ID: 2, UserID: 1, Amount: amount}

	link, err := NewPaymentLink{InvoiceID: 2, PaymentMethod: MPesa}.ToPaymentLink(1, inv)

	assert.NoError(t, err)
	assert.Equal(t, "1000", link.Amount.String())
	assert.Equal(t, LinkActive, link.Status)
	assert.Equal(t, int64(2), link.InvoiceID)
}
