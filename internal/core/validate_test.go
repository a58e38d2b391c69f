package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(ve *ValidationError) []string {
	var names []string
	for _, f := range ve.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidatorNewInvoice(t *testing.T) {
	v := NewValidator("CD")

	in := &NewInvoice{ClientName: "  Alice  ", Amount: "1000"}
	require.NoError(t, v.Struct(in))
	assert.Equal(t, "Alice", in.ClientName)
	assert.Equal(t, InvoicePending, in.Status)

	bad := &NewInvoice{Amount: "-3", Status: "lost"}
	err := v.Struct(bad)
	ve, ok := AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.ElementsMatch(t, []string{"clientName", "amount", "status"}, fieldNames(ve))
}

func TestValidatorRejectsZeroExpenseAmount(t *testing.T) {
	v := NewValidator("CD")

	err := v.Struct(&NewExpense{Category: "rent", Description: "Loyer", Amount: "0"})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "amount", ve.Fields[0].Field)
	assert.Equal(t, "money_positive", ve.Fields[0].Tag)
}

func TestValidatorExpenseCategory(t *testing.T) {
	v := NewValidator("CD")

	ok := &NewExpense{Category: " Transport ", Description: "Taxi", Amount: "15"}
	require.NoError(t, v.Struct(ok))
	assert.Equal(t, "transport", ok.Category)

	err := v.Struct(&NewExpense{Category: "gifts", Description: "x", Amount: "15"})
	ve, isValidation := AsValidation(err)
	require.True(t, isValidation)
	assert.Equal(t, []string{"category"}, fieldNames(ve))
}

func TestValidatorEmailAndPhone(t *testing.T) {
	v := NewValidator("CD")

	email := "not-an-email"
	phone := "12"
	err := v.Struct(&NewInvoice{ClientName: "Bob", Amount: "10", ClientEmail: &email, ClientPhone: &phone})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"clientEmail", "clientPhone"}, fieldNames(ve))

	blank := "   "
	in := &NewInvoice{ClientName: "Bob", Amount: "10", ClientEmail: &blank}
	require.NoError(t, v.Struct(in))
	assert.Nil(t, in.ClientEmail)
}

func TestValidatorInventoryDefaults(t *testing.T) {
	v := NewValidator("CD")

	in := &NewInventoryItem{Name: "Savon", Category: "hygiène", Quantity: 3, UnitPrice: "2.5"}
	require.NoError(t, v.Struct(in))
	require.NotNil(t, in.MinStockLevel)
	assert.Equal(t, DefaultMinStockLevel, *in.MinStockLevel)

	err := v.Struct(&NewInventoryItem{Name: "Savon", Category: "x", Quantity: -1, UnitPrice: "abc"})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"quantity", "unitPrice"}, fieldNames(ve))
}

func TestValidatorAdviceQuestionRequired(t *testing.T) {
	v := NewValidator("CD")

	err := v.Struct(&AdviceRequest{Question: "   "})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "question", ve.Fields[0].Field)
	assert.Equal(t, "required", ve.Fields[0].Tag)
}
