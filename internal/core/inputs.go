package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type normalizer interface {
	Normalize()
}

// NewInvoice is the client payload for creating an invoice.
type NewInvoice struct {
	ClientName  string        `json:"clientName" validate:"required,max=200"`
	ClientEmail *string       `json:"clientEmail" validate:"omitempty,email"`
	ClientPhone *string       `json:"clientPhone" validate:"omitempty,phone"`
	Amount      AmountText    `json:"amount" validate:"required,money_positive"`
	Description *string       `json:"description" validate:"omitempty,max=2000"`
	Status      InvoiceStatus `json:"status" validate:"omitempty,oneof=pending paid overdue cancelled"`
	DueDate     *time.Time    `json:"dueDate"`
}

func (in *NewInvoice) Normalize() {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientEmail = cleanOptional(in.ClientEmail)
	in.ClientPhone = cleanOptional(in.ClientPhone)
	in.Description = cleanOptional(in.Description)
	if in.Status == "" {
		in.Status = InvoicePending
	}
}

// ToInvoice builds the invoice owned by userID. Identity and timestamps are
// left to the store.
func (in NewInvoice) ToInvoice(userID int64) (Invoice, error) {
	amount, err := in.Amount.Decimal()
	if err != nil {
		return Invoice{}, amountError("amount", err)
	}
	status := in.Status
	if status == "" {
		status = InvoicePending
	}
	return Invoice{
		UserID:      userID,
		ClientName:  in.ClientName,
		ClientEmail: in.ClientEmail,
		ClientPhone: in.ClientPhone,
		Amount:      amount,
		Description: in.Description,
		Status:      status,
		DueDate:     in.DueDate,
	}, nil
}

// InvoicePatch lists the invoice fields a client may change. Nil means unchanged.
type InvoicePatch struct {
	ClientName  *string        `json:"clientName" validate:"omitempty,min=1,max=200"`
	ClientEmail *string        `json:"clientEmail" validate:"omitempty,email"`
	ClientPhone *string        `json:"clientPhone" validate:"omitempty,phone"`
	Amount      *AmountText    `json:"amount" validate:"omitempty,money_positive"`
	Description *string        `json:"description" validate:"omitempty,max=2000"`
	Status      *InvoiceStatus `json:"status" validate:"omitempty,oneof=pending paid overdue cancelled"`
	DueDate     *time.Time     `json:"dueDate"`
	PaidDate    *time.Time     `json:"paidDate"`
}

func (p *InvoicePatch) Normalize() {
	p.ClientName = trimOptional(p.ClientName)
	p.ClientEmail = trimOptional(p.ClientEmail)
	p.ClientPhone = trimOptional(p.ClientPhone)
}

// Apply merges the patch into inv. Moving to paid without an explicit
// paid date stamps it with now.
func (p InvoicePatch) Apply(inv *Invoice, now time.Time) error {
	if p.ClientName != nil {
		inv.ClientName = *p.ClientName
	}
	if p.ClientEmail != nil {
		inv.ClientEmail = emptyToNil(p.ClientEmail)
	}
	if p.ClientPhone != nil {
		inv.ClientPhone = emptyToNil(p.ClientPhone)
	}
	if p.Amount != nil {
		amount, err := p.Amount.Decimal()
		if err != nil {
			return amountError("amount", err)
		}
		inv.Amount = amount
	}
	if p.Description != nil {
		inv.Description = emptyToNil(p.Description)
	}
	if p.DueDate != nil {
		inv.DueDate = p.DueDate
	}
	if p.PaidDate != nil {
		inv.PaidDate = p.PaidDate
	}
	if p.Status != nil {
		inv.Status = *p.Status
	}
	inv.StampPaid(now)
	return nil
}

// StampPaid records now as the paid date of a paid invoice that has none.
func (i *Invoice) StampPaid(now time.Time) {
	if i.Status == InvoicePaid && i.PaidDate == nil {
		paid := now
		i.PaidDate = &paid
	}
}

// NewExpense is the client payload for recording an expense.
type NewExpense struct {
	Category      string         `json:"category" validate:"required,oneof=inventory rent transport utilities other"`
	Description   string         `json:"description" validate:"required,max=500"`
	Amount        AmountText     `json:"amount" validate:"required,money_positive"`
	PaymentMethod *PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=cash airtel_money mpesa bank_transfer"`
	ReceiptURL    *string        `json:"receiptUrl" validate:"omitempty,url"`
}

func (in *NewExpense) Normalize() {
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Description = strings.TrimSpace(in.Description)
	in.ReceiptURL = cleanOptional(in.ReceiptURL)
	if in.PaymentMethod != nil && *in.PaymentMethod == "" {
		in.PaymentMethod = nil
	}
}

func (in NewExpense) ToExpense(userID int64) (Expense, error) {
	amount, err := in.Amount.Decimal()
	if err != nil {
		return Expense{}, amountError("amount", err)
	}
	return Expense{
		UserID:        userID,
		Category:      in.Category,
		Description:   in.Description,
		Amount:        amount,
		PaymentMethod: in.PaymentMethod,
		ReceiptURL:    in.ReceiptURL,
	}, nil
}

type ExpensePatch struct {
	Category      *string        `json:"category" validate:"omitempty,oneof=inventory rent transport utilities other"`
	Description   *string        `json:"description" validate:"omitempty,min=1,max=500"`
	Amount        *AmountText    `json:"amount" validate:"omitempty,money_positive"`
	PaymentMethod *PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=cash airtel_money mpesa bank_transfer"`
	ReceiptURL    *string        `json:"receiptUrl" validate:"omitempty,url"`
}

func (p *ExpensePatch) Normalize() {
	p.Category = trimOptional(p.Category)
	if p.Category != nil {
		lower := strings.ToLower(*p.Category)
		p.Category = &lower
	}
	p.Description = trimOptional(p.Description)
	p.ReceiptURL = trimOptional(p.ReceiptURL)
}

// Apply merges the patch into e. The ledger entry created with the expense
// is left untouched.
func (p ExpensePatch) Apply(e *Expense) error {
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		amount, err := p.Amount.Decimal()
		if err != nil {
			return amountError("amount", err)
		}
		e.Amount = amount
	}
	if p.PaymentMethod != nil {
		e.PaymentMethod = p.PaymentMethod
	}
	if p.ReceiptURL != nil {
		e.ReceiptURL = emptyToNil(p.ReceiptURL)
	}
	return nil
}

// NewInventoryItem is the client payload for a stock line.
type NewInventoryItem struct {
	Name          string      `json:"name" validate:"required,max=200"`
	Category      string      `json:"category" validate:"required,max=100"`
	Description   *string     `json:"description" validate:"omitempty,max=2000"`
	Quantity      int         `json:"quantity" validate:"min=0"`
	MinStockLevel *int        `json:"minStockLevel" validate:"omitempty,min=0"`
	UnitPrice     AmountText  `json:"unitPrice" validate:"required,money"`
	CostPrice     *AmountText `json:"costPrice" validate:"omitempty,money"`
	ImageURL      *string     `json:"imageUrl" validate:"omitempty,url"`
}

func (in *NewInventoryItem) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = cleanOptional(in.Description)
	in.ImageURL = cleanOptional(in.ImageURL)
	if in.MinStockLevel == nil {
		level := DefaultMinStockLevel
		in.MinStockLevel = &level
	}
}

func (in NewInventoryItem) ToItem(userID int64) (InventoryItem, error) {
	unitPrice, err := in.UnitPrice.Decimal()
	if err != nil {
		return InventoryItem{}, amountError("unitPrice", err)
	}
	var costPrice *decimal.Decimal
	if in.CostPrice != nil && *in.CostPrice != "" {
		cp, err := in.CostPrice.Decimal()
		if err != nil {
			return InventoryItem{}, amountError("costPrice", err)
		}
		costPrice = &cp
	}
	return InventoryItem{
		UserID:        userID,
		Name:          in.Name,
		Category:      in.Category,
		Description:   in.Description,
		Quantity:      in.Quantity,
		MinStockLevel: in.MinStockLevel,
		UnitPrice:     unitPrice,
		CostPrice:     costPrice,
		ImageURL:      in.ImageURL,
	}, nil
}

type InventoryPatch struct {
	Name          *string     `json:"name" validate:"omitempty,min=1,max=200"`
	Category      *string     `json:"category" validate:"omitempty,min=1,max=100"`
	Description   *string     `json:"description" validate:"omitempty,max=2000"`
	Quantity      *int        `json:"quantity" validate:"omitempty,min=0"`
	MinStockLevel *int        `json:"minStockLevel" validate:"omitempty,min=0"`
	UnitPrice     *AmountText `json:"unitPrice" validate:"omitempty,money"`
	CostPrice     *AmountText `json:"costPrice" validate:"omitempty,money"`
	ImageURL      *string     `json:"imageUrl" validate:"omitempty,url"`
}

func (p *InventoryPatch) Normalize() {
	p.Name = trimOptional(p.Name)
	p.Category = trimOptional(p.Category)
	p.ImageURL = trimOptional(p.ImageURL)
}

func (p InventoryPatch) Apply(item *InventoryItem) error {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Description != nil {
		item.Description = emptyToNil(p.Description)
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.MinStockLevel != nil {
		item.MinStockLevel = p.MinStockLevel
	}
	if p.UnitPrice != nil {
		price, err := p.UnitPrice.Decimal()
		if err != nil {
			return amountError("unitPrice", err)
		}
		item.UnitPrice = price
	}
	if p.CostPrice != nil {
		price, err := p.CostPrice.Decimal()
		if err != nil {
			return amountError("costPrice", err)
		}
		item.CostPrice = &price
	}
	if p.ImageURL != nil {
		item.ImageURL = emptyToNil(p.ImageURL)
	}
	return nil
}

// NewTransaction is a manual ledger entry, not tied to an invoice or expense.
type NewTransaction struct {
	Type          TransactionType `json:"type" validate:"required,oneof=income expense"`
	Category      string          `json:"category" validate:"required,max=100"`
	Description   string          `json:"description" validate:"required,max=500"`
	Amount        AmountText      `json:"amount" validate:"required,money_positive"`
	PaymentMethod *PaymentMethod  `json:"paymentMethod" validate:"omitempty,oneof=cash airtel_money mpesa bank_transfer"`
}

func (in *NewTransaction) Normalize() {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	if in.PaymentMethod != nil && *in.PaymentMethod == "" {
		in.PaymentMethod = nil
	}
}

func (in NewTransaction) ToTransaction(userID int64) (Transaction, error) {
	amount, err := in.Amount.Decimal()
	if err != nil {
		return Transaction{}, amountError("amount", err)
	}
	return Transaction{
		UserID:        userID,
		Type:          in.Type,
		Category:      in.Category,
		Description:   in.Description,
		Amount:        amount,
		PaymentMethod: in.PaymentMethod,
	}, nil
}

// NewPaymentLink requests a mobile-money payment link for an invoice. An
// empty amount means the invoice amount.
type NewPaymentLink struct {
	InvoiceID     int64             `json:"invoiceId" validate:"required,gt=0"`
	PaymentMethod PaymentMethod     `json:"paymentMethod" validate:"required,oneof=airtel_money mpesa"`
	Amount        AmountText        `json:"amount" validate:"omitempty,money_positive"`
	Status        PaymentLinkStatus `json:"status" validate:"omitempty,oneof=active used expired"`
	ExpiresAt     *time.Time        `json:"expiresAt"`
}

func (in *NewPaymentLink) Normalize() {
	in.Amount = AmountText(strings.TrimSpace(string(in.Amount)))
	if in.Status == "" {
		in.Status = LinkActive
	}
}

// ToPaymentLink builds the link for inv, which must belong to userID.
func (in NewPaymentLink) ToPaymentLink(userID int64, inv Invoice) (PaymentLink, error) {
	amount := inv.Amount
	if in.Amount != "" {
		a, err := in.Amount.Decimal()
		if err != nil {
			return PaymentLink{}, amountError("amount", err)
		}
		amount = a
	}
	status := in.Status
	if status == "" {
		status = LinkActive
	}
	return PaymentLink{
		UserID:        userID,
		InvoiceID:     inv.ID,
		PaymentMethod: in.PaymentMethod,
		Amount:        amount,
		Status:        status,
		ExpiresAt:     in.ExpiresAt,
	}, nil
}

type PaymentLinkPatch struct {
	Status    *PaymentLinkStatus `json:"status" validate:"omitempty,oneof=active used expired"`
	ExpiresAt *time.Time         `json:"expiresAt"`
}

func (p PaymentLinkPatch) Apply(link *PaymentLink) error {
	if p.Status != nil {
		link.Status = *p.Status
	}
	if p.ExpiresAt != nil {
		link.ExpiresAt = p.ExpiresAt
	}
	return nil
}

// UserPatch updates the business profile. Username is immutable.
type UserPatch struct {
	BusinessName *string `json:"businessName" validate:"omitempty,max=200"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" validate:"omitempty,phone"`
}

func (p *UserPatch) Normalize() {
	p.BusinessName = trimOptional(p.BusinessName)
	p.Email = trimOptional(p.Email)
	p.Phone = trimOptional(p.Phone)
}

func (p UserPatch) Apply(u *User) error {
	if p.BusinessName != nil {
		u.BusinessName = emptyToNil(p.BusinessName)
	}
	if p.Email != nil {
		u.Email = emptyToNil(p.Email)
	}
	if p.Phone != nil {
		u.Phone = emptyToNil(p.Phone)
	}
	return nil
}

// AdviceRequest is a question for the financial advisor.
type AdviceRequest struct {
	Question             string `json:"question" validate:"required,max=2000"`
	IncludeFinancialData bool   `json:"includeFinancialData"`
}

func (r *AdviceRequest) Normalize() {
	r.Question = strings.TrimSpace(r.Question)
}

// cleanOptional trims s and turns blanks into nil.
func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// trimOptional trims s but keeps an explicit empty value, which clears the field.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func amountError(field string, err error) error {
	return NewValidationError(field, "money", err.Error())
}
