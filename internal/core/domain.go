package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"

	TxIncome  TransactionType = "income"
	TxExpense TransactionType = "expense"

	LinkActive  PaymentLinkStatus = "active"
	LinkUsed    PaymentLinkStatus = "used"
	LinkExpired PaymentLinkStatus = "expired"

	Cash         PaymentMethod = "cash"
	AirtelMoney  PaymentMethod = "airtel_money"
	MPesa        PaymentMethod = "mpesa"
	BankTransfer PaymentMethod = "bank_transfer"
)

// Expense categories offered to the shopkeeper.
const (
	CategoryInventory = "inventory"
	CategoryRent      = "rent"
	CategoryTransport = "transport"
	CategoryUtilities = "utilities"
	CategoryOther     = "other"
)

// SalesCategory is the ledger category of every invoice-derived transaction.
const SalesCategory = "sales"

// DefaultMinStockLevel applies to inventory items without an explicit threshold.
const DefaultMinStockLevel = 5

type (
	InvoiceStatus     string
	TransactionType   string
	PaymentLinkStatus string
	PaymentMethod     string

	User struct {
		ID           int64     `json:"id"`
		Username     string    `json:"username"`
		BusinessName *string   `json:"businessName"`
		Email        *string   `json:"email"`
		Phone        *string   `json:"phone"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Invoice struct {
		ID            int64           `json:"id"`
		InvoiceNumber string          `json:"invoiceNumber"`
		UserID        int64           `json:"userId"`
		ClientName    string          `json:"clientName"`
		ClientEmail   *string         `json:"clientEmail"`
		ClientPhone   *string         `json:"clientPhone"`
		Amount        decimal.Decimal `json:"amount"`
		Description   *string         `json:"description"`
		Status        InvoiceStatus   `json:"status"`
		DueDate       *time.Time      `json:"dueDate"`
		PaidDate      *time.Time      `json:"paidDate"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	Expense struct {
		ID            int64           `json:"id"`
		UserID        int64           `json:"userId"`
		Category      string          `json:"category"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod *PaymentMethod  `json:"paymentMethod"`
		ReceiptURL    *string         `json:"receiptUrl"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	InventoryItem struct {
		ID            int64            `json:"id"`
		UserID        int64            `json:"userId"`
		Name          string           `json:"name"`
		Category      string           `json:"category"`
		Description   *string          `json:"description"`
		Quantity      int              `json:"quantity"`
		MinStockLevel *int             `json:"minStockLevel"`
		UnitPrice     decimal.Decimal  `json:"unitPrice"`
		CostPrice     *decimal.Decimal `json:"costPrice"`
		ImageURL      *string          `json:"imageUrl"`
		CreatedAt     time.Time        `json:"createdAt"`
		UpdatedAt     time.Time        `json:"updatedAt"`
	}

	// Transaction is an append-only ledger entry. At most one of
	// RelatedInvoiceID and RelatedExpenseID is set.
	Transaction struct {
		ID               int64           `json:"id"`
		UserID           int64           `json:"userId"`
		Type             TransactionType `json:"type"`
		Category         string          `json:"category"`
		Description      string          `json:"description"`
		Amount           decimal.Decimal `json:"amount"`
		PaymentMethod    *PaymentMethod  `json:"paymentMethod"`
		RelatedInvoiceID *int64          `json:"relatedInvoiceId"`
		RelatedExpenseID *int64          `json:"relatedExpenseId"`
		CreatedAt        time.Time       `json:"createdAt"`
	}

	PaymentLink struct {
		ID            int64             `json:"id"`
		UserID        int64             `json:"userId"`
		InvoiceID     int64             `json:"invoiceId"`
		LinkID        string            `json:"linkId"`
		PaymentMethod PaymentMethod     `json:"paymentMethod"`
		Amount        decimal.Decimal   `json:"amount"`
		Status        PaymentLinkStatus `json:"status"`
		ExpiresAt     *time.Time        `json:"expiresAt"`
		CreatedAt     time.Time         `json:"createdAt"`
	}
)

func (u User) OwnerID() int64          { return u.ID }
func (i Invoice) OwnerID() int64       { return i.UserID }
func (e Expense) OwnerID() int64       { return e.UserID }
func (i InventoryItem) OwnerID() int64 { return i.UserID }
func (t Transaction) OwnerID() int64   { return t.UserID }
func (p PaymentLink) OwnerID() int64   { return p.UserID }

// ReorderLevel returns the low-stock threshold, falling back to DefaultMinStockLevel.
func (i InventoryItem) ReorderLevel() int {
	if i.MinStockLevel == nil {
		return DefaultMinStockLevel
	}
	return *i.MinStockLevel
}

// IsLowStock reports whether the quantity is at or below the reorder level.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.ReorderLevel()
}

// BusinessLabel is the business name used when talking about the user's shop.
func (u User) BusinessLabel() string {
	if u.BusinessName == nil || *u.BusinessName == "" {
		return ""
	}
	return *u.BusinessName
}

// Valid reports whether s is one of the known invoice statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == TxIncome || t == TxExpense
}

func (s PaymentLinkStatus) Valid() bool {
	switch s {
	case LinkActive, LinkUsed, LinkExpired:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case Cash, AirtelMoney, MPesa, BankTransfer:
		return true
	}
	return false
}
