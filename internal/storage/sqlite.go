package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"caisse/internal/core"
	"caisse/internal/ledger"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository is the persistent Store. Unlike the in-memory store it
// writes a source record and its ledger entry in one SQL transaction.
type SQLiteRepository struct {
	db     *sql.DB
	now    func() time.Time
	linkID func(time.Time) string
}

var _ Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the database at dbPath,
// applies migrations and seeds the demo user on first start.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db, now: time.Now, linkID: NewLinkID}
	if err := repo.seedDemoUser(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// SetClock overrides the time source. Intended for tests.
func (r *SQLiteRepository) SetClock(now func() time.Time) { r.now = now }

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) seedDemoUser(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		demo := DemoUser(r.now())
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, business_name, email, phone, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			demo.ID, demo.Username, nullString(demo.BusinessName), nullString(demo.Email), nullString(demo.Phone), formatTime(demo.CreatedAt),
		); err != nil {
			return fmt.Errorf("seed demo user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE id_sequence SET value = MAX(value, ?)`, demo.ID); err != nil {
			return fmt.Errorf("advance id sequence: %w", err)
		}
		slog.InfoContext(ctx, "Seeded demo user", "user_id", demo.ID, "username", demo.Username)
		return nil
	})
}

// nextID draws from the store-wide id sequence shared by every table.
func nextID(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, `UPDATE id_sequence SET value = value + 1 RETURNING value`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// getOne runs a single-row query; sql.ErrNoRows becomes "not found".
func getOne[T any](ctx context.Context, q queryer, scan func(rowScanner) (T, error), query string, args ...any) (T, bool, error) {
	v, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

func getMany[T any](ctx context.Context, q queryer, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// updateOwned loads a row through load, lets mutate change it and persists
// it with save, all inside one transaction.
func updateOwned[T any](ctx context.Context, r *SQLiteRepository, load func(*sql.Tx) (T, bool, error), mutate func(*T) error, save func(*sql.Tx, T) error) (T, bool, error) {
	var (
		out   T
		found bool
	)
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		row, ok, err := load(tx)
		if err != nil || !ok {
			return err
		}
		found = true
		if err := mutate(&row); err != nil {
			return err
		}
		if err := save(tx, row); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		var zero T
		return zero, found, err
	}
	return out, found, nil
}

func (r *SQLiteRepository) deleteOwned(ctx context.Context, table string, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	return n > 0, nil
}

// Users

const userColumns = `id, username, business_name, email, phone, created_at`

func scanUser(s rowScanner) (core.User, error) {
	var (
		u                          core.User
		businessName, email, phone sql.NullString
		createdAt                  string
	)
	if err := s.Scan(&u.ID, &u.Username, &businessName, &email, &phone, &createdAt); err != nil {
		return u, err
	}
	u.BusinessName = stringPtr(businessName)
	u.Email = stringPtr(email)
	u.Phone = stringPtr(phone)
	var err error
	u.CreatedAt, err = parseTime(createdAt)
	return u, err
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, bool, error) {
	return getOne(ctx, r.db, scanUser, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, bool, error) {
	return getOne(ctx, r.db, scanUser, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}
		u.ID = id
		u.CreatedAt = r.now()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			u.ID, u.Username, nullString(u.BusinessName), nullString(u.Email), nullString(u.Phone), formatTime(u.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	return u, err
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, id int64, patch core.UserPatch) (core.User, bool, error) {
	return updateOwned(ctx, r,
		func(tx *sql.Tx) (core.User, bool, error) {
			return getOne(ctx, tx, scanUser, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
		},
		func(u *core.User) error { return patch.Apply(u) },
		func(tx *sql.Tx, u core.User) error {
			_, err := tx.ExecContext(ctx, `UPDATE users SET business_name = ?, email = ?, phone = ? WHERE id = ?`,
				nullString(u.BusinessName), nullString(u.Email), nullString(u.Phone), u.ID)
			return err
		})
}

// Invoices

const invoiceColumns = `id, user_id, invoice_number, client_name, client_email, client_phone, amount, description, status, due_date, paid_date, created_at`

func scanInvoice(s rowScanner) (core.Invoice, error) {
	var (
		inv                       core.Invoice
		email, phone, desc        sql.NullString
		dueDate, paidDate         sql.NullString
		amount, status, createdAt string
	)
	if err := s.Scan(&inv.ID, &inv.UserID, &inv.InvoiceNumber, &inv.ClientName, &email, &phone,
		&amount, &desc, &status, &dueDate, &paidDate, &createdAt); err != nil {
		return inv, err
	}
	inv.ClientEmail = stringPtr(email)
	inv.ClientPhone = stringPtr(phone)
	inv.Description = stringPtr(desc)
	inv.Status = core.InvoiceStatus(status)
	var err error
	if inv.Amount, err = decimal.NewFromString(amount); err != nil {
		return inv, fmt.Errorf("invoice %d amount: %w", inv.ID, err)
	}
	if inv.DueDate, err = parseNullTime(dueDate); err != nil {
		return inv, err
	}
	if inv.PaidDate, err = parseNullTime(paidDate); err != nil {
		return inv, err
	}
	inv.CreatedAt, err = parseTime(createdAt)
	return inv, err
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context, userID int64) ([]core.Invoice, error) {
	out, err := getMany(ctx, r.db, scanInvoice,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id, userID int64) (core.Invoice, bool, error) {
	return getOne(ctx, r.db, scanInvoice,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, core.Transaction, error) {
	var entry core.Transaction
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		now := r.now()
		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}
		inv.ID = id
		inv.InvoiceNumber = InvoiceNumber(id, now.Year())
		inv.CreatedAt = now
		if inv.Status == "" {
			inv.Status = core.InvoicePending
		}
		inv.StampPaid(now)

		if _, err := tx.ExecContext(ctx, `INSERT INTO invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, inv.UserID, inv.InvoiceNumber, inv.ClientName, nullString(inv.ClientEmail), nullString(inv.ClientPhone),
			inv.Amount.String(), nullString(inv.Description), string(inv.Status),
			nullTime(inv.DueDate), nullTime(inv.PaidDate), formatTime(inv.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		entry, err = r.appendTransaction(ctx, tx, ledger.ForInvoice(inv), now)
		return err
	})
	if err != nil {
		return core.Invoice{}, core.Transaction{}, err
	}
	return inv, entry, nil
}

func (r *SQLiteRepository) UpdateInvoice(ctx context.Context, id, userID int64, patch core.InvoicePatch) (core.Invoice, bool, error) {
	now := r.now()
	return updateOwned(ctx, r,
		func(tx *sql.Tx) (core.Invoice, bool, error) {
			return getOne(ctx, tx, scanInvoice, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ? AND user_id = ?`, id, userID)
		},
		func(inv *core.Invoice) error { return patch.Apply(inv, now) },
		func(tx *sql.Tx, inv core.Invoice) error {
			_, err := tx.ExecContext(ctx, `UPDATE invoices SET client_name = ?, client_email = ?, client_phone = ?, amount = ?,
				description = ?, status = ?, due_date = ?, paid_date = ? WHERE id = ? AND user_id = ?`,
				inv.ClientName, nullString(inv.ClientEmail), nullString(inv.ClientPhone), inv.Amount.String(),
				nullString(inv.Description), string(inv.Status), nullTime(inv.DueDate), nullTime(inv.PaidDate), inv.ID, inv.UserID)
			return err
		})
}

func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, id, userID int64) (bool, error) {
	return r.deleteOwned(ctx, "invoices", id, userID)
}

// Expenses

const expenseColumns = `id, user_id, category, description, amount, payment_method, receipt_url, created_at`

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e                 core.Expense
		method, receipt   sql.NullString
		amount, createdAt string
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Category, &e.Description, &amount, &method, &receipt, &createdAt); err != nil {
		return e, err
	}
	e.PaymentMethod = methodPtr(method)
	e.ReceiptURL = stringPtr(receipt)
	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return e, fmt.Errorf("expense %d amount: %w", e.ID, err)
	}
	e.CreatedAt, err = parseTime(createdAt)
	return e, err
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64, category string) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ?`
	args := []any{userID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	out, err := getMany(ctx, r.db, scanExpense, query+` ORDER BY id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id, userID int64) (core.Expense, bool, error) {
	return getOne(ctx, r.db, scanExpense,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, core.Transaction, error) {
	var entry core.Transaction
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		now := r.now()
		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}
		e.ID = id
		e.CreatedAt = now

		if _, err := tx.ExecContext(ctx, `INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.Category, e.Description, e.Amount.String(),
			nullMethod(e.PaymentMethod), nullString(e.ReceiptURL), formatTime(e.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}

		entry, err = r.appendTransaction(ctx, tx, ledger.ForExpense(e), now)
		return err
	})
	if err != nil {
		return core.Expense{}, core.Transaction{}, err
	}
	return e, entry, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id, userID int64, patch core.ExpensePatch) (core.Expense, bool, error) {
	return updateOwned(ctx, r,
		func(tx *sql.Tx) (core.Expense, bool, error) {
			return getOne(ctx, tx, scanExpense, `SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
		},
		func(e *core.Expense) error { return patch.Apply(e) },
		func(tx *sql.Tx, e core.Expense) error {
			_, err := tx.ExecContext(ctx, `UPDATE expenses SET category = ?, description = ?, amount = ?, payment_method = ?, receipt_url = ?
				WHERE id = ? AND user_id = ?`,
				e.Category, e.Description, e.Amount.String(), nullMethod(e.PaymentMethod), nullString(e.ReceiptURL), e.ID, e.UserID)
			return err
		})
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id, userID int64) (bool, error) {
	return r.deleteOwned(ctx, "expenses", id, userID)
}

// Inventory

const inventoryColumns = `id, user_id, name, category, description, quantity, min_stock_level, unit_price, cost_price, image_url, created_at, updated_at`

func scanInventoryItem(s rowScanner) (core.InventoryItem, error) {
	var (
		item                            core.InventoryItem
		desc, costPrice, imageURL       sql.NullString
		minStock                        sql.NullInt64
		unitPrice, createdAt, updatedAt string
	)
	if err := s.Scan(&item.ID, &item.UserID, &item.Name, &item.Category, &desc, &item.Quantity, &minStock,
		&unitPrice, &costPrice, &imageURL, &createdAt, &updatedAt); err != nil {
		return item, err
	}
	item.Description = stringPtr(desc)
	item.ImageURL = stringPtr(imageURL)
	if minStock.Valid {
		level := int(minStock.Int64)
		item.MinStockLevel = &level
	}
	var err error
	if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return item, fmt.Errorf("inventory item %d unit price: %w", item.ID, err)
	}
	if costPrice.Valid {
		cp, err := decimal.NewFromString(costPrice.String)
		if err != nil {
			return item, fmt.Errorf("inventory item %d cost price: %w", item.ID, err)
		}
		item.CostPrice = &cp
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return item, err
	}
	item.UpdatedAt, err = parseTime(updatedAt)
	return item, err
}

func (r *SQLiteRepository) ListInventory(ctx context.Context, userID int64) ([]core.InventoryItem, error) {
	out, err := getMany(ctx, r.db, scanInventoryItem,
		`SELECT `+inventoryColumns+` FROM inventory_items WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetInventoryItem(ctx context.Context, id, userID int64) (core.InventoryItem, bool, error) {
	return getOne(ctx, r.db, scanInventoryItem,
		`SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *SQLiteRepository) CreateInventoryItem(ctx context.Context, item core.InventoryItem) (core.InventoryItem, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}
		now := r.now()
		item.ID = id
		item.CreatedAt = now
		item.UpdatedAt = now
		if item.MinStockLevel == nil {
			level := core.DefaultMinStockLevel
			item.MinStockLevel = &level
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO inventory_items (`+inventoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.UserID, item.Name, item.Category, nullString(item.Description), item.Quantity, *item.MinStockLevel,
			item.UnitPrice.String(), nullDecimal(item.CostPrice), nullString(item.ImageURL),
			formatTime(item.CreatedAt), formatTime(item.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert inventory item: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.InventoryItem{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateInventoryItem(ctx context.Context, id, userID int64, patch core.InventoryPatch) (core.InventoryItem, bool, error) {
	now := r.now()
	return updateOwned(ctx, r,
		func(tx *sql.Tx) (core.InventoryItem, bool, error) {
			return getOne(ctx, tx, scanInventoryItem, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ? AND user_id = ?`, id, userID)
		},
		func(item *core.InventoryItem) error {
			if err := patch.Apply(item); err != nil {
				return err
			}
			item.UpdatedAt = now
			return nil
		},
		func(tx *sql.Tx, item core.InventoryItem) error {
			var minStock sql.NullInt64
			if item.MinStockLevel != nil {
				minStock = sql.NullInt64{Int64: int64(*item.MinStockLevel), Valid: true}
			}
			_, err := tx.ExecContext(ctx, `UPDATE inventory_items SET name = ?, category = ?, description = ?, quantity = ?,
				min_stock_level = ?, unit_price = ?, cost_price = ?, image_url = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
				item.Name, item.Category, nullString(item.Description), item.Quantity, minStock,
				item.UnitPrice.String(), nullDecimal(item.CostPrice), nullString(item.ImageURL), formatTime(item.UpdatedAt),
				item.ID, item.UserID)
			return err
		})
}

func (r *SQLiteRepository) DeleteInventoryItem(ctx context.Context, id, userID int64) (bool, error) {
	return r.deleteOwned(ctx, "inventory_items", id, userID)
}

// Transactions

const transactionColumns = `id, user_id, type, category, description, amount, payment_method, related_invoice_id, related_expense_id, created_at`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                         core.Transaction
		method                    sql.NullString
		invoiceID, expenseID      sql.NullInt64
		txType, amount, createdAt string
	)
	if err := s.Scan(&t.ID, &t.UserID, &txType, &t.Category, &t.Description, &amount, &method,
		&invoiceID, &expenseID, &createdAt); err != nil {
		return t, err
	}
	t.Type = core.TransactionType(txType)
	t.PaymentMethod = methodPtr(method)
	t.RelatedInvoiceID = int64Ptr(invoiceID)
	t.RelatedExpenseID = int64Ptr(expenseID)
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return t, fmt.Errorf("transaction %d amount: %w", t.ID, err)
	}
	t.CreatedAt, err = parseTime(createdAt)
	return t, err
}

func (r *SQLiteRepository) appendTransaction(ctx context.Context, tx *sql.Tx, entry core.Transaction, now time.Time) (core.Transaction, error) {
	id, err := nextID(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	entry.ID = id
	entry.CreatedAt = now
	if _, err := tx.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Type), entry.Category, entry.Description, entry.Amount.String(),
		nullMethod(entry.PaymentMethod), nullInt64(entry.RelatedInvoiceID), nullInt64(entry.RelatedExpenseID),
		formatTime(entry.CreatedAt),
	); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return entry, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	out, err := getMany(ctx, r.db, scanTransaction,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	ledger.SortNewestFirst(out)
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, bool, error) {
	return getOne(ctx, r.db, scanTransaction,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, entry core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = r.appendTransaction(ctx, tx, ledger.Manual(entry), r.now())
		return err
	})
	return out, err
}

// Payment links

const paymentLinkColumns = `id, user_id, invoice_id, link_id, payment_method, amount, status, expires_at, created_at`

func scanPaymentLink(s rowScanner) (core.PaymentLink, error) {
	var (
		l                                 core.PaymentLink
		expiresAt                         sql.NullString
		method, amount, status, createdAt string
	)
	if err := s.Scan(&l.ID, &l.UserID, &l.InvoiceID, &l.LinkID, &method, &amount, &status, &expiresAt, &createdAt); err != nil {
		return l, err
	}
	l.PaymentMethod = core.PaymentMethod(method)
	l.Status = core.PaymentLinkStatus(status)
	var err error
	if l.Amount, err = decimal.NewFromString(amount); err != nil {
		return l, fmt.Errorf("payment link %s amount: %w", l.LinkID, err)
	}
	if l.ExpiresAt, err = parseNullTime(expiresAt); err != nil {
		return l, err
	}
	l.CreatedAt, err = parseTime(createdAt)
	return l, err
}

func (r *SQLiteRepository) ListPaymentLinks(ctx context.Context, userID int64) ([]core.PaymentLink, error) {
	out, err := getMany(ctx, r.db, scanPaymentLink,
		`SELECT `+paymentLinkColumns+` FROM payment_links WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payment links: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListPaymentLinksByInvoice(ctx context.Context, invoiceID, userID int64) ([]core.PaymentLink, error) {
	out, err := getMany(ctx, r.db, scanPaymentLink,
		`SELECT `+paymentLinkColumns+` FROM payment_links WHERE invoice_id = ? AND user_id = ? ORDER BY id`, invoiceID, userID)
	if err != nil {
		return nil, fmt.Errorf("list payment links for invoice %d: %w", invoiceID, err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetPaymentLink(ctx context.Context, linkID string, userID int64) (core.PaymentLink, bool, error) {
	return getOne(ctx, r.db, scanPaymentLink,
		`SELECT `+paymentLinkColumns+` FROM payment_links WHERE link_id = ? AND user_id = ?`, linkID, userID)
}

func (r *SQLiteRepository) CreatePaymentLink(ctx context.Context, link core.PaymentLink) (core.PaymentLink, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}
		now := r.now()
		link.ID = id
		link.LinkID = r.linkID(now)
		link.CreatedAt = now
		if link.Status == "" {
			link.Status = core.LinkActive
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO payment_links (`+paymentLinkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			link.ID, link.UserID, link.InvoiceID, link.LinkID, string(link.PaymentMethod), link.Amount.String(),
			string(link.Status), nullTime(link.ExpiresAt), formatTime(link.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert payment link: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.PaymentLink{}, err
	}
	return link, nil
}

func (r *SQLiteRepository) UpdatePaymentLink(ctx context.Context, linkID string, userID int64, patch core.PaymentLinkPatch) (core.PaymentLink, bool, error) {
	return updateOwned(ctx, r,
		func(tx *sql.Tx) (core.PaymentLink, bool, error) {
			return getOne(ctx, tx, scanPaymentLink, `SELECT `+paymentLinkColumns+` FROM payment_links WHERE link_id = ? AND user_id = ?`, linkID, userID)
		},
		func(l *core.PaymentLink) error { return patch.Apply(l) },
		func(tx *sql.Tx, l core.PaymentLink) error {
			_, err := tx.ExecContext(ctx, `UPDATE payment_links SET status = ?, expires_at = ? WHERE id = ? AND user_id = ?`,
				string(l.Status), nullTime(l.ExpiresAt), l.ID, l.UserID)
			return err
		})
}

// column helpers

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullMethod(m *core.PaymentMethod) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*m), Valid: true}
}

func methodPtr(s sql.NullString) *core.PaymentMethod {
	if !s.Valid {
		return nil
	}
	m := core.PaymentMethod(s.String)
	return &m
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
