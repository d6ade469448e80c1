// Package storage implements the record store over SQLite. The
// repository is constructed explicitly and injected where needed; its
// lifecycle (open, migrate, close) belongs to main.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"plata/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = `
	t.id, t.title, t.amount, t.type, t.type_payment, t.category_id,
	t.date, t.receipt_image, t.created_at, c.name, c.color`

// ListTransactions returns transactions matching f, ordered by date
// descending then creation time descending. An empty filter returns
// everything.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id`

	var conditions []string
	var args []any

	if f.Category != "" {
		conditions = append(conditions, "c.name = ?")
		args = append(args, f.Category)
	}
	if f.Type != "" {
		conditions = append(conditions, "t.type = ?")
		args = append(args, string(f.Type))
	}
	if f.PaymentMethod != "" {
		conditions = append(conditions, "t.type_payment = ?")
		args = append(args, string(f.PaymentMethod))
	}
	if f.DateFrom != "" {
		conditions = append(conditions, "t.date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		conditions = append(conditions, "t.date <= ?")
		args = append(args, f.DateTo)
	}
	if f.Search != "" {
		conditions = append(conditions, "t.title LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.date DESC, t.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+transactionColumns+`
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.id = ?`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (title, amount, type, type_payment, category_id, date, receipt_image)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Amount, string(t.Type), string(t.PaymentMethod),
		nullableID(t.CategoryID), t.Date, nullableString(t.ReceiptImage))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"title", t.Title,
		"amount", t.Amount,
		"type", t.Type)

	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET title = ?, amount = ?, type = ?, type_payment = ?, category_id = ?, date = ?, receipt_image = ?
		WHERE id = ?`,
		t.Title, t.Amount, string(t.Type), string(t.PaymentMethod),
		nullableID(t.CategoryID), t.Date, nullableString(t.ReceiptImage), id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, color FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var color sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Color = color.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var color sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT id, name, color FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &color)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Color = color.String
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, color) VALUES (?, ?)", c.Name, c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetCategory(ctx, id)
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id int64, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, color = ? WHERE id = ?", c.Name, c.Color, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Category{}, ErrNotFound
	}
	return r.GetCategory(ctx, id)
}

// DeleteCategory removes a category. Referencing transactions are
// first detached (category_id set to NULL) so no transaction is ever
// cascade-deleted; both steps run in one database transaction.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE transactions SET category_id = NULL WHERE category_id = ?", id); err != nil {
		return fmt.Errorf("detach transactions: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}

	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}

// ListPurchases returns all bitcoin purchases, most recent first.
func (r *SQLiteRepository) ListPurchases(ctx context.Context) ([]core.BitcoinPurchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, purchase_time, invested_value, bitcoin_price, usd_cop_rate
		FROM bitcoin_purchases
		ORDER BY purchase_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bitcoin purchases: %w", err)
	}
	defer rows.Close()

	var out []core.BitcoinPurchase
	for rows.Next() {
		var p core.BitcoinPurchase
		if err := rows.Scan(&p.ID, &p.PurchaseTime, &p.InvestedValue, &p.BitcoinPrice, &p.USDCOPRate); err != nil {
			return nil, fmt.Errorf("scan bitcoin purchase: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bitcoin purchases: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetPurchase(ctx context.Context, id int64) (core.BitcoinPurchase, error) {
	var p core.BitcoinPurchase
	err := r.db.QueryRowContext(ctx, `
		SELECT id, purchase_time, invested_value, bitcoin_price, usd_cop_rate
		FROM bitcoin_purchases WHERE id = ?`, id).
		Scan(&p.ID, &p.PurchaseTime, &p.InvestedValue, &p.BitcoinPrice, &p.USDCOPRate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BitcoinPurchase{}, ErrNotFound
	}
	if err != nil {
		return core.BitcoinPurchase{}, fmt.Errorf("get bitcoin purchase: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) CreatePurchase(ctx context.Context, p core.BitcoinPurchase) (core.BitcoinPurchase, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO bitcoin_purchases (purchase_time, invested_value, bitcoin_price, usd_cop_rate)
		VALUES (?, ?, ?, ?)`,
		p.PurchaseTime, p.InvestedValue, p.BitcoinPrice, p.USDCOPRate)
	if err != nil {
		return core.BitcoinPurchase{}, fmt.Errorf("insert bitcoin purchase: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BitcoinPurchase{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Bitcoin purchase saved",
		"id", id,
		"invested_value", p.InvestedValue,
		"bitcoin_price", p.BitcoinPrice,
		"usd_cop_rate", p.USDCOPRate)

	return r.GetPurchase(ctx, id)
}

func (r *SQLiteRepository) DeletePurchase(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bitcoin_purchases WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete bitcoin purchase: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Bitcoin purchase deleted", "id", id)
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var t core.Transaction
	var categoryID sql.NullInt64
	var receipt, catName, catColor sql.NullString
	var createdAt sql.NullTime

	err := s.Scan(&t.ID, &t.Title, &t.Amount, &t.Type, &t.PaymentMethod,
		&categoryID, &t.Date, &receipt, &createdAt, &catName, &catColor)
	if err != nil {
		return core.Transaction{}, err
	}

	if categoryID.Valid {
		id := categoryID.Int64
		t.CategoryID = &id
	}
	t.ReceiptImage = receipt.String
	t.CreatedAt = createdAt.Time
	t.CategoryName = catName.String
	t.CategoryColor = catColor.String
	return t, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
