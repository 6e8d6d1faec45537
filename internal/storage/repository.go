// Package storage owns the persistent ledger state. The repository is
// the sole assigner of ids and timestamps and the sole enforcer of
// referential integrity between accounts and transactions.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

// DefaultAccountName is created by Initialize when the store is empty.
const DefaultAccountName = "Primary Account"

type SQLiteRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	return NewSQLiteRepositoryWithClock(dbPath, core.SystemClock{})
}

// NewSQLiteRepositoryWithClock opens the database with an explicit clock
// so tests can control timestamp assignment.
func NewSQLiteRepositoryWithClock(dbPath string, clock core.Clock) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
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

	return &SQLiteRepository{db: db, clock: clock}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Initialize idempotently seeds the default account. It only writes when
// the accounts table is empty, so calling it on every startup is safe and
// a test that wants an empty store simply skips it.
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	id, err := r.CreateAccount(ctx, DefaultAccountName)
	if err != nil {
		return fmt.Errorf("seed default account: %w", err)
	}

	slog.InfoContext(ctx, "Created default account", "id", id, "name", DefaultAccountName)
	return nil
}

// CreateAccount inserts a new account and returns its id.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, name string) (int64, error) {
	if err := (core.Account{Name: name}).Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (name, created_at) VALUES (?, ?)",
		name, core.FormatTimestamp(r.clock.Now()))
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account id: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", id, "name", name)
	return id, nil
}

// CreateTransaction validates, stamps and inserts a transaction, returning
// its id. The timestamp always comes from the repository clock, never from
// the caller. Nothing is written when validation fails.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, accountID int64, amount core.Money, txType core.TransactionType, category, description string) (int64, error) {
	tx := core.Transaction{
		AccountID:   accountID,
		Amount:      amount,
		Type:        txType,
		Category:    category,
		Description: description,
	}
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	exists, err := r.accountExists(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("account %d: %w", accountID, core.ErrAccountNotFound)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (account_id, timestamp, amount, type, category, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		accountID, core.FormatTimestamp(r.clock.Now()), amount.Cents, string(txType), category, description)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"account_id", accountID,
		"type", string(txType),
		"amount_cents", amount.Cents,
		"category", category)

	return id, nil
}

// ListTransactions returns up to limit transactions for the account,
// newest first. Ties on timestamp fall back to insertion order, also
// descending. Range bounds are inclusive.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, accountID int64, limit int, dr core.DateRange) ([]core.Transaction, error) {
	if limit <= 0 {
		return nil, core.ErrInvalidLimit
	}

	query := `SELECT id, account_id, timestamp, amount, type, category, description
		FROM transactions WHERE account_id = ?`
	args := []any{accountID}

	if !dr.Start.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, core.FormatTimestamp(dr.Start))
	}
	if !dr.End.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, core.FormatTimestamp(dr.End))
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

// AccountBalance recomputes the balance as income minus expense over the
// account's full transaction set. Unknown accounts are an error rather
// than a silent zero.
func (r *SQLiteRepository) AccountBalance(ctx context.Context, accountID int64) (core.Money, error) {
	exists, err := r.accountExists(ctx, accountID)
	if err != nil {
		return core.Money{}, err
	}
	if !exists {
		return core.Money{}, fmt.Errorf("account %d: %w", accountID, core.ErrAccountNotFound)
	}

	var cents int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0)
		 FROM transactions WHERE account_id = ?`,
		accountID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum balance: %w", err)
	}

	return core.Money{Cents: cents}, nil
}

// SpendingByCategory sums expense amounts per category inside the optional
// window, largest first. Categories without matching expenses are absent.
func (r *SQLiteRepository) SpendingByCategory(ctx context.Context, accountID int64, dr core.DateRange) ([]core.CategoryAmount, error) {
	query := `SELECT category, SUM(amount) AS total
		FROM transactions WHERE account_id = ? AND type = 'expense'`
	args := []any{accountID}

	if !dr.Start.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, core.FormatTimestamp(dr.Start))
	}
	if !dr.End.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, core.FormatTimestamp(dr.End))
	}

	query += " GROUP BY category ORDER BY total DESC, category ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query spending: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan spending row: %w", err)
		}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spending: %w", err)
	}

	return out, nil
}

// ListAccounts returns all accounts ordered by id with derived balances.
// Balances come from a single grouped join rather than one aggregate
// query per account.
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.created_at,
			COALESCE(SUM(CASE WHEN t.type = 'income' THEN t.amount ELSE -t.amount END), 0)
		 FROM accounts a
		 LEFT JOIN transactions t ON t.account_id = a.id
		 GROUP BY a.id, a.name, a.created_at
		 ORDER BY a.id`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var (
			a  core.Account
			ts string
		)
		if err := rows.Scan(&a.ID, &a.Name, &ts, &a.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.CreatedAt, err = core.ParseTimestamp(ts); err != nil {
			return nil, fmt.Errorf("parse account created_at: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func (r *SQLiteRepository) accountExists(ctx context.Context, accountID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)", accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account %d: %w", accountID, err)
	}
	return exists, nil
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		tx core.Transaction
		ts string
	)
	err := rows.Scan(&tx.ID, &tx.AccountID, &ts, &tx.Amount.Cents,
		(*string)(&tx.Type), &tx.Category, &tx.Description)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if tx.Timestamp, err = core.ParseTimestamp(ts); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction timestamp: %w", err)
	}
	return tx, nil
}
