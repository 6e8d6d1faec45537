// Package services holds the domain-facing ledger API. It validates and
// normalizes input, orchestrates the store, and fans out optional export
// and event publishing. The presentation layer talks only to this package.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/export"
	"ledger/internal/storage"
)

// exportLimit is the practical row ceiling for exports: large enough to
// cover any personal ledger in full.
const exportLimit = 1_000_000

// ErrSheetsNotConfigured is returned by ExportSheet when no spreadsheet
// destination was configured at startup.
var ErrSheetsNotConfigured = errors.New("sheets export not configured")

// SheetAppender pushes exported rows to a spreadsheet destination.
type SheetAppender interface {
	AppendTransactions(ctx context.Context, txs []core.Transaction) error
}

// LedgerService composes the store with optional AMQP events and sheet
// export. The amqp client and sheet appender may be nil; both are
// best-effort extras that never gate a ledger write.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	sheets     SheetAppender
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, sheets SheetAppender) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
		sheets:     sheets,
	}
}

// AddIncome records an income transaction and returns its id.
func (s *LedgerService) AddIncome(ctx context.Context, accountID int64, amount core.Money, category, description string) (int64, error) {
	return s.addTransaction(ctx, accountID, amount, core.Income, category, description)
}

// AddExpense records an expense transaction and returns its id.
func (s *LedgerService) AddExpense(ctx context.Context, accountID int64, amount core.Money, category, description string) (int64, error) {
	return s.addTransaction(ctx, accountID, amount, core.Expense, category, description)
}

func (s *LedgerService) addTransaction(ctx context.Context, accountID int64, amount core.Money, txType core.TransactionType, category, description string) (int64, error) {
	// The store checks again; rejecting here keeps bad input from ever
	// reaching it.
	if err := amount.Validate(); err != nil {
		return 0, err
	}
	category = core.NormalizeCategory(category)

	id, err := s.storage.CreateTransaction(ctx, accountID, amount, txType, category, strings.TrimSpace(description))
	if err != nil {
		return 0, fmt.Errorf("record transaction: %w", err)
	}

	s.publishTransactionCreated(ctx, id, accountID, txType)
	return id, nil
}

func (s *LedgerService) publishTransactionCreated(ctx context.Context, id, accountID int64, txType core.TransactionType) {
	if s.amqpClient == nil {
		return
	}
	msg := amqp.NewTransactionCreatedMessage(id, accountID, string(txType))
	if err := s.amqpClient.PublishTransactionCreated(ctx, msg); err != nil {
		// The transaction is durably recorded; a lost event is not fatal.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "account_id", accountID, "error", err)
	}
}

// CreateAccount creates a named account and returns its id.
func (s *LedgerService) CreateAccount(ctx context.Context, name string) (int64, error) {
	return s.storage.CreateAccount(ctx, strings.TrimSpace(name))
}

// ListAccounts returns all accounts, id ascending, balances populated.
func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx)
}

// Balance returns the derived balance for one account.
func (s *LedgerService) Balance(ctx context.Context, accountID int64) (core.Money, error) {
	return s.storage.AccountBalance(ctx, accountID)
}

// ListTransactions returns up to limit transactions, newest first,
// optionally bounded by an inclusive date range.
func (s *LedgerService) ListTransactions(ctx context.Context, accountID int64, limit int, dr core.DateRange) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, accountID, limit, dr)
}

// SpendingSummary returns the expense breakdown by category within the
// optional window, with the grand total precomputed.
func (s *LedgerService) SpendingSummary(ctx context.Context, accountID int64, dr core.DateRange) (core.SpendingSummary, error) {
	entries, err := s.storage.SpendingByCategory(ctx, accountID, dr)
	if err != nil {
		return core.SpendingSummary{}, fmt.Errorf("spending by category: %w", err)
	}
	return core.NewSpendingSummary(entries), nil
}

// ExportCSV writes the full filtered transaction set for the account to
// path. Write failures come back as errors for the caller to report; the
// session continues either way.
func (s *LedgerService) ExportCSV(ctx context.Context, accountID int64, path string, dr core.DateRange) error {
	txs, err := s.storage.ListTransactions(ctx, accountID, exportLimit, dr)
	if err != nil {
		return fmt.Errorf("collect transactions: %w", err)
	}

	if err := export.WriteCSV(path, txs); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	slog.InfoContext(ctx, "Exported transactions to CSV",
		"account_id", accountID, "path", path, "rows", len(txs))
	return nil
}

// ExportSheet appends the same filtered set to the configured
// spreadsheet.
func (s *LedgerService) ExportSheet(ctx context.Context, accountID int64, dr core.DateRange) error {
	if s.sheets == nil {
		return ErrSheetsNotConfigured
	}

	txs, err := s.storage.ListTransactions(ctx, accountID, exportLimit, dr)
	if err != nil {
		return fmt.Errorf("collect transactions: %w", err)
	}

	if err := s.sheets.AppendTransactions(ctx, txs); err != nil {
		return fmt.Errorf("export sheet: %w", err)
	}

	slog.InfoContext(ctx, "Exported transactions to spreadsheet",
		"account_id", accountID, "rows", len(txs))
	return nil
}

// Close releases the storage handle and the AMQP connection, aggregating
// any errors. Safe to call with nil components.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
