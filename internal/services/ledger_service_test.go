package services

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// recordingAppender captures rows handed to the sheet exporter.
type recordingAppender struct {
	rows []core.Transaction
}

func (a *recordingAppender) AppendTransactions(_ context.Context, txs []core.Transaction) error {
	a.rows = append(a.rows, txs...)
	return nil
}

func newTestService(t *testing.T) (*LedgerService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	repo, err := storage.NewSQLiteRepositoryWithClock(filepath.Join(t.TempDir(), "ledger.db"), clock)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	svc := NewLedgerService(repo, nil, nil)
	t.Cleanup(func() { svc.Close() })
	return svc, clock
}

func TestLedgerScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "Primary Account")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	balance, err := svc.Balance(ctx, id)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cents != 0 {
		t.Fatalf("fresh balance = %s, want 0.00", balance)
	}

	if _, err := svc.AddIncome(ctx, id, core.Money{Cents: 100000}, "Salary", ""); err != nil {
		t.Fatalf("add income: %v", err)
	}
	balance, _ = svc.Balance(ctx, id)
	if balance.String() != "1000.00" {
		t.Fatalf("balance after income = %s, want 1000.00", balance)
	}

	if _, err := svc.AddExpense(ctx, id, core.Money{Cents: 25000}, "Rent", ""); err != nil {
		t.Fatalf("add expense: %v", err)
	}
	balance, _ = svc.Balance(ctx, id)
	if balance.String() != "750.00" {
		t.Fatalf("balance after expense = %s, want 750.00", balance)
	}

	summary, err := svc.SpendingSummary(ctx, id, core.DateRange{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Entries) != 1 || summary.Entries[0].Name != "Rent" || summary.Entries[0].Amount.Cents != 25000 {
		t.Fatalf("summary = %+v, want single Rent 250.00 entry", summary)
	}
	if summary.Total.Cents != 25000 {
		t.Fatalf("summary total = %d, want 25000", summary.Total.Cents)
	}
}

func TestAddTransactionNormalizesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, _ := svc.CreateAccount(ctx, "Primary")

	cases := []struct {
		category string
		want     string
	}{
		{"", "Other"},
		{"   ", "Other"},
		{"  Food  ", "Food"},
	}
	for _, tc := range cases {
		if _, err := svc.AddExpense(ctx, id, core.Money{Cents: 100}, tc.category, "  note  "); err != nil {
			t.Fatalf("add expense with category %q: %v", tc.category, err)
		}
		txs, err := svc.ListTransactions(ctx, id, 1, core.DateRange{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if txs[0].Category != tc.want {
			t.Fatalf("category %q normalized to %q, want %q", tc.category, txs[0].Category, tc.want)
		}
		if txs[0].Description != "note" {
			t.Fatalf("description = %q, want trimmed %q", txs[0].Description, "note")
		}
	}
}

func TestAddTransactionRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, _ := svc.CreateAccount(ctx, "Primary")

	if _, err := svc.AddIncome(ctx, id, core.Money{Cents: 0}, "Salary", ""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.AddExpense(ctx, id, core.Money{Cents: -5}, "Food", ""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.AddExpense(ctx, id+99, core.Money{Cents: 100}, "Food", ""); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestCreateAccountTrimsName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "  Savings  ")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	accounts, _ := svc.ListAccounts(ctx)
	if len(accounts) != 1 || accounts[0].ID != id || accounts[0].Name != "Savings" {
		t.Fatalf("accounts = %+v, want single trimmed Savings", accounts)
	}

	if _, err := svc.CreateAccount(ctx, "   "); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestExportCSV(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	id, _ := svc.CreateAccount(ctx, "Primary")

	clock.now = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	if _, err := svc.AddIncome(ctx, id, core.Money{Cents: 100000}, "Salary", "payday"); err != nil {
		t.Fatalf("add income: %v", err)
	}
	clock.now = time.Date(2024, 3, 12, 19, 30, 0, 0, time.UTC)
	if _, err := svc.AddExpense(ctx, id, core.Money{Cents: 4550}, "Food", "groceries"); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := svc.ExportCSV(ctx, id, path, core.DateRange{}); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	// Same ordering as the query: newest first.
	if records[1][1] != "2024-03-12 19:30" || records[1][3] != "45.50" {
		t.Fatalf("first data row = %v, want the newer expense", records[1])
	}
	if records[2][2] != "income" || records[2][3] != "1000.00" {
		t.Fatalf("second data row = %v, want the income", records[2])
	}
}

func TestExportCSVWithDateFilter(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	id, _ := svc.CreateAccount(ctx, "Primary")

	clock.now = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	svc.AddExpense(ctx, id, core.Money{Cents: 1000}, "Food", "")
	clock.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.AddExpense(ctx, id, core.Money{Cents: 2000}, "Food", "")

	dr, err := ResolveDateRange("2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("resolve range: %v", err)
	}

	path := filepath.Join(t.TempDir(), "march.csv")
	if err := svc.ExportCSV(ctx, id, path, dr); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	records, _ := csv.NewReader(f).ReadAll()
	if len(records) != 2 {
		t.Fatalf("filtered export rows = %d, want header + 1", len(records))
	}
}

func TestExportCSVBadPathFailsSoftly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, _ := svc.CreateAccount(ctx, "Primary")
	err := svc.ExportCSV(ctx, id, filepath.Join(t.TempDir(), "no", "such", "dir", "x.csv"), core.DateRange{})
	if err == nil {
		t.Fatalf("unwritable destination should surface an error")
	}
}

func TestExportSheet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	repo, err := storage.NewSQLiteRepositoryWithClock(filepath.Join(t.TempDir(), "ledger.db"), clock)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	appender := &recordingAppender{}
	svc := NewLedgerService(repo, nil, appender)
	t.Cleanup(func() { svc.Close() })
	ctx := context.Background()

	id, _ := svc.CreateAccount(ctx, "Primary")
	svc.AddExpense(ctx, id, core.Money{Cents: 1500}, "Transport", "")

	if err := svc.ExportSheet(ctx, id, core.DateRange{}); err != nil {
		t.Fatalf("export sheet: %v", err)
	}
	if len(appender.rows) != 1 || appender.rows[0].Category != "Transport" {
		t.Fatalf("appender received %+v, want the one expense", appender.rows)
	}
}

func TestExportSheetNotConfigured(t *testing.T) {
	svc, _ := newTestService(t)

	id, _ := svc.CreateAccount(context.Background(), "Primary")
	err := svc.ExportSheet(context.Background(), id, core.DateRange{})
	if !errors.Is(err, ErrSheetsNotConfigured) {
		t.Fatalf("expected ErrSheetsNotConfigured, got %v", err)
	}
}

func TestCloseWithNilComponents(t *testing.T) {
	svc := &LedgerService{}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close with nil components should not fail: %v", err)
	}
}
