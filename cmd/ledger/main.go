package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/core"
	"ledger/internal/export/google"
	"ledger/internal/services"
)

// Suggested category lists shown when adding a transaction. Purely a
// prompt aid; any free-form category is accepted.
var defaultCategories = map[core.TransactionType][]string{
	core.Income:  {"Salary", "Bonus", "Investment", "Gift", "Other"},
	core.Expense: {"Food", "Rent", "Transport", "Entertainment", "Utilities", "Healthcare", "Other"},
}

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := cli.InitSQLite(ctx, logger, cfg.SQLiteDBPath)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP broker unavailable, event publishing disabled", "error", err)
		}
	}

	var sheets services.SheetAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.NewFromEnv(ctx)
		if err != nil {
			logger.Warn("Google Sheets unavailable, sheet export disabled", "error", err)
		} else {
			sheets = client
		}
	}

	svc := services.NewLedgerService(repo, amqpClient, sheets)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close ledger service", "error", err)
		}
	}()

	// The stdin pump stays detached: a read blocked on the terminal cannot
	// be cancelled, so it simply dies with the process. The menu itself
	// runs under the errgroup and observes the signal context, which keeps
	// the deferred Close on every exit path.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	m := &menu{
		svc:           svc,
		lines:         lines,
		out:           os.Stdout,
		limit:         cfg.ListLimit,
		current:       1,
		sheetsEnabled: sheets != nil,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Session ended with error", "error", err)
	}
	fmt.Println("\nGoodbye!")
}

type menu struct {
	svc           *services.LedgerService
	lines         <-chan string
	out           io.Writer
	limit         int
	current       int64
	sheetsEnabled bool
}

func (m *menu) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-m.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func (m *menu) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(m.out, label)
	return m.readLine(ctx)
}

// userError reports whether err is caused by input the user can correct,
// as opposed to an internal storage failure that should end the session.
func userError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrInvalidLimit,
		core.ErrInvalidDate,
		core.ErrEmptyName,
		core.ErrEmptyCategory,
		core.ErrAccountNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (m *menu) run(ctx context.Context) error {
	for {
		accounts, err := m.svc.ListAccounts(ctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}

		fmt.Fprintln(m.out, "\n========== PERSONAL FINANCE MANAGER ==========")
		for _, acc := range accounts {
			if acc.ID == m.current {
				fmt.Fprintf(m.out, "Current Account: %s | Balance: %s\n", acc.Name, acc.Balance)
			}
		}
		fmt.Fprintln(m.out, "\nMain Menu:")
		fmt.Fprintln(m.out, "1. Add Income")
		fmt.Fprintln(m.out, "2. Add Expense")
		fmt.Fprintln(m.out, "3. View Transactions")
		fmt.Fprintln(m.out, "4. View Spending Summary")
		fmt.Fprintln(m.out, "5. Manage Accounts")
		fmt.Fprintln(m.out, "6. Export Data")
		fmt.Fprintln(m.out, "7. Exit")

		choice, err := m.prompt(ctx, "\nEnter your choice (1-7): ")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			err = m.addTransaction(ctx, core.Income)
		case "2":
			err = m.addTransaction(ctx, core.Expense)
		case "3":
			err = m.viewTransactions(ctx)
		case "4":
			err = m.viewSpendingSummary(ctx)
		case "5":
			err = m.manageAccounts(ctx)
		case "6":
			err = m.exportData(ctx)
		case "7":
			return nil
		default:
			fmt.Fprintln(m.out, "\nInvalid choice. Please try again.")
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (m *menu) addTransaction(ctx context.Context, txType core.TransactionType) error {
	balance, err := m.svc.Balance(ctx, m.current)
	if err != nil && !userError(err) {
		return err
	}
	if err == nil {
		fmt.Fprintf(m.out, "\nCurrent Balance: %s\n", balance)
	}

	amountStr, err := m.prompt(ctx, "Amount: ")
	if err != nil {
		return err
	}
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		fmt.Fprintln(m.out, "\nInvalid amount. Please enter a positive number.")
		return nil
	}

	fmt.Fprintln(m.out, "\nCommon categories:")
	suggestions := defaultCategories[txType]
	for i, category := range suggestions {
		fmt.Fprintf(m.out, "%d. %s\n", i+1, category)
	}
	category, err := m.prompt(ctx, fmt.Sprintf("\nChoose a category (1-%d) or enter a new one: ", len(suggestions)))
	if err != nil {
		return err
	}
	if n, convErr := strconv.Atoi(category); convErr == nil && n >= 1 && n <= len(suggestions) {
		category = suggestions[n-1]
	}

	description, err := m.prompt(ctx, "Description (optional): ")
	if err != nil {
		return err
	}

	var id int64
	amount := core.Money{Cents: cents}
	if txType == core.Income {
		id, err = m.svc.AddIncome(ctx, m.current, amount, category, description)
	} else {
		id, err = m.svc.AddExpense(ctx, m.current, amount, category, description)
	}
	if err != nil {
		if userError(err) {
			fmt.Fprintf(m.out, "\nCould not add transaction: %v\n", err)
			return nil
		}
		return err
	}

	label := "Income"
	if txType == core.Expense {
		label = "Expense"
	}
	fmt.Fprintf(m.out, "\n%s of %s recorded successfully! (ID: %d)\n", label, amount, id)
	if balance, err := m.svc.Balance(ctx, m.current); err == nil {
		fmt.Fprintf(m.out, "New Balance: %s\n", balance)
	}
	return nil
}

func (m *menu) readDateRange(ctx context.Context) (core.DateRange, error) {
	fmt.Fprintln(m.out, "\nFilter by date range (leave blank for no filter)")
	start, err := m.prompt(ctx, "Start date (YYYY-MM-DD): ")
	if err != nil {
		return core.DateRange{}, err
	}
	end, err := m.prompt(ctx, "End date (YYYY-MM-DD): ")
	if err != nil {
		return core.DateRange{}, err
	}

	dr, err := services.ResolveDateRange(start, end)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid date format. Using no filter.")
		return core.DateRange{}, nil
	}
	return dr, nil
}

func (m *menu) viewTransactions(ctx context.Context) error {
	dr, err := m.readDateRange(ctx)
	if err != nil {
		return err
	}

	txs, err := m.svc.ListTransactions(ctx, m.current, m.limit, dr)
	if err != nil {
		if userError(err) {
			fmt.Fprintf(m.out, "\nCould not list transactions: %v\n", err)
			return nil
		}
		return err
	}

	fmt.Fprintln(m.out, "\n========== TRANSACTIONS ==========")
	m.printRangeFilter(dr)

	if len(txs) == 0 {
		fmt.Fprintln(m.out, "No transactions found.")
		return nil
	}
	for _, tx := range txs {
		fmt.Fprintf(m.out, "[%d] %s %s%s | %-15s | %s\n",
			tx.ID, core.FormatDisplay(tx.Timestamp), tx.Type.Sign(), tx.Amount, tx.Category, tx.Description)
	}
	return nil
}

func (m *menu) printRangeFilter(dr core.DateRange) {
	if dr.IsZero() {
		return
	}
	fmt.Fprint(m.out, "Date filter: ")
	if !dr.Start.IsZero() {
		fmt.Fprintf(m.out, "From %s ", core.FormatDisplay(dr.Start))
	}
	if !dr.End.IsZero() {
		fmt.Fprintf(m.out, "To %s", core.FormatDisplay(dr.End))
	}
	fmt.Fprintln(m.out)
}

func (m *menu) viewSpendingSummary(ctx context.Context) error {
	dr, err := m.readDateRange(ctx)
	if err != nil {
		return err
	}

	summary, err := m.svc.SpendingSummary(ctx, m.current, dr)
	if err != nil {
		if userError(err) {
			fmt.Fprintf(m.out, "\nCould not compute summary: %v\n", err)
			return nil
		}
		return err
	}

	fmt.Fprintln(m.out, "\n========== SPENDING SUMMARY ==========")
	m.printRangeFilter(dr)

	if summary.IsEmpty() {
		fmt.Fprintln(m.out, "No expenses recorded yet.")
		return nil
	}
	for _, entry := range summary.Entries {
		fmt.Fprintf(m.out, "%-15s: %10s (%.1f%%)\n", entry.Name, entry.Amount, summary.Percent(entry))
	}
	fmt.Fprintln(m.out, strings.Repeat("-", 30))
	fmt.Fprintf(m.out, "%-15s: %10s\n", "TOTAL", summary.Total)
	return nil
}

func (m *menu) manageAccounts(ctx context.Context) error {
	for {
		accounts, err := m.svc.ListAccounts(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintln(m.out, "\n========== MANAGE ACCOUNTS ==========")
		fmt.Fprintln(m.out, "Current accounts:")
		for _, acc := range accounts {
			marker := ""
			if acc.ID == m.current {
				marker = " *"
			}
			fmt.Fprintf(m.out, "[%d] %-20s | Balance: %s%s\n", acc.ID, acc.Name, acc.Balance, marker)
		}

		fmt.Fprintln(m.out, "\nOptions:")
		fmt.Fprintln(m.out, "1. Switch account")
		fmt.Fprintln(m.out, "2. Create new account")
		fmt.Fprintln(m.out, "3. Back to main menu")

		choice, err := m.prompt(ctx, "\nEnter your choice (1-3): ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			input, err := m.prompt(ctx, "Enter account ID to switch to: ")
			if err != nil {
				return err
			}
			id, convErr := strconv.ParseInt(input, 10, 64)
			found := false
			for _, acc := range accounts {
				if acc.ID == id {
					found = true
					break
				}
			}
			if convErr != nil || !found {
				fmt.Fprintln(m.out, "Invalid account ID.")
				continue
			}
			m.current = id
			fmt.Fprintf(m.out, "Switched to account ID %d\n", id)
		case "2":
			name, err := m.prompt(ctx, "Enter new account name: ")
			if err != nil {
				return err
			}
			id, createErr := m.svc.CreateAccount(ctx, name)
			if createErr != nil {
				if userError(createErr) {
					fmt.Fprintln(m.out, "Account name cannot be empty.")
					continue
				}
				return createErr
			}
			fmt.Fprintf(m.out, "Created new account: %s (ID: %d)\n", name, id)
		case "3":
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice.")
		}
	}
}

func (m *menu) exportData(ctx context.Context) error {
	fmt.Fprintln(m.out, "\n========== EXPORT DATA ==========")

	dr, err := m.readDateRange(ctx)
	if err != nil {
		return err
	}

	filename, err := m.prompt(ctx, "Enter filename for export (e.g., transactions.csv): ")
	if err != nil {
		return err
	}
	if filename == "" {
		fmt.Fprintln(m.out, "Filename is required.")
		return nil
	}
	if !strings.HasSuffix(filename, ".csv") {
		filename += ".csv"
	}

	if err := m.svc.ExportCSV(ctx, m.current, filename, dr); err != nil {
		fmt.Fprintf(m.out, "Export failed: %v\n", err)
		return nil
	}
	abs, _ := filepath.Abs(filename)
	fmt.Fprintf(m.out, "Data successfully exported to %s\n", abs)

	if m.sheetsEnabled {
		answer, err := m.prompt(ctx, "Also append to Google Sheets? (y/N): ")
		if err != nil {
			return err
		}
		if strings.EqualFold(answer, "y") {
			if err := m.svc.ExportSheet(ctx, m.current, dr); err != nil {
				fmt.Fprintf(m.out, "Sheet export failed: %v\n", err)
				return nil
			}
			fmt.Fprintln(m.out, "Rows appended to spreadsheet.")
		}
	}
	return nil
}
