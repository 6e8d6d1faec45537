// Package export renders filtered transaction sets to external
// destinations. It never touches the store; callers pass the rows in the
// order the query produced them.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"ledger/internal/core"
)

// Header is the fixed CSV column order.
var Header = []string{"id", "date", "type", "amount", "category", "description"}

// Row renders one transaction. The date uses the human display format,
// not the canonical storage form; amounts carry exactly two decimals.
func Row(tx core.Transaction) []string {
	return []string{
		strconv.FormatInt(tx.ID, 10),
		core.FormatDisplay(tx.Timestamp),
		string(tx.Type),
		tx.Amount.String(),
		tx.Category,
		tx.Description,
	}
}

// WriteCSV writes the transactions to path, header first, one row per
// transaction in the given order. A path that cannot be opened or written
// is reported as an error, never a panic.
func WriteCSV(path string, txs []core.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		if err := w.Write(Row(tx)); err != nil {
			f.Close()
			return fmt.Errorf("write row %d: %w", tx.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush export: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	return nil
}
