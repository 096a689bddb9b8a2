package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/payments-engine/internal/domain/account"
)

var outputHeader = []string{"client", "available", "held", "total", "locked"}

// Writer encodes account snapshots as CSV.
type Writer struct {
	csv *csv.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteAccounts writes the header followed by one row per snapshot, in the
// order given, and flushes.
func (w *Writer) WriteAccounts(snapshots []account.Snapshot) error {
	if err := w.csv.Write(outputHeader); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}

	for _, s := range snapshots {
		row := []string{
			strconv.FormatUint(uint64(s.Client), 10),
			s.Available.String(),
			s.Held.String(),
			s.Total.String(),
			strconv.FormatBool(s.Locked),
		}
		if err := w.csv.Write(row); err != nil {
			return fmt.Errorf("failed to write account %d: %w", s.Client, err)
		}
	}

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
