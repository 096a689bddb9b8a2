// Package csvio reads transaction rows from and writes account snapshots to
// comma-separated text.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/payments-engine/internal/domain/amount"
	"github.com/payments-engine/internal/domain/shared"
)

const (
	ColumnType   = "type"
	ColumnClient = "client"
	ColumnTx     = "tx"
	ColumnAmount = "amount"
)

// Row-level parse errors, wrapped in a *RowError.
var (
	// ErrMissingColumn means a required field is absent or empty.
	ErrMissingColumn = errors.New("missing column")
	// ErrInvalidClientID means the client field is not an unsigned 16-bit integer.
	ErrInvalidClientID = errors.New("invalid client id")
	// ErrInvalidTransactionID means the tx field is not an unsigned 32-bit integer.
	ErrInvalidTransactionID = errors.New("invalid transaction id")
)

// RowError describes an input row that could not be turned into a record.
type RowError struct {
	Line int    // 1-based line number in the input
	Raw  string // Row text as read, fields re-joined with commas
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Reader decodes transaction records from CSV input with a header line.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	err     error
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	// Dispute-type rows may omit the trailing amount column
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	return &Reader{csv: cr}
}

// Records returns a single-pass sequence over the input rows. Each element is
// either a parsed record or a *RowError for a malformed row. Iteration stops
// early on an I/O failure, which is then reported by Err.
func (r *Reader) Records() iter.Seq2[shared.TransactionRecord, error] {
	return func(yield func(shared.TransactionRecord, error) bool) {
		header, err := r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				r.err = fmt.Errorf("failed to read input header: %w", err)
				return
			}
			// Unusable header: every following row reports a missing column.
		}
		r.columns = indexColumns(header)

		for {
			fields, err := r.csv.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var parseErr *csv.ParseError
				if !errors.As(err, &parseErr) {
					r.err = fmt.Errorf("failed to read input: %w", err)
					return
				}
				if !yield(shared.TransactionRecord{}, &RowError{Line: parseErr.StartLine, Raw: strings.Join(fields, ","), Err: err}) {
					return
				}
				continue
			}

			line, _ := r.csv.FieldPos(0)
			record, err := r.parseRow(fields)
			if err != nil {
				if !yield(shared.TransactionRecord{}, &RowError{Line: line, Raw: strings.Join(fields, ","), Err: err}) {
					return
				}
				continue
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// Err returns the I/O error that ended iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	return columns
}

// field returns the trimmed value of a named column and whether it exists.
func (r *Reader) field(fields []string, column string) (string, bool) {
	i, ok := r.columns[column]
	if !ok || i >= len(fields) {
		return "", false
	}
	return strings.TrimSpace(fields[i]), true
}

func (r *Reader) parseRow(fields []string) (shared.TransactionRecord, error) {
	var record shared.TransactionRecord

	rawKind, ok := r.field(fields, ColumnType)
	if !ok {
		return record, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnType)
	}
	kind, err := shared.ParseTransactionKind(rawKind)
	if err != nil {
		return record, err
	}

	rawClient, ok := r.field(fields, ColumnClient)
	if !ok {
		return record, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnClient)
	}
	client, err := strconv.ParseUint(rawClient, 10, 16)
	if err != nil {
		return record, fmt.Errorf("%w: %q", ErrInvalidClientID, rawClient)
	}

	rawTx, ok := r.field(fields, ColumnTx)
	if !ok {
		return record, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnTx)
	}
	tx, err := strconv.ParseUint(rawTx, 10, 32)
	if err != nil {
		return record, fmt.Errorf("%w: %q", ErrInvalidTransactionID, rawTx)
	}

	record.Kind = kind
	record.Client = uint16(client)
	record.Tx = uint32(tx)

	// Dispute-type rows may leave the amount out, but a value that is present
	// must still be well formed.
	rawAmount, ok := r.field(fields, ColumnAmount)
	if !ok || rawAmount == "" {
		if kind.CarriesAmount() {
			return shared.TransactionRecord{}, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnAmount)
		}
		return record, nil
	}
	value, err := amount.Parse(rawAmount)
	if err != nil {
		return shared.TransactionRecord{}, err
	}
	if kind.CarriesAmount() {
		record.Amount = value
	}

	return record, nil
}
