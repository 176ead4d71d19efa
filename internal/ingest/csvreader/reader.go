// Package csvreader streams transaction records out of a delimited text log.
package csvreader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/ledger-replay/internal/interfaces"
	"github.com/sheikh-saqib/ledger-replay/internal/models"
)

// MaxScale is the largest number of fractional digits accepted in an amount.
const MaxScale = 4

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// Reader reads one record at a time. Rows may omit trailing columns.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	line    int
	empty   bool
}

// NewReader consumes the header row of r and returns a Reader positioned on the first record.
// An input without any row yields no records.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Reader{csv: cr, empty: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colType, colClient, colTx} {
		if _, ok := columns[required]; !ok {
			return nil, &models.ValidationError{Line: 1, Field: "header", Reason: fmt.Sprintf("missing %q column", required)}
		}
	}

	line, _ := cr.FieldPos(0)
	return &Reader{csv: cr, columns: columns, line: line}, nil
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Next() (models.Transaction, error) {
	if r.empty {
		return models.Transaction{}, io.EOF
	}
	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return models.Transaction{}, io.EOF
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return models.Transaction{}, &models.ValidationError{Line: perr.Line, Field: "row", Reason: perr.Err.Error()}
		}
		return models.Transaction{}, fmt.Errorf("read record: %w", err)
	}
	r.line, _ = r.csv.FieldPos(0)

	return r.parse(record)
}

func (r *Reader) parse(record []string) (models.Transaction, error) {
	tx := models.Transaction{Line: r.line}

	kind, err := models.ParseKind(r.field(record, colType))
	if err != nil {
		return tx, r.invalid(colType, err.Error())
	}
	tx.Kind = kind

	client, err := strconv.ParseUint(r.field(record, colClient), 10, 16)
	if err != nil {
		return tx, r.invalid(colClient, numError(err))
	}
	tx.Client = uint16(client)

	id, err := strconv.ParseUint(r.field(record, colTx), 10, 32)
	if err != nil {
		return tx, r.invalid(colTx, numError(err))
	}
	tx.ID = uint32(id)

	if raw := r.field(record, colAmount); raw != "" {
		amount, err := parseAmount(raw)
		if err != nil {
			return tx, r.invalid(colAmount, err.Error())
		}
		tx.Amount = decimal.NewNullDecimal(amount)
	}

	return tx, nil
}

// field returns the trimmed value of column name, or "" when the row is too short.
func (r *Reader) field(record []string, name string) string {
	idx, ok := r.columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (r *Reader) invalid(field, reason string) error {
	return &models.ValidationError{Line: r.line, Field: field, Reason: reason}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%q is not a decimal", raw)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%q is negative", raw)
	}
	if !amount.Equal(amount.Truncate(MaxScale)) {
		return decimal.Decimal{}, fmt.Errorf("%q has more than %d fractional digits", raw, MaxScale)
	}
	return amount, nil
}

func numError(err error) string {
	var nerr *strconv.NumError
	if errors.As(err, &nerr) {
		if errors.Is(nerr.Err, strconv.ErrRange) {
			return fmt.Sprintf("%q is out of range", nerr.Num)
		}
		return fmt.Sprintf("%q is not a non-negative integer", nerr.Num)
	}
	return err.Error()
}

var _ interfaces.TransactionSource = (*Reader)(nil)
