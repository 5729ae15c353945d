package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Delimiter separates the fields of a persisted line.
const Delimiter = ";"

// FormatError reports a persisted line that cannot be decoded.
type FormatError struct {
	Line string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed line %q: %v", e.Line, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// TransactionCodec converts a Transaction to and from one line of text:
// date;amount;description. The description is written last and unescaped,
// so it may itself contain the delimiter.
type TransactionCodec struct{}

// Encode renders t. Handles are not persisted.
func (TransactionCodec) Encode(t Transaction) string {
	return t.date.String() + Delimiter +
		strconv.FormatFloat(t.amount, 'f', -1, 64) + Delimiter +
		t.description
}

// Decode parses a line produced by Encode.
func (TransactionCodec) Decode(line string) (Transaction, error) {
	parts := strings.SplitN(line, Delimiter, 3)
	if len(parts) != 3 {
		return Transaction{}, &FormatError{Line: line, Err: fmt.Errorf("expected 3 fields, got %d", len(parts))}
	}
	date, err := ParseDate(parts[0])
	if err != nil {
		return Transaction{}, &FormatError{Line: line, Err: err}
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Transaction{}, &FormatError{Line: line, Err: fmt.Errorf("%w: %q", ErrInvalidAmount, parts[1])}
	}
	t, err := NewTransaction(date, amount, parts[2])
	if err != nil {
		return Transaction{}, &FormatError{Line: line, Err: err}
	}
	return t, nil
}
