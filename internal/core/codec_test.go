package core

import (
	"errors"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	var c TransactionCodec
	cases := []struct {
		date   Date
		amount float64
		desc   string
	}{
		{NewDate(2024, 3, 1), 1000, "Salary"},
		{NewDate(2024, 3, 15), -200, "Groceries"},
		{NewDate(2024, 3, 15), -12.345, "semi;colons;inside"},
		{NewDate(1999, 12, 31), 0, ""},
		{NewDate(2024, 2, 29), 0.1, "unicode åäö"},
	}
	for _, tc := range cases {
		r, err := NewTransaction(tc.date, tc.amount, tc.desc)
		if err != nil {
			t.Fatalf("NewTransaction: %v", err)
		}
		line := c.Encode(r)
		back, err := c.Decode(line)
		if err != nil {
			t.Fatalf("Decode(%q): %v", line, err)
		}
		if back != r {
			t.Fatalf("round trip mismatch: %#v != %#v", back, r)
		}
	}
}

func TestCodecEncode(t *testing.T) {
	r, _ := NewTransaction(NewDate(2024, 3, 1), 1000, "Salary")
	if got := (TransactionCodec{}).Encode(r); got != "2024-03-01;1000;Salary" {
		t.Fatalf("unexpected line %q", got)
	}
	r = r.WithHandle(KeyHandle(9))
	if got := (TransactionCodec{}).Encode(r); got != "2024-03-01;1000;Salary" {
		t.Fatalf("handles must not be persisted, got %q", got)
	}
}

func TestCodecDecodeErrors(t *testing.T) {
	bad := []string{
		"not-a-date;10;x",
		"2024-03-01;ten;x",
		"2024-03-01;10",
		"2024-03-01",
		"2024-03-01;NaN;x",
		"",
	}
	for _, line := range bad {
		_, err := (TransactionCodec{}).Decode(line)
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("Decode(%q) expected FormatError, got %v", line, err)
		}
		if fe.Line != line {
			t.Fatalf("FormatError.Line = %q, want %q", fe.Line, line)
		}
	}
}

func TestCodecDecodeLenient(t *testing.T) {
	r, err := (TransactionCodec{}).Decode("20240301; 12.5 ;Lunch")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Date() != NewDate(2024, 3, 1) || r.Amount() != 12.5 || r.Description() != "Lunch" {
		t.Fatalf("unexpected record %v", r)
	}
}
