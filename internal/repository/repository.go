// Package repository exposes one persistence facade over the flat-file and
// relational stores.
package repository

import (
	"context"
	"errors"

	"kassabok/internal/core"
)

// ErrUnsupported is returned by owner-agnostic writes on the relational
// backend, which never writes without an owner.
var ErrUnsupported = errors.New("operation not supported without an owner")

// Reader is the read half of Repository.
type Reader interface {
	FindAll(ctx context.Context) ([]core.Transaction, error)
	FindByDateRange(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
	Count(ctx context.Context) (int, error)
}

// Repository is the persistence facade shared by both backends.
type Repository interface {
	Reader

	// Save persists t and returns it carrying its new handle.
	Save(ctx context.Context, t core.Transaction) (core.Transaction, error)
	// Delete removes the record identified by h. It reports false when h
	// does not identify a record of this repository.
	Delete(ctx context.Context, h core.Handle) (bool, error)
	// SaveAll replaces the whole collection with ts.
	SaveAll(ctx context.Context, ts []core.Transaction) error
}

var (
	_ Repository = (*FileRepository)(nil)
	_ Repository = (*OwnerRepository)(nil)
	_ Repository = (*Scoped)(nil)
)

func inRange(ts []core.Transaction, from, to core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		if t.Date().IsZero() {
			continue
		}
		if t.Date().Between(from, to) {
			out = append(out, t)
		}
	}
	return out
}
