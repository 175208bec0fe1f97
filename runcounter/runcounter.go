// Package runcounter persists the number of the current polling run.
package runcounter

import (
	"context"
	"fmt"
)

// Store loads and saves the run number. Load returns 0 when nothing has been
// saved yet.
type Store interface {
	Load(ctx context.Context) (uint64, error)
	Save(ctx context.Context, value uint64) error
}

// PersistenceError indicates the run number store is unusable.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Errorf("run counter %s: %w", e.Op, e.Err).Error()
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}
