// Package admin provides destructive maintenance operations on a ledger deployment.
package admin

import (
	"context"
	"fmt"
	"time"
)

// ResetTimeout is the maximum duration for a reset.
const ResetTimeout = 30 * time.Second

// Resettable is a ledger whose stored state can be dropped.
type Resettable interface {
	ResetCells(ctx context.Context) (int64, error)
	ResetLoads(ctx context.Context) (int64, error)
}

// ResetResult counts what a reset removed.
type ResetResult struct {
	Cells int64
	Loads int64
}

type resetFn func(ctx context.Context) (int64, error)

type resetStep struct {
	name  string
	fn    resetFn
	count *int64
}

// Reset removes every stored cell of the deployment and, if withHistory is
// set, its load history as well. This is a destructive operation; the next
// load rebuilds the table from scratch.
func Reset(ctx context.Context, l Resettable, withHistory bool) (ResetResult, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	var res ResetResult
	steps := []resetStep{{name: "cells", fn: l.ResetCells, count: &res.Cells}}
	if withHistory {
		steps = append(steps, resetStep{name: "loads", fn: l.ResetLoads, count: &res.Loads})
	}

	for _, s := range steps {
		n, err := s.fn(ctx)
		if err != nil {
			return res, fmt.Errorf("reset %s: %w", s.name, err)
		}
		*s.count = n
	}
	return res, nil
}
