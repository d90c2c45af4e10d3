// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package replace

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ErrNoAudio is returned by PairRequests when no audio source is given.
var ErrNoAudio = errors.New("no audio sources")

// BatchResult is the outcome of one batch task, in request order.
type BatchResult struct {
	Err     error
	Result  *Result
	Request AudioRequest
}

// RunBatch runs independent audio replacements with at most limit tasks at once.
// A failed task does not cancel the others; per-task errors are returned in results.
// Tasks targeting the same archive run one after another.
func RunBatch(ctx context.Context, o *Orchestrator, reqs []AudioRequest, limit int) []BatchResult {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 1
	}

	results := make([]BatchResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, req := range reqs {
		results[i].Request = req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			res, err := o.ReplaceAudio(ctx, req)
			results[i].Result = res
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		}
	}
	o.opts.Logger.Info("batch finished",
		slog.Int("tasks", len(results)),
		slog.Int("failed", failed))

	return results
}

// BatchErr joins every task error of results, or returns nil.
func BatchErr(results []BatchResult) error {
	errs := make([]error, 0, len(results))
	for i := range results {
		if results[i].Err != nil {
			errs = append(errs, results[i].Err)
		}
	}

	return errors.Join(errs...)
}
