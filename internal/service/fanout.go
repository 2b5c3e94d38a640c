package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/escuela-portal-api/internal/models"
)

const defaultFanoutConcurrency = 16

// fanout attempts write once per item with at most limit writes in flight and returns
// after every write has settled. A failed write never cancels the others.
func fanout[T any](ctx context.Context, limit int, items []T, id func(T) string, write func(context.Context, T) error) models.WriteReport {
	if limit <= 0 {
		limit = defaultFanoutConcurrency
	}
	report := models.WriteReport{Expected: len(items)}

	var (
		mu   sync.Mutex
		errs error
	)
	var g errgroup.Group
	g.SetLimit(limit)
	for _, item := range items {
		item := item
		g.Go(func() error {
			err := write(ctx, item)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.FailedIDs = append(report.FailedIDs, id(item))
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", id(item), err))
				return nil
			}
			report.Written++
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.FailedIDs)
	report.Diagnostic = diagnostic(errs)
	return report
}

func studentID(s models.Student) string { return s.ID }
