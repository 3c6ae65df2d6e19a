package resolver

import (
	"context"

	"github.com/maltedev/offer-resolver/internal/models"
	"golang.org/x/sync/errgroup"
)

const DefaultBatchWorkers = 4

// BatchResult pairs a query's record with its terminal error, in input order.
type BatchResult struct {
	Record *models.ProductRecord
	Err    error
}

// ResolveBatch resolves queries concurrently with at most workers in flight. A failing
// query never cancels the others.
func (r *Resolver) ResolveBatch(ctx context.Context, queries []models.ProductQuery, workers int) []BatchResult {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	results := make([]BatchResult, len(queries))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, q := range queries {
		g.Go(func() error {
			rec, err := r.Resolve(ctx, q)
			results[i] = BatchResult{Record: rec, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
