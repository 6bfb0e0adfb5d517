package analyzer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds EvaluateBatch when no limit is given.
const DefaultBatchConcurrency = 4

// Request is one document in a batch.
type Request struct {
	ID       string
	Document string
	Keywords []string
	Config   *Config
}

// BatchResult holds either the evaluation or the error for one Request.
type BatchResult struct {
	ID         string
	Evaluation *Evaluation
	Err        error
}

// EvaluateBatch evaluates independent documents concurrently. Results are in
// request order and one failure does not affect the others. Requests not yet
// started when ctx is cancelled fail with ctx.Err().
func (a *Analyzer) EvaluateBatch(ctx context.Context, reqs []Request, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	results := make([]BatchResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, req := range reqs {
		results[i].ID = req.ID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Evaluation, results[i].Err = a.Evaluate(req.Document, req.Keywords, req.Config)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
