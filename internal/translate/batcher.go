package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

// one API request worth of items
type batchFunc func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)

// completeFunc sends a single prompt and returns the model's text reply.
type completeFunc func(ctx context.Context, prompt string) (string, error)

// promptBatches adapts a chat completion call into a batchFunc: the batch is
// rendered with BuildPrompt and the reply must cover every requested index.
func promptBatches(provider string, complete completeFunc, opts Options) batchFunc {
	return func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error) {
		reply, err := complete(ctx, BuildPrompt(opts, items))
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", provider, err)
		}
		return parseResponseText(provider, reply, items)
	}
}

// batcher splits items into requests and fans them out to workers. Provider
// translators embed it and supply the single-request call.
type batcher struct {
	translateBatch batchFunc
	size           int
}

func newBatcher(fn batchFunc, size int) batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return batcher{translateBatch: fn, size: size}
}

func (b batcher) batches(items []TranslationItem) [][]TranslationItem {
	var batches [][]TranslationItem
	for i := 0; i < len(items); i += b.size {
		end := i + b.size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// Translate sends batches one after another.
func (b batcher) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	var allResults []TranslationResult
	for i, batch := range b.batches(items) {
		results, err := b.translateBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", i, err)
		}
		allResults = append(allResults, results...)
	}

	sortResults(allResults)
	return allResults, nil
}

// Workers (up to concurrency) pull batches from a shared queue. The first
// failure cancels the rest.
func (b batcher) TranslateWithConcurrency(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	batches := b.batches(items)
	if len(batches) == 1 {
		return b.Translate(ctx, items)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Go(func() {
			for batchIdx := range workChan {
				if ctx.Err() != nil {
					return
				}
				results, err := b.translateBatch(ctx, batches[batchIdx])
				if err != nil {
					cancel()
				}
				resultChan <- batchResult{
					Index:   batchIdx,
					Results: results,
					Error:   err,
				}
			}
		})
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var (
		allResults []TranslationResult
		firstErr   error
		completed  int
	)
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", result.Index, result.Error)
			}
			continue
		}
		completed++
		allResults = append(allResults, result.Results...)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if completed != len(batches) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("only %d of %d batches completed", completed, len(batches))
	}

	sortResults(allResults)
	return allResults, nil
}

func sortResults(results []TranslationResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
}
