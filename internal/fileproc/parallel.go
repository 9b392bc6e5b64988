// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/quarrydev/quarry/internal/extract"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// MapFilesWithContext processes files in parallel with context cancellation
// support. Returns results collected before cancellation and any errors
// including context errors.
func MapFilesWithContext[T any](ctx context.Context, files []string, fn func(*extract.Extractor, string) (T, error)) ([]T, *ProcessingErrors) {
	return MapFilesWithContextAndProgress(ctx, files, fn, nil)
}

// MapFilesWithContextAndProgress processes files with context and progress callback.
func MapFilesWithContextAndProgress[T any](ctx context.Context, files []string, fn func(*extract.Extractor, string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	return MapFilesWithContextN(ctx, files, 0, fn, onProgress)
}

// MapFilesWithContextN is MapFilesWithContextAndProgress with an explicit
// worker count. maxWorkers <= 0 selects the default.
func MapFilesWithContextN[T any](ctx context.Context, files []string, maxWorkers int, fn func(*extract.Extractor, string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}
	results := make([]T, 0, len(files))
	errs := &ProcessingErrors{}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for _, path := range files {
		path := path
		p.Go(func(ctx context.Context) error {
			// Check for cancellation before processing
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				if onProgress != nil {
					onProgress()
				}
				return ctx.Err()
			default:
			}

			ext := extract.New()
			defer ext.Close()

			result, err := fn(ext, path)

			if err != nil {
				errs.Add(path, err)
				if onProgress != nil {
					onProgress()
				}
				return nil // Don't stop pool on individual file errors
			}

			if onProgress != nil {
				onProgress()
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait() // Context errors are already captured in errs

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
