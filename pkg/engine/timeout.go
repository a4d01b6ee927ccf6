package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when an evaluation runs past the engine timeout.
	ErrTimeout = errors.New("evaluation timed out")

	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer Evaluate call on the same engine started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	result *Result
	errors []EvalError
	err    error
}

func (e *Engine) currentGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// await blocks until the evaluation tagged gen delivers on ch, the engine
// timeout elapses, or ctx is done. A caller deadline surfaces as ctx.Err(),
// not as ErrTimeout. The evaluating goroutine is not interrupted; its late
// result lands in the buffered channel and is dropped.
func (e *Engine) await(ctx context.Context, ch <-chan evalResult, gen uint64) (*Result, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if gen != e.currentGeneration() {
			return nil, nil, ErrSuperseded
		}
		return res.result, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}
