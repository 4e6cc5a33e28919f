// Package runner drives one translation run to completion: it hands
// validated settings to the engine's streaming entry point, consumes
// the resulting event sequence strictly in emission order, forwards
// progress to an optional observer, and aggregates the terminal
// result or a typed failure.
package runner

import (
	"context"

	"github.com/boyingliu01/pdf-translation/internal/engine"
	"github.com/boyingliu01/pdf-translation/pkg/file"
	"github.com/boyingliu01/pdf-translation/pkg/log"
)

// Observer receives progress and non-fatal error events, in emission
// order, never concurrently with itself. Observability only: it must
// not be relied on for correctness.
type Observer func(engine.Event)

// Runner is the job controller. Safe for concurrent use; each Run is
// an independent task with no shared mutable state.
type Runner struct {
	engine engine.Engine
}

func New(e engine.Engine) *Runner {
	return &Runner{engine: e}
}

// Run executes one translation run to completion and blocks until the
// stream terminates. It returns the result captured from the finish
// event, or a *RunError classifying the failure:
//
//   - ErrInputNotFound when the input document does not exist
//   - ErrInvalidConfig when settings fail validation
//   - ErrTransport when the stream itself fails
//   - ErrIncompleteRun when the stream ends without a finish event
//   - ErrCancelled when ctx is done before the run finishes
//   - ErrSchema when the finish payload has an unrecognized shape
func (r *Runner) Run(ctx context.Context, settings engine.Settings, obs Observer) (*engine.Result, error) {
	if !file.IsRegular(settings.InputFile) {
		return nil, NewError(ErrInputNotFound, "input document does not exist").
			WithContext("input", settings.InputFile)
	}
	if err := settings.Validate(); err != nil {
		return nil, WrapError(err, ErrInvalidConfig, "invalid run settings")
	}

	log.Info("Starting translation: %s (%s -> %s)",
		settings.InputFile, settings.LangIn, settings.LangOut)

	stream, err := r.engine.TranslateStream(ctx, settings)
	if err != nil {
		return nil, WrapError(err, ErrTransport, "failed to open event stream")
	}
	defer stream.Close()

	return r.consume(ctx, stream, obs)
}

// consume iterates the event sequence one event at a time, dispatching
// by kind. Events arriving after finish are a protocol violation and
// are logged but otherwise ignored.
func (r *Runner) consume(ctx context.Context, stream *engine.Stream, obs Observer) (*engine.Result, error) {
	var result *engine.Result

	for {
		select {
		case <-ctx.Done():
			return nil, WrapError(ctx.Err(), ErrCancelled, "run cancelled by caller")

		case ev, ok := <-stream.Events():
			if !ok {
				if err := stream.Err(); err != nil {
					return nil, WrapError(err, ErrTransport, "event stream failed")
				}
				if result == nil {
					return nil, NewError(ErrIncompleteRun, "stream ended without a finish event")
				}
				return result, nil
			}

			// Empty placeholder events are skipped without side effects.
			if ev.Type == "" {
				continue
			}

			if result != nil {
				log.Warn("Protocol violation: %s event after finish, ignoring", ev.Type)
				continue
			}

			switch ev.Type {
			case engine.EventProgress:
				log.Info("[%s] progress: %.1f%% | overall: %.1f%%",
					ev.Stage, ev.StageProgress, ev.OverallProgress)
				if obs != nil {
					obs(ev)
				}

			case engine.EventError:
				// Non-fatal: a single page or chunk failed while the
				// rest of the run proceeds.
				log.Error("Chunk error [%s]: %s", ev.ErrorType, ev.Message)
				if obs != nil {
					obs(ev)
				}

			case engine.EventFinish:
				decoded, err := engine.DecodeResult(ev.Result)
				if err != nil {
					return nil, WrapError(err, ErrSchema, "finish payload rejected")
				}
				result = decoded
				log.Info("Translation finished: %s", result)

			default:
				log.Debug("Ignoring unknown event type %q", ev.Type)
			}
		}
	}
}

// Handle tracks an asynchronously started run.
type Handle struct {
	done   chan struct{}
	result *engine.Result
	err    error
}

// Go starts the run on its own goroutine and returns immediately. The
// returned handle exposes the identical result/failure contract as
// Run.
func (r *Runner) Go(ctx context.Context, settings engine.Settings, obs Observer) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.result, h.err = r.Run(ctx, settings, obs)
	}()
	return h
}

// Done is closed once the run has terminated.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run terminates and returns its outcome.
func (h *Handle) Wait() (*engine.Result, error) {
	<-h.done
	return h.result, h.err
}
