package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// engineRunner is what StartEngine drives; *realtime.Engine satisfies it.
type engineRunner interface {
	Run(ctx context.Context) error
}

// Runner tracks the background engine goroutine.
type Runner struct {
	done chan struct{}
	err  error
}

// StartEngine launches the engine's scheduler in a background goroutine and
// returns immediately. The engine stops when ctx is cancelled; Wait blocks
// until it has flushed its cache and closed its buses.
func StartEngine(ctx context.Context, engine engineRunner, logger zerolog.Logger) *Runner {
	r := &Runner{done: make(chan struct{})}
	go func() {
		defer close(r.done)
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("engine panicked: %v", p)
				logger.Error().Interface("panic", p).Msg("engine stopped")
			}
		}()
		if err := engine.Run(ctx); err != nil {
			r.err = err
			logger.Error().Err(err).Msg("engine stopped")
		}
	}()
	return r
}

// Done is closed once the engine has returned.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the engine returns and reports its error.
func (r *Runner) Wait() error {
	<-r.done
	return r.err
}
