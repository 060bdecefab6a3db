package cli

import (
	"context"
	"time"

	"github.com/five82/frontdesk/internal/app"
)

// session is a running engine with one subscriber, for commands that need
// the socket.
type session struct {
	rt      *app.Runtime
	cancel  context.CancelFunc
	runner  *app.Runner
	release func()
}

func openSession(ctx context.Context, flags *globalFlags) (*session, error) {
	rt, err := app.Open(flags.options())
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &session{rt: rt, cancel: cancel}
	s.runner = rt.Start(ctx)
	s.release = rt.Engine.Subscribe()
	return s, nil
}

// waitConnected blocks until the socket is up or timeout passes.
func (s *session) waitConnected(ctx context.Context, timeout time.Duration) bool {
	return s.waitFor(ctx, timeout, func() bool { return s.rt.Engine.State().IsConnected })
}

// waitSynced blocks until the first frame has been applied.
func (s *session) waitSynced(ctx context.Context, timeout time.Duration) bool {
	return s.waitFor(ctx, timeout, func() bool { return !s.rt.Engine.State().LastUpdate.IsZero() })
}

func (s *session) waitFor(ctx context.Context, timeout time.Duration, ok func() bool) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if ok() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return ok()
		case <-tick.C:
		}
	}
}

// close stops the engine, waits for its final persist and releases the
// runtime.
func (s *session) close() error {
	s.release()
	s.cancel()
	runErr := s.runner.Wait()
	if err := s.rt.Close(); err != nil {
		return err
	}
	return runErr
}
