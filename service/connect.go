package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/informorphic-matti/suss/internal/cleanpath"
	"github.com/informorphic-matti/suss/internal/sockpath"
)

type connectOptions struct {
	executorPrefix []string
	log            *zap.SugaredLogger
	clk            clock.Clock
}

type ConnectOption func(o *connectOptions)

// WithExecutorPrefix prepends the given command tokens to the service's own
// launch command when the service has to be started.
func WithExecutorPrefix(prefix ...string) ConnectOption {
	return func(o *connectOptions) {
		o.executorPrefix = prefix
	}
}

func WithLogger(l *zap.SugaredLogger) ConnectOption {
	return func(o *connectOptions) {
		o.log = l.Named(loggerName)
	}
}

// WithClock substitutes the clock that bounds the liveness wait. Useful for
// testing timeout behavior without real delays.
func WithClock(c clock.Clock) ConnectOption {
	return func(o *connectOptions) {
		o.clk = c
	}
}

func buildConnectOptions(opts []ConnectOption) *connectOptions {
	o := &connectOptions{
		log: defaultLogger,
		clk: clock.New(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ConnectToRunning connects to an already running service. It never starts
// the service: discovery failure is returned as-is. To start the service on
// demand, see Connect.
func ConnectToRunning[C any](ctx context.Context, svc Service[C], baseDir string, opts ...ConnectOption) (C, error) {
	return connectToRunning(ctx, svc, baseDir, buildConnectOptions(opts))
}

// wrapFailure marks an error that occurred after the raw connect succeeded.
// The service is running in that case, so Connect must surface the error
// instead of treating it as discovery failure and activating.
type wrapFailure struct {
	err error
}

func (e *wrapFailure) Error() string { return e.err.Error() }
func (e *wrapFailure) Unwrap() error { return e.err }

func connectToRunning[C any](ctx context.Context, svc Service[C], baseDir string, o *connectOptions) (C, error) {
	var zero C
	socketPath := filepath.Join(baseDir, svc.SocketName())
	o.log.Infow("connecting to service", "socket", socketPath)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return zero, fmt.Errorf("dialing %s: %w", socketPath, err)
	}
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		return zero, &wrapFailure{fmt.Errorf("unexpected connection type %T for %s", conn, socketPath)}
	}
	wrapped, err := svc.WrapConnection(unixConn)
	if err != nil {
		unixConn.Close()
		return zero, &wrapFailure{fmt.Errorf("wrapping connection to %s: %w", socketPath, err)}
	}
	return wrapped, nil
}

// Connect connects to the service in the given base context directory,
// starting it when it is not already running.
//
// Activation spawns at most one process per call: a fresh rendezvous socket
// is bound, its path is handed to the service's Start, and the call waits up
// to livenessTimeout for the started process to connect to it as proof that
// the named socket is bound. The connection event itself is the signal; no
// data is exchanged. On timeout a *LivenessTimeoutError is returned and the
// spawned process is left running untracked.
//
// Concurrent Connect calls racing to activate the same named socket are not
// de-duplicated: both may spawn, exactly one child wins the named-socket
// bind, and the loser's child fails at bind time.
func Connect[C any](ctx context.Context, svc Service[C], baseDir string, livenessTimeout time.Duration, opts ...ConnectOption) (C, error) {
	o := buildConnectOptions(opts)
	var zero C

	conn, err := connectToRunning(ctx, svc, baseDir, o)
	if err == nil {
		return conn, nil
	}
	// A wrap failure means the raw connect succeeded: the service is live,
	// so starting another instance would be useless. Only dial failure is a
	// discovery failure.
	var wrapErr *wrapFailure
	if errors.As(err, &wrapErr) {
		return zero, err
	}
	o.log.Warnw("error connecting to existing service, attempting on-demand start",
		"service", svc.SocketName(), "error", err)

	ephemeralPath, err := sockpath.Ephemeral()
	if err != nil {
		return zero, err
	}
	scoped := cleanpath.New(ephemeralPath)
	defer scoped.Release()

	o.log.Infow("creating ephemeral liveness socket", "path", ephemeralPath)
	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: ephemeralPath, Net: "unix"})
	if err != nil {
		return zero, fmt.Errorf("binding ephemeral liveness socket %s: %w", ephemeralPath, err)
	}
	defer listener.Close()

	cmd, err := svc.Start(StartRequest{
		ExecutorPrefix: o.executorPrefix,
		LivenessPath:   ephemeralPath,
	})
	if err != nil {
		return zero, fmt.Errorf("starting service process: %w", err)
	}

	ping, err := awaitLiveness(ctx, listener, livenessTimeout, o.clk)
	if err != nil {
		return zero, err
	}
	// The connection event is the signal; nothing is read or written.
	ping.Close()
	listener.Close()
	scoped.Release()

	if hook, ok := svc.(PostLivenessHook); ok {
		if err := hook.AfterLiveness(ctx, cmd); err != nil {
			return zero, fmt.Errorf("post-liveness hook: %w", err)
		}
	}

	o.log.Infow("received liveness ping, reconnecting to service", "service", svc.SocketName())
	return connectToRunning(ctx, svc, baseDir, o)
}

// awaitLiveness accepts exactly one connection on the rendezvous listener,
// bounded by the timeout and by ctx. On timeout or cancellation the listener
// is closed so the accept goroutine exits before we return.
func awaitLiveness(ctx context.Context, l *net.UnixListener, timeout time.Duration, clk clock.Clock) (*net.UnixConn, error) {
	type acceptResult struct {
		conn *net.UnixConn
		err  error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		conn, err := l.AcceptUnix()
		accepted <- acceptResult{conn: conn, err: err}
	}()

	timer := clk.Timer(timeout)
	defer timer.Stop()

	select {
	case r := <-accepted:
		if r.err != nil {
			return nil, fmt.Errorf("accepting liveness connection: %w", r.err)
		}
		return r.conn, nil
	case <-timer.C:
		l.Close()
		if r := <-accepted; r.err == nil {
			r.conn.Close()
		}
		return nil, &LivenessTimeoutError{Timeout: timeout}
	case <-ctx.Done():
		l.Close()
		if r := <-accepted; r.err == nil {
			r.conn.Close()
		}
		return nil, ctx.Err()
	}
}
