// Package server hosts a service on its named Unix socket: it binds
// <baseDir>/<socket name>, optionally pings the parent's rendezvous socket to
// signal readiness, runs the caller's server body, and removes the socket
// file when hosting ends for any reason.
package server

import (
	"context"
	"fmt"
	"net"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/informorphic-matti/suss/internal/cleanpath"
	"github.com/informorphic-matti/suss/service"
)

const loggerName = "suss_server"

var defaultLogger *zap.SugaredLogger

func init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("error constructing default logger: %s", err))
	}
	defaultLogger = logger.Sugar().Named(loggerName)
}

// Server holds a service bound to its named socket, ready to run. It is
// consumed by Run, which guarantees the socket file is deleted afterward.
//
// L is whatever the integrator's listener wrapper produced: commonly the raw
// *net.UnixListener itself, or a richer abstraction such as an RPC-framed
// listener or an HTTP server built around it.
type Server[C any, L any] struct {
	svc        service.Service[C]
	listener   L
	raw        *net.UnixListener
	socketPath *cleanpath.Path
	log        *zap.SugaredLogger
}

type options struct {
	log *zap.SugaredLogger
}

type Option func(o *options)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		o.log = l.Named(loggerName)
	}
}

// Listen binds the service's named socket inside the base context directory
// and adapts the raw listener with wrap. Binding fails if the path is already
// in use, whether by a live listener or a stale socket file; no implicit
// unlinking is attempted. A wrap failure closes the listener and removes the
// socket file before returning.
func Listen[C any, L any](svc service.Service[C], baseDir string, wrap func(l *net.UnixListener) (L, error), opts ...Option) (*Server[C, L], error) {
	o := &options{log: defaultLogger}
	for _, opt := range opts {
		opt(o)
	}

	socketPath := filepath.Join(baseDir, svc.SocketName())
	raw, err := net.ListenUnix("unix", &net.UnixAddr{Name: socketPath, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", socketPath, err)
	}
	scoped := cleanpath.New(socketPath)

	wrapped, err := wrap(raw)
	if err != nil {
		raw.Close()
		scoped.Release()
		return nil, fmt.Errorf("wrapping listener for %s: %w", socketPath, err)
	}

	return &Server[C, L]{
		svc:        svc,
		listener:   wrapped,
		raw:        raw,
		socketPath: scoped,
		log:        o.log,
	}, nil
}

// RawListener identity-wraps the listener, for bodies that want to work with
// the bare socket all the way down.
func RawListener(l *net.UnixListener) (*net.UnixListener, error) {
	return l, nil
}

// SocketPath returns the path of the bound named socket.
func (s *Server[C, L]) SocketPath() string {
	return s.socketPath.String()
}

// Listener returns the wrapped listener.
func (s *Server[C, L]) Listener() L {
	return s.listener
}

type runOptions struct {
	livenessPath       string
	dieOnParentFailure bool
}

type RunOption func(o *runOptions)

// WithLivenessPath sets the parent's rendezvous socket path. Connecting to it
// tells the parent that the named socket is bound and ready, which happened
// when this Server was constructed. The connect is fire-and-forget: nothing
// is read or awaited beyond connect success.
func WithLivenessPath(path string) RunOption {
	return func(o *runOptions) {
		o.livenessPath = path
	}
}

// DieOnParentFailure makes Run abort when the liveness ping fails, refusing
// to run orphaned. Without it a ping failure is logged and hosting proceeds:
// the parent may simply have exited, which is not itself a failure for a
// persistent service.
func DieOnParentFailure() RunOption {
	return func(o *runOptions) {
		o.dieOnParentFailure = true
	}
}

// Run performs the liveness ping if a path was given, runs the server body,
// and returns the body's result. The named socket file is removed when Run
// returns, whatever the outcome; Run consumes the Server.
func (s *Server[C, L]) Run(ctx context.Context, body func(ctx context.Context, listener L, svc service.Service[C]) error, opts ...RunOption) error {
	o := &runOptions{}
	for _, opt := range opts {
		opt(o)
	}

	defer s.socketPath.Release()
	defer s.raw.Close()

	if o.livenessPath != "" {
		if err := s.pingParent(ctx, o.livenessPath); err != nil {
			if o.dieOnParentFailure {
				s.log.Errorw("could not connect to parent liveness socket",
					"path", o.livenessPath, "error", err)
				return fmt.Errorf("connecting to parent liveness socket %s: %w", o.livenessPath, err)
			}
			s.log.Warnw("could not connect to parent liveness socket, continuing anyway",
				"path", o.livenessPath, "error", err)
		}
	} else {
		s.log.Infow("no liveness path, assuming autonomous start", "service", s.svc.SocketName())
	}

	return body(ctx, s.listener, s.svc)
}

func (s *Server[C, L]) pingParent(ctx context.Context, livenessPath string) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", livenessPath)
	if err != nil {
		return err
	}
	s.log.Infow("pinged parent liveness socket", "path", livenessPath)
	return conn.Close()
}
