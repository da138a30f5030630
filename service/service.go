// Package service defines singleton background services addressed by a Unix
// socket inside a base context directory, and the client-side protocol for
// connecting to them, starting them on demand when they are not yet running.
//
// A service is a process reachable through a Unix-domain socket at
// <baseDir>/<socket name>. The base context directory acts as a runtime
// namespace: two collections of services using different base directories
// never interact, so a collection can for example be instantiated once per
// user by deriving the directory from $HOME.
//
// Running-status is judged by connectability of the named socket: if dialing
// it fails, the service is started and the caller waits for a liveness signal
// on a one-shot rendezvous socket instead of polling. Stale socket files left
// behind by ungracefully killed processes are not detected or unlinked; they
// make the dial fail, which correctly triggers (re)activation, and the
// replacement process then fails to bind until the stale file is removed out
// of band.
package service

import (
	"context"
	"net"
	"os/exec"
)

// StartRequest carries the launch context for a service process.
type StartRequest struct {
	// ExecutorPrefix is prepended to the service's own command line. It can
	// substitute the real executable, add wrapper or instrumentation
	// commands, or satisfy environment-specific execution constraints. The
	// first token of the final command line must be a valid executable.
	ExecutorPrefix []string

	// LivenessPath, when non-empty, is the path of the one-shot rendezvous
	// socket the started process must connect to (and immediately close)
	// once its named socket is bound. Empty means no liveness handshake was
	// requested.
	LivenessPath string
}

// Service describes one startable singleton service. Conn is the typed client
// connection the integrator works with; it is produced from the bare Unix
// stream by WrapConnection.
//
// SocketName must be unique within a base context directory, or services will
// collide on the same socket file.
type Service[Conn any] interface {
	// SocketName returns the service's socket filename, relative to the base
	// context directory.
	SocketName() string

	// WrapConnection adapts a connected Unix stream into the typed client
	// connection. Wrapping must not alter stream contents.
	WrapConnection(conn *net.UnixConn) (Conn, error)

	// Start synchronously spawns the service process and returns without
	// waiting for it. The liveness handshake timeout is applied by the
	// caller, not here.
	Start(req StartRequest) (*exec.Cmd, error)
}

// PostLivenessHook is an optional capability of a Service. When implemented,
// AfterLiveness runs after the started process has proven liveness but before
// the real connection is made.
//
// Services that do not implement it leave the child process untracked, so the
// service persists independently of the activating client's lifetime. An
// integrator that wants lifecycle coupling can implement AfterLiveness to
// record the handle and wait on it from a separate goroutine; waiting inline
// would stall the connection attempt.
type PostLivenessHook interface {
	AfterLiveness(ctx context.Context, cmd *exec.Cmd) error
}

// RawConn is a WrapConnection implementation that hands back the bare Unix
// stream, for services whose protocol needs no framing.
func RawConn(conn *net.UnixConn) (*net.UnixConn, error) {
	return conn, nil
}
