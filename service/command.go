package service

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
)

// CommandService is a Service started by executing a command. The command
// line is built from ordered token lists: the executor prefix, the command
// itself, PreArgs, then (only when a liveness path was requested)
// LivenessPreArgs, the liveness path, and LivenessPostArgs, and finally
// PostArgs.
//
// The zero value is not usable: Name, Command, and Wrap must be set.
type CommandService[Conn any] struct {
	// Name is the socket filename within the base context directory.
	Name string

	// Command is the executable to run, resolved against PATH like
	// exec.Command unless an executor prefix displaces it.
	Command string

	PreArgs          []string
	LivenessPreArgs  []string
	LivenessPostArgs []string
	PostArgs         []string

	// Env entries are appended to the parent process environment.
	Env []string

	// Dir is the working directory for the service process. Empty means the
	// caller's working directory.
	Dir string

	// Wrap adapts the bare Unix stream into the typed client connection.
	Wrap func(conn *net.UnixConn) (Conn, error)

	// Hook, when set, runs as the post-liveness hook. When nil the child
	// process is left untracked.
	Hook func(ctx context.Context, cmd *exec.Cmd) error
}

func (s *CommandService[Conn]) SocketName() string {
	return s.Name
}

func (s *CommandService[Conn]) WrapConnection(conn *net.UnixConn) (Conn, error) {
	return s.Wrap(conn)
}

func (s *CommandService[Conn]) Start(req StartRequest) (*exec.Cmd, error) {
	argv := s.argv(req.ExecutorPrefix, req.LivenessPath)
	cmd := exec.Command(argv[0], argv[1:]...)
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	cmd.Dir = s.Dir
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %q: %w", argv[0], err)
	}
	return cmd, nil
}

func (s *CommandService[Conn]) AfterLiveness(ctx context.Context, cmd *exec.Cmd) error {
	if s.Hook == nil {
		return nil
	}
	return s.Hook(ctx, cmd)
}

// argv assembles the full command line. The executor prefix comes first, so
// when present its first token is the program that actually runs.
func (s *CommandService[Conn]) argv(executorPrefix []string, livenessPath string) []string {
	argv := make([]string, 0, len(executorPrefix)+len(s.PreArgs)+len(s.PostArgs)+8)
	argv = append(argv, executorPrefix...)
	argv = append(argv, s.Command)
	argv = append(argv, s.PreArgs...)
	if livenessPath != "" {
		argv = append(argv, s.LivenessPreArgs...)
		argv = append(argv, livenessPath)
		argv = append(argv, s.LivenessPostArgs...)
	}
	argv = append(argv, s.PostArgs...)
	return argv
}
