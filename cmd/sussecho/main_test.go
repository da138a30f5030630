package main

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func listen(t *testing.T) *net.UnixListener {
	t.Helper()
	path := filepath.Join(t.TempDir(), "echo.sock")
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	require.NoError(t, err)
	return l
}

func echoOnce(t *testing.T, l *net.UnixListener, payload string) {
	t.Helper()
	conn, err := net.Dial("unix", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(payload))
	require.NoError(t, err)
	buf := make([]byte, len(payload))
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, payload, string(buf))
}

func TestEchoLoopIdleExit(t *testing.T) {
	l := listen(t)
	const idleExit = 500 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		done <- echoLoop(context.Background(), l, idleExit, zap.NewNop().Sugar())
	}()

	// Keep connecting for longer than a single idle window. Each accepted
	// connection pushes the idle deadline out, so the loop must stay up the
	// whole time, including when a connection lands right as a previous
	// window is about to run out.
	for i := 0; i < 5; i++ {
		echoOnce(t, l, "still here")
		select {
		case err := <-done:
			t.Fatalf("echo loop exited while connections were arriving: %v", err)
		case <-time.After(idleExit / 2):
		}
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("echo loop did not exit after going idle")
	}
}

func TestEchoLoopContextCancel(t *testing.T) {
	l := listen(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- echoLoop(ctx, l, 0, zap.NewNop().Sugar())
	}()

	echoOnce(t, l, "before cancel")
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("echo loop did not exit on cancellation")
	}
}
