// Command sussecho hosts a byte-echo service on a named Unix socket inside a
// base context directory. It is a minimal but complete service binary: it
// performs the parent liveness handshake when started on demand, echoes every
// connection until EOF, and can exit on its own after an idle period.
//
// The base context directory is taken from --base-dir or the SUSS_BASE_DIR
// environment variable rather than being wired through by the activating
// parent: services are meant to be discoverable by any process that derives
// the same namespace from its environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/informorphic-matti/suss/server"
	"github.com/informorphic-matti/suss/service"
)

func main() {
	app := &cli.App{
		Name:  "sussecho",
		Usage: "host a byte-echo service on a named unix socket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-dir",
				Usage:   "The base context directory holding the service sockets.",
				EnvVars: []string{"SUSS_BASE_DIR"},
				Value:   os.TempDir(),
			},
			&cli.StringFlag{
				Name:  "socket-name",
				Usage: "The socket filename within the base context directory.",
				Value: "echo.sock",
			},
			&cli.StringFlag{
				Name:  "liveness-path",
				Usage: "Ephemeral socket to ping once the echo socket is bound.",
			},
			&cli.BoolFlag{
				Name:  "die-on-parent-failure",
				Usage: "Exit if the liveness ping fails instead of continuing.",
			},
			&cli.DurationFlag{
				Name:  "idle-exit",
				Usage: "Exit after this long without a connection. Zero disables.",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging.",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cliCtx *cli.Context) error {
	logger, err := buildLogger(cliCtx.Bool("debug"))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()
	logSugared := logger.Sugar().Named("sussecho")

	svc := &service.CommandService[*net.UnixConn]{
		Name:            cliCtx.String("socket-name"),
		Command:         "sussecho",
		PreArgs:         []string{"--socket-name", cliCtx.String("socket-name")},
		LivenessPreArgs: []string{"--liveness-path"},
		Wrap:            service.RawConn,
	}

	srv, err := server.Listen[*net.UnixConn](svc, cliCtx.String("base-dir"), server.RawListener,
		server.WithLogger(logSugared))
	if err != nil {
		return fmt.Errorf("binding echo socket: %w", err)
	}
	logSugared.Infow("bound echo socket", "path", srv.SocketPath())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runOpts []server.RunOption
	if p := cliCtx.String("liveness-path"); p != "" {
		runOpts = append(runOpts, server.WithLivenessPath(p))
	}
	if cliCtx.Bool("die-on-parent-failure") {
		runOpts = append(runOpts, server.DieOnParentFailure())
	}

	idleExit := cliCtx.Duration("idle-exit")
	return srv.Run(ctx, func(ctx context.Context, l *net.UnixListener, _ service.Service[*net.UnixConn]) error {
		return echoLoop(ctx, l, idleExit, logSugared)
	}, runOpts...)
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// echoLoop accepts connections and echoes each one until EOF. The listener is
// closed when ctx is canceled; when no connection arrives for idleExit the
// loop returns on its own. The idle bound is an accept deadline rather than a
// background timer so it can never fire while a just-accepted connection is
// being handed off.
func echoLoop(ctx context.Context, l *net.UnixListener, idleExit time.Duration, log *zap.SugaredLogger) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	group := new(errgroup.Group)
	for {
		if idleExit > 0 {
			if err := l.SetDeadline(time.Now().Add(idleExit)); err != nil {
				return group.Wait()
			}
		}
		conn, err := l.AcceptUnix()
		if err != nil {
			waitErr := group.Wait()
			if errors.Is(err, net.ErrClosed) {
				return waitErr
			}
			if idleExit > 0 && errors.Is(err, os.ErrDeadlineExceeded) {
				log.Infow("idle timeout reached, shutting down", "idle", idleExit)
				return waitErr
			}
			return fmt.Errorf("accepting: %w", err)
		}
		log.Debugw("accepted connection")
		group.Go(func() error {
			defer conn.Close()
			if _, err := io.Copy(conn, conn); err != nil {
				log.Debugw("echo connection error", "error", err)
			}
			return nil
		})
	}
}
