package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/hookrt/internal/errors"
	"github.com/vango-dev/hookrt/pkg/demos"
	"github.com/vango-dev/hookrt/pkg/devtools"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [demo...]",
		Short: "Mount demos and serve the devtools API",
		Long: `Mount the given demos (all of them by default) on one host and
serve the devtools API, the WebSocket commit stream and Prometheus
metrics until interrupted.

Examples:
  hookrt serve
  hookrt serve counter theme --addr :7070
  curl -X POST localhost:7070/api/instances/1/actions/increment`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Devtools.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			logger := newLogger(cfg, cmd.ErrOrStderr())
			return serve(ctx, out, newApp(cfg, logger), cfg.Devtools.Addr, args, func(addr net.Addr) {
				success(out, "devtools listening on http://%s", addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from configuration)")

	return cmd
}

// serve runs the host and the devtools server until ctx is done. ready is
// called once the listener is bound and every demo is mounted.
func serve(ctx context.Context, out io.Writer, a *app, addr string, names []string, ready func(net.Addr)) error {
	selected, err := selectDemos(names)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New(errors.CodeServe).
			WithDetail(fmt.Sprintf("Cannot listen on %s.", addr)).
			Wrap(err)
	}

	opts := []devtools.Option{devtools.WithLogger(a.logger)}
	if a.registry != nil {
		opts = append(opts, devtools.WithGatherer(a.registry))
	}
	dt := devtools.New(a.host, opts...)
	srv := &http.Server{
		Handler:           dt,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.host.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.Serve(ln); !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New(errors.CodeServe).Wrap(err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		dt.Close()
		a.host.Close()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	})

	for _, d := range selected {
		id, err := d.Mount(gctx, a.host)
		if err != nil {
			cancel()
			g.Wait()
			return fmt.Errorf("mount demo %s: %w", d.Name, err)
		}
		info(out, "%-8s instance %d  actions: %v", d.Name, id, d.Actions)
	}
	if ready != nil {
		ready(ln.Addr())
	}

	return g.Wait()
}

func selectDemos(names []string) ([]demos.Demo, error) {
	if len(names) == 0 {
		return demos.Catalog(), nil
	}
	selected := make([]demos.Demo, 0, len(names))
	for _, name := range names {
		d, err := lookupDemo(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, d)
	}
	return selected, nil
}
