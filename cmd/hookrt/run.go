package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/hookrt/internal/errors"
	"github.com/vango-dev/hookrt/pkg/demos"
	"github.com/vango-dev/hookrt/pkg/host"
)

// runOptions configures the run command.
type runOptions struct {
	actions []string
	wait    time.Duration
	json    bool
}

func runCmd(flags *globalFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <demo>",
		Short: "Mount a demo, trigger actions and print each output",
		Long: `Mount a demo on a fresh host, trigger the given actions in order
and print the committed output after the mount and after each action.

Examples:
  hookrt run counter -a increment -a increment
  hookrt run color -a generate -a rgb --json
  hookrt run clock --wait 3s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())
			return runDemo(cmd.Context(), cmd.OutOrStdout(), newApp(cfg, logger), args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.actions, "action", "a", nil, "Action to trigger (repeatable)")
	cmd.Flags().DurationVar(&opts.wait, "wait", 0, "Wait this long after the last action and print the output again")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print outputs as JSON lines")

	return cmd
}

// step is one printed output of the run command.
type step struct {
	Step   string `json:"step"`
	Output any    `json:"output"`
}

func runDemo(ctx context.Context, out io.Writer, a *app, name string, opts *runOptions) error {
	demo, err := lookupDemo(name)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.host.Run(gctx)
	})

	scriptErr := func() error {
		defer a.host.Close()
		return runScript(gctx, out, a.host, demo, opts)
	}()
	if err := g.Wait(); err != nil && scriptErr == nil {
		scriptErr = err
	}
	if scriptErr != nil {
		return scriptErr
	}
	// Failures reported asynchronously by the host fail the command too.
	return stderrors.Join(a.errs()...)
}

func runScript(ctx context.Context, out io.Writer, h *host.Host, demo demos.Demo, opts *runOptions) error {
	id, err := demo.Mount(ctx, h)
	if err != nil {
		return err
	}
	if err := printStep(ctx, out, h, id, "mount", opts.json); err != nil {
		return err
	}

	for _, action := range opts.actions {
		if err := h.Trigger(ctx, id, action); err != nil {
			if stderrors.Is(err, host.ErrUnknownAction) {
				return errors.New(errors.CodeUnknownAction).
					WithDetail(fmt.Sprintf("Demo %q has no action %q. Its actions are %v.", demo.Name, action, demo.Actions)).
					Wrap(err)
			}
			return err
		}
		if err := printStep(ctx, out, h, id, action, opts.json); err != nil {
			return err
		}
	}

	if opts.wait > 0 {
		select {
		case <-time.After(opts.wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		return printStep(ctx, out, h, id, "wait", opts.json)
	}
	return nil
}

func printStep(ctx context.Context, out io.Writer, h *host.Host, id uint64, name string, asJSON bool) error {
	output, err := h.Output(ctx, id)
	if err != nil {
		return err
	}
	if asJSON {
		return json.NewEncoder(out).Encode(step{Step: name, Output: output})
	}
	_, err = fmt.Fprintf(out, "[%s] %v\n", name, output)
	return err
}
