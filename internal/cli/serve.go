package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/creatornet/internal/server"
	"github.com/matzehuels/creatornet/pkg/observability"
	"github.com/matzehuels/creatornet/pkg/session"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts, renders and live sessions over HTTP",
		Long: `Serve the creator network over HTTP.

Static layouts and renders are served from /api/layout and /api/render. Live
sessions are created with POST /api/sessions; their frames stream as
server-sent events from /api/sessions/{id}/events while pointer and selection
changes are posted back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")

	return cmd
}

// runServe runs the server and the session janitor until ctx ends.
func (c *CLI) runServe(ctx context.Context, addr string) error {
	runner, err := c.newRunner(ctx, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	observability.SetSessionHooks(&logHooks{logger: c.Logger})

	store := session.NewMemoryStore(c.Logger)
	defer store.Close()

	srv := server.New(server.Config{
		Addr:     addr,
		Runner:   runner,
		Sessions: store,
		Defaults: c.baseOptions(),
		Session:  c.Config.SessionOptions(),
		Logger:   c.Logger,
	})

	printSuccess("Serving creator networks")
	printKeyValue("Source", runner.Source.Name())
	printKeyValue("URL", StyleLink.Render("http://"+addr))
	printNewline()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error {
		store.Janitor(ctx, c.Config.Server.CleanupInterval.Std())
		return nil
	})
	return g.Wait()
}
