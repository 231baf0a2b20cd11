package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cardtree/pkg/server"
)

// serveCommand exposes the canvas over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the canvas and layout operations over HTTP",
		Long: `Serve exposes the canvas as JSON, renders it on demand and accepts layout
and card actions:

  GET  /document, /validate, /render.svg, /nodes/{id}, /nodes/{id}/connections
  POST /nodes/{id}/autolayout, /cascade, /collapse, /expand?recursive=true
  POST /nodes/{id}/actions/{new-top|new-bottom|new-left|new-right|auto-layout|collapse|expand-all|expand-tip}

Mutations are applied one at a time. The server stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			runner, err := c.newRenderer(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			srv := server.New(s.editor, server.WithLogger(c.Logger), server.WithRenderer(runner))
			printInfo(cmd.OutOrStdout(), "Serving %s canvas on %s", c.cfg.Store.Backend, StyleHighlight.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}
