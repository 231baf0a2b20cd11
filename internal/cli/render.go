package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/render"
)

// renderCommand draws the canvas to DOT, SVG or PNG.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		opts    render.Options
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the canvas to SVG, PNG or DOT",
		Long: `Render draws every card at its canvas position with Graphviz. Run
'cardtree layout' first to arrange the trees.

Renders are cached by canvas contents; an unchanged canvas is not redrawn.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if opts.Format == "" {
				opts.Format = formatFromPath(output)
			}
			if !render.ValidFormats[opts.Format] {
				return fmt.Errorf("unsupported format %q: use svg, png or dot", opts.Format)
			}

			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			doc, err := canvas.Snapshot(ctx, s.store)
			if err != nil {
				return err
			}

			runner, err := c.newRenderer(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize renderer: %w", err)
			}
			defer runner.Cache.Close()

			spin := startSpinner(ctx, cmd.ErrOrStderr(), "Rendering canvas", nil)
			res, err := runner.Render(ctx, doc, opts)
			spin.finish()
			if err != nil {
				printFailure(cmd.ErrOrStderr(), "Render failed")
				return err
			}

			if output == "" || output == "-" {
				_, err := os.Stdout.Write(res.Data)
				return err
			}
			if err := os.WriteFile(output, res.Data, 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
			printSuccess(cmd.OutOrStdout(), "Rendered %s", strings.ToUpper(res.Format))
			printFile(cmd.OutOrStdout(), output)
			printStats(cmd.OutOrStdout(), doc.NodeCount(), doc.ConnectorCount(), res.CacheHit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.Format, "format", "", "svg, png or dot (default: from --output, else svg)")
	cmd.Flags().BoolVar(&opts.ShowHidden, "hidden", false, "draw collapsed cards dashed")
	cmd.Flags().BoolVar(&opts.IncludeFields, "fields", false, "show card type and status")
	cmd.Flags().Float64Var(&opts.Scale, "scale", render.DefaultScale, "canvas units to points")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

// formatFromPath guesses the format from an output file extension.
func formatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if render.ValidFormats[ext] {
		return ext
	}
	if ext == "gv" {
		return render.FormatDOT
	}
	return render.FormatSVG
}
