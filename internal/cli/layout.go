package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/layout"
)

// withSession opens the canvas, runs fn and saves the canvas if fn succeeds.
func (c *CLI) withSession(ctx context.Context, fn func(*session) error, opts ...layout.Option) error {
	s, err := c.openSession(ctx, opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s); err != nil {
		return err
	}
	if err := s.save(ctx); err != nil {
		return fmt.Errorf("save canvas: %w", err)
	}
	return nil
}

// layoutCommand creates the layout command, a full auto-layout of trees.
func (c *CLI) layoutCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "layout [card]",
		Short: "Auto-layout the tree below a card",
		Long: `Auto-layout recomputes the footprint of every subtree below the card and
snaps the subtree beneath it. The card itself, its siblings and ancestors
stay where they are, so run it on a root card.

With --all every root on the canvas is laid out.`,
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("pass a card id or --all")
			}
			counts := &layoutProgress{}
			return c.withSession(cmd.Context(), func(s *session) error {
				ids := args
				if all {
					doc, err := canvas.Snapshot(cmd.Context(), s.store)
					if err != nil {
						return err
					}
					ids = doc.Roots()
				}
				prog := newProgress(c.Logger)
				spin := startSpinner(cmd.Context(), cmd.ErrOrStderr(), "Laying out", counts.String)
				for _, id := range ids {
					if err := s.engine.AutoLayout(cmd.Context(), id); err != nil {
						spin.finish()
						return err
					}
				}
				spin.finish()
				prog.done(fmt.Sprintf("Laid out %d tree(s)", len(ids)))
				printSuccess(cmd.OutOrStdout(), "Layout complete")
				printDetail(cmd.OutOrStdout(), "%s", counts)
				return nil
			}, layout.WithHooks(counts))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "lay out every root card")
	return cmd
}

// cascadeCommand repairs the layout around a changed card.
func (c *CLI) cascadeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cascade <card>",
		Short: "Repair the layout after a card changed",
		Long: `Cascade repairs the layout after a card was resized or gained or lost
children. When the card's footprint is unchanged only its subtree is
re-snapped; otherwise its siblings and every ancestor are re-levelled too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts := &layoutProgress{}
			return c.withSession(cmd.Context(), func(s *session) error {
				spin := startSpinner(cmd.Context(), cmd.ErrOrStderr(), "Cascading", counts.String)
				err := s.engine.CascadeLayoutChange(cmd.Context(), args[0])
				spin.finish()
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Cascaded layout from %s", StyleHighlight.Render(args[0]))
				printDetail(cmd.OutOrStdout(), "%s", counts)
				return nil
			}, layout.WithHooks(counts))
		},
	}
}

// collapseCommand hides a card's subtree.
func (c *CLI) collapseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collapse <card>",
		Short: "Hide the subtree below a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				n, err := s.editor.Collapse(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Collapsed %s", StyleHighlight.Render(args[0]))
				printDetail(cmd.OutOrStdout(), "%d direct children hidden", n)
				return nil
			})
		},
	}
}

// expandCommand shows a card's children again.
func (c *CLI) expandCommand() *cobra.Command {
	var recursive, tip bool

	cmd := &cobra.Command{
		Use:   "expand <card>",
		Short: "Show the children of a collapsed card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if recursive && tip {
				return fmt.Errorf("--recursive and --tip are exclusive")
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				var (
					n   int
					err error
				)
				if tip {
					n, err = s.editor.ExpandTip(cmd.Context(), args[0])
				} else {
					n, err = s.editor.Expand(cmd.Context(), args[0], recursive)
				}
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Expanded %s", StyleHighlight.Render(args[0]))
				printDetail(cmd.OutOrStdout(), "%d direct children shown", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "expand the whole subtree")
	cmd.Flags().BoolVar(&tip, "tip", false, "expand from the tip under the card (one level)")
	return cmd
}
