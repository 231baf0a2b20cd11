package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/cards"
)

var addPlacements = map[string]cards.Action{
	"child":  cards.ActionNewBottom,
	"parent": cards.ActionNewTop,
	"left":   cards.ActionNewLeft,
	"right":  cards.ActionNewRight,
}

// addCommand clones a card above, below or beside another.
func (c *CLI) addCommand() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "add {child|parent|left|right} <card>",
		Short: "Add a card next to an existing one",
		Long: `Add clones the size of an existing card into a new, connected card.

  child   a card of the child type below, connected to the card
  parent  a card of the parent type above, connected to the card
  left    a card of the same type to the left, connected to the recorded parent
  right   a card of the same type to the right, connected to the recorded parent

The layout is repaired afterwards.`,
		ValidArgs: []string{"child", "parent", "left", "right"},
		Args:      cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := addPlacements[args[0]]
			if !ok {
				return fmt.Errorf("unknown placement %q: use child, parent, left or right", args[0])
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				res, err := s.editor.Do(cmd.Context(), args[1], action)
				if err != nil {
					return err
				}
				if text != "" {
					if err := s.editor.SetText(cmd.Context(), res.Created, text); err != nil {
						return err
					}
				}
				n, err := s.store.Node(cmd.Context(), res.Created)
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Added %s card %s", cards.TypeOf(n.Fields), StyleHighlight.Render(n.ID))
				printDetail(cmd.OutOrStdout(), "at (%g, %g), %gx%g", n.X, n.Y, n.Width, n.Height)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "note text of the new card")
	return cmd
}

// setCommand edits card fields.
func (c *CLI) setCommand() *cobra.Command {
	var cardType, status, text string

	cmd := &cobra.Command{
		Use:   "set <card>",
		Short: "Change the type, status or text of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("type") && !flags.Changed("status") && !flags.Changed("text") {
				return fmt.Errorf("nothing to set: pass --type, --status or --text")
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				ctx, id := cmd.Context(), args[0]
				if flags.Changed("type") {
					if err := s.editor.SetType(ctx, id, cardType); err != nil {
						return err
					}
				}
				if flags.Changed("status") {
					if err := s.editor.SetStatus(ctx, id, status); err != nil {
						return err
					}
				}
				if flags.Changed("text") {
					if err := s.editor.SetText(ctx, id, text); err != nil {
						return err
					}
				}
				n, err := s.store.Node(ctx, id)
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Updated %s", StyleHighlight.Render(id))
				printCardFields(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&cardType, "type", "", "card type, e.g. \"Opportunity\"")
	cmd.Flags().StringVar(&status, "status", "", "card status, or \"none\"")
	cmd.Flags().StringVar(&text, "text", "", "note text")
	return cmd
}

func printCardFields(w io.Writer, n *canvas.Node) {
	printKeyValue(w, "type", string(cards.TypeOf(n.Fields)))
	if s := n.Field(cards.FieldStatus); s != "" {
		printKeyValue(w, "status", s)
	}
	if t := n.Field(cards.FieldText); t != "" {
		printKeyValue(w, "text", t)
	}
}
