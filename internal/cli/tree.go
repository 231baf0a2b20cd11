package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/cards"
	"github.com/matzehuels/cardtree/pkg/layout"
)

// treeRow is one card of an outline, in depth-first order.
type treeRow struct {
	Node   *canvas.Node
	Depth  int
	Prefix string // box-drawing guides
	Kids   int    // number of children, hidden ones included
}

// treeRows flattens the canvas into an outline. Children are ordered left
// to right as the layout orders them. Hidden cards are skipped unless
// showHidden is set; a card reached twice is listed once.
func treeRows(doc *canvas.Document, showHidden bool) []treeRow {
	byID := make(map[string]*canvas.Node, len(doc.Nodes))
	for i := range doc.Nodes {
		byID[doc.Nodes[i].ID] = &doc.Nodes[i]
	}
	children := func(id string) []*canvas.Node {
		_, edges := layout.Classify(id, doc.Connectors)
		var out []*canvas.Node
		for _, e := range edges {
			if n, ok := byID[e.Far]; ok {
				out = append(out, n)
			}
		}
		slices.SortStableFunc(out, func(a, b *canvas.Node) int { return cmp.Compare(a.X, b.X) })
		return out
	}

	var rows []treeRow
	seen := make(map[string]bool, len(doc.Nodes))
	var walk func(n *canvas.Node, depth int, guide string, last bool)
	walk = func(n *canvas.Node, depth int, guide string, last bool) {
		if seen[n.ID] || (!n.Visible && !showHidden) {
			return
		}
		seen[n.ID] = true

		kids := children(n.ID)
		prefix, next := "", ""
		if depth > 0 {
			prefix, next = guide+"├── ", guide+"│   "
			if last {
				prefix, next = guide+"└── ", guide+"    "
			}
		}
		rows = append(rows, treeRow{Node: n, Depth: depth, Prefix: prefix, Kids: len(kids)})

		if !showHidden {
			kids = slices.DeleteFunc(kids, func(k *canvas.Node) bool { return !k.Visible })
		}
		for i, k := range kids {
			walk(k, depth+1, next, i == len(kids)-1)
		}
	}

	roots := doc.Roots()
	slices.SortStableFunc(roots, func(a, b string) int { return cmp.Compare(byID[a].X, byID[b].X) })
	for _, id := range roots {
		walk(byID[id], 0, "", true)
	}
	return rows
}

// cardLabel is the plain one-line description of a card.
func cardLabel(n *canvas.Node) string {
	text := n.Field(cards.FieldText)
	if text == "" {
		text = n.ID
	}
	return text
}

// styledRow renders a row with the card type color and status.
func styledRow(r treeRow) string {
	t := cards.TypeOf(r.Node.Fields)
	typeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color())).Bold(r.Depth == 0)

	var b strings.Builder
	b.WriteString(StyleDim.Render(r.Prefix))
	b.WriteString(typeStyle.Render("[" + string(t) + "]"))
	b.WriteString(" " + StyleValue.Render(cardLabel(r.Node)))
	if r.Node.Field(cards.FieldText) != "" {
		b.WriteString(" " + StyleDim.Render("("+r.Node.ID+")"))
	}
	if s := cards.Status(r.Node.Field(cards.FieldStatus)); s != cards.StatusNone {
		b.WriteString(StyleDim.Render(" · "))
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color())).Render(string(s)))
	}
	if r.Node.State.HideChildren && r.Kids > 0 {
		b.WriteString(StyleWarning.Render(fmt.Sprintf(" +%d hidden", r.Kids)))
	}
	return b.String()
}

// treeCommand prints the canvas as an outline.
func (c *CLI) treeCommand() *cobra.Command {
	var showHidden, positions bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the card trees as an outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := canvas.Snapshot(cmd.Context(), s.store)
			if err != nil {
				return err
			}
			rows := treeRows(doc, showHidden)
			if len(rows) == 0 {
				printInfo(cmd.OutOrStdout(), "Canvas is empty")
				return nil
			}
			for _, r := range rows {
				line := styledRow(r)
				if positions {
					line += StyleDim.Render(fmt.Sprintf("  @(%g, %g)", r.Node.X, r.Node.Y))
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "include collapsed cards")
	cmd.Flags().BoolVar(&positions, "positions", false, "print card positions")
	return cmd
}
