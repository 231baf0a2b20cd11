package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/cards"
)

// pointsPerInch converts canvas units to Graphviz inches at scale 1.
const pointsPerInch = 72.0

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
}

// DefaultScale shrinks canvas units so typical trees fit a screen.
const DefaultScale = 0.5

// Options configures rendering.
type Options struct {
	// Format is one of the Format constants. Empty means SVG.
	Format string
	// ShowHidden draws collapsed cards and connectors dashed instead of
	// leaving them out.
	ShowHidden bool
	// IncludeFields adds the card type and status under the label.
	IncludeFields bool
	// Scale multiplies canvas units. Zero means DefaultScale.
	Scale float64
}

func (o *Options) setDefaults() {
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
}

// ToDOT converts a canvas document to DOT with every card pinned at its
// canvas position. Canvas y grows downward, so it is negated.
func ToDOT(doc *canvas.Document, opts Options) string {
	opts.setDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fixedsize=true, fontname=\"Helvetica\", fontsize=14];\n")
	buf.WriteString("  edge [arrowhead=none, color=\"#9aa0a6\"];\n")
	buf.WriteString("\n")

	drawn := make(map[string]bool, len(doc.Nodes))
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if !n.Visible && !opts.ShowHidden {
			continue
		}
		drawn[n.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, c := range doc.Connectors {
		if !drawn[c.Start.NodeID] || !drawn[c.End.NodeID] {
			continue
		}
		if !c.Visible && !opts.ShowHidden {
			continue
		}
		parent, child := c.Start.NodeID, c.End.NodeID
		if !c.Start.Magnet.IsOutgoing() {
			parent, child = child, parent
		}
		attrs := ""
		if !c.Visible {
			attrs = " [style=dashed]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", parent, child, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *canvas.Node, opts Options) []string {
	t := cards.TypeOf(n.Fields)
	inch := func(v float64) float64 { return v * opts.Scale / pointsPerInch }

	attrs := []string{
		fmt.Sprintf("label=%q", label(n, t, opts.IncludeFields)),
		fmt.Sprintf("pos=\"%.3f,%.3f!\"", inch(n.X+n.Width/2), -inch(n.Y+n.Height/2)),
		fmt.Sprintf("width=%.3f", inch(n.Width)),
		fmt.Sprintf("height=%.3f", inch(n.Height)),
		fmt.Sprintf("color=%q", t.Color()),
		fmt.Sprintf("fillcolor=%q", t.Background()),
	}
	if !n.Visible {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	if n.State.HideChildren {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

func label(n *canvas.Node, t cards.Type, withFields bool) string {
	text := n.Field(cards.FieldText)
	if text == "" {
		text = n.ID
	}
	if !withFields {
		return text
	}
	lines := []string{text, string(t)}
	if s := n.Field(cards.FieldStatus); s != "" {
		lines = append(lines, s)
	}
	if n.State.HideChildren && n.State.ChildrenCount > 0 {
		lines = append(lines, fmt.Sprintf("+%d hidden", n.State.ChildrenCount))
	}
	return strings.Join(lines, "\n")
}
