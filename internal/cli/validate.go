package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cardtree/pkg/canvas"
	errs "github.com/matzehuels/cardtree/pkg/errors"
)

// validateCommand reports connector configurations the layout cannot handle.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the canvas for cycles, multi-parent cards and dangling connectors",
		Long: `Validate checks the connector graph. The layout engine assumes a forest:
cards with several parents are laid out under the first one only, cycles
abort a cascade, and connectors to deleted cards are skipped.

The command exits non-zero when a problem is found.`,
		Args: cobra.NoArgs,
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
			rep := canvas.Validate(doc)
			if rep.OK() {
				printSuccess(cmd.OutOrStdout(), "Canvas is a valid forest")
				printDetail(cmd.OutOrStdout(), "%d cards, %d connectors, %d trees", doc.NodeCount(), doc.ConnectorCount(), len(doc.Roots()))
				return nil
			}
			printWarning(cmd.OutOrStdout(), "Found problems: %s", rep.String())
			fmt.Fprintln(cmd.OutOrStdout(), reportTable(rep))
			return rep.Err()
		},
	}
}

// reportTable lays the problems of a report out as a table.
func reportTable(rep *canvas.Report) string {
	var rows [][]string
	for _, e := range rep.Invalid {
		rows = append(rows, []string{"geometry", errs.UserMessage(e)})
	}
	for _, cyc := range rep.Cycles {
		rows = append(rows, []string{"cycle", strings.Join(cyc, " → ")})
	}
	for _, id := range slices.Sorted(maps.Keys(rep.MultiParent)) {
		rows = append(rows, []string{"multi-parent", fmt.Sprintf("%s ← %s", id, strings.Join(rep.MultiParent[id], ", "))})
	}
	for _, d := range rep.Dangling {
		rows = append(rows, []string{"dangling", fmt.Sprintf("connector %s → missing %s", d.ConnectorID, d.NodeID)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	kindStyle := lipgloss.NewStyle().Foreground(colorYellow)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Problem", "Where").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return kindStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
