package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/cards"
	errs "github.com/matzehuels/cardtree/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	styleTitle        = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

const browseHelp = "↑/↓ move  c collapse  e expand  E expand all  a layout  n child  s sibling  h hidden  q quit"

// browseCommand opens the interactive outline.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the card trees and run card actions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				m, err := newBrowseModel(cmd.Context(), s)
				if err != nil {
					return err
				}
				_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
				return err
			})
		},
	}
}

// =============================================================================
// browseModel - Interactive card outline
// =============================================================================

// actionMsg reports a finished card action.
type actionMsg struct {
	label string
	card  string
	err   error
}

type browseModel struct {
	ctx context.Context
	s   *session

	rows       []treeRow
	showHidden bool
	cursor     int
	offset     int
	height     int
	status     string
	err        error
}

func newBrowseModel(ctx context.Context, s *session) (browseModel, error) {
	m := browseModel{ctx: ctx, s: s, height: 20}
	if err := m.reload(""); err != nil {
		return m, err
	}
	return m, nil
}

// reload re-reads the canvas and keeps the cursor on keep when it is still
// listed.
func (m *browseModel) reload(keep string) error {
	doc, err := canvas.Snapshot(m.ctx, m.s.store)
	if err != nil {
		return err
	}
	m.rows = treeRows(doc, m.showHidden)
	for i, r := range m.rows {
		if r.Node.ID == keep {
			m.cursor = i
		}
	}
	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
	m.scroll()
	return nil
}

func (m *browseModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m browseModel) selected() (string, bool) {
	if len(m.rows) == 0 {
		return "", false
	}
	return m.rows[m.cursor].Node.ID, true
}

// run executes fn on the selected card off the update loop.
func (m browseModel) run(label string, fn func(ctx context.Context, id string) error) tea.Cmd {
	id, ok := m.selected()
	if !ok {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{label: label, card: id, err: fn(ctx, id)}
	}
}

func (m browseModel) action(label string, a cards.Action) tea.Cmd {
	return m.run(label, func(ctx context.Context, id string) error {
		_, err := m.s.editor.Do(ctx, id, a)
		return err
	})
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.scroll()
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.scroll()
			}
		case "c":
			return m, m.action("collapsed", cards.ActionCollapse)
		case "e":
			return m, m.run("expanded", func(ctx context.Context, id string) error {
				_, err := m.s.editor.Expand(ctx, id, false)
				return err
			})
		case "E":
			return m, m.action("expanded all below", cards.ActionExpandAll)
		case "a":
			return m, m.action("laid out", cards.ActionAutoLayout)
		case "n":
			return m, m.action("added a child to", cards.ActionNewBottom)
		case "s":
			return m, m.action("added a sibling to", cards.ActionNewRight)
		case "h":
			m.showHidden = !m.showHidden
			id, _ := m.selected()
			m.err = m.reload(id)
		}
	case actionMsg:
		m.err = msg.err
		m.status = ""
		if msg.err == nil {
			m.status = fmt.Sprintf("%s %s", msg.label, msg.card)
		}
		if err := m.reload(msg.card); err != nil && m.err == nil {
			m.err = err
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
		m.scroll()
	}
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Card trees"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(browseHelp))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  canvas is empty"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = listSelectedStyle.Render("▸ ")
		}
		b.WriteString(cursor + styledRow(m.rows[i]) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(markFailure + " " + errs.UserMessage(m.err))
	case m.status != "":
		b.WriteString(markSuccess + " " + m.status)
	default:
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))
	}
	return b.String()
}
