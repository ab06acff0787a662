package cli

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/radialtree/pkg/radial"
	"github.com/matzehuels/radialtree/pkg/session"
	"github.com/matzehuels/radialtree/pkg/tree"
)

var (
	exploreSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	exploreDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	exploreFieldStyle    = lipgloss.NewStyle().Foreground(colorGray)
)

// exploreCommand creates the interactive explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "explore [tree]",
		Short: "Browse a tree and its layout interactively",
		Long: `Browse a tree in the terminal. Toggling a category recomputes the
layout, and every visible node shows its angle and ring radius.

The expansion state is saved as a named session and resumed next time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0], name)
		},
	}
	cmd.Flags().StringVarP(&name, "session", "s", "", "session name (default: derived from the file name)")
	return cmd
}

func (c *CLI) runExplore(ctx context.Context, source, name string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	root, err := c.loadTree(ctx, source)
	if err != nil {
		return err
	}

	store, err := session.NewFileStore("")
	if err != nil {
		return err
	}
	defer store.Close()

	if name == "" {
		name = sessionName(source)
	}
	sess, err := store.Get(ctx, name)
	if err != nil {
		return err
	}
	if sess == nil || sess.Dataset != source {
		sess = session.New(source, tree.InitialExpansion(root), session.DefaultTTL)
		sess.ID = name
	}

	m := newExploreModel(root, sess, cfg.Layout)
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}

	sess = final.(exploreModel).sess
	sess.Touch(session.DefaultTTL)
	if err := store.Set(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	printSuccess("Saved session %s", sess.ID)
	printDetail("%d expanded categories", sess.Expanded().Len())
	return nil
}

// sessionName turns a file name into a session name of [a-z0-9-_].
func sessionName(source string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)))
	var b strings.Builder
	for _, r := range base {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "tree"
	}
	if len(name) > 56 {
		name = name[:56]
	}
	return "explore-" + name
}

// =============================================================================
// exploreModel
// =============================================================================

type exploreRow struct {
	node     radial.PositionedNode
	branch   bool // has children in the full tree
	expanded bool
}

// exploreModel is the bubbletea model of the explorer.
type exploreModel struct {
	root *tree.Node
	sess *session.Session
	cfg  radial.Config

	rows     []exploreRow
	overlaps int
	outer    float64
	err      error

	cursor int
	offset int
	height int
}

func newExploreModel(root *tree.Node, sess *session.Session, cfg radial.Config) exploreModel {
	m := exploreModel{root: root, sess: sess, cfg: cfg, height: 20}
	m.relayout("")
	return m
}

// relayout recomputes the layout and keeps the cursor on keep if visible.
func (m *exploreModel) relayout(keep string) {
	res, err := radial.Compute(m.root, m.sess.Expanded(), m.cfg)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	exp := m.sess.Expanded()
	m.rows = make([]exploreRow, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		src := m.root.Find(n.Path)
		m.rows = append(m.rows, exploreRow{
			node:     n,
			branch:   src != nil && src.HasChildren(),
			expanded: n.Depth == 0 || exp.Has(n.Path),
		})
	}
	m.overlaps = 0
	for _, v := range res.Violations {
		m.overlaps += v
	}
	m.outer = res.Radii.At(res.MaxDepth())

	m.cursor = min(m.cursor, len(m.rows)-1)
	for i, r := range m.rows {
		if r.node.Path == keep {
			m.cursor = i
			break
		}
	}
	m.scroll()
}

func (m *exploreModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m exploreModel) selected() exploreRow { return m.rows[m.cursor] }

func (m exploreModel) Init() tea.Cmd { return nil }

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "enter", " ":
			row := m.selected()
			if row.branch && row.node.Depth > 0 {
				m.sess.Toggle(row.node.Path)
				m.relayout(row.node.Path)
			}
		case "a":
			path := m.selected().node.Path
			m.sess.ExpandAll(m.root)
			m.relayout(path)
		}
		m.scroll()
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
		m.scroll()
	}
	return m, nil
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Explore " + m.root.Name))
	b.WriteString("\n")
	b.WriteString(exploreDimStyle.Render("↑/↓ navigate  ⏎ toggle  a expand all/restore  q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(StyleWarning.Render(m.err.Error()))
		return b.String()
	}

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		marker := "•"
		switch {
		case r.branch && r.expanded:
			marker = "▾"
		case r.branch:
			marker = "▸"
		}
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		label := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", r.node.Depth), marker, r.node.Name)
		pos := fmt.Sprintf("%7.2f° r=%.0f", r.node.Angle*180/math.Pi, r.node.Radius)

		style := exploreNormalStyle
		switch {
		case i == m.cursor:
			style = exploreSelectedStyle
		case r.node.Kind == radial.KindField:
			style = exploreFieldStyle
		}
		b.WriteString(style.Render(label) + "  " + exploreDimStyle.Render(pos) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(layoutSummaryLine(len(m.rows), m.root.Count(), m.overlaps, m.outer))
	return b.String()
}

func layoutSummaryLine(visible, total, overlaps int, outer float64) string {
	return exploreDimStyle.Render(fmt.Sprintf("  %d/%d visible · outer ring %.0f · %d overlaps",
		visible, total, outer, overlaps))
}
