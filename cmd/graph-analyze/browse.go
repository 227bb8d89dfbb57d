package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/analysis"
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
)

type browseKeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Up       key.Binding
	Down     key.Binding
	Quit     key.Binding
}

var browseKeys = browseKeyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab", "right", "l"),
		key.WithHelp("tab", "next tab"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab", "left", "h"),
		key.WithHelp("shift+tab", "prev tab"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.ShiftTab, k.Up, k.Down, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Tab, k.ShiftTab}, {k.Up, k.Down}, {k.Quit}}
}

// browseTab is one page of the browser: a ranking or the community listing
type browseTab struct {
	title string
	table table.Model
}

type browseModel struct {
	report  *analysis.Report
	tabs    []browseTab
	current int
	help    help.Model
	keys    browseKeyMap
	width   int
}

func newBrowseModel(report *analysis.Report) browseModel {
	m := browseModel{
		report: report,
		help:   help.New(),
		keys:   browseKeys,
	}

	for _, alg := range algorithms.CentralityAlgorithms {
		ranked := rankAll(report.Centrality[alg], 0)
		rows := make([]table.Row, len(ranked))
		for i, rv := range ranked {
			rows[i] = table.Row{strconv.Itoa(i + 1), rv.VertexID, formatScore(rv.Score)}
		}
		m.tabs = append(m.tabs, browseTab{
			title: string(alg),
			table: newBrowseTable([]table.Column{
				{Title: "Rank", Width: 6},
				{Title: "Vertex", Width: 32},
				{Title: "Score", Width: 12},
			}, rows),
		})
	}

	if report.Communities != nil {
		rows := make([]table.Row, len(report.Communities.Communities))
		for i, c := range report.Communities.Communities {
			rows[i] = table.Row{strconv.Itoa(c.ID), strconv.Itoa(c.Size), summarizeMembers(c.Vertices, 4)}
		}
		m.tabs = append(m.tabs, browseTab{
			title: "communities",
			table: newBrowseTable([]table.Column{
				{Title: "ID", Width: 6},
				{Title: "Size", Width: 6},
				{Title: "Members", Width: 48},
			}, rows),
		})
	}

	if len(m.tabs) > 0 {
		m.tabs[0].table.Focus()
	}
	return m
}

func newBrowseTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.switchTab(1)
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.switchTab(-1)
			return m, nil
		}
	}

	if len(m.tabs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.tabs[m.current].table, cmd = m.tabs[m.current].table.Update(msg)
	return m, cmd
}

func (m *browseModel) switchTab(step int) {
	if len(m.tabs) == 0 {
		return
	}
	m.tabs[m.current].table.Blur()
	m.current = (m.current + step + len(m.tabs)) % len(m.tabs)
	m.tabs[m.current].table.Focus()
}

func (m browseModel) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Vault analytics"))
	s.WriteString("\n\n")

	d := m.report.Density
	stats := fmt.Sprintf("Vertices: %d   Edges: %d   Density: %s", d.VertexCount, d.EdgeCount, formatScore(d.Density))
	if c := m.report.Communities; c != nil {
		stats += fmt.Sprintf("   Modularity: %s", formatScore(c.Modularity))
	}
	s.WriteString(statsBoxStyle.Render(stats))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")
	if len(m.tabs) > 0 {
		s.WriteString(m.tabs[m.current].table.View())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m browseModel) renderTabs() string {
	rendered := make([]string, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.current {
			rendered[i] = activeTabStyle.Render(tab.title)
		} else {
			rendered[i] = inactiveTabStyle.Render(tab.title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Run every analysis and browse the rankings interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vertices, edges, err := a.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			report, err := a.service.RunAll(cmd.Context(), vertices, edges)
			if err != nil {
				return err
			}

			p := tea.NewProgram(newBrowseModel(report),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen(),
			)
			_, err = p.Run()
			return err
		},
	}
}
