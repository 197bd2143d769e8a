package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dd0wney/cluso-basket/pkg/config"
	"github.com/dd0wney/cluso-basket/pkg/export"
	"github.com/dd0wney/cluso-basket/pkg/facets"
	"github.com/dd0wney/cluso-basket/pkg/job"
	"github.com/dd0wney/cluso-basket/pkg/metrics"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 1)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Write    key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab", "right", "l"),
		key.WithHelp("tab", "next table"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab", "left", "h"),
		key.WithHelp("shift+tab", "prev table"),
	),
	Write: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "write results"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Write, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Write},
		{k.Up, k.Down},
		{k.Quit},
	}
}

type reportMsg struct {
	report *facets.Report
	err    error
}

type writtenMsg struct {
	tables int
	err    error
}

type model struct {
	cfg     *config.Config
	report  *facets.Report
	tables  []export.Table
	current int // 0 is the dashboard, i > 0 is tables[i-1]
	view    table.Model
	help    help.Model
	keys    keyMap
	width   int
	height  int

	message    string
	messageErr bool
	startTime  time.Time
}

func initialModel(cfg *config.Config) model {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(15),
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

	return model{
		cfg:       cfg,
		view:      t,
		help:      help.New(),
		keys:      keys,
		startTime: time.Now(),
	}
}

func analyze(cfg *config.Config) tea.Cmd {
	return func() tea.Msg {
		report, err := job.Analyze(context.Background(), cfg, job.Options{Metrics: metrics.DefaultRegistry()})
		return reportMsg{report: report, err: err}
	}
}

func write(cfg *config.Config, tables []export.Table) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		sink, err := job.NewSink(ctx, cfg)
		if err == nil {
			err = export.WriteTables(ctx, sink, tables, nil, metrics.DefaultRegistry())
		}
		return writtenMsg{tables: len(tables), err: err}
	}
}

func (m model) Init() tea.Cmd {
	return analyze(m.cfg)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if msg.Height > 14 {
			m.view.SetHeight(msg.Height - 14)
		}

	case reportMsg:
		if msg.err != nil {
			m.message = msg.err.Error()
			m.messageErr = true
			return m, nil
		}
		m.report = msg.report
		m.tables = msg.report.Tables()
		m.message = fmt.Sprintf("Analyzed %d facts in %s", msg.report.Facts, msg.report.Duration.Round(time.Millisecond))
		m.messageErr = false

	case writtenMsg:
		if msg.err != nil {
			m.message = "Write failed: " + msg.err.Error()
			m.messageErr = true
		} else {
			m.message = fmt.Sprintf("Wrote %d tables to %s", msg.tables, m.cfg.Output.Dir)
			m.messageErr = false
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			if m.report != nil {
				m.current = (m.current + 1) % (len(m.tables) + 1)
				m.showTable()
			}
			return m, nil

		case key.Matches(msg, m.keys.ShiftTab):
			if m.report != nil {
				m.current = (m.current + len(m.tables)) % (len(m.tables) + 1)
				m.showTable()
			}
			return m, nil

		case key.Matches(msg, m.keys.Write):
			if m.report != nil {
				m.message = "Writing results..."
				m.messageErr = false
				return m, write(m.cfg, m.tables)
			}
		}
	}

	var cmd tea.Cmd
	if m.current > 0 {
		m.view, cmd = m.view.Update(msg)
	}
	return m, cmd
}

// showTable loads the current result table into the table widget.
func (m *model) showTable() {
	if m.current == 0 {
		return
	}
	t := m.tables[m.current-1]

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	columns := make([]table.Column, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = table.Column{Title: c, Width: min(widths[i], 40)}
	}
	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = table.Row(r)
	}

	// Rows must be cleared before the column count changes.
	m.view.SetRows(nil)
	m.view.SetColumns(columns)
	m.view.SetRows(rows)
	m.view.GotoTop()
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Cluso Basket - Result Browser"))
	s.WriteString("\n\n")

	switch {
	case m.report == nil && !m.messageErr:
		s.WriteString(contentStyle.Render("Analyzing..."))
	case m.report != nil:
		s.WriteString(m.renderTabs())
		s.WriteString("\n\n")
		if m.current == 0 {
			s.WriteString(m.renderDashboard())
		} else {
			s.WriteString(m.renderTable())
		}
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	tabs := []string{"dashboard"}
	for _, t := range m.tables {
		tabs = append(tabs, t.Name)
	}

	var rendered []string
	for i, tab := range tabs {
		if i == m.current {
			rendered = append(rendered, activeTabStyle.Render(tab))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(tab))
		}
	}
	return lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
	)
}

func (m model) renderDashboard() string {
	r := m.report

	var facetsContent strings.Builder
	facetsContent.WriteString("Facets\n━━━━━━━━━━━━━━━\n")
	for _, f := range r.Facets {
		fmt.Fprintf(&facetsContent, "%-20s %6d txns %5d sets %5d rules\n",
			f.Name, f.Transactions, f.Itemsets.Len(), len(f.Rules))
	}

	runContent := fmt.Sprintf(`Run
━━━━━━━━━━━━━━━
ID:        %s
Facts:     %d
Duration:  %s
Pairs:     %d
Tables:    %d
Uptime:    %s`,
		r.RunID.String()[:8],
		r.Facts,
		r.Duration.Round(time.Millisecond),
		r.Transitions.Len(),
		len(m.tables),
		time.Since(m.startTime).Round(time.Second),
	)

	return contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		statsBoxStyle.Render(runContent),
		statsBoxStyle.Render(facetsContent.String()),
	))
}

func (m model) renderTable() string {
	t := m.tables[m.current-1]

	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d rows)", t.Name, t.Len())))
	s.WriteString("\n\n")
	if t.Len() == 0 {
		s.WriteString(helpStyle.Render("No rows: " + strings.Join(t.Columns, ", ")))
	} else {
		s.WriteString(m.view.View())
	}
	return contentStyle.Render(s.String())
}

func main() {
	configPath := flag.String("config", "", "YAML job file")
	input := flag.String("input", "", "fact table CSV")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *input != "" {
		cfg.Input.CSV = *input
	}

	p := tea.NewProgram(initialModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
