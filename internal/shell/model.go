package shell

import (
	"fmt"
	"strings"
	"time"

	"github.com/zaddach/kuzu/pkg/kuzugo"
	"github.com/zaddach/kuzu/pkg/ui/base"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the terminal shell's Bubble Tea state: a statement editor, a
// result table, and the Connection they run against.
type Model struct {
	conn        *kuzugo.Connection
	queryEditor textarea.Model
	resultTable table.Model
	spinner     spinner.Model
	help        help.Model
	highlighter *CypherHighlighter

	width        int
	height       int
	executing    bool
	showHelp     bool
	lastResult   *kuzugo.Result
	lastError    error
	queryHistory []string

	lastQueryTime time.Duration
	keys          keyMap
}

func NewModel(conn *kuzugo.Connection) Model {
	ta := textarea.New()
	ta.Placeholder = "MATCH (p:Person) RETURN p.name"
	ta.CharLimit = 5000
	ta.ShowLineNumbers = true
	ta.SetHeight(6)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(bgLight)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(textMuted)
	ta.FocusedStyle.Text = lipgloss.NewStyle().Foreground(textPrimary)
	ta.FocusedStyle.LineNumber = lipgloss.NewStyle().Foreground(textMuted)

	t := table.New(
		table.WithColumns([]table.Column{{Title: "Results", Width: 80}}),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	s.Selected = s.Selected.
		Foreground(bgDark).
		Background(secondaryColor).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		conn:         conn,
		queryEditor:  ta,
		resultTable:  t,
		spinner:      sp,
		help:         help.New(),
		highlighter:  NewCypherHighlighter(),
		keys:         keys,
		queryHistory: make([]string, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		if m.executing {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Execute):
			query := m.queryEditor.Value()
			if strings.TrimSpace(query) != "" {
				m.executing = true
				return m, m.runQuery(query)
			}

		case key.Matches(msg, m.keys.Clear):
			m.queryEditor.SetValue("")
			m.lastResult = nil
			m.lastError = nil

		case key.Matches(msg, m.keys.ShowTables):
			return m, m.showTables()

		case key.Matches(msg, m.keys.ShowStats):
			return m, m.showStatistics()

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		}

	case queryResultMsg:
		m.executing = false
		m.lastResult = msg.result
		m.lastError = msg.err
		m.lastQueryTime = msg.duration

		if msg.err == nil {
			m.queryHistory = append(m.queryHistory, msg.query)
			m.updateResultDisplay()
		}

	case spinner.TickMsg:
		if m.executing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	if !m.executing {
		var cmd tea.Cmd
		m.queryEditor, cmd = m.queryEditor.Update(msg)
		cmds = append(cmds, cmd)

		m.resultTable, cmd = m.resultTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderQueryEditor())

	switch {
	case m.executing:
		sections = append(sections, m.renderExecuting())
	case m.lastError != nil:
		sections = append(sections, m.renderError())
	case m.lastResult != nil && len(m.lastResult.Rows) > 0:
		sections = append(sections, m.renderResultTable())
	case m.lastResult != nil && m.lastResult.Message != "":
		sections = append(sections, m.renderMessage())
	}

	if len(m.queryHistory) > 0 {
		sections = append(sections, m.renderLastQuery())
	}

	sections = append(sections, m.renderStatusBar())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return appStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderHelp() string {
	helpText := m.help.FullHelpView([][]key.Binding{
		{
			m.keys.Execute,
			m.keys.Clear,
			m.keys.ShowTables,
			m.keys.ShowStats,
			m.keys.Help,
			m.keys.Quit,
		},
	})

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(bgMedium).
		Render(helpText)
}

func (m Model) renderHeader() string {
	stats := m.conn.Statistics()

	title := titleStyle.Render("kuzugo")
	nodeBadge := nodeBadgeStyle.Render(fmt.Sprintf("%d node tables", stats.NodeTableCount))
	relBadge := relBadgeStyle.Render(fmt.Sprintf("%d rel tables", stats.RelTableCount))
	counts := lipgloss.NewStyle().
		Foreground(textSecondary).
		Render(fmt.Sprintf("Nodes: %d | Rels: %d", stats.TotalNodes, stats.TotalRels))

	header := lipgloss.JoinHorizontal(
		lipgloss.Left,
		title,
		"  ",
		nodeBadge,
		relBadge,
		"  ",
		counts,
	)

	separatorWidth := m.width - 4
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	sep := lipgloss.NewStyle().
		Foreground(bgLight).
		Render(strings.Repeat("─", separatorWidth))

	return header + "\n" + sep
}

func (m Model) renderQueryEditor() string {
	label := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Query")

	editor := editorStyle.Render(m.queryEditor.View())
	return fmt.Sprintf("%s\n%s", label, editor)
}

func (m Model) renderExecuting() string {
	content := lipgloss.JoinHorizontal(
		lipgloss.Left,
		m.spinner.View(),
		" running...",
	)
	return lipgloss.NewStyle().
		Foreground(primaryColor).
		Padding(1, 0).
		Render(content)
}

func (m Model) renderError() string {
	icon := errorStyle.Render(" ⚠ ERROR ")
	message := lipgloss.NewStyle().
		Foreground(errorColor).
		Render(m.lastError.Error())

	content := fmt.Sprintf("%s %s", icon, message)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errorColor).
		Padding(0, 1).
		Render(content)
}

func (m Model) renderResultTable() string {
	columns := make([]table.Column, len(m.lastResult.Columns))
	for i, col := range m.lastResult.Columns {
		columns[i] = table.Column{Title: col, Width: m.calculateColumnWidth(col, i)}
	}

	rows := make([]table.Row, len(m.lastResult.Rows))
	for i, row := range m.lastResult.Rows {
		cells := make(table.Row, len(row))
		for j, cell := range row {
			width := 28
			if j < len(columns) {
				width = columns[j].Width
			}
			cells[j] = base.TruncateCell(cell, width)
		}
		rows[i] = cells
	}

	m.resultTable.SetColumns(columns)
	m.resultTable.SetRows(rows)

	summary := base.CenterLabel(fmt.Sprintf("✓ %d row(s) in %v", len(rows), m.lastQueryTime), m.width-4)
	header := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Render(summary)

	return fmt.Sprintf("%s\n%s", header, m.resultTable.View())
}

func (m Model) renderMessage() string {
	icon := successStyle.Render(" ✓ ")
	return lipgloss.NewStyle().
		Foreground(accentColor).
		Padding(1, 0).
		Render(fmt.Sprintf("%s %s", icon, m.lastResult.Message))
}

func (m Model) renderLastQuery() string {
	last := m.queryHistory[len(m.queryHistory)-1]
	label := lipgloss.NewStyle().Foreground(textMuted).Render("last: ")
	return label + m.highlighter.Highlight(last)
}

func (m Model) renderStatusBar() string {
	status := "● connected"
	timer := ""
	if m.lastQueryTime > 0 {
		timer = fmt.Sprintf(" | last query: %v", m.lastQueryTime)
	}

	content := lipgloss.NewStyle().Foreground(accentColor).Render(status) +
		lipgloss.NewStyle().Foreground(textMuted).Render(timer+" | Ctrl+H for help")

	return statusBarStyle.Width(m.width - 4).Render(content)
}

func (m Model) calculateColumnWidth(columnName string, index int) int {
	const maxWidth, minWidth = 30, 10
	width := len(columnName) + 2

	for _, row := range m.lastResult.Rows {
		if index < len(row) {
			width = base.Max(width, len(row[index])+2)
		}
	}

	return base.Min(base.Max(width, minWidth), maxWidth)
}

func (m *Model) updateLayout() {
	editorHeight := 6
	resultHeight := m.height - editorHeight - 10

	m.queryEditor.SetWidth(m.width - 6)
	m.resultTable.SetHeight(resultHeight)
}

func (m *Model) updateResultDisplay() {
	if m.lastResult != nil && len(m.lastResult.Rows) > 0 {
		m.resultTable.Focus()
	}
}

type queryResultMsg struct {
	query    string
	result   *kuzugo.Result
	err      error
	duration time.Duration
}

func (m Model) runQuery(query string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		result, err := m.conn.Query(query)
		return queryResultMsg{query: query, result: result, err: err, duration: time.Since(start)}
	}
}

// showTables lists every registered node and relationship table.
func (m Model) showTables() tea.Cmd {
	return func() tea.Msg {
		tables := m.conn.ListTables()
		rows := make([][]string, len(tables))
		for i, t := range tables {
			rows[i] = []string{t.Name, t.Kind, fmt.Sprintf("%d", t.RowCount)}
		}
		return queryResultMsg{
			query: "Ctrl+T",
			result: &kuzugo.Result{
				Columns: []string{"Table", "Kind", "Rows"},
				Rows:    rows,
				Message: fmt.Sprintf("%d table(s)", len(tables)),
			},
		}
	}
}

// showStatistics displays overall database size.
func (m Model) showStatistics() tea.Cmd {
	return func() tea.Msg {
		stats := m.conn.Statistics()
		rows := [][]string{
			{"Node tables", fmt.Sprintf("%d", stats.NodeTableCount)},
			{"Relationship tables", fmt.Sprintf("%d", stats.RelTableCount)},
			{"Total nodes", fmt.Sprintf("%d", stats.TotalNodes)},
			{"Total relationships", fmt.Sprintf("%d", stats.TotalRels)},
		}
		return queryResultMsg{
			query: "Ctrl+S",
			result: &kuzugo.Result{
				Columns: []string{"Metric", "Value"},
				Rows:    rows,
				Message: "database statistics",
			},
			duration: time.Millisecond,
		}
	}
}
