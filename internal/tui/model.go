package tui

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"keyrank/internal/domain"
	"keyrank/internal/service"
)

// RankPort is the TUI-facing subset of the ranking engine.
type RankPort interface {
	Run(ctx context.Context, text string, mode domain.Mode) (*service.Report, error)
}

// Document is one input shown in the browser.
type Document struct {
	Name string
	Text string
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	engine   RankPort
	input    textinput.Model
	viewport viewport.Model
	docs     []Document
	report   *service.Report
	mode     domain.Mode
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model over docs.
func New(engine RankPort, docs []Document, mode domain.Mode) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type text to rank and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if mode == "" {
		mode = domain.ModePhrase
	}
	m := Model{engine: engine, input: ti, viewport: vp, docs: docs, mode: mode}
	m.rank()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, doc line, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderReport())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.docs = append(m.docs, Document{Name: fmt.Sprintf("input #%d", len(m.docs)+1), Text: q})
				m.cursor = len(m.docs) - 1
				m.input.SetValue("")
				m.rank()
				return m, nil
			}
		case "tab":
			if m.mode == domain.ModePhrase {
				m.mode = domain.ModeSentence
			} else {
				m.mode = domain.ModePhrase
			}
			m.rank()
			return m, nil
		case "down":
			if len(m.docs) > 0 {
				m.cursor = (m.cursor + 1) % len(m.docs)
				m.rank()
				return m, nil
			}
		case "up":
			if len(m.docs) > 0 {
				m.cursor = (m.cursor - 1 + len(m.docs)) % len(m.docs)
				m.rank()
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current ranking.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("keyrank") +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("  tab: mode  up/down: document  ctrl+c: quit")
	doc := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.docLine())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + doc + "\n" + results + "\n" + input + "\n" + status
}

func (m *Model) rank() {
	m.report = nil
	if len(m.docs) == 0 {
		m.status = "No documents. Type text to rank."
		m.viewport.SetContent(m.renderReport())
		return
	}
	rep, err := m.engine.Run(context.Background(), m.docs[m.cursor].Text, m.mode)
	if err != nil {
		m.status = "Error: " + err.Error()
	} else {
		m.report = rep
		m.status = fmt.Sprintf("%d results from %d candidates in %s", len(rep.Results), rep.Candidates, rep.Duration.Round(time.Microsecond))
	}
	m.viewport.SetContent(m.renderReport())
}

func (m Model) docLine() string {
	if len(m.docs) == 0 {
		return fmt.Sprintf("mode=%s", m.mode)
	}
	return fmt.Sprintf("Document %d/%d  %s  mode=%s", m.cursor+1, len(m.docs), m.docs[m.cursor].Name, m.mode)
}

func (m Model) renderReport() string {
	if m.report == nil || len(m.report.Results) == 0 {
		return "No results yet."
	}
	var b strings.Builder
	for i, r := range m.report.Results {
		fmt.Fprintf(&b, "%2d. %s  %s\n", i+1, scoreStyle.Render(fmt.Sprintf("%.4f", r.Score)), r.Text)
	}
	b.WriteString("\n")
	for _, s := range m.report.Signals {
		fmt.Fprintf(&b, "signal=%s stage=%s edges=%d iterations=%d converged=%t\n",
			s.Name, s.Stage, s.Edges, s.Iterations, s.Converged)
	}
	if m.mode == domain.ModePhrase && len(m.docs) > 0 {
		b.WriteString("\n")
		b.WriteString(Highlight(m.docs[m.cursor].Text, m.report.Results))
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	scoreStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Highlight marks every occurrence of the ranked phrases in text, longest first.
func Highlight(text string, results []domain.Result) string {
	phrases := make([]string, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Text) != "" {
			phrases = append(phrases, regexp.QuoteMeta(r.Text))
		}
	}
	if len(phrases) == 0 {
		return text
	}
	sort.SliceStable(phrases, func(i, j int) bool { return len(phrases[i]) > len(phrases[j]) })
	re, err := regexp.Compile(`(?i)` + strings.Join(phrases, "|"))
	if err != nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(s string) string { return highlightStyle.Render(s) })
}
