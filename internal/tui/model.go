// Package tui is an interactive terminal client for the advisor:
// type a query to search the catalog, move through results, and ask
// for an upsell pitch around the selected product.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"profitgen/internal/domain"
	"profitgen/internal/service"
)

// AdvisorPort is the TUI-facing subset of the advisor service.
type AdvisorPort interface {
	Search(ctx context.Context, query, persona string) ([]domain.ScoredCandidate, error)
	RecommendForItem(ctx context.Context, asin, persona string) (*service.Recommendation, error)
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	advisor  AdvisorPort
	persona  string
	topK     int
	input    textinput.Model
	viewport viewport.Model
	results  []domain.ScoredCandidate
	rec      *service.Recommendation
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance.
func New(advisor AdvisorPort, persona string, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a product query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if topK <= 0 {
		topK = 10
	}
	return Model{
		advisor:  advisor,
		persona:  persona,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   fmt.Sprintf("Catalog ready. Persona: %s. Type to search, ctrl+r for a pitch.", persona),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 1
		totalFooterLines := 1
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				res, err := m.advisor.Search(context.Background(), q, m.persona)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.results = nil
				} else {
					if len(res) > m.topK {
						res = res[:m.topK]
					}
					m.status = fmt.Sprintf("Results for %q", q)
					m.results = res
					m.cursor = 0
					m.rec = nil
				}
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "ctrl+r":
			if len(m.results) > 0 {
				asin := m.results[m.cursor].Product.ASIN
				rec, err := m.advisor.RecommendForItem(context.Background(), asin, m.persona)
				if err != nil {
					m.status = "Error: " + err.Error()
				} else {
					m.rec = rec
					m.status = fmt.Sprintf("Upsell pitch for %s", asin)
				}
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.rec = nil
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.rec = nil
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("ProfitGen Shopping Assistant")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	var b strings.Builder
	r := m.results[m.cursor]
	fmt.Fprintf(&b, "Result %d/%d  score=%.3f  similarity=%.3f\n\n", m.cursor+1, len(m.results), r.FinalScore, r.Similarity)
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(r.Product.Title))
	fmt.Fprintf(&b, "ASIN %s  |  $%.2f  |  %s  |  quality %.2f\n", r.Product.ASIN, r.Product.Price, r.Product.Category, r.Product.QualityScore)
	if m.rec != nil {
		b.WriteString("\n" + pitchStyle.Render(m.rec.Pitch) + "\n")
		for _, it := range m.rec.Items {
			fmt.Fprintf(&b, "  - %s ($%.2f, score %.3f)\n", it.Product.Title, it.Product.Price, it.FinalScore)
		}
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	pitchStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Italic(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
