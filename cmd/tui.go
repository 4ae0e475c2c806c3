package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	stateBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2)

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1)

	autocompleteStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#F25D94"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

const welcome = "Welcome to draconic!\nType 'help' for the command list, 'exit' to quit."

type suggestion string

func (s suggestion) Title() string       { return string(s) }
func (s suggestion) Description() string { return "" }
func (s suggestion) FilterValue() string { return string(s) }

type replModel struct {
	app         *session.Session
	ctx         context.Context
	textInput   textinput.Model
	viewport    viewport.Model
	suggestions list.Model
	history     []string
	historyIdx  int
	logContent  string
	width       int
	height      int
	title       string
	showList    bool
}

func newREPLModel(ctx context.Context, app *session.Session, title string) replModel {
	ti := textinput.New()
	ti.Placeholder = "Enter command (e.g., roll_dice dice: 1d20)..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	vp := viewport.New(0, 0)
	vp.SetContent(welcome)

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	sugList := list.New([]list.Item{}, delegate, 50, 7)
	sugList.SetShowTitle(false)
	sugList.SetShowStatusBar(false)
	sugList.SetFilteringEnabled(false)
	sugList.SetShowHelp(false)

	return replModel{
		app:         app,
		ctx:         ctx,
		textInput:   ti,
		viewport:    vp,
		suggestions: sugList,
		historyIdx:  -1,
		logContent:  welcome,
		title:       title,
	}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

// suggest completes verbs at the start of a line, and combatant ids after
// "by: " or "to: ".
func suggest(val string, verbs, ids []string) []string {
	if val == "" {
		return nil
	}
	lower := strings.ToLower(val)
	var out []string

	if !strings.Contains(lower, " ") {
		for _, v := range verbs {
			if strings.HasPrefix(v, lower) && len(val) < len(v) {
				out = append(out, v+" ")
			}
		}
		return out
	}

	i := strings.LastIndex(lower, ": ")
	if i < 0 {
		return nil
	}
	key := lower[strings.LastIndex(lower[:i], " ")+1 : i]
	if key != "by" && key != "to" && key != "on" && key != "with" {
		return nil
	}
	prefix := lower[i+2:]
	if strings.Contains(prefix, " ") {
		return nil
	}
	base := val[:i+2]
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) && id != prefix {
			out = append(out, base+id+" ")
		}
	}
	return out
}

func (m *replModel) verbs() []string {
	verbs := []string{"help", "exit", "quit"}
	for _, def := range m.app.Catalog() {
		verbs = append(verbs, def.Name)
	}
	sort.Strings(verbs)
	return verbs
}

func (m *replModel) ids() []string {
	var ids []string
	_ = m.app.Table().Do(func(s *game.State) error {
		for _, c := range s.Roster() {
			ids = append(ids, c.ID)
		}
		return nil
	})
	return ids
}

func (m *replModel) updateSuggestions() {
	var items []list.Item
	for _, s := range suggest(m.textInput.Value(), m.verbs(), m.ids()) {
		items = append(items, suggestion(s))
	}

	m.suggestions.SetItems(items)
	m.showList = len(items) > 0
	if m.showList {
		h := len(items)
		if h > 10 {
			h = 10
		}
		if h < 4 {
			h = 4
		}
		m.suggestions.SetHeight(h)
		m.suggestions.ResetSelected()
	}
}

// run executes one line and appends its outcome to the log.
func (m *replModel) run(val string) {
	m.logContent += fmt.Sprintf("\n\n> %s\n", val)

	if strings.EqualFold(val, "help") {
		for _, def := range m.app.Catalog() {
			m.logContent += fmt.Sprintf("%-16s %s\n", def.Name, def.Usage)
		}
		return
	}

	resp, err := m.app.Execute(m.ctx, val)
	switch {
	case err != nil:
		m.logContent += errorStyle.Render(err.Error())
	case !resp.Success:
		m.logContent += errorStyle.Render(session.Describe(resp))
	default:
		m.logContent += session.Describe(resp)
	}
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		lsCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyUp:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else if len(m.history) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.history) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.history[m.historyIdx])
				m.updateSuggestions()
			}

		case tea.KeyDown:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else if len(m.history) > 0 && m.historyIdx != -1 {
				if m.historyIdx < len(m.history)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.history[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.updateSuggestions()
			}

		case tea.KeyTab:
			if m.showList {
				if i, ok := m.suggestions.SelectedItem().(suggestion); ok {
					m.textInput.SetValue(string(i))
					m.textInput.SetCursor(len(string(i)))
					m.updateSuggestions()
				}
			}

		case tea.KeyEnter:
			val := strings.TrimSpace(m.textInput.Value())
			if val == "exit" || val == "quit" {
				return m, tea.Quit
			}

			if val != "" {
				if len(m.history) == 0 || m.history[len(m.history)-1] != val {
					m.history = append(m.history, val)
				}
				m.historyIdx = -1
				m.textInput.SetValue("")
				m.updateSuggestions()

				m.run(val)
				m.viewport.SetContent(m.logContent)
				m.viewport.GotoBottom()
			}
		default:
			m.textInput, tiCmd = m.textInput.Update(msg)
			m.updateSuggestions()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.suggestions.SetWidth(msg.Width - 6)
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	titleH := lipgloss.Height(titleStyle.Render("Dummy"))
	stateH := lipgloss.Height(m.renderState())
	listAreaHeight := 0
	if m.showList {
		listAreaHeight = m.suggestions.Height() + 2
	}
	infoH := lipgloss.Height(infoStyle.Render("Dummy"))

	overhead := titleH + stateH + 1 + listAreaHeight + infoH + 11
	m.viewport.Height = m.height - overhead
	if m.viewport.Height < 4 {
		m.viewport.Height = 4
	}

	return m, tea.Batch(tiCmd, vpCmd, lsCmd)
}

func (m *replModel) renderState() string {
	var b strings.Builder
	b.WriteString("=== Table ===\n\n")

	_ = m.app.Table().Do(func(s *game.State) error {
		if cur, ok := s.Scheduler.Current(); ok {
			fmt.Fprintf(&b, "Round %d, %s's turn", s.Scheduler.Round(), cur.Name)
			if s.Scheduler.Paused() {
				b.WriteString(" (paused)")
			}
			b.WriteString("\n")
			var order []string
			for _, p := range s.Scheduler.Order() {
				order = append(order, fmt.Sprintf("%s(%d)", p.ID, p.Initiative))
			}
			fmt.Fprintf(&b, "  Order: %s\n", strings.Join(order, ", "))
		} else {
			b.WriteString("No encounter in progress.\n")
		}
		b.WriteString("\n")

		roster := s.Roster()
		if len(roster) == 0 {
			b.WriteString("Nobody has joined.")
		}
		for _, c := range roster {
			down := ""
			if !c.Alive() {
				down = " [down]"
			}
			fmt.Fprintf(&b, " - %s (%s): %d/%d HP, AC %d%s\n", c.ID, c.Name, c.HitPoints, c.MaxHitPoints, c.ArmorClass, down)
		}
		return nil
	})

	return stateBoxStyle.Width(m.width - 4).Render(b.String())
}

func (m *replModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	title := titleStyle.Render(fmt.Sprintf(" draconic | %s ", m.title))
	logBox := logBoxStyle.Width(m.width - 4).Render(m.viewport.View())

	inputArea := m.textInput.View()
	if m.showList {
		inputArea = fmt.Sprintf("%s\n%s", inputArea, autocompleteStyle.Render(m.suggestions.View()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.renderState(),
		logBox,
		"\n",
		inputArea,
		infoStyle.Render("(esc to quit, tab to complete, up/down history)"),
	)
}

// RunTUI blocks until the user quits.
func RunTUI(ctx context.Context, app *session.Session, title string) error {
	m := newREPLModel(ctx, app, title)
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
