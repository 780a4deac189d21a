// kcp-chat is the terminal chat client for KidsClubPlans: a streaming
// conversation view over the session controller, with a status line showing
// turn state and the token estimate for the current draft.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/conversation"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/stream"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/conf"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/pkg/logger"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cardStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
)

type transcriptChangedMsg struct{}

// waitForChange re-arms the transcript watch; each signal produces one
// re-render and the next wait.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return transcriptChangedMsg{}
	}
}

type model struct {
	session    *conversation.Session
	transcript *conversation.Transcript
	estimator  *chat.Estimator

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	ready  bool
	width  int
	height int
}

func newModel(session *conversation.Session, estimator *chat.Estimator) model {
	input := textinput.New()
	input.Placeholder = "Ask for activity ideas, a day plan, or a catalog search..."
	input.Focus()
	input.CharLimit = 2000

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return model{
		session:    session,
		transcript: session.Transcript(),
		estimator:  estimator,
		input:      input,
		spin:       spin,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		waitForChange(m.transcript.Changes()),
	)
}

func (m model) streaming() bool {
	for _, msg := range m.transcript.Messages() {
		if msg.IsStreaming {
			return true
		}
	}
	return false
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.session.Cancel()
			return m, tea.Quit
		case tea.KeyCtrlX:
			m.session.Cancel()
			return m, nil
		case tea.KeyCtrlR:
			m.session.Reset()
			return m, nil
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				m.session.Send(text)
				m.input.Reset()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()

	case transcriptChangedMsg:
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		cmds = append(cmds, waitForChange(m.transcript.Changes()))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) renderTranscript() string {
	var b strings.Builder
	width := m.width
	if width <= 0 {
		width = 80
	}

	for _, msg := range m.transcript.Messages() {
		switch msg.Role {
		case types.RoleUser:
			b.WriteString(userStyle.Render("You") + "\n")
		default:
			b.WriteString(assistantStyle.Render("Planner") + "\n")
		}

		content := msg.Content
		if content == "" && msg.IsStreaming {
			content = m.spin.View() + " thinking..."
		}
		b.WriteString(lipgloss.NewStyle().Width(width - 2).Render(content))
		b.WriteString("\n")

		for _, call := range msg.ToolCalls {
			b.WriteString(dimStyle.Render("· used "+call.Name) + "\n")
		}
		for _, act := range msg.Activities {
			b.WriteString(renderActivity(act, width) + "\n")
		}
		for _, draft := range msg.Schedules {
			b.WriteString(renderSchedule(draft) + "\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderActivity(act types.Activity, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(act.Title))
	if act.DurationMinutes > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d min", act.DurationMinutes)))
	}
	if act.TargetAge != "" {
		b.WriteString(dimStyle.Render("  " + act.TargetAge))
	}
	if act.Description != "" {
		b.WriteString("\n" + act.Description)
	}
	if len(act.Supplies) > 0 {
		b.WriteString("\n" + dimStyle.Render("Supplies: "+strings.Join(act.Supplies, ", ")))
	}
	return cardStyle.Width(min(width-4, 76)).Render(b.String())
}

func renderSchedule(draft types.ScheduleDraft) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Proposed plan"))
	if draft.Date != "" {
		b.WriteString(dimStyle.Render("  " + draft.Date))
	}
	for _, slot := range draft.Slots {
		b.WriteString(fmt.Sprintf("\n%s  %s", slot.StartTime, slot.Title))
		if slot.DurationMinutes > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf(" (%d min)", slot.DurationMinutes)))
		}
	}
	return cardStyle.Render(b.String())
}

func (m model) statusLine() string {
	if m.streaming() {
		return statusStyle.Render(m.spin.View() + " streaming (ctrl+x to stop)")
	}
	estimate := m.estimator.Prompt(m.transcript.Messages(), m.input.Value())
	return statusStyle.Render(fmt.Sprintf("~%d prompt tokens · enter to send · ctrl+r new chat · ctrl+c quit", estimate))
}

func (m model) View() string {
	if !m.ready {
		return "starting..."
	}
	header := titleStyle.Render("KidsClubPlans") + dimStyle.Render("  activity planning assistant") + "\n"
	return header + m.viewport.View() + "\n" + m.input.View() + "\n" + m.statusLine()
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	backend := flag.String("backend", "", "backend base URL (overrides config)")
	flag.Parse()

	cfg, err := conf.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Client.BaseURL = *backend
	}

	// The TUI owns stdout; keep logs out of it unless configured to a file.
	if cfg.Log.Output == "console" {
		cfg.Log.Output = "file"
	}
	if err := logger.InitGlobal(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.L().Named("chat")
	defer log.Sync()

	client := stream.NewClient(stream.Config{
		BaseURL:        cfg.Client.BaseURL,
		MaxRetries:     cfg.Client.MaxRetries,
		RetryBaseDelay: cfg.Client.RetryBaseDelay,
	}, log.Named("stream"))

	transcript := conversation.NewTranscript(cfg.Chat.WelcomeMessage, log.Named("transcript"))
	session := conversation.NewSession(client, transcript, log.Named("session"))
	estimator := chat.NewEstimator(cfg.Chat.TokenEncoding)

	p := tea.NewProgram(newModel(session, estimator), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
