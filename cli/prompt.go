package cli

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/infragenie/core"
	"github.com/santiagomed/infragenie/generator"
	"github.com/santiagomed/infragenie/logger"
)

var suggestions = []string{
	"Deploy scalable FastAPI app with PostgreSQL on Azure",
	"Create VPC with subnets and NAT gateway",
	"Set up S3 bucket with CloudFront and SSL",
}

type promptFocus int

const (
	focusPrompt promptFocus = iota
	focusCloud
	focusAI
)

type generationDoneMsg Outcome

type resultReadyMsg struct {
	result *core.GenerationResult
}

type countdownTickMsg struct {
	seq int
}

type promptModel struct {
	textarea textarea.Model
	spinner  spinner.Model
	progress progress.Model
	engine   *Engine
	logger   logger.Logger

	cloud core.CloudProvider
	ai    core.AIProvider
	focus promptFocus

	state    core.RequestState
	err      string
	notice   string
	seq      int
	started  time.Time
	deadline time.Time
	now      func() time.Time
	width    int
}

func newPromptModel(engine *Engine, cloud core.CloudProvider, ai core.AIProvider, l logger.Logger) promptModel {
	ta := textarea.New()
	ta.Placeholder = "e.g. Deploy a Django app with MySQL on Azure using Terraform"
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))

	if l == nil {
		l = logger.NewNullLogger()
	}

	return promptModel{
		textarea: ta,
		spinner:  s,
		progress: progress.New(progress.WithGradient("#60A5FA", "#9333EA"), progress.WithoutPercentage()),
		engine:   engine,
		logger:   l,
		cloud:    cloud,
		ai:       ai,
		focus:    focusPrompt,
		state:    core.Idle,
		now:      time.Now,
		width:    80,
	}
}

func (m promptModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m promptModel) Update(msg tea.Msg) (promptModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.textarea.SetWidth(min(msg.Width-4, 100))
		m.progress.Width = min(msg.Width-4, 80)
		return m, nil
	case generationDoneMsg:
		return m.handleOutcome(Outcome(msg))
	case countdownTickMsg:
		if msg.seq != m.seq || m.state != core.Submitting {
			return m, nil
		}
		return m, m.countdownTick()
	case spinner.TickMsg:
		if m.state != core.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.focus == focusPrompt && m.state != core.Submitting {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyPress handles key presses for the request view.
func (m promptModel) handleKeyPress(msg tea.KeyMsg) (promptModel, tea.Cmd) {
	if m.state == core.Submitting {
		return m.handleSubmittingState(msg)
	}

	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "enter":
		return m.submit(m.textarea.Value())
	case "tab":
		return m.setFocus((m.focus + 1) % 3), nil
	case "shift+tab":
		return m.setFocus((m.focus + 2) % 3), nil
	case "alt+1", "alt+2", "alt+3":
		i := int(msg.String()[len("alt+")] - '1')
		m.textarea.SetValue(suggestions[i])
		return m.submit(suggestions[i])
	}

	switch m.focus {
	case focusCloud:
		switch msg.String() {
		case "left", "h":
			m.cloud = m.cloud.Prev()
		case "right", "l", " ":
			m.cloud = m.cloud.Next()
		}
		return m, nil
	case focusAI:
		switch msg.String() {
		case "left", "h":
			m.ai = m.ai.Prev()
		case "right", "l", " ":
			m.ai = m.ai.Next()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// handleSubmittingState only lets the user cancel while a request runs.
func (m promptModel) handleSubmittingState(msg tea.KeyMsg) (promptModel, tea.Cmd) {
	if msg.String() != "esc" {
		return m, nil
	}
	m.engine.Cancel()
	m.logger.Info(fmt.Sprintf("User cancelled request %d", m.seq))
	m.state = core.Idle
	m.notice = "Request cancelled."
	return m, nil
}

func (m promptModel) setFocus(f promptFocus) promptModel {
	m.focus = f
	if f == focusPrompt {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
	return m
}

// submit starts a request. A blank prompt is ignored without touching the
// network.
func (m promptModel) submit(prompt string) (promptModel, tea.Cmd) {
	req, err := core.NewGenerationRequest(m.cloud, prompt, m.ai)
	if errors.Is(err, core.ErrEmptyPrompt) {
		return m, nil
	}
	if err != nil {
		m.state = core.Error
		m.err = err.Error()
		return m, nil
	}

	ticket, err := m.engine.Submit(req)
	if errors.Is(err, ErrBusy) {
		m.notice = "The previous request is still finishing, try again in a moment."
		return m, nil
	}
	if err != nil {
		m.state = core.Error
		m.err = generator.Message(err)
		return m, nil
	}

	m.logger.Debug(fmt.Sprintf("Submitted prompt (%d chars) as request %d", len(prompt), ticket.Seq))
	m.state = core.Submitting
	m.err = ""
	m.notice = ""
	m.seq = ticket.Seq
	m.started = ticket.Started
	m.deadline = ticket.Deadline

	return m, tea.Batch(m.spinner.Tick, m.countdownTick(), waitForOutcome(ticket.Done))
}

func waitForOutcome(done <-chan Outcome) tea.Cmd {
	return func() tea.Msg {
		return generationDoneMsg(<-done)
	}
}

func (m promptModel) countdownTick() tea.Cmd {
	seq := m.seq
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{seq: seq}
	})
}

// handleOutcome applies a finished request. Outcomes of cancelled or
// superseded requests are dropped.
func (m promptModel) handleOutcome(o Outcome) (promptModel, tea.Cmd) {
	if o.Seq != m.seq || m.state != core.Submitting {
		m.logger.Debug(fmt.Sprintf("Ignoring stale outcome for request %d", o.Seq))
		return m, nil
	}

	if o.Err != nil {
		m.state = core.Error
		m.err = generator.Message(o.Err)
		return m, nil
	}

	m.state = core.Success
	result := o.Result
	return m, func() tea.Msg { return resultReadyMsg{result: result} }
}

// remaining is the number of whole seconds left before the request deadline.
func (m promptModel) remaining() int {
	left := m.deadline.Sub(m.now()).Seconds()
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left))
}

func (m promptModel) elapsedRatio() float64 {
	total := m.deadline.Sub(m.started)
	if total <= 0 {
		return 1
	}
	ratio := float64(m.now().Sub(m.started)) / float64(total)
	return math.Max(0, math.Min(1, ratio))
}

func (m promptModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("InfraGenie"))
	b.WriteString(faintStyle.Render("  describe your infrastructure, get Terraform"))
	b.WriteString("\n\n")

	box := inputBoxStyle
	if m.focus == focusPrompt {
		box = focusBoxStyle
	}
	b.WriteString(box.Render(m.textarea.View()))
	b.WriteString("\n\n")

	b.WriteString(m.choiceRow("Cloud", m.focus == focusCloud, providerNames(core.CloudProviders()), string(m.cloud)))
	b.WriteString("\n")
	b.WriteString(m.choiceRow("AI   ", m.focus == focusAI, providerNames(core.AIProviders()), string(m.ai)))
	b.WriteString("\n\n")

	for i, s := range suggestions {
		b.WriteString(helpStyle.Render(fmt.Sprintf("alt+%d", i+1)))
		b.WriteString(" ")
		b.WriteString(s)
		b.WriteString("\n")
	}

	switch m.state {
	case core.Submitting:
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s Generating Terraform... %ds left", m.spinner.View(), m.remaining()))
		b.WriteString("\n")
		b.WriteString(m.progress.ViewAs(m.elapsedRatio()))
		b.WriteString("\n")
	case core.Error:
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("⚠ " + m.err))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(faintStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state == core.Submitting {
		b.WriteString(helpStyle.Render("esc cancel • ctrl+c quit"))
	} else {
		b.WriteString(helpStyle.Render("enter generate • alt+enter newline • tab switch field • ←/→ change choice • esc quit"))
	}
	return b.String()
}

func (m promptModel) choiceRow(label string, focused bool, options []string, current string) string {
	parts := make([]string, 0, len(options))
	for _, opt := range options {
		if opt == current {
			parts = append(parts, activeChoice.Render(opt))
		} else {
			parts = append(parts, inactiveChoice.Render(opt))
		}
	}
	prefix := "  "
	if focused {
		prefix = nameStyle.Render("> ")
	}
	return prefix + label + " " + strings.Join(parts, " ")
}

func providerNames[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
