package cli

import (
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// The transcript is decorative; nothing is executed.
var terraformInitTranscript = []string{
	"$ terraform init",
	"",
	"Initializing the backend...",
	"",
	"Initializing provider plugins...",
	`- Finding hashicorp/azurerm versions matching "~> 3.0"...`,
	"- Installing hashicorp/azurerm v3.116.0...",
	"- Installed hashicorp/azurerm v3.116.0 (signed by HashiCorp)",
	"",
	"Terraform has created a lock file .terraform.lock.hcl to record the provider",
	"selections it made above. Include this file in your version control repository",
	"so that Terraform can guarantee to make the same selections by default when",
	`you run "terraform init" in the future.`,
	"",
	"Terraform has been successfully initialized!",
	"",
	`You may now begin working with Terraform. Try running "terraform plan" to see`,
	"any changes that are required for your infrastructure. All Terraform commands",
	"should now work.",
	"",
	"$ ",
}

var lastTerminalID int64

type terminalTickMsg struct {
	id int
}

type terminalModel struct {
	id       int
	lines    []string
	shown    int
	interval time.Duration
}

func newTerminalModel(interval time.Duration) terminalModel {
	return terminalModel{
		id:       int(atomic.AddInt64(&lastTerminalID, 1)),
		lines:    terraformInitTranscript,
		interval: interval,
	}
}

func (m terminalModel) Init() tea.Cmd {
	return m.tick()
}

func (m terminalModel) tick() tea.Cmd {
	id := m.id
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return terminalTickMsg{id: id}
	})
}

func (m terminalModel) Update(msg tea.Msg) (terminalModel, tea.Cmd) {
	tick, ok := msg.(terminalTickMsg)
	if !ok || tick.id != m.id || m.Done() {
		return m, nil
	}
	m.shown++
	if m.Done() {
		return m, nil
	}
	return m, m.tick()
}

func (m terminalModel) Done() bool {
	return m.shown >= len(m.lines)
}

// Output returns the lines written so far.
func (m terminalModel) Output() []string {
	return m.lines[:m.shown]
}

func (m terminalModel) View(width, height int) string {
	header := titleBarStyle.Width(width).Render("Terminal  (ctrl+t to hide)")
	if height < 2 {
		return header
	}

	out := m.Output()
	if visible := height - 1; len(out) > visible {
		out = out[len(out)-visible:]
	}
	body := lipgloss.NewStyle().
		Width(width).
		Height(height - 1).
		Foreground(lipgloss.Color("#D4D4D4")).
		Render(strings.Join(out, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}
