package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/infragenie/core"
	"github.com/santiagomed/infragenie/fs"
	"github.com/santiagomed/infragenie/logger"
)

const sidebarWidth = 32

type backMsg struct{}

type ideFocus int

const (
	focusTree ideFocus = iota
	focusEditor
)

type ideOptions struct {
	terminalInterval time.Duration
	exportDir        string
	exportFs         *fs.FileSystem
	logger           logger.Logger
}

// ideModel is the result view. The result is read-only here: edits live in
// buffer and are dropped on file switch and on back.
type ideModel struct {
	result    *core.GenerationResult
	names     []string
	selection core.Selection
	panels    core.Panels
	collapsed bool
	cursor    int
	focus     ideFocus

	buffer  string
	diags   []core.Diagnostic
	editing bool
	editor  textarea.Model
	viewer  viewport.Model

	terminal terminalModel
	status   string
	opts     ideOptions

	width  int
	height int
}

func newIDEModel(result *core.GenerationResult, opts ideOptions) ideModel {
	if opts.logger == nil {
		opts.logger = logger.NewNullLogger()
	}
	if opts.terminalInterval <= 0 {
		opts.terminalInterval = 200 * time.Millisecond
	}

	editor := textarea.New()
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.MaxHeight = 0

	m := ideModel{
		result:    result,
		names:     result.Infrastructure.Names(),
		selection: core.NewSelection(&result.Infrastructure),
		panels:    core.DefaultPanels(),
		focus:     focusTree,
		editor:    editor,
		viewer:    viewport.New(80, 20),
		terminal:  newTerminalModel(opts.terminalInterval),
		opts:      opts,
		width:     120,
		height:    40,
	}
	for i, name := range m.names {
		if name == m.selection.Selected() {
			m.cursor = i
		}
	}
	m.buffer = m.selection.Content()
	m.diagnose()
	m.layout()
	return m
}

func (m ideModel) Init() tea.Cmd {
	if m.panels.Terminal.IsOpen() {
		return m.terminal.Init()
	}
	return nil
}

func (m ideModel) Update(msg tea.Msg) (ideModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case terminalTickMsg:
		var cmd tea.Cmd
		m.terminal, cmd = m.terminal.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.editing {
			return m.handleEditingState(msg)
		}
		return m.handleKeyPress(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.viewer, cmd = m.viewer.Update(msg)
	return m, cmd
}

// handleKeyPress handles key presses while browsing.
func (m ideModel) handleKeyPress(msg tea.KeyMsg) (ideModel, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "b", "backspace":
		m.opts.logger.Debug("Leaving result view")
		return m, func() tea.Msg { return backMsg{} }
	case "tab":
		if m.focus == focusTree {
			m.focus = focusEditor
		} else if m.panels.Sidebar.IsOpen() {
			m.focus = focusTree
		}
		return m, nil
	case "ctrl+b":
		m.panels.Sidebar = m.panels.Sidebar.Toggle()
		if !m.panels.Sidebar.IsOpen() {
			m.focus = focusEditor
		}
		m.layout()
		return m, nil
	case "ctrl+t":
		m.panels.Terminal = m.panels.Terminal.Toggle()
		m.layout()
		if m.panels.Terminal.IsOpen() {
			// reopening remounts the terminal, so the transcript replays
			m.terminal = newTerminalModel(m.opts.terminalInterval)
			return m, m.terminal.Init()
		}
		return m, nil
	case "c":
		m.collapsed = !m.collapsed
		return m, nil
	case "e":
		return m.startEditing()
	case "ctrl+s":
		return m.export()
	}

	if m.focus == focusTree && m.panels.Sidebar.IsOpen() && !m.collapsed {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.names)-1 {
				m.cursor++
			}
			return m, nil
		case "enter", " ":
			if len(m.names) > 0 {
				m.selectFile(m.names[m.cursor])
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewer, cmd = m.viewer.Update(msg)
	return m, cmd
}

// handleEditingState routes keys to the in-memory editor.
func (m ideModel) handleEditingState(msg tea.KeyMsg) (ideModel, tea.Cmd) {
	if msg.String() == "esc" {
		m.editing = false
		m.editor.Blur()
		m.refreshViewer()
		m.status = "Edits are kept in memory only."
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if value := m.editor.Value(); value != m.buffer {
		m.buffer = value
		m.diagnose()
	}
	return m, cmd
}

func (m ideModel) startEditing() (ideModel, tea.Cmd) {
	if m.selection.Empty() {
		return m, nil
	}
	m.editing = true
	m.focus = focusEditor
	m.editor.SetValue(m.buffer)
	m.status = "Editing " + m.selection.Selected() + " (esc to stop)"
	return m, m.editor.Focus()
}

// selectFile switches the viewer to name and drops any unsaved edits.
func (m *ideModel) selectFile(name string) {
	if err := m.selection.Select(name); err != nil {
		m.opts.logger.Warn(fmt.Sprintf("Ignoring selection: %v", err))
		return
	}
	for i, n := range m.names {
		if n == name {
			m.cursor = i
		}
	}
	m.buffer = m.selection.Content()
	m.diagnose()
	m.status = ""
	m.refreshViewer()
	m.viewer.GotoTop()
}

// diagnose refreshes the syntax diagnostics of the buffer.
func (m *ideModel) diagnose() {
	if m.selection.Empty() {
		m.diags = nil
		return
	}
	m.diags = core.Diagnose(m.selection.Selected(), m.buffer)
}

// Content is what the viewer currently shows for the selected file.
func (m ideModel) Content() string {
	return m.buffer
}

func (m ideModel) export() (ideModel, tea.Cmd) {
	if m.opts.exportFs == nil {
		m.status = "Export is not available."
		return m, nil
	}
	dir, err := fs.Export(m.result, m.opts.exportFs, m.opts.exportDir)
	if err != nil {
		m.opts.logger.Error(fmt.Sprintf("Export failed: %v", err))
		m.status = "Export failed: " + err.Error()
		return m, nil
	}
	files, err := m.opts.exportFs.ListFiles(dir)
	if err != nil {
		m.opts.logger.Error(fmt.Sprintf("Could not list exported files: %v", err))
		m.status = "Export failed: " + err.Error()
		return m, nil
	}
	m.opts.logger.Info(fmt.Sprintf("Exported %d files to %s", len(files), dir))
	m.status = fmt.Sprintf("%s Exported %d files to %s", checkStyle.Render("✓"), len(files), nameStyle.Render(dir))
	return m, nil
}

// layout recomputes pane sizes after a resize or a panel toggle.
func (m *ideModel) layout() {
	contentWidth := m.width
	if m.panels.Sidebar.IsOpen() {
		contentWidth -= sidebarWidth
	}
	editorHeight := m.bodyHeight()
	if m.panels.Terminal.IsOpen() {
		editorHeight = m.bodyHeight() * 2 / 3
	}
	// two border rows plus the file tab
	m.viewer.Width = max(contentWidth-2, 10)
	m.viewer.Height = max(editorHeight-3, 3)
	m.editor.SetWidth(m.viewer.Width)
	m.editor.SetHeight(m.viewer.Height)
	m.refreshViewer()
}

func (m ideModel) bodyHeight() int {
	// title bar and status line
	return max(m.height-2, 6)
}

func (m *ideModel) refreshViewer() {
	if m.selection.Empty() {
		m.viewer.SetContent("")
		return
	}
	m.viewer.SetContent(withLineNumbers(highlight(m.selection.Selected(), m.buffer)))
}

func (m ideModel) View() string {
	header := m.headerView()

	var columns []string
	if m.panels.Sidebar.IsOpen() {
		columns = append(columns, m.sidebarView())
	}
	columns = append(columns, m.mainView())
	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.statusView())
}

func (m ideModel) headerView() string {
	left := "← b back   Terraform IDE"
	right := fmt.Sprintf("%s • %d files", strings.ToUpper(m.result.CloudProvider), m.result.Infrastructure.Len())
	if m.result.RequestID != "" {
		right += " • " + m.result.RequestID
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return titleBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m ideModel) sidebarView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Project Explorer"))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("Infrastructure Files"))
	b.WriteString("\n\n")

	arrow := "▾"
	if m.collapsed {
		arrow = "▸"
	}
	b.WriteString(fmt.Sprintf("%s TERRAFORM %s\n", arrow, badgeStyle.Render(fmt.Sprintf("(%d)", len(m.names)))))

	if !m.collapsed {
		for i, name := range m.names {
			line := fmt.Sprintf("  %-20s %s", truncate(name, 20), badgeStyle.Render(core.Extension(name)))
			switch {
			case name == m.selection.Selected():
				line = selectedStyle.Render(fmt.Sprintf("▌ %-20s %s", truncate(name, 20), core.Extension(name)))
			case i == m.cursor && m.focus == focusTree:
				line = cursorStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render(fmt.Sprintf("● Ready  %d files • Terraform", len(m.names))))

	style := paneStyle
	if m.focus == focusTree {
		style = focusPaneStyle
	}
	return style.Width(sidebarWidth - 2).Height(m.bodyHeight() - 2).Render(b.String())
}

func (m ideModel) mainView() string {
	width := m.width
	if m.panels.Sidebar.IsOpen() {
		width -= sidebarWidth
	}

	var editor string
	if m.selection.Empty() {
		placeholder := lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render("Welcome to Terraform IDE"),
			faintStyle.Render("Select a file from the explorer to start editing"),
		)
		editor = paneStyle.
			Width(width-2).
			Height(m.viewer.Height+1).
			Align(lipgloss.Center, lipgloss.Center).
			Render(placeholder)
	} else {
		tab := m.selection.Selected()
		if m.buffer != m.selection.Content() {
			tab += " ●"
		}
		content := m.viewer.View()
		if m.editing {
			content = m.editor.View()
		}
		style := paneStyle
		if m.focus == focusEditor {
			style = focusPaneStyle
		}
		editor = style.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleBarStyle.Render(tab+"  "+faintStyle.Render(core.Language(tab))),
			content,
		))
	}

	if m.panels.Terminal.IsOpen() {
		termHeight := max(m.bodyHeight()-lipgloss.Height(editor), 2)
		return lipgloss.JoinVertical(lipgloss.Left, editor, m.terminal.View(width, termHeight))
	}
	return lipgloss.JoinVertical(lipgloss.Left, editor, titleBarStyle.Width(width).Render("Show Terminal (ctrl+t)"))
}

func (m ideModel) statusView() string {
	if m.status != "" {
		return m.status
	}
	entry, ok := m.selection.Entry()
	if !ok {
		return helpStyle.Render("↑/↓ move • enter open • tab focus • ctrl+b sidebar • ctrl+t terminal • b back • q quit")
	}

	var parts []string
	if entry.Purpose != "" {
		parts = append(parts, entry.Purpose)
	}
	if len(entry.Dependencies) > 0 {
		parts = append(parts, "depends on "+strings.Join(entry.Dependencies, ", "))
	}

	diags := m.diags
	switch {
	case core.HasErrors(diags):
		parts = append(parts, errorStyle.UnsetBorderStyle().UnsetPadding().Render(fmt.Sprintf("%d problem(s): %s", len(diags), diags[0])))
	case len(diags) > 0:
		parts = append(parts, warnStyle.Render(fmt.Sprintf("%d warning(s): %s", len(diags), diags[0])))
	case core.Language(m.selection.Selected()) != "plaintext":
		parts = append(parts, checkStyle.Render("✓ syntax ok"))
	}

	parts = append(parts, helpStyle.Render("e edit • ctrl+s export • b back"))
	return strings.Join(parts, "  │  ")
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
