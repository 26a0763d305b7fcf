package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/santiagomed/infragenie/config"
	"github.com/santiagomed/infragenie/core"
	"github.com/santiagomed/infragenie/fs"
	"github.com/santiagomed/infragenie/logger"
)

type view int

const (
	requestView view = iota
	resultView
)

func (v view) String() string {
	switch v {
	case requestView:
		return "request"
	case resultView:
		return "result"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// appModel switches between the request view and the result view. Exactly one
// of them is mounted at a time.
type appModel struct {
	cfg      *config.Config
	engine   *Engine
	logger   logger.Logger
	exportFs *fs.FileSystem

	view   view
	prompt promptModel
	ide    ideModel

	width  int
	height int
}

func newAppModel(cfg *config.Config, engine *Engine, exportFs *fs.FileSystem, l logger.Logger) appModel {
	if l == nil {
		l = logger.NewNullLogger()
	}
	m := appModel{
		cfg:      cfg,
		engine:   engine,
		logger:   l,
		exportFs: exportFs,
		view:     requestView,
	}
	m.prompt = m.newPrompt()
	return m
}

// withResult starts the app directly in the result view.
func (m appModel) withResult(result *core.GenerationResult) appModel {
	m.view = resultView
	m.ide = m.newIDE(result)
	return m
}

func (m appModel) newPrompt() promptModel {
	return newPromptModel(m.engine, m.cfg.Cloud(), m.cfg.AI(), m.logger)
}

func (m appModel) newIDE(result *core.GenerationResult) ideModel {
	ide := newIDEModel(result, ideOptions{
		terminalInterval: m.cfg.TerminalInterval,
		exportDir:        m.cfg.ExportDir,
		exportFs:         m.exportFs,
		logger:           m.logger,
	})
	if m.width > 0 {
		ide, _ = ide.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
	return ide
}

func (m appModel) Init() tea.Cmd {
	if m.view == resultView {
		return m.ide.Init()
	}
	return m.prompt.Init()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.engine.Cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case resultReadyMsg:
		if m.view != requestView {
			return m, nil
		}
		m.logger.Info(fmt.Sprintf("Showing %d generated files", msg.result.Infrastructure.Len()))
		m.view = resultView
		m.ide = m.newIDE(msg.result)
		return m, m.ide.Init()
	case backMsg:
		if m.view != resultView {
			return m, nil
		}
		m.view = requestView
		m.prompt = m.newPrompt()
		if m.width > 0 {
			m.prompt, _ = m.prompt.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		}
		return m, m.prompt.Init()
	case generationDoneMsg:
		if m.view != requestView {
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.view {
	case resultView:
		m.ide, cmd = m.ide.Update(msg)
	default:
		m.prompt, cmd = m.prompt.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	if m.view == resultView {
		return m.ide.View()
	}
	return m.prompt.View()
}
