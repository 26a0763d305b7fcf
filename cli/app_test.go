package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/santiagomed/infragenie/config"
	"github.com/santiagomed/infragenie/core"
	"github.com/santiagomed/infragenie/fs"
	"github.com/santiagomed/infragenie/generator"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFileBody = `{
	"version": "1.0.0",
	"request_id": "req_abc",
	"status": "success",
	"cloud_provider": "aws",
	"infrastructure": {
		"vpc.tf": {"content": "resource \"aws_vpc\" \"main\" {}", "purpose": "VPC", "dependencies": []},
		"main.tf": {"content": "provider \"aws\" {}", "purpose": "Provider", "dependencies": ["vpc.tf"]}
	}
}`

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyCtrlB = tea.KeyMsg{Type: tea.KeyCtrlB}
	keyCtrlT = tea.KeyMsg{Type: tea.KeyCtrlT}
	keyCtrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// awaitMsg runs cmd, unwrapping batches, and returns the first message of
// type T. Commands that never produce a T are left running.
func awaitMsg[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	require.NotNil(t, cmd)

	found := make(chan T, 1)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			for _, inner := range msg {
				go run(inner)
			}
		case T:
			select {
			case found <- msg:
			default:
			}
		}
	}
	go run(cmd)

	select {
	case msg := <-found:
		return msg
	case <-time.After(5 * time.Second):
		var zero T
		t.Fatalf("timed out waiting for %T", zero)
		return zero
	}
}

func testConfig(apiURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.APIURL = apiURL
	cfg.TerminalInterval = time.Millisecond
	cfg.ExportDir = "exports"
	return cfg
}

func newTestApp(t *testing.T, client generator.Client) appModel {
	t.Helper()
	engine := NewEngine(client, nil, time.Minute)
	t.Cleanup(func() { engine.Shutdown(time.Second) })
	return newAppModel(testConfig("http://unused"), engine, fs.NewMemoryFileSystem(), nil)
}

func newHTTPApp(t *testing.T, handler http.HandlerFunc) (appModel, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := generator.NewHTTPClient(server.URL, nil)
	require.NoError(t, err)
	return newTestApp(t, client), &calls
}

func update(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	app, ok := next.(appModel)
	require.True(t, ok)
	return app, cmd
}

func typePrompt(m appModel, prompt string) appModel {
	m.prompt.textarea.SetValue(prompt)
	return m
}

func TestApp_BlankPromptMakesNoRequest(t *testing.T) {
	app, calls := newHTTPApp(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, prompt := range []string{"", "   ", "\n  \t"} {
		next, cmd := update(t, typePrompt(app, prompt), keyEnter)
		assert.Nil(t, cmd)
		assert.Equal(t, core.Idle, next.prompt.state)
		assert.Equal(t, requestView, next.view)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestApp_SuccessMountsResultView(t *testing.T) {
	var body string
	app, calls := newHTTPApp(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, twoFileBody)
	})

	app, cmd := update(t, typePrompt(app, "Create VPC with subnets"), keyEnter)
	assert.Equal(t, core.Submitting, app.prompt.state)

	done := awaitMsg[generationDoneMsg](t, cmd)
	app, cmd = update(t, app, done)
	ready := awaitMsg[resultReadyMsg](t, cmd)
	app, _ = update(t, app, ready)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.JSONEq(t, `{"cloud_provider":"azure","prompt":"Create VPC with subnets","provider":"gemini"}`, body)
	require.Equal(t, resultView, app.view)
	assert.Equal(t, []string{"vpc.tf", "main.tf"}, app.ide.names)
	assert.Equal(t, "main.tf", app.ide.selection.Selected())
	assert.Equal(t, `provider "aws" {}`, app.ide.Content())
	assert.Contains(t, app.View(), "AWS • 2 files")
}

func TestApp_ServerErrorStaysInRequestView(t *testing.T) {
	app, _ := newHTTPApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	app, cmd := update(t, typePrompt(app, "Set up S3 bucket"), keyEnter)
	done := awaitMsg[generationDoneMsg](t, cmd)
	app, cmd = update(t, app, done)

	assert.Nil(t, cmd)
	assert.Equal(t, requestView, app.view)
	assert.Equal(t, core.Error, app.prompt.state)
	assert.Equal(t, "Error: 500", app.prompt.err)
	assert.Contains(t, app.View(), "Error: 500")
}

func TestApp_SuggestionSubmitsImmediately(t *testing.T) {
	app, calls := newHTTPApp(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, twoFileBody)
	})

	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2"), Alt: true})
	assert.Equal(t, suggestions[1], app.prompt.textarea.Value())
	assert.Equal(t, core.Submitting, app.prompt.state)

	awaitMsg[generationDoneMsg](t, cmd)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestApp_EscCancelsAndDropsLateOutcome(t *testing.T) {
	client := newBlockingClient()
	app := newTestApp(t, client)

	app, cmd := update(t, typePrompt(app, "Deploy a Django app"), keyEnter)
	<-client.started
	app, _ = update(t, app, keyEsc)

	assert.Equal(t, core.Idle, app.prompt.state)
	assert.Equal(t, "Request cancelled.", app.prompt.notice)

	done := awaitMsg[generationDoneMsg](t, cmd)
	app, cmd = update(t, app, done)
	assert.Nil(t, cmd)
	assert.Equal(t, core.Idle, app.prompt.state)
	assert.Empty(t, app.prompt.err)
}

func TestPrompt_StaleOutcomeIgnored(t *testing.T) {
	m := newPromptModel(nil, core.Azure, core.Gemini, nil)
	m.state = core.Submitting
	m.seq = 2

	m, cmd := m.Update(generationDoneMsg{Seq: 1, Result: core.MockResult()})
	assert.Nil(t, cmd)
	assert.Equal(t, core.Submitting, m.state)
}

func TestPrompt_ProviderSelectors(t *testing.T) {
	m := newPromptModel(nil, core.Azure, core.Gemini, nil)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, core.AWS, m.cloud)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, core.GCP, m.cloud)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.Update(runes("l"))
	assert.Equal(t, core.OpenAI, m.ai)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, focusPrompt, m.focus)
	assert.Empty(t, m.textarea.Value())
}

func TestPrompt_Countdown(t *testing.T) {
	m := newPromptModel(nil, core.Azure, core.Gemini, nil)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.started = start
	m.deadline = start.Add(2 * time.Minute)

	m.now = func() time.Time { return start }
	assert.Equal(t, 120, m.remaining())
	assert.Equal(t, 0.0, m.elapsedRatio())

	m.now = func() time.Time { return start.Add(30*time.Second + time.Millisecond) }
	assert.Equal(t, 90, m.remaining())
	assert.InDelta(t, 0.25, m.elapsedRatio(), 0.001)

	m.now = func() time.Time { return start.Add(3 * time.Minute) }
	assert.Equal(t, 0, m.remaining())
	assert.Equal(t, 1.0, m.elapsedRatio())
}

func TestApp_GenerationDoneIgnoredInResultView(t *testing.T) {
	app := newTestApp(t, new(MockClient)).withResult(core.MockResult())

	app, cmd := update(t, app, generationDoneMsg{Seq: 1, Err: context.Canceled})
	assert.Nil(t, cmd)
	assert.Equal(t, resultView, app.view)
}

func TestApp_BackMountsFreshPrompt(t *testing.T) {
	app := newTestApp(t, new(MockClient))
	app = typePrompt(app, "old prompt")
	app.prompt.state = core.Error
	app.prompt.err = "Error: 502"
	app = app.withResult(core.MockResult())

	app, cmd := update(t, app, runes("b"))
	back := awaitMsg[backMsg](t, cmd)
	app, _ = update(t, app, back)

	assert.Equal(t, requestView, app.view)
	assert.Equal(t, core.Idle, app.prompt.state)
	assert.Empty(t, app.prompt.err)
	assert.Empty(t, app.prompt.textarea.Value())
}

func TestApp_ResultReadyIgnoredInResultView(t *testing.T) {
	app := newTestApp(t, new(MockClient)).withResult(core.MockResult())

	other := core.MockResult()
	other.RequestID = "req_other"
	app, cmd := update(t, app, resultReadyMsg{result: other})
	assert.Nil(t, cmd)
	assert.Equal(t, "req_123456789", app.ide.result.RequestID)
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, new(MockClient))

	_, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func newTestIDE(result *core.GenerationResult) ideModel {
	return newIDEModel(result, ideOptions{
		terminalInterval: time.Millisecond,
		exportDir:        "exports",
		exportFs:         fs.NewMemoryFileSystem(),
	})
}

func resultWith(files ...string) *core.GenerationResult {
	result := &core.GenerationResult{CloudProvider: "gcp", RequestID: "req_files"}
	for _, name := range files {
		result.Infrastructure.Set(name, core.FileEntry{Content: "# " + name, Purpose: name})
	}
	return result
}

func TestIDE_InitialSelection(t *testing.T) {
	m := newTestIDE(resultWith("network.tf", "main.tf"))
	assert.Equal(t, "main.tf", m.selection.Selected())
	assert.Equal(t, 1, m.cursor)

	m = newTestIDE(resultWith("network.tf", "outputs.tf"))
	assert.Equal(t, "network.tf", m.selection.Selected())

	m = newTestIDE(resultWith())
	assert.True(t, m.selection.Empty())
	assert.Empty(t, m.Content())
	assert.Contains(t, m.View(), "Welcome to Terraform IDE")
	assert.Contains(t, m.View(), "GCP • 0 files")
}

func TestIDE_SelectRoundTrip(t *testing.T) {
	m := newTestIDE(resultWith("a.tf", "b.tf"))
	require.Equal(t, "a.tf", m.selection.Selected())
	before := m.Content()

	m, _ = m.Update(runes("j"))
	m, _ = m.Update(keyEnter)
	assert.Equal(t, "b.tf", m.selection.Selected())
	assert.Equal(t, "# b.tf", m.Content())

	m, _ = m.Update(runes("k"))
	m, _ = m.Update(keyEnter)
	assert.Equal(t, "a.tf", m.selection.Selected())
	assert.Equal(t, before, m.Content())
}

func TestIDE_CursorStaysInBounds(t *testing.T) {
	m := newTestIDE(resultWith("a.tf", "b.tf"))

	m, _ = m.Update(runes("k"))
	assert.Equal(t, 0, m.cursor)
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))
	assert.Equal(t, 1, m.cursor)
}

func TestIDE_TogglePanels(t *testing.T) {
	m := newTestIDE(core.MockResult())
	require.Equal(t, core.DefaultPanels(), m.panels)

	m, _ = m.Update(keyCtrlB)
	assert.False(t, m.panels.Sidebar.IsOpen())
	assert.NotContains(t, m.View(), "Project Explorer")
	m, _ = m.Update(keyCtrlB)
	assert.True(t, m.panels.Sidebar.IsOpen())

	m, _ = m.Update(keyCtrlT)
	assert.False(t, m.panels.Terminal.IsOpen())
	assert.Contains(t, m.View(), "Show Terminal")
	m, _ = m.Update(keyCtrlT)
	assert.True(t, m.panels.Terminal.IsOpen())
}

func TestIDE_ReopenedTerminalIgnoresOldTicks(t *testing.T) {
	m := newTestIDE(core.MockResult())
	oldID := m.terminal.id

	m, _ = m.Update(terminalTickMsg{id: oldID})
	assert.Equal(t, 1, m.terminal.shown)

	m, _ = m.Update(keyCtrlT)
	m, cmd := m.Update(keyCtrlT)
	require.NotNil(t, cmd)
	assert.NotEqual(t, oldID, m.terminal.id)
	assert.Equal(t, 0, m.terminal.shown)

	m, _ = m.Update(terminalTickMsg{id: oldID})
	assert.Equal(t, 0, m.terminal.shown)

	tick := awaitMsg[terminalTickMsg](t, cmd)
	m, _ = m.Update(tick)
	assert.Equal(t, 1, m.terminal.shown)
}

func TestIDE_EditsAreDiscardedOnSwitch(t *testing.T) {
	m := newTestIDE(resultWith("a.tf", "b.tf"))

	m, _ = m.Update(runes("e"))
	require.True(t, m.editing)
	m, _ = m.Update(runes("x"))
	m, _ = m.Update(keyEsc)
	assert.False(t, m.editing)
	assert.NotEqual(t, "# a.tf", m.Content())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusTree, m.focus)
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(keyEnter)
	m, _ = m.Update(runes("k"))
	m, _ = m.Update(keyEnter)
	assert.Equal(t, "# a.tf", m.Content())

	entry, _ := m.result.Infrastructure.Get("a.tf")
	assert.Equal(t, "# a.tf", entry.Content)
}

func TestIDE_Export(t *testing.T) {
	m := newTestIDE(core.MockResult())

	m, _ = m.Update(keyCtrlS)
	assert.Contains(t, m.status, "Exported 4 files")

	for _, name := range core.MockResult().Infrastructure.Names() {
		exists, err := afero.Exists(m.opts.exportFs.Fs, "exports/req_123456789/"+name)
		require.NoError(t, err)
		assert.True(t, exists, name)
	}
}

func TestIDE_DiagnosticsFollowBuffer(t *testing.T) {
	result := resultWith("main.tf")
	result.Infrastructure.Set("broken.tf", core.FileEntry{Content: `resource "x" {`})
	m := newTestIDE(result)
	assert.Empty(t, m.diags)

	m, _ = m.Update(runes("j"))
	m, _ = m.Update(keyEnter)
	require.Equal(t, "broken.tf", m.selection.Selected())
	assert.True(t, core.HasErrors(m.diags))
	assert.Contains(t, m.View(), "problem(s)")

	m, _ = m.Update(runes("e"))
	m.editor.SetValue("")
	m, _ = m.Update(runes("}"))
	assert.Equal(t, "}", m.Content())
	assert.True(t, core.HasErrors(m.diags))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Empty(t, m.Content())
	assert.Empty(t, m.diags)
}

func TestIDE_StatusShowsFileDetails(t *testing.T) {
	m := newTestIDE(resultWith("main.tf"))
	view := m.View()
	assert.Contains(t, view, "main.tf")
	assert.True(t, strings.Contains(view, "syntax ok"))
}

func TestTerminal_RunsToCompletion(t *testing.T) {
	m := newTerminalModel(time.Millisecond)
	for !m.Done() {
		var cmd tea.Cmd
		m, cmd = m.Update(terminalTickMsg{id: m.id})
		if m.Done() {
			assert.Nil(t, cmd)
		}
	}
	assert.Equal(t, terraformInitTranscript, m.Output())

	m, cmd := m.Update(terminalTickMsg{id: m.id})
	assert.Nil(t, cmd)
	assert.Len(t, m.Output(), len(terraformInitTranscript))
}
