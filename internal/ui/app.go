package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/walletlink/internal/bootstrap"
	"github.com/five82/walletlink/internal/rpc"
	"github.com/five82/walletlink/internal/settings"
)

// Options configures the UI.
type Options struct {
	Context      context.Context
	Loader       *bootstrap.Loader
	Settings     *settings.Store
	RefreshEvery time.Duration
	LogFile      string

	// Headless mode only.
	Commands []Invocation
	Out      io.Writer
	ErrOut   io.Writer
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx          context.Context
	loader       *bootstrap.Loader
	store        *settings.Store
	refreshEvery time.Duration
	logFile      string

	// Connection state
	conn    *rpc.Connection
	ready   bool
	connErr string
	balance string

	// UI state
	theme        Theme
	keys         keyMap
	width        int
	height       int
	sized        bool
	dialogHidden bool
	showHelp     bool
	modals       []Modal

	spinner       spinner.Model
	prompt        textinput.Model
	promptFocused bool
	output        viewport.Model
	lines         []string

	headless *headlessRun
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	refreshEvery := opts.RefreshEvery
	if refreshEvery <= 0 {
		refreshEvery = 5 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	prompt := textinput.New()
	prompt.Placeholder = "command [args]"
	prompt.Prompt = "> "
	prompt.CharLimit = 512

	m := Model{
		ctx:          ctx,
		loader:       opts.Loader,
		store:        opts.Settings,
		refreshEvery: refreshEvery,
		logFile:      opts.LogFile,
		theme:        GetTheme(opts.Settings.Theme()),
		keys:         DefaultKeyMap(),
		spinner:      sp,
		prompt:       prompt,
		output:       viewport.New(80, 10),
	}
	if opts.Settings.IsHeadless() {
		m.headless = newHeadlessRun(opts.Commands, opts.Out, opts.ErrOut)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loader.Init()}
	if m.headless == nil {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Err returns the error that ended a headless run, if any.
func (m Model) Err() error {
	if m.headless == nil {
		return nil
	}
	return m.headless.err
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sized = true
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if m.loader.Done() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case rpc.Delivery:
		next := msg.Resolve()
		if next == nil {
			return m, nil
		}
		return m.Update(next)

	case bootstrap.LoadingMsg:
		m.conn = msg.Conn
		m.appendOutput("Connecting to " + msg.Conn.Config().Server)
		return m, nil

	case bootstrap.ReadyMsg:
		return m.handleReady(msg)

	case bootstrap.FailedMsg:
		return m.handleFailed(msg)

	case bootstrap.KeepVisibleMsg:
		if !m.loader.Done() {
			m.dialogHidden = false
		}
		return m, nil

	case rpc.TransactionErrorMsg:
		if m.headless != nil {
			return m.headlessFailure("", msg.Message, msg.Dismiss)
		}
		m.modals = append(m.modals, newTransactionErrorModal(msg.Message, msg.Dismiss))
		return m, nil

	case commandReplyMsg:
		if m.headless != nil {
			return m.headlessReply(msg)
		}
		m.appendOutput(msg.inv.String())
		m.appendOutput(msg.reply.JSON())
		return m, nil

	case commandFailedMsg:
		return m.headlessFailure(msg.inv.String(), msg.err, nil)

	case logLinesMsg:
		if msg.err != nil {
			m.appendOutput("log: " + msg.err.Error())
			return m, nil
		}
		m.appendOutput(fmt.Sprintf("-- last %d log lines --", len(msg.lines)))
		for _, line := range msg.lines {
			m.appendOutput(line)
		}
		return m, nil

	case balanceMsg:
		m.balance = formatBalance(msg.reply)
		return m, nil

	case refreshTickMsg:
		return m.handleRefresh()
	}

	cmd := m.loader.Update(msg)
	if m.headless != nil {
		m.headless.progress(m.loader)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.headless != nil {
		return ""
	}
	if !m.sized {
		return "Loading..."
	}
	if len(m.modals) > 0 {
		return m.place(m.modals[0].View(m.theme, m.width, m.height))
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if !m.loader.Done() && !m.dialogHidden {
		return m.renderDialog()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if len(m.modals) > 0 {
		next, cmd, closed := m.modals[0].Update(msg, m.keys)
		if closed {
			m.modals = m.modals[1:]
		} else {
			m.modals[0] = next
		}
		return m, cmd
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.promptFocused {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		_ = m.store.SetTheme(m.theme.Name)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if !m.loader.Done() {
			m.dialogHidden = true
		}
		return m, nil

	case key.Matches(msg, m.keys.Prompt):
		m.promptFocused = true
		return m, m.prompt.Focus()

	case key.Matches(msg, m.keys.Top):
		m.output.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.output.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.output, cmd = m.output.Update(msg)
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.promptFocused = false
		m.prompt.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		inv, ok := ParseInvocation(m.prompt.Value())
		m.prompt.SetValue("")
		if !ok {
			return m, nil
		}
		if inv.Command == logCommand {
			return m, readLogCmd(m.logFile, inv.Args)
		}
		if !m.ready {
			m.appendOutput("not connected: " + inv.String())
			return m, nil
		}
		return m, m.issue(inv)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// issue sends a user command over the active connection. Failures go to the
// transaction error modal.
func (m Model) issue(inv Invocation) tea.Cmd {
	if m.conn == nil || !m.ready {
		return nil
	}
	return m.conn.IssueWithDefaultErrorHandling(inv.Command, inv.Args, func(reply rpc.Reply) tea.Msg {
		return commandReplyMsg{inv: inv, reply: reply}
	})
}

func (m Model) handleReady(msg bootstrap.ReadyMsg) (tea.Model, tea.Cmd) {
	m.conn = msg.Conn
	m.ready = true
	m.dialogHidden = true
	m.appendOutput("Connected to " + msg.Conn.Config().Server)

	if m.headless != nil {
		m.headless.progress(m.loader)
		return m, m.headless.start(msg.Conn)
	}
	return m, tea.Batch(m.refreshBalance(), refreshTickCmd(m.refreshEvery))
}

func (m Model) handleFailed(msg bootstrap.FailedMsg) (tea.Model, tea.Cmd) {
	m.conn = nil
	m.ready = false
	m.connErr = msg.Message
	if m.headless != nil {
		m.headless.fail(msg.Err)
		return m, tea.Quit
	}
	m.modals = append(m.modals, newConnectionErrorModal(msg.Message))
	return m, nil
}

func (m Model) handleRefresh() (tea.Model, tea.Cmd) {
	if m.conn == nil || m.conn.ShuttingDown() {
		return m, nil
	}
	return m, tea.Batch(m.refreshBalance(), refreshTickCmd(m.refreshEvery))
}

func (m Model) refreshBalance() tea.Cmd {
	if m.conn == nil {
		return nil
	}
	return m.conn.IssueIgnoringError("balance", "", func(reply rpc.Reply) tea.Msg {
		return balanceMsg{reply: reply}
	})
}

// quit shuts the connection down so pending replies are dropped.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.conn != nil {
		m.conn.Shutdown()
	}
	if c := m.loader.Connection(); c != nil {
		c.Shutdown()
	}
	return m, tea.Quit
}

func (m *Model) resize() {
	width := max(m.width, 20)
	m.prompt.Width = width - 4
	m.output.Width = width
	m.output.Height = max(m.height-outputChrome, 3)
	m.output.SetContent(strings.Join(m.lines, "\n"))
}

func (m *Model) appendOutput(text string) {
	m.lines = append(m.lines, text)
	if len(m.lines) > outputLineLimit {
		m.lines = m.lines[len(m.lines)-outputLineLimit:]
	}
	m.output.SetContent(strings.Join(m.lines, "\n"))
	m.output.GotoBottom()
}

// Messages

type commandReplyMsg struct {
	inv   Invocation
	reply rpc.Reply
}

type commandFailedMsg struct {
	inv Invocation
	err string
}

type balanceMsg struct{ reply rpc.Reply }

type refreshTickMsg time.Time

// Commands

func refreshTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// Run starts the Bubble Tea program and returns the headless error, if any.
func Run(opts Options, programOpts ...tea.ProgramOption) error {
	m := New(opts)
	if m.headless == nil {
		programOpts = append(programOpts, tea.WithAltScreen())
	} else {
		programOpts = append(programOpts, tea.WithoutRenderer(), tea.WithInput(nil))
	}
	programOpts = append(programOpts, tea.WithContext(m.ctx))
	final, err := tea.NewProgram(m, programOpts...).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.Err()
	}
	return nil
}

func defaultWriter(w io.Writer, fallback *os.File) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
