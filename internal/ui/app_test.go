package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/walletlink/internal/bootstrap"
	"github.com/five82/walletlink/internal/config"
	"github.com/five82/walletlink/internal/rpc"
	"github.com/five82/walletlink/internal/settings"
)

const testServer = "https://lightd1.pirate.black:443"

type fakeBackend struct {
	mu       sync.Mutex
	replies  map[string]string
	executed []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{replies: map[string]string{
		"info":    `{"latest_block_height": 200, "chain_name": "main", "version": "1.0"}`,
		"sync":    `{"result": "success"}`,
		"balance": `{"zbalance": 150000000}`,
		"height":  `{"height": 200}`,
	}}
}

func (f *fakeBackend) CheckServer(context.Context, string) bool { return true }
func (f *fakeBackend) WalletExists(context.Context) bool        { return true }
func (f *fakeBackend) InitializeExisting(context.Context, string) string {
	return "OK"
}

func (f *fakeBackend) Execute(_ context.Context, command, _ string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, command)
	if reply, ok := f.replies[command]; ok {
		return reply
	}
	return "Error: unknown command " + command
}

type fixture struct {
	backend  *fakeBackend
	store    *settings.Store
	reporter *rpc.ErrorReporter
	model    Model
	out      *bytes.Buffer
	errOut   *bytes.Buffer
}

func newFixture(t *testing.T, headless bool, commands ...Invocation) *fixture {
	t.Helper()
	backend := newFakeBackend()
	store := settings.Load(filepath.Join(t.TempDir(), "settings.toml"), settings.Defaults{
		Server:   testServer,
		Headless: headless,
	})
	cfg := config.Default()
	cfg.StatusEvery = time.Millisecond
	cfg.KeepVisibleEvery = 10 * time.Millisecond

	reporter := rpc.NewErrorReporter()
	loader := bootstrap.New(bootstrap.Options{
		Context:  context.Background(),
		Backend:  backend,
		Settings: store,
		Config:   cfg,
		Pool:     rpc.NewPool(2),
		Reporter: reporter,
	})
	f := &fixture{
		backend:  backend,
		store:    store,
		reporter: reporter,
		out:      &bytes.Buffer{},
		errOut:   &bytes.Buffer{},
	}
	f.model = New(Options{
		Context:  context.Background(),
		Loader:   loader,
		Settings: store,
		Commands: commands,
		Out:      f.out,
		ErrOut:   f.errOut,
	})
	return f
}

func (f *fixture) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.model.Update(msg)
	m, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	f.model = m
	return cmd
}

// pump runs a headless program to completion without a real event loop.
func (f *fixture) pump(t *testing.T) bool {
	t.Helper()
	queue := []tea.Cmd{f.model.Init()}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatalf("headless run did not finish")
		}
		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}
		switch msg := cmd().(type) {
		case nil:
		case tea.QuitMsg:
			return true
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, f.send(t, msg))
		}
	}
	return false
}

func (f *fixture) connect(t *testing.T) *rpc.Connection {
	t.Helper()
	conn := rpc.NewConnection(context.Background(), rpc.Config{Server: testServer}, rpc.Options{
		Backend:  f.backend,
		Reporter: f.reporter,
	})
	conn.SetInfo(rpc.NewReply(map[string]any{"chain_name": "main", "latest_block_height": 200}))
	f.send(t, bootstrap.ReadyMsg{Conn: conn})
	return conn
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestHeadless_RunsCommandsInOrderAndQuits(t *testing.T) {
	f := newFixture(t, true,
		Invocation{Command: "balance"},
		Invocation{Command: "height"},
	)
	if !f.pump(t) {
		t.Fatalf("headless run ended without quitting")
	}
	if err := f.model.Err(); err != nil {
		t.Fatalf("Err = %v, want nil", err)
	}
	out := f.out.String()
	balanceAt := strings.Index(out, `"zbalance"`)
	heightAt := strings.Index(out, `"height"`)
	if balanceAt < 0 || heightAt < 0 || balanceAt > heightAt {
		t.Fatalf("output = %q, want balance reply before height reply", out)
	}
	if !f.model.conn.ShuttingDown() {
		t.Fatalf("connection still live after headless run")
	}
}

func TestHeadless_NoCommandsPrintsInfo(t *testing.T) {
	f := newFixture(t, true)
	if !f.pump(t) {
		t.Fatalf("headless run ended without quitting")
	}
	if !strings.Contains(f.out.String(), `"chain_name"`) {
		t.Fatalf("output = %q, want info reply", f.out.String())
	}
}

func TestHeadless_FailedCommandSetsErrAndContinues(t *testing.T) {
	f := newFixture(t, true,
		Invocation{Command: "send", Args: "zs1abc 100"},
		Invocation{Command: "height"},
	)
	if !f.pump(t) {
		t.Fatalf("headless run ended without quitting")
	}
	if err := f.model.Err(); !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("Err = %v, want ErrCommandFailed", err)
	}
	if !strings.Contains(f.errOut.String(), "send zs1abc 100") {
		t.Fatalf("errOut = %q, want failing command named", f.errOut.String())
	}
	if !strings.Contains(f.out.String(), `"height"`) {
		t.Fatalf("output = %q, want the second command to run", f.out.String())
	}
}

func TestHeadless_InitFailureQuitsWithError(t *testing.T) {
	f := newFixture(t, true)
	f.send(t, bootstrap.FailedMsg{Message: "Error: locked", Err: bootstrap.ErrInitRejected})
	if !errors.Is(f.model.Err(), bootstrap.ErrInitRejected) {
		t.Fatalf("Err = %v, want ErrInitRejected", f.model.Err())
	}
	if !strings.Contains(f.errOut.String(), "wallet initialization rejected") {
		t.Fatalf("errOut = %q", f.errOut.String())
	}
}

func TestHeadless_SyncFailureQuitsWithError(t *testing.T) {
	f := newFixture(t, true, Invocation{Command: "balance"})
	f.backend.replies["sync"] = "Error: sync interrupted"

	if !f.pump(t) {
		t.Fatalf("headless run ended without quitting")
	}
	if err := f.model.Err(); !errors.Is(err, bootstrap.ErrSyncFailed) {
		t.Fatalf("Err = %v, want ErrSyncFailed", err)
	}
	if !strings.Contains(f.errOut.String(), "sync interrupted") {
		t.Fatalf("errOut = %q, want the sync error", f.errOut.String())
	}
	if strings.Contains(f.out.String(), `"zbalance"`) {
		t.Fatalf("output = %q, want no command run after sync failed", f.out.String())
	}
	if conn := f.model.loader.Connection(); conn == nil || !conn.ShuttingDown() {
		t.Fatalf("connection still live after sync failure")
	}
}

func TestDialog_EscHidesAndKeepVisibleShows(t *testing.T) {
	f := newFixture(t, false)
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 30})

	if !strings.Contains(f.model.View(), "esc to hide") {
		t.Fatalf("View does not show the bootstrap dialog")
	}
	f.send(t, keyPress("esc"))
	if !f.model.dialogHidden {
		t.Fatalf("dialogHidden = false after esc")
	}
	if strings.Contains(f.model.View(), "esc to hide") {
		t.Fatalf("dialog still rendered after esc")
	}
	f.send(t, bootstrap.KeepVisibleMsg{})
	if f.model.dialogHidden {
		t.Fatalf("dialogHidden = true after KeepVisibleMsg")
	}
}

func TestTransactionErrorModal_DismissReleasesReporter(t *testing.T) {
	f := newFixture(t, false)
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 30})

	f.send(t, f.reporter.Report("Error: insufficient funds"))
	if second := f.reporter.Report("Error: second"); second != nil {
		t.Fatalf("second Report = %v, want nil while modal open", second)
	}
	view := f.model.View()
	if !strings.Contains(view, "Transaction Error") || !strings.Contains(view, "insufficient funds") {
		t.Fatalf("View = %q, want transaction error modal", view)
	}

	f.send(t, keyPress("enter"))
	if len(f.model.modals) != 0 {
		t.Fatalf("modals = %d after enter, want 0", len(f.model.modals))
	}
	if f.reporter.Showing() {
		t.Fatalf("reporter still showing after modal closed")
	}
}

func TestFailedMsg_ShowsConnectionError(t *testing.T) {
	f := newFixture(t, false)
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 30})
	f.send(t, bootstrap.FailedMsg{Message: "Error: wallet locked", Err: bootstrap.ErrInitRejected})

	if f.model.conn != nil || f.model.ready {
		t.Fatalf("model still connected after FailedMsg")
	}
	if !strings.Contains(f.model.View(), "Connection Error") {
		t.Fatalf("View does not show the connection error modal")
	}
}

func TestPrompt_IssuesCommandAndShowsReply(t *testing.T) {
	f := newFixture(t, false)
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 30})
	f.connect(t)

	f.send(t, keyPress(":"))
	if !f.model.promptFocused {
		t.Fatalf("promptFocused = false after ':'")
	}
	f.model.prompt.SetValue("height")
	cmd := f.send(t, keyPress("enter"))
	if cmd == nil {
		t.Fatalf("enter returned no command")
	}
	delivery, ok := cmd().(rpc.Delivery)
	if !ok {
		t.Fatalf("command did not produce a Delivery")
	}
	f.send(t, delivery)
	if !strings.Contains(strings.Join(f.model.lines, "\n"), `"height": 200`) {
		t.Fatalf("output = %q, want height reply", f.model.lines)
	}
}

func TestPrompt_WalletCommandsWaitForConnection(t *testing.T) {
	f := newFixture(t, false)
	f.send(t, keyPress(":"))
	f.model.prompt.SetValue("balance")
	if cmd := f.send(t, keyPress("enter")); cmd != nil {
		t.Fatalf("wallet command issued before the connection is ready")
	}
	if !strings.Contains(strings.Join(f.model.lines, "\n"), "not connected: balance") {
		t.Fatalf("output = %q, want not connected notice", f.model.lines)
	}
}

func TestPrompt_LogCommandReadsLogFile(t *testing.T) {
	f := newFixture(t, false)
	path := filepath.Join(t.TempDir(), "walletlink.log")
	content := "rpc 3f2a9c1e info failed: Error: timeout\nbootstrap: connection is online\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f.model.logFile = path

	f.send(t, keyPress(":"))
	f.model.prompt.SetValue("log 10 3f2a9c1e")
	cmd := f.send(t, keyPress("enter"))
	if cmd == nil {
		t.Fatalf("log command returned no command")
	}
	f.send(t, cmd())
	out := strings.Join(f.model.lines, "\n")
	if !strings.Contains(out, "3f2a9c1e info failed") || strings.Contains(out, "connection is online") {
		t.Fatalf("output = %q, want only the matching log line", out)
	}
	if len(f.backend.executed) != 0 {
		t.Fatalf("log command reached the daemon: %v", f.backend.executed)
	}
}

func TestParseLogArgs(t *testing.T) {
	cases := []struct {
		args  string
		n     int
		match string
	}{
		{"", defaultLogLines, ""},
		{"20", 20, ""},
		{"5 rpc 3f2a", 5, "rpc 3f2a"},
		{"bootstrap", defaultLogLines, "bootstrap"},
		{"-3", defaultLogLines, "-3"},
	}
	for _, tc := range cases {
		n, match := parseLogArgs(tc.args)
		if n != tc.n || match != tc.match {
			t.Fatalf("parseLogArgs(%q) = %d, %q; want %d, %q", tc.args, n, match, tc.n, tc.match)
		}
	}
}

func TestRefresh_UpdatesBalance(t *testing.T) {
	f := newFixture(t, false)
	conn := f.connect(t)

	cmd := f.model.refreshBalance()
	f.send(t, cmd())
	if f.model.balance != "Balance 1.50000000" {
		t.Fatalf("balance = %q, want %q", f.model.balance, "Balance 1.50000000")
	}

	conn.Shutdown()
	if _, cmd := f.model.handleRefresh(); cmd != nil {
		t.Fatalf("refresh scheduled after shutdown")
	}
}

func TestCycleTheme_Persists(t *testing.T) {
	f := newFixture(t, false)
	f.send(t, keyPress("T"))
	if f.model.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", f.model.theme.Name)
	}
	if f.store.Theme() != "Kanagawa" {
		t.Fatalf("settings theme = %q, want Kanagawa", f.store.Theme())
	}
}

func TestCtrlC_ShutsDownConnection(t *testing.T) {
	f := newFixture(t, false)
	conn := f.connect(t)

	cmd := f.send(t, keyPress("ctrl+c"))
	if !conn.ShuttingDown() {
		t.Fatalf("connection not shut down on ctrl+c")
	}
	if cmd == nil {
		t.Fatalf("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("ctrl+c did not quit")
	}
}

func TestParseInvocation(t *testing.T) {
	cases := []struct {
		line string
		want Invocation
		ok   bool
	}{
		{"balance", Invocation{Command: "balance"}, true},
		{"  send  zs1abc   100 ", Invocation{Command: "send", Args: "zs1abc 100"}, true},
		{"   ", Invocation{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseInvocation(tc.line)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseInvocation(%q) = %+v, %v; want %+v, %v", tc.line, got, ok, tc.want, tc.ok)
		}
	}
	if s := (Invocation{Command: "send", Args: "a b"}).String(); s != "send a b" {
		t.Fatalf("String = %q, want %q", s, "send a b")
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		0:           "0.00000000",
		150000000:   "1.50000000",
		-1:          "-0.00000001",
		12345678901: "123.45678901",
	}
	for units, want := range cases {
		if got := formatAmount(units); got != want {
			t.Fatalf("formatAmount(%d) = %q, want %q", units, got, want)
		}
	}
	if got := formatBalance(rpc.NewReply(map[string]any{"other": 1})); got != "" {
		t.Fatalf("formatBalance without zbalance = %q, want empty", got)
	}
}

func TestProgressCells(t *testing.T) {
	cases := []struct {
		synced, total int64
		want          int
	}{
		{0, 200, 0},
		{150, 200, 30},
		{250, 200, 40},
		{10, 0, 0},
	}
	for _, tc := range cases {
		if got := progressCells(tc.synced, tc.total, 40); got != tc.want {
			t.Fatalf("progressCells(%d, %d) = %d, want %d", tc.synced, tc.total, got, tc.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("abcdefghij", 5); got != "ab…ij" {
		t.Fatalf("truncateMiddle = %q, want %q", got, "ab…ij")
	}
	if got := truncateMiddle("short", 10); got != "short" {
		t.Fatalf("truncateMiddle = %q, want unchanged", got)
	}
}
