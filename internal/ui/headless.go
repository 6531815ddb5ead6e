package ui

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/walletlink/internal/bootstrap"
	"github.com/five82/walletlink/internal/rpc"
)

// ErrCommandFailed is returned by a headless run when any command failed.
var ErrCommandFailed = errors.New("command failed")

// Invocation is one command line typed at the prompt or passed to exec.
type Invocation struct {
	Command string
	Args    string
}

// ParseInvocation splits a command line into the command and its argument
// string. Blank input yields ok == false.
func ParseInvocation(line string) (Invocation, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Invocation{}, false
	}
	return Invocation{Command: fields[0], Args: strings.Join(fields[1:], " ")}, true
}

func (i Invocation) String() string {
	if i.Args == "" {
		return i.Command
	}
	return i.Command + " " + i.Args
}

// headlessRun executes the requested commands one after another once the
// connection is ready, then quits the program.
type headlessRun struct {
	pending []Invocation
	conn    *rpc.Connection
	out     io.Writer
	errOut  io.Writer
	err     error
	last    string
}

func newHeadlessRun(commands []Invocation, out, errOut io.Writer) *headlessRun {
	return &headlessRun{
		pending: append([]Invocation(nil), commands...),
		out:     defaultWriter(out, os.Stdout),
		errOut:  defaultWriter(errOut, os.Stderr),
	}
}

// progress logs the loader's status whenever it changes.
func (h *headlessRun) progress(loader *bootstrap.Loader) {
	line := loader.State().String()
	if status := loader.Status(); status != "" {
		line += ": " + status
	}
	if line == h.last {
		return
	}
	h.last = line
	log.Printf("bootstrap %s", line)
}

func (h *headlessRun) start(conn *rpc.Connection) tea.Cmd {
	h.conn = conn
	if len(h.pending) == 0 {
		h.print(conn.Info().JSON())
		return h.finish()
	}
	return h.next()
}

func (h *headlessRun) next() tea.Cmd {
	if len(h.pending) == 0 {
		return h.finish()
	}
	inv := h.pending[0]
	h.pending = h.pending[1:]
	cmd := h.conn.Issue(inv.Command, inv.Args,
		func(reply rpc.Reply) tea.Msg { return commandReplyMsg{inv: inv, reply: reply} },
		func(err string) tea.Msg { return commandFailedMsg{inv: inv, err: err} },
	)
	if cmd == nil {
		return h.finish()
	}
	return cmd
}

func (h *headlessRun) finish() tea.Cmd {
	if h.conn != nil {
		h.conn.Shutdown()
	}
	return tea.Quit
}

func (h *headlessRun) fail(err error) {
	if h.err == nil {
		h.err = err
	}
	fmt.Fprintln(h.errOut, "error:", err)
}

func (h *headlessRun) print(text string) {
	fmt.Fprintln(h.out, text)
}

func (m Model) headlessReply(msg commandReplyMsg) (tea.Model, tea.Cmd) {
	m.headless.print(msg.reply.JSON())
	return m, m.headless.next()
}

// headlessFailure records a failed command and moves on to the next one.
// Failures reported through the shared reporter arrive without a command
// line. While bootstrapping that can only be the initial sync, which ends
// the run since the loader would otherwise poll forever.
func (m Model) headlessFailure(command, message string, dismiss func()) (tea.Model, tea.Cmd) {
	if dismiss != nil {
		dismiss()
	}
	if m.headless == nil {
		return m, nil
	}
	if command == "" {
		if !m.loader.Done() {
			m.headless.fail(fmt.Errorf("%w: %s", bootstrap.ErrSyncFailed, message))
			if m.headless.conn == nil {
				m.headless.conn = m.loader.Connection()
			}
			return m, m.headless.finish()
		}
		fmt.Fprintln(m.headless.errOut, "error:", message)
		return m, nil
	}
	m.headless.fail(fmt.Errorf("%w: %s: %s", ErrCommandFailed, command, message))
	return m, m.headless.next()
}
