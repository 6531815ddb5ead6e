package rpc

import (
	"log"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// TransactionErrorMsg asks the shell to show a transaction error. The shell
// must call Dismiss once the surface is closed, otherwise no further
// transaction errors are shown.
type TransactionErrorMsg struct {
	Message  string
	reporter *ErrorReporter
}

// Dismiss releases the reporter so the next error can be shown.
func (m TransactionErrorMsg) Dismiss() {
	if m.reporter != nil {
		m.reporter.shown.Store(false)
	}
}

// ErrorReporter lets at most one transaction error surface be open at a time.
// Failures that arrive while one is showing are logged and dropped.
type ErrorReporter struct {
	shown atomic.Bool
}

// NewErrorReporter returns a reporter with no surface showing.
func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{}
}

// Report returns a TransactionErrorMsg when message should be shown, or nil
// when it is empty or another surface is already open.
func (r *ErrorReporter) Report(message string) tea.Msg {
	if message == "" {
		return nil
	}
	if !r.shown.CompareAndSwap(false, true) {
		log.Printf("transaction error suppressed: %s", truncate(message, 200))
		return nil
	}
	return TransactionErrorMsg{Message: message, reporter: r}
}

// Showing reports whether a surface is currently open.
func (r *ErrorReporter) Showing() bool {
	return r.shown.Load()
}
