package ui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/walletlink/internal/logtail"
)

// logCommand is handled locally instead of being sent to the daemon.
const logCommand = "log"

const defaultLogLines = 50

type logLinesMsg struct {
	lines []string
	err   error
}

// parseLogArgs reads "[n] [match]" from the log command's arguments.
func parseLogArgs(args string) (int, string) {
	fields := strings.Fields(args)
	n := defaultLogLines
	if len(fields) > 0 {
		if v, err := strconv.Atoi(fields[0]); err == nil && v > 0 {
			n = v
			fields = fields[1:]
		}
	}
	return n, strings.Join(fields, " ")
}

func readLogCmd(path, args string) tea.Cmd {
	n, match := parseLogArgs(args)
	return func() tea.Msg {
		lines, err := logtail.Read(path, n, match)
		return logLinesMsg{lines: lines, err: err}
	}
}
