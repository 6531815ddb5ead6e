package bootstrap

import (
	"errors"
	"os"
	"os/exec"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrNoRestoreCommand is passed to the completion callback when no external
// create/restore wizard is configured.
var ErrNoRestoreCommand = errors.New("no restore command configured")

// Restorer runs the interactive create-or-restore flow when no wallet exists.
// done must be invoked exactly once, from the returned command.
type Restorer interface {
	CreateOrRestore(dangerous bool, server string, done func(error) tea.Msg) tea.Cmd
}

// ExecRestorer suspends the program and hands the terminal to an external
// wizard. The chosen server and the dangerous flag are passed through the
// environment.
type ExecRestorer struct {
	Command []string
}

func (r ExecRestorer) CreateOrRestore(dangerous bool, server string, done func(error) tea.Msg) tea.Cmd {
	if len(r.Command) == 0 {
		return func() tea.Msg { return done(ErrNoRestoreCommand) }
	}
	return tea.ExecProcess(r.command(dangerous, server), done)
}

// command builds the wizard process. Stdin is set explicitly because a
// headless program has no input of its own to hand over, and the wizard
// would otherwise read from /dev/null.
func (r ExecRestorer) command(dangerous bool, server string) *exec.Cmd {
	c := exec.Command(r.Command[0], r.Command[1:]...)
	c.Stdin = os.Stdin
	c.Env = append(os.Environ(),
		"WALLETLINK_SERVER="+server,
		"WALLETLINK_DANGEROUS="+strconv.FormatBool(dangerous),
	)
	return c
}
