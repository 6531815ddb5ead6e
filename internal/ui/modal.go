package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

type modalKind int

const (
	transactionErrorModal modalKind = iota
	connectionErrorModal
)

// errorModal shows a failure until the user acknowledges it. onClose runs
// exactly once, when the modal is closed.
type errorModal struct {
	kind    modalKind
	message string
	onClose func()
}

func newTransactionErrorModal(message string, dismiss func()) errorModal {
	return errorModal{kind: transactionErrorModal, message: message, onClose: dismiss}
}

func newConnectionErrorModal(message string) errorModal {
	return errorModal{kind: connectionErrorModal, message: message}
}

func (e errorModal) title() string {
	if e.kind == connectionErrorModal {
		return "Connection Error"
	}
	return "Transaction Error"
}

func (e errorModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return e, nil, false
	}
	if key.Matches(k, keys.Confirm, keys.Escape) {
		if e.onClose != nil {
			e.onClose()
		}
		return e, nil, true
	}
	return e, nil, false
}

func (e errorModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.DangerText.Render(e.title()))
	b.WriteString("\n\n")
	if e.kind == connectionErrorModal {
		b.WriteString(styles.Text.Render("There was an error connecting to the wallet. The error was:"))
		b.WriteString("\n\n")
	} else {
		b.WriteString(styles.Text.Render("The transaction failed:"))
		b.WriteString("\n\n")
	}
	b.WriteString(styles.WarningText.Render(e.message))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter/esc to close"))

	modalWidth := 60
	if width > 0 && width-4 < modalWidth {
		modalWidth = max(width-4, 20)
	}
	return theme.ModalStyle(theme.Danger, modalWidth).Render(b.String())
}
