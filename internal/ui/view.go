package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/walletlink/internal/rpc"
)

const (
	// outputChrome is the number of rows around the output viewport:
	// header, info line, prompt and footer.
	outputChrome = 4

	// outputLineLimit is the maximum number of output lines kept in memory.
	outputLineLimit = 2000

	dialogWidth   = 56
	progressWidth = 40
)

// renderDialog renders the bootstrap dialog shown until the connection is ready.
func (m Model) renderDialog() string {
	styles := m.theme.Styles()
	state := m.loader.State().String()

	var b strings.Builder
	b.WriteString(styles.Logo.Render("walletlink"))
	b.WriteString("\n\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(styles.StateStyle(state).Render(state))
	b.WriteString(" ")
	b.WriteString(styles.Text.Bold(true).Render(m.loader.Status()))
	b.WriteString("\n")
	if detail := m.loader.Detail(); detail != "" {
		b.WriteString(styles.MutedText.Render(detail))
		b.WriteString("\n")
	}
	if synced, total := m.loader.SyncProgress(); total > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderProgressBar(synced, total, progressWidth))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("esc to hide"))

	return m.place(m.theme.ModalStyle(m.theme.BorderFocus, dialogWidth).Render(b.String()))
}

// renderProgressBar draws a fixed-width bar for synced/total blocks.
func (m Model) renderProgressBar(synced, total int64, width int) string {
	filled := progressCells(synced, total, width)
	done := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Border)).Render(strings.Repeat("░", width-filled))
	return done + rest
}

func progressCells(synced, total int64, width int) int {
	if total <= 0 || synced <= 0 {
		return 0
	}
	if synced >= total {
		return width
	}
	return int(synced * int64(width) / total)
}

// renderMain renders the connected view.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderInfo())
	b.WriteString("\n")
	b.WriteString(m.output.View())
	b.WriteString("\n")
	b.WriteString(m.renderPrompt())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	sep := "  "

	parts := []string{styles.Logo.Render("walletlink")}
	switch {
	case m.connErr != "":
		parts = append(parts,
			styles.DangerText.Render("Not connected"),
			styles.MutedText.Render(truncateMiddle(m.connErr, 60)))
	case m.loader.ShowSyncing():
		parts = append(parts, styles.WarningText.Bold(true).Render("Syncing"), styles.Text.Render(m.loader.Status()))
	case !m.ready:
		parts = append(parts, styles.WarningText.Bold(true).Render("Connecting..."))
	default:
		parts = append(parts, styles.SuccessText.Render("Connected"), styles.MutedText.Render(m.conn.Config().Server))
		if m.balance != "" {
			parts = append(parts, styles.AccentText.Render(m.balance))
		}
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderInfo shows a few fields of the info reply captured at bootstrap.
func (m Model) renderInfo() string {
	styles := m.theme.Styles()
	if m.conn == nil {
		return styles.FaintText.Render("no wallet info")
	}
	info := m.conn.Info()
	if info.IsZero() {
		return styles.FaintText.Render("waiting for wallet info")
	}
	var parts []string
	for _, field := range []string{"chain_name", "vendor", "version"} {
		if v := info.String(field); v != "" {
			parts = append(parts, styles.MutedText.Render(field+" ")+styles.Text.Render(v))
		}
	}
	if h := info.Int("latest_block_height"); h > 0 {
		parts = append(parts, styles.MutedText.Render("height ")+styles.Text.Render(fmt.Sprint(h)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderPrompt() string {
	if m.promptFocused {
		return m.prompt.View()
	}
	if !m.ready {
		return m.theme.Styles().FaintText.Render("wallet commands available once connected, : log [n] [match] shows the log")
	}
	return m.theme.Styles().FaintText.Render(": to enter a command")
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	parts = append(parts, "theme "+m.theme.Name)
	return styles.Footer.Width(m.width).Render(strings.Join(parts, " · "))
}

// formatBalance renders the balance reply in whole coins.
func formatBalance(reply rpc.Reply) string {
	if _, ok := reply.Field("zbalance"); !ok {
		return ""
	}
	return "Balance " + formatAmount(reply.Int("zbalance"))
}

func formatAmount(units int64) string {
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%08d", sign, units/coinUnits, units%coinUnits)
}

const coinUnits = 100_000_000

// truncateMiddle shortens s to limit runes, keeping both ends.
func truncateMiddle(s string, limit int) string {
	runes := []rune(s)
	if limit <= 3 || len(runes) <= limit {
		return s
	}
	head := (limit - 1) / 2
	tail := limit - 1 - head
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}
