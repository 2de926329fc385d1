package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green: confirmed, success
	ColorWarning   = lipgloss.Color("#FFB800") // yellow: pending, warning
	ColorError     = lipgloss.Color("#FF4444") // red: reverted, danger
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan: addresses, hashes, entity IDs
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold: amounts
	ColorMeta      = lipgloss.Color("#555555") // dim gray: metadata
	ColorBorder    = lipgloss.Color("#1E3A5F") // dark blue: UI chrome
	ColorNetwork   = lipgloss.Color("#9B5DE5") // purple: network names
	ColorHighlight = lipgloss.Color("#F15BB5") // pink: selected rows
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleNetwork = lipgloss.NewStyle().Foreground(ColorNetwork).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorNetwork).
			Bold(true).
			MarginBottom(1)
)

// Banner returns the invoicex banner.
func Banner() string {
	art := `
  ╻┏┓╻╻ ╻┏━┓╻┏━╸┏━╸╻ ╻
  ┃┃┗┫┃┏┛┃ ┃┃┃  ┣╸ ┏╋┛
  ╹╹ ╹┗┛ ┗━┛╹┗━╸┗━╸╹ ╹`

	tagline := StyleMeta.Render("  Invoice tokenization on Hedera")
	return StyleNetwork.Render(art) + "\n" + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational message.
func Info(msg string) string { return StyleAddress.Render("ℹ " + msg) }

// Hint formats a follow-up suggestion.
func Hint(msg string) string { return StyleMeta.Render("→ " + msg) }

// Addr formats an address, hash, or entity ID.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// NetworkName formats a network name.
func NetworkName(n string) string { return StyleNetwork.Render(n) }

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// DangerBox frames content that must not be missed, such as a private key.
func DangerBox(content string) string {
	return StyleBorder.BorderForeground(ColorError).Render(content)
}
