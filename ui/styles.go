package ui

import (
	"apiary/pod"

	"github.com/charmbracelet/lipgloss"
)

// Status colors, one per MemberStatus, colorblind-safe (color + glyph).
var (
	ColorIdle       = lipgloss.AdaptiveColor{Light: "#22C55E", Dark: "#22C55E"}
	ColorWorking    = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}
	ColorPermission = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#F59E0B"}
	ColorError      = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#EF4444"}
	ColorDone       = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	ColorUnknown    = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}
)

var (
	Primary     = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#7D56F4"}
	Border      = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#3C3C3C"}
	BorderFocus = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#7D56F4"}
	TextPrimary = lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"}
	TextMuted   = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}
)

// StatusColor and StatusGlyph give each MemberStatus a color and a
// shape, so the rollup glyph reads even without color (spec.md §4.8).
func StatusColor(s pod.MemberStatus) lipgloss.AdaptiveColor {
	switch s {
	case pod.StatusIdle:
		return ColorIdle
	case pod.StatusWorking:
		return ColorWorking
	case pod.StatusPermission:
		return ColorPermission
	case pod.StatusError:
		return ColorError
	case pod.StatusDone:
		return ColorDone
	default:
		return ColorUnknown
	}
}

func StatusGlyph(s pod.MemberStatus) string {
	switch s {
	case pod.StatusIdle:
		return "●"
	case pod.StatusWorking:
		return "○"
	case pod.StatusPermission:
		return "!"
	case pod.StatusError:
		return "×"
	case pod.StatusDone:
		return "+"
	default:
		return "?"
	}
}

var (
	TextStyle  = lipgloss.NewStyle().Foreground(TextPrimary)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMuted)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	FocusedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(BorderFocus).
				Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(Border).
			Padding(1, 2)
)

// StatusBadge renders status as a colored glyph + word, used on cards
// and in the Detail/Permission panels.
func StatusBadge(s pod.MemberStatus) string {
	style := lipgloss.NewStyle().Foreground(StatusColor(s))
	return style.Render(StatusGlyph(s) + " " + s.String())
}
