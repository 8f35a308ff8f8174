package ui

import (
	"apiary/pod"
	"fmt"
	"strings"
	"time"
)

// RenderPanel renders the 35%-width left context panel, whose content
// varies by mode (spec.md §4.8).
func RenderPanel(state *pod.AppState, width int) string {
	var body string
	switch state.Mode {
	case pod.ModeDetail:
		body = renderDetail(state)
	case pod.ModeChat:
		body = renderChat(state)
	case pod.ModePermission:
		body = renderPermission(state)
	case pod.ModeHelp:
		body = renderHelp()
	default:
		body = renderHome(state)
	}
	return PanelStyle.Width(width).Render(body)
}

func renderHome(state *pod.AppState) string {
	var b strings.Builder
	b.WriteString(TextStyle.Bold(true).Render("apiary"))
	b.WriteString("\n\n")
	if state.CommandBuffer != "" {
		b.WriteString("/" + state.CommandBuffer)
		b.WriteString("\n\n")
	}
	b.WriteString(MutedStyle.Render("Sessions: " + fmt.Sprint(len(state.Sessions))))
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render("Last reload: " + formatAge(state.LastReload)))
	b.WriteString("\n\n")
	if len(state.Log) == 0 {
		b.WriteString(MutedStyle.Render("No recent activity."))
	} else {
		for _, line := range state.Log {
			b.WriteString(MutedStyle.Render(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func focusedSession(state *pod.AppState) *pod.Session {
	if state.FocusedSession == "" {
		return nil
	}
	return state.Sessions[state.FocusedSession]
}

func renderDetail(state *pod.AppState) string {
	s := focusedSession(state)
	if s == nil {
		return MutedStyle.Render("No session focused.")
	}

	var b strings.Builder
	b.WriteString(TextStyle.Bold(true).Render(s.Name))
	b.WriteString(" ")
	b.WriteString(StatusBadge(s.Status))
	b.WriteString("\n")
	if s.Worktree != nil {
		line := "worktree: " + s.Worktree.Branch
		if s.Worktree.DiffAdded > 0 || s.Worktree.DiffRemoved > 0 {
			line += fmt.Sprintf("  +%d -%d", s.Worktree.DiffAdded, s.Worktree.DiffRemoved)
		}
		b.WriteString(MutedStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, m := range s.Members {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n", StatusBadge(m.Status), m.Role, MutedStyle.Render(formatAge(m.LastChange))))
		if m.LastCapture != "" {
			tail := lastLine(m.LastCapture)
			b.WriteString(MutedStyle.Render("  " + tail))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderChat(state *pod.AppState) string {
	s := focusedSession(state)
	if s == nil {
		return MutedStyle.Render("No session focused.")
	}
	key := pod.ChatKey(s.Name, state.FocusedMember)

	var b strings.Builder
	b.WriteString(TextStyle.Bold(true).Render("Chat: " + state.FocusedMember))
	b.WriteString("\n\n")
	for _, turn := range state.ChatHistory[key] {
		prefix := "< "
		if turn.Sent {
			prefix = "> "
		}
		b.WriteString(prefix + turn.Text + "\n")
	}
	b.WriteString("\n")
	b.WriteString("> " + state.ChatBuffer)

	member := s.MemberByRole(state.FocusedMember)
	if member != nil && (member.Status == pod.StatusWorking || member.Status == pod.StatusPermission) {
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render(fmt.Sprintf("(%s is %s; send blocked)", member.Role, member.Status)))
	}
	return b.String()
}

func renderPermission(state *pod.AppState) string {
	s := focusedSession(state)
	if s == nil {
		return MutedStyle.Render("No session focused.")
	}
	members := s.PermissionMembers()
	if len(members) == 0 {
		return MutedStyle.Render("No pending permission requests.")
	}

	var b strings.Builder
	b.WriteString(TextStyle.Bold(true).Render("Permission requested"))
	b.WriteString("\n\n")
	for _, m := range members {
		if m.PendingPermission != nil {
			b.WriteString(fmt.Sprintf("%s: %s %s\n", m.Role, m.PendingPermission.Tool, m.PendingPermission.Command))
		} else {
			b.WriteString(fmt.Sprintf("%s: %s\n", m.Role, lastLine(m.LastCapture)))
		}
	}
	b.WriteString("\n")
	b.WriteString("[a] approve   [d] deny   [s] skip")
	return b.String()
}

func renderHelp() string {
	lines := []string{
		"↑/k ↓/j ←/h →/l   navigate grid",
		"Enter             open Detail",
		"c                 enter Chat",
		"y                 copy worktree branch (Detail)",
		"n                 next Permission/Error session",
		"a / d             approve / deny (Permission mode)",
		"s                 skip (Permission mode)",
		"/                 command line (Home)",
		"Esc               back",
		"q                 quit (Home)",
		"?                 this help",
	}
	return TextStyle.Bold(true).Render("Help") + "\n\n" + strings.Join(lines, "\n")
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t).Round(time.Second)
	return d.String() + " ago"
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
