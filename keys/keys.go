// Package keys maps key events to actions per App mode (spec.md §4.9).
package keys

import (
	"apiary/pod"

	tea "github.com/charmbracelet/bubbletea"
)

// Action is an abstract input action the App dispatches on.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionEnter   // open Detail from Home
	ActionEsc     // unwind one level
	ActionChat    // enter Chat mode from Detail
	ActionNextAttention
	ActionApprove // 'a' in Permission
	ActionDeny    // 'd' in Permission
	ActionSkip    // 's' in Permission: advance without sending
	ActionHelp
	ActionSlash // '/' in Home: open command line
	ActionPrintable
	ActionBackspace
	ActionCopyBranch // 'y' in Detail: copy the worktree branch name
)

// Dispatch maps a key message to an Action for the given mode. msg.Type
// handles navigation/control keys; msg.Runes carries printable input for
// Chat/command-line buffers (the caller decides whether ActionPrintable
// is meaningful in the current mode).
func Dispatch(mode pod.Mode, msg tea.KeyMsg) Action {
	switch msg.Type {
	case tea.KeyCtrlC:
		return ActionQuit
	case tea.KeyEsc:
		return ActionEsc
	case tea.KeyEnter:
		return enterAction(mode)
	case tea.KeyUp:
		return ActionUp
	case tea.KeyDown:
		return ActionDown
	case tea.KeyLeft:
		return ActionLeft
	case tea.KeyRight:
		return ActionRight
	case tea.KeyBackspace:
		return ActionBackspace
	}

	if mode == pod.ModeChat || mode == pod.ModeHome {
		// Printable runes feed the chat/command buffers; letter-action
		// shortcuts below only apply outside of buffer-editing contexts
		// the caller is responsible for distinguishing (Home's buffer is
		// only active after '/', Chat's buffer is always active).
		if msg.Type == tea.KeyRunes {
			if mode == pod.ModeChat {
				return ActionPrintable
			}
		}
	}

	switch msg.String() {
	case "q":
		if mode == pod.ModeHome {
			return ActionQuit
		}
	case "h":
		return ActionLeft
	case "j":
		return ActionDown
	case "k":
		return ActionUp
	case "l":
		return ActionRight
	case "c":
		if mode == pod.ModeDetail {
			return ActionChat
		}
	case "n":
		return ActionNextAttention
	case "a":
		if mode == pod.ModePermission {
			return ActionApprove
		}
	case "d":
		if mode == pod.ModePermission {
			return ActionDeny
		}
	case "s":
		if mode == pod.ModePermission {
			return ActionSkip
		}
	case "y":
		if mode == pod.ModeDetail {
			return ActionCopyBranch
		}
	case "?":
		return ActionHelp
	case "/":
		if mode == pod.ModeHome {
			return ActionSlash
		}
	}

	if msg.Type == tea.KeyRunes {
		return ActionPrintable
	}
	return ActionNone
}

func enterAction(mode pod.Mode) Action {
	switch mode {
	case pod.ModeHome:
		return ActionEnter
	case pod.ModeChat:
		return ActionPrintable // Enter sends the chat buffer; App distinguishes by mode
	default:
		return ActionNone
	}
}
