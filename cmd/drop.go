package cmd

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var dropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Kill the multiplexer session and remove the Session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runDrop(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(dropCmd)
}

// runDrop implements drop (spec.md §4.7, §6). Exit codes: 0 success,
// 2 if name is unknown. If the Session has a worktree, its branch name
// is copied to the clipboard before removal (SPEC_FULL.md §5, same as
// the in-TUI `drop` command).
func runDrop(name string) int {
	str := newStore()
	adapter := newAdapter()
	state := loadState(str)

	sess, ok := state.Sessions[name]
	if !ok {
		fmt.Fprintln(os.Stderr, "apiary: drop: unknown:", name)
		return 2
	}

	if sess.Worktree != nil {
		_ = clipboard.WriteAll(sess.Worktree.Branch)
	}

	if err := adapter.KillSession(sess.MultiplexerName); err != nil {
		fmt.Fprintln(os.Stderr, "apiary: drop: kill_session:", err)
	}
	state.RemoveSession(name)
	if err := saveState(str, state); err != nil {
		fmt.Fprintln(os.Stderr, "apiary: drop: store save:", err)
		return 1
	}

	fmt.Println("dropped", name)
	return 0
}
