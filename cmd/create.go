package cmd

import (
	"apiary/pod"
	"apiary/worktree"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var createWorktreePath string

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a Session, its multiplexer session, and start the assistant",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runCreate(args[0], createWorktreePath))
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createWorktreePath, "worktree", "", "repository path to create an isolated worktree in")
}

// runCreate follows spec.md §4.7's create sequence: new_session ->
// (optional worktree setup) -> list_panes (first pane) -> Store.save ->
// send_keys(pane, program, Enter). Exit codes per spec.md §6: 0 success,
// 1 failure, 2 name collision.
func runCreate(name, repoPath string) int {
	str := newStore()
	adapter := newAdapter()
	cfg := loadConfig()
	state := loadState(str)

	if _, exists := state.Sessions[name]; exists {
		fmt.Fprintln(os.Stderr, "apiary: create: name already in use:", name)
		return 2
	}

	sessionID, err := adapter.NewSession(name, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "apiary: create: new_session:", err)
		return 1
	}

	var wtInfo *pod.WorktreeInfo
	if repoPath != "" {
		wt, _, err := worktree.New(repoPath, name)
		if err == nil {
			err = wt.Setup()
		}
		if err != nil {
			adapter.KillSession(sessionID)
			fmt.Fprintln(os.Stderr, "apiary: create: worktree:", err)
			return 1
		}
		wtInfo = &pod.WorktreeInfo{Path: wt.Path(), Branch: wt.Branch(), BaseCommitSHA: wt.BaseCommitSHA()}
	}

	panes, err := adapter.ListPanes(sessionID)
	if err != nil || len(panes) == 0 {
		adapter.KillSession(sessionID)
		fmt.Fprintln(os.Stderr, "apiary: create: no panes in new session")
		return 1
	}
	pane := panes[0].ID

	sess := &pod.Session{
		Name:            name,
		Kind:            pod.KindSolo,
		MultiplexerName: sessionID,
		CreatedAt:       time.Now(),
		Worktree:        wtInfo,
		Members: []*pod.Member{
			{Role: "member-0", Pane: pane, Status: pod.StatusUnknown},
		},
	}
	state.AddSession(sess)

	if err := saveState(str, state); err != nil {
		adapter.KillSession(sessionID)
		fmt.Fprintln(os.Stderr, "apiary: create: store save:", err)
		return 1
	}

	if err := adapter.SendKeys(pane, cfg.Assistant.Program, true); err != nil {
		adapter.KillSession(sessionID)
		fmt.Fprintln(os.Stderr, "apiary: create: send_keys:", err)
		return 1
	}

	fmt.Printf("created %s (multiplexer session %s, pane %s)\n", name, sessionID, pane)
	return 0
}
