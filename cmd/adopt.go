package cmd

import (
	"apiary/discovery"
	"apiary/pod"
	"apiary/wordgen"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var adoptName string

var adoptCmd = &cobra.Command{
	Use:   "adopt <multiplexer-session>",
	Short: "Bind an existing multiplexer session as a Session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runAdopt(args[0], adoptName))
	},
}

func init() {
	rootCmd.AddCommand(adoptCmd)
	adoptCmd.Flags().StringVar(&adoptName, "name", "", "name for the adopted Session (default: generated)")
}

// runAdopt implements adopt (spec.md §4.7, §6). Exit codes: 0 success,
// 2 if the multiplexer session is not found.
func runAdopt(multiplexerSession, name string) int {
	str := newStore()
	adapter := newAdapter()
	state := loadState(str)

	if !adapter.HasSession(multiplexerSession) {
		fmt.Fprintln(os.Stderr, "apiary: adopt: not found:", multiplexerSession)
		return 2
	}

	if name == "" {
		name = wordgen.Generate()
	}
	if _, exists := state.Sessions[name]; exists {
		fmt.Fprintln(os.Stderr, "apiary: adopt: name already in use:", name)
		return 2
	}

	sess := &pod.Session{
		Name:            name,
		MultiplexerName: multiplexerSession,
		CreatedAt:       time.Now(),
	}
	if err := discovery.Run(adapter, sess); err != nil {
		fmt.Fprintln(os.Stderr, "apiary: adopt: discovery:", err)
		return 1
	}

	state.AddSession(sess)
	if err := saveState(str, state); err != nil {
		fmt.Fprintln(os.Stderr, "apiary: adopt: store save:", err)
		return 1
	}

	fmt.Printf("adopted %s as %s (%d member(s))\n", multiplexerSession, name, len(sess.Members))
	return 0
}
