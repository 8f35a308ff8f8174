package cmd

import (
	"apiary/pod"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-line summary of Session counts by status",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus() {
	state := loadState(newStore())
	sessions := state.OrderedSessions()

	counts := map[pod.MemberStatus]int{}
	for _, s := range sessions {
		counts[s.Status]++
	}

	fmt.Printf("%d session(s): %d idle, %d working, %d permission, %d error, %d done, %d unknown\n",
		len(sessions),
		counts[pod.StatusIdle],
		counts[pod.StatusWorking],
		counts[pod.StatusPermission],
		counts[pod.StatusError],
		counts[pod.StatusDone],
		counts[pod.StatusUnknown],
	)
}
