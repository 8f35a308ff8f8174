package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print a table of Sessions and their rolled-up status",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runList()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList() {
	state := loadState(newStore())
	sessions := state.OrderedSessions()
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tSTATUS\tMEMBERS\tMULTIPLEXER")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.Name, s.Kind, s.Status, len(s.Members), s.MultiplexerName)
	}
	w.Flush()
}
