package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xlemi/pentanote/internal/store"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show practice progress and accuracy history",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open()
		if err != nil {
			return err
		}
		defer st.Close()

		state, err := st.Load()
		if err != nil {
			return err
		}

		fmt.Printf("Current tempo:  %d bpm (target %d)\n", state.CurrentBPM, state.TargetBPM)
		fmt.Printf("Unlocked up to: position %d\n\n", state.Unlocked+1)

		stats, err := st.LevelStats()
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("No attempts recorded yet.")
			return nil
		}

		fmt.Println("Position  BPM   Attempts  Best     Average")
		for _, ls := range stats {
			fmt.Printf("%-9d %-5d %-9d %-8.1f %.1f\n",
				ls.Position+1, ls.BPM, ls.Attempts, ls.Best*100, ls.Average*100)
		}

		perfects, err := st.RecentPerfects(5)
		if err != nil {
			return err
		}
		if len(perfects) > 0 {
			fmt.Println("\nRecent perfect rounds:")
			for _, a := range perfects {
				fmt.Printf("  position %d at %d bpm  (%s)\n",
					a.Position+1, a.BPM, a.CreatedAt.Format("2006-01-02 15:04"))
			}
		}
		return nil
	},
}
