package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0xlemi/pentanote/internal/store"
)

func init() {
	rootCmd.AddCommand(targetCmd)
}

var targetCmd = &cobra.Command{
	Use:   "target <bpm>",
	Short: "Set the target tempo",
	Long:  `Sets the tempo a position must be mastered at before the next one unlocks.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bpm, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid bpm %q: %w", args[0], err)
		}

		st, err := store.Open()
		if err != nil {
			return err
		}
		defer st.Close()

		state, err := st.Load()
		if err != nil {
			return err
		}

		state, err = state.SetTargetBPM(bpm)
		if err != nil {
			return err
		}
		if err := st.Save(state); err != nil {
			return err
		}

		fmt.Printf("Target tempo set to %d bpm\n", bpm)
		return nil
	},
}
