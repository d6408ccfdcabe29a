package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "pentanote",
	Short: "Pentatonic scale practice trainer",
	Long: `Pentanote plays a pentatonic scale position, listens to your attempt
through the microphone and grades how closely you matched the pattern.
Perfect rounds raise the tempo; reaching the target tempo unlocks the
next position.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(debugFlag)
	},
}

// Execute runs the root command.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// initLogger routes slog (and the stdlib log package) through one text
// handler on stderr so TUI output on stdout stays clean.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}
