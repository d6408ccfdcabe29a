package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0xlemi/pentanote/internal/pitch"
	"github.com/0xlemi/pentanote/internal/playback"
	"github.com/0xlemi/pentanote/internal/scale"
	"github.com/0xlemi/pentanote/internal/trainer"
)

var (
	demoBPM  int
	demoRoot string
)

func init() {
	demoCmd.Flags().IntVar(&demoBPM, "bpm", 120, "tempo of the demonstration")
	demoCmd.Flags().StringVar(&demoRoot, "root", "A", "root note of the scale")
	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo [position]",
	Short: "Play the demonstration for a scale position",
	Long:  `Plays the count-in and the full up-and-down traversal of a position.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		position := 0
		if len(args) == 1 {
			p, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[0], err)
			}
			position = p - 1 // positions are 1-based on the command line
		}

		root, err := pitch.ParsePitchClass(demoRoot)
		if err != nil {
			return err
		}

		seq, err := scale.Generate(scale.MinorPentatonic, root, position)
		if err != nil {
			return err
		}
		pattern := scale.RoundTrip(seq)

		cfg := trainer.DefaultConfig()
		player, err := playback.NewPlayer(cfg.SampleRate)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Printf("Playing %s %s, position %d at %d bpm\n", root, scale.MinorPentatonic, position+1, demoBPM)
		for _, step := range seq {
			fmt.Printf("  string %d, fret %-2d  %s (%.1f Hz)\n",
				step.String+1, step.Fret, step.Note().Name(), step.Frequency)
		}

		return player.Play(ctx, playback.RenderDemo(pattern, demoBPM, cfg.SampleRate))
	},
}
