package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xlemi/pentanote/internal/audio"
	"github.com/0xlemi/pentanote/internal/grade"
	"github.com/0xlemi/pentanote/internal/pitch"
	"github.com/0xlemi/pentanote/internal/scale"
	"github.com/0xlemi/pentanote/internal/trainer"
)

var (
	gradePosition int
	gradeBPM      int
	gradeRoot     string
	gradeSkip     float64
)

func init() {
	gradeCmd.Flags().IntVar(&gradePosition, "position", 1, "scale position the recording practices")
	gradeCmd.Flags().IntVar(&gradeBPM, "bpm", 120, "tempo the recording was played at")
	gradeCmd.Flags().StringVar(&gradeRoot, "root", "A", "root note of the scale")
	gradeCmd.Flags().Float64Var(&gradeSkip, "skip", 0, "seconds to skip at the start (count-in)")
	rootCmd.AddCommand(gradeCmd)
}

var gradeCmd = &cobra.Command{
	Use:   "grade <file.wav>",
	Short: "Grade a recorded practice take",
	Long: `Decodes a WAV recording of a practice attempt, runs it through the same
pitch pipeline as live capture and prints the graded result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := pitch.ParsePitchClass(gradeRoot)
		if err != nil {
			return err
		}

		seq, err := scale.Generate(scale.MinorPentatonic, root, gradePosition-1)
		if err != nil {
			return err
		}
		pattern := scale.RoundTrip(seq)

		samples, sampleRate, err := audio.ReadWAV(args[0])
		if err != nil {
			return err
		}
		if skip := int(gradeSkip * float64(sampleRate)); skip > 0 && skip < len(samples) {
			samples = samples[skip:]
		}

		cfg := trainer.DefaultConfig()
		frames := audio.SliceFrames(samples, sampleRate, cfg.FrameSize)
		events := trainer.AnalyzeFrames(frames, cfg)

		result := grade.Grade(pattern, events, gradeBPM)
		printResult(pattern, result)
		return nil
	},
}

func printResult(expected scale.Sequence, result grade.Result) {
	fmt.Printf("Accuracy: %.1f%%  (%d of %d notes)\n",
		result.Accuracy*100, result.Matched, len(expected))
	fmt.Printf("%d matched, %d wrong, %d missed, %d extra\n\n",
		result.Matched, result.Substituted, result.Missed, result.Extra)

	for _, nr := range result.Notes {
		switch nr.Outcome {
		case grade.Matched:
			fmt.Printf("  ✓ %-4s", nr.Expected.Note().Name())
			if nr.HasTiming {
				fmt.Printf("  %+.0f ms", nr.TimingErrMs)
			}
			fmt.Println()
		case grade.Substituted:
			fmt.Printf("  ✗ expected %s, played %s\n",
				nr.Expected.Note().Name(), nr.Played.Note().Name())
		case grade.Missed:
			fmt.Printf("  − missed %s\n", nr.Expected.Note().Name())
		case grade.Extra:
			fmt.Printf("  + extra %s\n", nr.Played.Note().Name())
		}
	}
}
