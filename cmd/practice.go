package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/0xlemi/pentanote/internal/audio"
	"github.com/0xlemi/pentanote/internal/grade"
	"github.com/0xlemi/pentanote/internal/pitch"
	"github.com/0xlemi/pentanote/internal/playback"
	"github.com/0xlemi/pentanote/internal/scale"
	"github.com/0xlemi/pentanote/internal/session"
	"github.com/0xlemi/pentanote/internal/store"
	"github.com/0xlemi/pentanote/internal/trainer"
	"github.com/0xlemi/pentanote/internal/ui"
)

var practiceRoot string

func init() {
	practiceCmd.Flags().StringVar(&practiceRoot, "root", "A", "root note of the scale")
	rootCmd.AddCommand(practiceCmd)
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run practice rounds on the current position",
	Long: `Runs practice rounds: each round plays the demonstration, counts you in
and records your attempt over a metronome, then grades it. Progress is
saved between sessions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := pitch.ParsePitchClass(practiceRoot)
		if err != nil {
			return err
		}
		return runPractice(root)
	},
}

// notePlayer is the playback surface a round needs.
type notePlayer interface {
	Play(ctx context.Context, samples []float64) error
}

// msgSender delivers messages to the TUI. Satisfied by *tea.Program.
type msgSender interface {
	Send(msg tea.Msg)
}

func runPractice(root pitch.PitchClass) error {
	st, err := store.Open()
	if err != nil {
		return err
	}
	defer st.Close()

	state, err := st.Load()
	if err != nil {
		return err
	}

	cfg := trainer.DefaultConfig()
	player, err := playback.NewPlayer(cfg.SampleRate)
	if err != nil {
		return err
	}

	proceed := make(chan struct{}, 1)
	program := tea.NewProgram(ui.NewModel(state, proceed), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newCapturer := func() (audio.Capturer, error) {
		return audio.NewPortAudioCapturer(cfg.FrameSize, cfg.SampleRate, 1, cfg.QueueDepth)
	}

	go driveRounds(ctx, program, st, state, root, cfg, player, newCapturer, proceed)

	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

// driveRounds runs rounds until the context is cancelled (the user quit the
// TUI) or a round fails.
func driveRounds(
	ctx context.Context,
	program *tea.Program,
	st *store.Store,
	state session.State,
	root pitch.PitchClass,
	cfg trainer.Config,
	player notePlayer,
	newCapturer func() (audio.Capturer, error),
	proceed <-chan struct{},
) {
	for {
		result, err := runOneRound(ctx, program, state, root, cfg, player, newCapturer)
		if err != nil {
			if errors.Is(err, trainer.ErrRoundCancelled) || errors.Is(err, context.Canceled) {
				program.Quit()
				return
			}
			program.Send(ui.ErrMsg{Err: err})
			return
		}

		next := state.Apply(result)
		if err := st.RecordAttempt(state.Position, state.CurrentBPM, result.Accuracy); err != nil {
			program.Send(ui.ErrMsg{Err: err})
			return
		}
		if err := st.Save(next); err != nil {
			program.Send(ui.ErrMsg{Err: err})
			return
		}
		state = next
		program.Send(ui.ResultMsg{Result: result, State: state})

		select {
		case <-ctx.Done():
			return
		case <-proceed:
		}
	}
}

// runOneRound plays the demonstration, counts the player in, then captures
// and grades one attempt with the metronome clicking through the window.
func runOneRound(
	ctx context.Context,
	send msgSender,
	state session.State,
	root pitch.PitchClass,
	cfg trainer.Config,
	player notePlayer,
	newCapturer func() (audio.Capturer, error),
) (grade.Result, error) {
	seq, err := scale.Generate(scale.MinorPentatonic, root, state.Position)
	if err != nil {
		return grade.Result{}, err
	}
	pattern := scale.RoundTrip(seq)

	capturer, err := newCapturer()
	if err != nil {
		return grade.Result{}, err
	}
	defer capturer.Close()

	monitor := trainer.Monitor{
		Frame: func(frame audio.Frame, est pitch.Estimate) {
			send.Send(ui.LevelMsg{RMS: frame.RMS(), DB: frame.DB()})
			send.Send(ui.EstimateMsg(est))
		},
		Note: func(ev pitch.NoteEvent) {
			send.Send(ui.NoteMsg(ev))
		},
	}

	// Demonstration first; capture only starts once playback is done so
	// the demonstration tones cannot leak into the analysis.
	send.Send(ui.PhaseMsg(ui.PhaseDemo))
	demo := playback.RenderDemo(pattern, state.CurrentBPM, cfg.SampleRate)
	if err := playOrCancel(ctx, player, demo); err != nil {
		return grade.Result{}, err
	}

	// Count-in: the grading clock starts where it ends, so the player can
	// anticipate the first beat.
	send.Send(ui.PhaseMsg(ui.PhaseCountIn))
	countIn := playback.Metronome(state.CurrentBPM, playback.CountInBeats, cfg.SampleRate)
	if err := playOrCancel(ctx, player, countIn); err != nil {
		return grade.Result{}, err
	}

	send.Send(ui.PhaseMsg(ui.PhaseRecording))
	beat := time.Duration(60.0 / float64(state.CurrentBPM) * float64(time.Second))
	captureBeats := len(pattern) + 1
	captureLen := time.Duration(captureBeats) * beat

	// The metronome keeps clicking under the capture window.
	clickCtx, stopClicks := context.WithCancel(ctx)
	clicksDone := make(chan struct{})
	go func() {
		defer close(clicksDone)
		clicks := playback.Metronome(state.CurrentBPM, captureBeats, cfg.SampleRate)
		if err := player.Play(clickCtx, clicks); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("metronome playback", "err", err)
		}
	}()

	extractor := pitch.NewExtractor(cfg.Extractor)
	quantizer := pitch.NewQuantizer(cfg.Quantizer)
	events, err := trainer.CaptureRound(ctx, capturer, captureLen, extractor, quantizer, monitor)
	stopClicks()
	<-clicksDone
	if err != nil {
		return grade.Result{}, err
	}
	return grade.Grade(pattern, events, state.CurrentBPM), nil
}

// playOrCancel plays a buffer and maps context cancellation to the round
// cancellation sentinel.
func playOrCancel(ctx context.Context, player notePlayer, samples []float64) error {
	if err := player.Play(ctx, samples); err != nil {
		if errors.Is(err, context.Canceled) {
			return trainer.ErrRoundCancelled
		}
		return err
	}
	return nil
}
