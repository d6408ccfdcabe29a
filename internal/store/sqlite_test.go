package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/pentanote/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenPath(filepath.Join(t.TempDir(), "pentanote.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadFreshDatabase(t *testing.T) {
	s := openTestStore(t)

	state, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, session.NewState(), state)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pentanote.sqlite3")
	s, err := OpenPath(path)
	require.NoError(t, err)

	state := session.NewState()
	state.CurrentBPM = 160
	state.Unlocked = 2
	state.Position = 2
	require.NoError(t, s.Save(state))
	require.NoError(t, s.Close())

	// Reopen like a new session would.
	s, err = OpenPath(path)
	require.NoError(t, err)
	defer s.Close()

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 160, loaded.CurrentBPM)
	assert.Equal(t, 2, loaded.Unlocked)
	assert.Equal(t, 2, loaded.Position, "practice resumes at the unlocked position")
	assert.Equal(t, state.TargetBPM, loaded.TargetBPM)
}

func TestSaveNeverRegresses(t *testing.T) {
	s := openTestStore(t)

	high := session.NewState()
	high.CurrentBPM = 200
	high.Unlocked = 3
	require.NoError(t, s.Save(high))

	// A later save with a lower tempo and position must not lose progress.
	low := session.NewState()
	low.CurrentBPM = 130
	low.Unlocked = 1
	require.NoError(t, s.Save(low))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 200, loaded.CurrentBPM)
	assert.Equal(t, 3, loaded.Unlocked)
}

func TestLoadClampsTempoToTarget(t *testing.T) {
	s := openTestStore(t)

	state := session.NewState()
	state.CurrentBPM = 220
	require.NoError(t, s.Save(state))

	// Lowering the target after progress was saved clamps on load.
	state.TargetBPM = 180
	state.CurrentBPM = 180
	require.NoError(t, s.Save(state))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 180, loaded.TargetBPM)
	assert.Equal(t, 180, loaded.CurrentBPM)
}

func TestSaveKeepsSingleProgressRow(t *testing.T) {
	s := openTestStore(t)

	state := session.NewState()
	for i := 0; i < 5; i++ {
		state.CurrentBPM += 10
		require.NoError(t, s.Save(state))
	}

	var count int64
	require.NoError(t, s.DB.Model(&Progress{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRecordAttemptAndLevelStats(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordAttempt(0, 120, 0.8))
	require.NoError(t, s.RecordAttempt(0, 120, 1.0))
	require.NoError(t, s.RecordAttempt(0, 130, 0.5))
	require.NoError(t, s.RecordAttempt(1, 120, 0.9))

	stats, err := s.LevelStats()
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, LevelStat{Position: 0, BPM: 120, Attempts: 2, Best: 1.0, Average: 0.9}, stats[0])
	assert.Equal(t, 130, stats[1].BPM)
	assert.Equal(t, 1, stats[1].Attempts)
	assert.Equal(t, 1, stats[2].Position)
}

func TestRecentPerfects(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordAttempt(0, 120, 1.0))
	require.NoError(t, s.RecordAttempt(0, 130, 0.8))
	require.NoError(t, s.RecordAttempt(1, 120, 1.0))
	require.NoError(t, s.RecordAttempt(1, 130, 1.0))

	perfects, err := s.RecentPerfects(2)
	require.NoError(t, err)
	require.Len(t, perfects, 2)
	assert.Equal(t, 130, perfects[0].BPM, "most recent first")
	assert.Equal(t, 1, perfects[0].Position)
	for _, a := range perfects {
		assert.Equal(t, 1.0, a.Accuracy)
	}
}

func TestLevelStatsEmpty(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.LevelStats()
	require.NoError(t, err)
	assert.Empty(t, stats)
}
