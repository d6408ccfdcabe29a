// Package store persists practice progress between sessions in a local
// sqlite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/0xlemi/pentanote/internal/session"
)

// DefaultDBFile is used when PENTANOTE_DB_PATH is not set.
const DefaultDBFile = "pentanote.sqlite3"

// Progress is the single persisted progress row.
type Progress struct {
	ID         uint `gorm:"primaryKey"`
	TargetBPM  int
	HighestBPM int
	Unlocked   int
	UpdatedAt  time.Time
}

// Attempt is one graded round, kept for the stats view.
type Attempt struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	Position  int  `gorm:"index:idx_level,priority:1"`
	BPM       int  `gorm:"index:idx_level,priority:2"`
	Accuracy  float64
	CreatedAt time.Time
}

// LevelStat aggregates the attempts of one (position, bpm) level.
type LevelStat struct {
	Position int
	BPM      int
	Attempts int
	Best     float64
	Average  float64
}

// Store wraps the sqlite database holding progress and attempt history.
type Store struct {
	DB *gorm.DB
	db *sql.DB
}

// Open opens (and migrates) the progress database at the default path,
// honoring the PENTANOTE_DB_PATH override.
func Open() (*Store, error) {
	dbPath := os.Getenv("PENTANOTE_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return OpenPath(dbPath)
}

// OpenPath opens (and migrates) the progress database at the given path.
func OpenPath(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	if err := db.AutoMigrate(&Progress{}, &Attempt{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load builds a session state from the persisted progress, or the initial
// state when nothing has been saved yet.
func (s *Store) Load() (session.State, error) {
	state := session.NewState()

	var progress Progress
	err := s.DB.First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("loading progress: %w", err)
	}

	state.TargetBPM = progress.TargetBPM
	state.CurrentBPM = progress.HighestBPM
	state.Unlocked = progress.Unlocked
	state.Position = progress.Unlocked
	if state.CurrentBPM < state.BaseBPM {
		state.CurrentBPM = state.BaseBPM
	}
	if state.CurrentBPM > state.TargetBPM {
		state.CurrentBPM = state.TargetBPM
	}
	return state, nil
}

// Save upserts the progress row from a session state.
func (s *Store) Save(state session.State) error {
	var progress Progress
	err := s.DB.First(&progress).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("loading progress for save: %w", err)
	}

	progress.TargetBPM = state.TargetBPM
	if state.CurrentBPM > progress.HighestBPM {
		progress.HighestBPM = state.CurrentBPM
	}
	if state.Unlocked > progress.Unlocked {
		progress.Unlocked = state.Unlocked
	}

	if err := s.DB.Save(&progress).Error; err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

// RecordAttempt appends one graded round to the attempt history.
func (s *Store) RecordAttempt(position, bpm int, accuracy float64) error {
	attempt := Attempt{Position: position, BPM: bpm, Accuracy: accuracy}
	if err := s.DB.Create(&attempt).Error; err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

// RecentPerfects returns the newest perfect attempts, most recent first.
func (s *Store) RecentPerfects(limit int) ([]Attempt, error) {
	var attempts []Attempt
	err := s.DB.
		Where("accuracy = ?", 1.0).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("loading perfect attempts: %w", err)
	}
	return attempts, nil
}

// LevelStats aggregates the attempt history per (position, bpm) level.
func (s *Store) LevelStats() ([]LevelStat, error) {
	var stats []LevelStat
	err := s.DB.Model(&Attempt{}).
		Select("position, bpm, count(*) as attempts, max(accuracy) as best, avg(accuracy) as average").
		Group("position").
		Group("bpm").
		Order("position, bpm").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating attempts: %w", err)
	}
	return stats, nil
}
