// Package persist implements state snapshots for the engine.
//
// A snapshot captures every agent and task record at a checkpoint. The
// sqlite-backed store keeps a bounded history; the engine tolerates the
// store being unavailable by continuing in memory and logging a warning,
// so every method returns errors that wrap ErrPersistenceUnavailable
// rather than aborting.
package persist

import (
	"encoding/json"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/beelab/hive/internal/agent"
	"github.com/beelab/hive/internal/errors"
	"github.com/beelab/hive/internal/task"
)

// keepSnapshots bounds the snapshot history retained in the database.
const keepSnapshots = 5

// Snapshot is a point-in-time capture of engine state.
type Snapshot struct {
	Agents  []*agent.Agent `json:"agents"`
	Tasks   []*task.Task   `json:"tasks"`
	TakenAt time.Time      `json:"taken_at"`
}

// Store saves and restores engine snapshots.
type Store interface {
	// SaveSnapshot persists a snapshot, becoming the latest.
	SaveSnapshot(snap *Snapshot) error

	// LoadSnapshot returns the most recent snapshot, or
	// ErrSnapshotNotFound when none exists.
	LoadSnapshot() (*Snapshot, error)

	// Close releases the underlying resources.
	Close() error
}

// snapshotRecord is the gorm model backing one stored snapshot. Agent and
// task state is serialized as JSON: snapshots are read whole or not at all,
// so relational decomposition buys nothing here.
type snapshotRecord struct {
	ID      uint      `gorm:"primaryKey"`
	TakenAt time.Time `gorm:"index"`
	Agents  []byte
	Tasks   []byte
}

func (snapshotRecord) TableName() string { return "snapshots" }

// SQLiteStore is a Store backed by a sqlite database file.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) the snapshot database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.NewPersistenceError("open snapshot store", errors.ErrPersistenceUnavailable).WithPath(path)
	}
	if err := db.AutoMigrate(&snapshotRecord{}); err != nil {
		return nil, errors.NewPersistenceError("migrate snapshot store", errors.ErrPersistenceUnavailable).WithPath(path)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveSnapshot persists a snapshot and prunes history beyond the retention
// bound.
func (s *SQLiteStore) SaveSnapshot(snap *Snapshot) error {
	agents, err := json.Marshal(snap.Agents)
	if err != nil {
		return errors.NewPersistenceError("encode agents", err)
	}
	tasks, err := json.Marshal(snap.Tasks)
	if err != nil {
		return errors.NewPersistenceError("encode tasks", err)
	}

	rec := snapshotRecord{
		TakenAt: snap.TakenAt,
		Agents:  agents,
		Tasks:   tasks,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return errors.NewPersistenceError("write snapshot", errors.ErrPersistenceUnavailable)
	}

	// Prune everything older than the newest keepSnapshots records.
	var cutoff snapshotRecord
	err = s.db.Order("id desc").Offset(keepSnapshots - 1).First(&cutoff).Error
	if err == nil {
		s.db.Where("id < ?", cutoff.ID).Delete(&snapshotRecord{})
	}
	return nil
}

// LoadSnapshot returns the most recent snapshot.
func (s *SQLiteStore) LoadSnapshot() (*Snapshot, error) {
	var rec snapshotRecord
	if err := s.db.Order("id desc").First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrSnapshotNotFound
		}
		return nil, errors.NewPersistenceError("read snapshot", errors.ErrPersistenceUnavailable)
	}

	snap := &Snapshot{TakenAt: rec.TakenAt}
	if err := json.Unmarshal(rec.Agents, &snap.Agents); err != nil {
		return nil, errors.NewPersistenceError("decode agents", err)
	}
	if err := json.Unmarshal(rec.Tasks, &snap.Tasks); err != nil {
		return nil, errors.NewPersistenceError("decode tasks", err)
	}
	return snap, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MemoryStore is an in-memory Store used in tests and when persistence is
// disabled.
type MemoryStore struct {
	latest *Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSnapshot keeps the snapshot in memory.
func (m *MemoryStore) SaveSnapshot(snap *Snapshot) error {
	m.latest = snap
	return nil
}

// LoadSnapshot returns the last saved snapshot.
func (m *MemoryStore) LoadSnapshot() (*Snapshot, error) {
	if m.latest == nil {
		return nil, errors.ErrSnapshotNotFound
	}
	return m.latest, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
