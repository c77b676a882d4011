package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soundpool/engine/internal/model"
)

// ErrNotFound is returned when a referenced entity does not exist.
// Processors treat it as terminal: retrying cannot make the row appear.
var ErrNotFound = errors.New("not found")

// Store is the data-access collaborator shared by processors and the
// distribution engine.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and runs migrations.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema for all entities.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&model.Asset{},
		&model.Track{},
		&model.TrackVersion{},
		&model.Transcode{},
		&model.Waveform{},
		&model.AudioFingerprint{},
		&model.ContentReport{},
		&model.Contribution{},
		&model.ArtistPayout{},
		&model.Charity{},
		&model.ListeningRecord{},
	)
}

// Ping verifies database connectivity for the health probe.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
