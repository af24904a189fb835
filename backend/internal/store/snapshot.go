package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomSnapshot is the durable copy of a room's document, written only on an
// explicit save. The live document stays in process memory.
type RoomSnapshot struct {
	RoomID  string    `gorm:"primaryKey;size:191;column:room_id"`
	Content string    `gorm:"type:longtext"`
	SavedAt time.Time `gorm:"autoUpdateTime"`
}

func (RoomSnapshot) TableName() string { return "room_snapshots" }

type SnapshotStore struct{ db *gorm.DB }

func InitMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&RoomSnapshot{}); err != nil {
		return nil, err
	}
	return db, nil
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Save(ctx context.Context, roomID, content string) error {
	snap := RoomSnapshot{RoomID: roomID, Content: content}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "saved_at"}),
		}).
		Create(&snap).Error
}

// Load returns the stored content, reporting ok=false when the room has
// never been saved.
func (s *SnapshotStore) Load(ctx context.Context, roomID string) (string, bool, error) {
	var snap RoomSnapshot
	err := s.db.WithContext(ctx).First(&snap, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return snap.Content, true, nil
}
