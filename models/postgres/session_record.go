package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'SessionRecord' is the persisted per-player outcome of a finished session.
 * One row per player per finalized room; the breakdown is stored as JSONB so
 * the history endpoint can replay the category split without re-valuation.
 */
type SessionRecord struct {
	ID            string         `gorm:"primaryKey;size:36;not null"`
	RoomCode      string         `gorm:"size:6;index:idx_session_records_room;not null"`
	Username      string         `gorm:"size:50;index:idx_session_records_player;not null"`
	FinalNetWorth float64        `gorm:"not null"`
	Breakdown     datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
}
