package sync

import (
	"Moneta/models/game"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// SyncManager persists final session state from the in-memory room registry
// to PostgreSQL.
type SyncManager struct {
	db *sql.DB
}

// PlayerRecord is one persisted per-player outcome, read back for
// final-leaderboard reconstruction.
type PlayerRecord struct {
	LogID         string                  `json:"log_id"`
	Username      string                  `json:"username"`
	FinalNetWorth float64                 `json:"final_net_worth"`
	Breakdown     game.PortfolioBreakdown `json:"breakdown"`
}

// NewSyncManager creates a new instance of the synchronization manager
func NewSyncManager(db *sql.DB) *SyncManager {
	return &SyncManager{db: db}
}

// FinalizeSession writes one session record per player with their final net
// worth and breakdown, all inside a single transaction, and returns the log
// ids keyed by player.
func (sm *SyncManager) FinalizeSession(roomCode string, players []game.PlayerInfo) (map[string]string, error) {
	tx, err := sm.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %v", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO session_records (id, room_code, username, final_net_worth, breakdown, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	logIDs := make(map[string]string, len(players))
	for _, player := range players {
		breakdown, err := json.Marshal(player.Breakdown)
		if err != nil {
			return nil, fmt.Errorf("error marshaling breakdown for %s: %v", player.ID, err)
		}

		logID := uuid.NewString()
		if _, err := tx.Exec(query, logID, roomCode, player.ID, player.NetWorth, breakdown); err != nil {
			return nil, fmt.Errorf("error persisting record for %s: %v", player.ID, err)
		}
		logIDs[player.ID] = logID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing session records: %v", err)
	}
	return logIDs, nil
}

// ReadLatestByPlayer returns the persisted records for a finished room,
// ordered by final net worth descending.
func (sm *SyncManager) ReadLatestByPlayer(roomCode string) ([]PlayerRecord, error) {
	query := `
		SELECT id, username, final_net_worth, breakdown
		FROM session_records
		WHERE room_code = $1
		ORDER BY final_net_worth DESC, username ASC
	`

	rows, err := sm.db.Query(query, roomCode)
	if err != nil {
		return nil, fmt.Errorf("error reading session records: %v", err)
	}
	defer rows.Close()

	var records []PlayerRecord
	for rows.Next() {
		var rec PlayerRecord
		var breakdown []byte
		if err := rows.Scan(&rec.LogID, &rec.Username, &rec.FinalNetWorth, &breakdown); err != nil {
			return nil, fmt.Errorf("error scanning session record: %v", err)
		}
		if len(breakdown) > 0 {
			if err := json.Unmarshal(breakdown, &rec.Breakdown); err != nil {
				return nil, fmt.Errorf("error unmarshaling breakdown: %v", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session records: %v", err)
	}
	return records, nil
}
