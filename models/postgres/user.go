package postgres

import "time"

/*
 * 'User' holds the account credentials and public profile of a player.
 */
type User struct {
	Username     string    `gorm:"primaryKey;size:50;not null"`
	Email        string    `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:100;not null"`
	UserIcon     int       `gorm:"default:0"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}
