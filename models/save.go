package models

import (
	"time"

	"gorm.io/gorm"
)

// Save is the root record of one career. Every other entity hangs off it
// via SaveID; exactly one Save drives a given career at a time.
type Save struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Day         int       `gorm:"default:1" json:"day"`
	Season      int       `gorm:"default:1" json:"season"`
	CurrentDate time.Time `json:"current_date"`
	UserTeamID  string    `gorm:"index" json:"user_team_id"`

	// Season contract the board holds the user to: champion, promotion, midtable
	SeasonGoal string `gorm:"type:varchar(16);default:'midtable'" json:"season_goal"`
	IsGameOver bool   `gorm:"default:false" json:"is_game_over"`

	// Backup bookkeeping: a committed day-tick flags the save for snapshot
	BackupPending bool       `gorm:"default:false" json:"backup_pending"`
	LastBackupAt  *time.Time `json:"last_backup_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
