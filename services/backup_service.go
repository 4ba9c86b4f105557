package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"club-career-system/models"
	"club-career-system/utils"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

const snapshotSweepInterval = 5 * time.Minute

// BackupService serializes whole saves to the object store. Ticks mark a
// save BackupPending and fire one snapshot straight away; the scheduler
// sweeps up anything a crash or an upload failure left behind.
type BackupService struct {
	DB *gorm.DB
}

func NewBackupService(db *gorm.DB) *BackupService {
	return &BackupService{DB: db}
}

// saveSnapshot is the full exported state of one career.
type saveSnapshot struct {
	TakenAt time.Time        `json:"takenAt"`
	Save    models.Save      `json:"save"`
	Leagues []models.League  `json:"leagues"`
	Teams   []models.Team    `json:"teams"`
	Staff   []models.Staff   `json:"staff"`
	History []models.History `json:"history"`
}

// Snapshot uploads the save's current state and clears the pending flag.
// With no backup store configured this is a quiet no-op; the flag stays
// set so a later configured run can catch up.
func (s *BackupService) Snapshot(saveID string) error {
	if !utils.BackupStoreReady() {
		return nil
	}

	var snap saveSnapshot
	snap.TakenAt = time.Now().UTC()

	if err := s.DB.First(&snap.Save, "id = ?", saveID).Error; err != nil {
		return fmt.Errorf("load save: %w", err)
	}
	if err := s.DB.Where("save_id = ?", saveID).Find(&snap.Leagues).Error; err != nil {
		return err
	}
	if err := s.DB.Preload("Players").Preload("Sponsors").
		Where("save_id = ?", saveID).Find(&snap.Teams).Error; err != nil {
		return err
	}
	if err := s.DB.Where("save_id = ?", saveID).Find(&snap.Staff).Error; err != nil {
		return err
	}
	if err := s.DB.Where("save_id = ?", saveID).Find(&snap.History).Error; err != nil {
		return err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s/day-%d.json", saveID, snap.Save.Day)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := utils.UploadSnapshot(ctx, key, payload); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.DB.Model(&models.Save{}).Where("id = ?", saveID).Updates(map[string]interface{}{
		"backup_pending": false,
		"last_backup_at": now,
	}).Error; err != nil {
		return err
	}
	log.Printf("[BACKUP] ☁️ save %s snapshotted to %s (%d bytes)", saveID, key, len(payload))
	return nil
}

// StartSnapshotScheduler sweeps for saves whose snapshot is still pending.
func (s *BackupService) StartSnapshotScheduler() (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(snapshotSweepInterval),
		gocron.NewTask(func() {
			var pending []models.Save
			if err := s.DB.Where("backup_pending = ?", true).Find(&pending).Error; err != nil {
				log.Printf("[BACKUP] ❌ pending sweep failed: %v", err)
				return
			}
			for _, save := range pending {
				if err := s.Snapshot(save.ID); err != nil {
					log.Printf("[BACKUP] ❌ snapshot of %s failed: %v", save.ID, err)
				}
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	log.Printf("[BACKUP] 🕐 snapshot sweep every %s", snapshotSweepInterval)
	return scheduler, nil
}
