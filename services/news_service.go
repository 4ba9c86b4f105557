package services

import (
	"log"

	"club-career-system/models"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// newsRetentionDays bounds the feed; anything older is pruned by the
// weekly cleanup.
const newsRetentionDays = 28

var headlineCaser = cases.Title(language.English)

type NewsService struct {
	DB *gorm.DB
}

func NewNewsService(db *gorm.DB) *NewsService {
	return &NewsService{DB: db}
}

// Emit writes one feed item. News is advisory: a failed insert is logged
// and never propagates into the tick that produced it.
func (s *NewsService) Emit(saveID string, teamID *string, season, day int, category, headline, body string) {
	item := models.News{
		ID:       uuid.NewString(),
		SaveID:   saveID,
		TeamID:   teamID,
		Season:   season,
		Day:      day,
		Category: category,
		Headline: headlineCaser.String(headline),
		Body:     body,
	}
	if err := s.DB.Create(&item).Error; err != nil {
		log.Printf("[NEWS] ⚠️ failed to emit %q: %v", headline, err)
	}
}

// Feed returns the most recent items for a save, newest first.
func (s *NewsService) Feed(saveID string, limit int) ([]models.News, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var items []models.News
	err := s.DB.Where("save_id = ?", saveID).
		Order("season DESC, day DESC, created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// PruneOld drops items past the retention window. Runs on the weekly
// cleanup boundary.
func (s *NewsService) PruneOld(saveID string, season, day int) error {
	cutoff := day - newsRetentionDays
	return s.DB.Where("save_id = ? AND (season < ? OR (season = ? AND day < ?))",
		saveID, season, season, cutoff).
		Delete(&models.News{}).Error
}

// DeleteAll clears the feed, part of the season transition's bounded
// retention.
func (s *NewsService) DeleteAll(tx *gorm.DB, saveID string) error {
	return tx.Unscoped().Where("save_id = ?", saveID).Delete(&models.News{}).Error
}
