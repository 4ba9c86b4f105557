package services

import (
	"fmt"
	"log"

	"club-career-system/models"

	"gorm.io/gorm"
)

// Daily recovery rates
const (
	healthyEnergyGain    = 6
	healthyConditionGain = 3
	injuredEnergyGain    = 2
	injuredConditionGain = 1
	moraleMidpoint       = 50
)

// ConditionService runs the daily physical tick for the user's squad. It
// is independent of match outcomes and runs every day.
type ConditionService struct {
	DB   *gorm.DB
	News *NewsService
}

func NewConditionService(db *gorm.DB, news *NewsService) *ConditionService {
	return &ConditionService{DB: db, News: news}
}

// DailyTick applies recovery, injury countdown and morale drift.
func (s *ConditionService) DailyTick(save *models.Save, day int) error {
	// Recovery notices go out only after the tick commits.
	var notes []func()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var players []models.Player
		if err := tx.Where("team_id = ?", save.UserTeamID).Find(&players).Error; err != nil {
			return err
		}
		if len(players) == 0 {
			log.Printf("[CONDITION] ⚠️ user team %s has no players", save.UserTeamID)
			return nil
		}

		for i := range players {
			p := &players[i]

			if p.InjuryDays > 0 {
				// Slow recovery on the treatment table.
				p.Energy = clampInt(p.Energy+injuredEnergyGain, 0, 100)
				p.Condition = clampInt(p.Condition+injuredConditionGain, 0, 100)
				p.InjuryDays--
				if p.InjuryDays == 0 {
					teamID, playerName := p.TeamID, p.Name
					notes = append(notes, func() {
						s.News.Emit(save.ID, &teamID, save.Season, day, models.NewsInjury,
							"back in training",
							fmt.Sprintf("%s has recovered and is available for selection.", playerName))
					})
				}
			} else {
				p.Energy = clampInt(p.Energy+healthyEnergyGain, 0, 100)
				p.Condition = clampInt(p.Condition+healthyConditionGain, 0, 100)
			}

			// Morale drifts back toward the midpoint, one point a day.
			if p.Morale > moraleMidpoint {
				p.Morale--
			} else if p.Morale < moraleMidpoint {
				p.Morale++
			}

			if err := tx.Save(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, note := range notes {
		note()
	}
	return nil
}
