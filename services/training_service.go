package services

import (
	"errors"
	"fmt"
	"log"

	"club-career-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Training tuning
const (
	trainingBaseGain     = 0.20
	trainingStaffMinStat = 12
	trainingEnergyPerDay = 2
	dampingWindow        = 5.0
	dampingFloor         = 0.1
)

// TrainingService runs the multi-day progression cycles. A cycle spans the
// rest of the current week and resolves on the weekly boundary, gated on a
// qualified staff member still being at the club.
type TrainingService struct {
	DB   *gorm.DB
	News *NewsService
}

func NewTrainingService(db *gorm.DB, news *NewsService) *TrainingService {
	return &TrainingService{DB: db, News: news}
}

// StartCycle opens a cycle for the team, ending at the next weekly
// boundary. One active cycle per team.
func (s *TrainingService) StartCycle(save *models.Save, teamID, focus string) (*models.TrainingCycle, error) {
	switch focus {
	case models.FocusAttack, models.FocusDefense, models.FocusFitness, models.FocusTechnique:
	default:
		return nil, fmt.Errorf("unknown training focus %q", focus)
	}

	var existing models.TrainingCycle
	err := s.DB.Where("team_id = ? AND status = ?", teamID, models.CycleActive).First(&existing).Error
	if err == nil {
		return nil, errors.New("team already has an active training cycle")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cycle := models.TrainingCycle{
		ID:       uuid.NewString(),
		SaveID:   save.ID,
		TeamID:   teamID,
		Focus:    focus,
		Season:   save.Season,
		StartDay: save.Day,
		EndDay:   nextWeeklyBoundary(save.Day),
		Status:   models.CycleActive,
	}
	if err := s.DB.Create(&cycle).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

// nextWeeklyBoundary returns the first multiple of 7 after day.
func nextWeeklyBoundary(day int) int {
	return (day/7 + 1) * 7
}

// RunDueCycles resolves every active cycle whose end day has arrived.
func (s *TrainingService) RunDueCycles(save *models.Save, day int) error {
	var cycles []models.TrainingCycle
	err := s.DB.Where("save_id = ? AND status = ? AND end_day <= ? AND season = ?",
		save.ID, models.CycleActive, day, save.Season).Find(&cycles).Error
	if err != nil {
		return err
	}

	for i := range cycles {
		if err := s.resolveCycle(save, &cycles[i], day); err != nil {
			log.Printf("[TRAINING] ❌ cycle %s failed: %v", cycles[i].ID, err)
		}
	}
	return nil
}

func (s *TrainingService) resolveCycle(save *models.Save, cycle *models.TrainingCycle, day int) error {
	// Queued until the cycle's transaction commits.
	var note func()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		staff, ok := s.qualifiedStaff(tx, cycle)
		if !ok {
			cycle.Status = models.CycleCancelled
			if err := tx.Save(cycle).Error; err != nil {
				return err
			}
			note = func() {
				s.News.Emit(save.ID, &cycle.TeamID, save.Season, day, models.NewsTraining,
					fmt.Sprintf("%s training cancelled", cycle.Focus),
					"No qualified staff member was available to run the sessions.")
			}
			return nil
		}

		var players []models.Player
		if err := tx.Where("team_id = ?", cycle.TeamID).Find(&players).Error; err != nil {
			return err
		}

		activeDays := cycle.EndDay - cycle.StartDay
		if activeDays < 1 {
			activeDays = 1
		}

		for i := range players {
			p := &players[i]
			if p.InjuryDays > 0 {
				continue
			}
			gain := trainingGain(p, staff)
			p.Skill += gain
			if p.Skill > p.Potential {
				p.Skill = p.Potential
			}
			p.Energy = clampInt(p.Energy-activeDays*trainingEnergyPerDay, 0, 100)
			if err := tx.Save(p).Error; err != nil {
				return err
			}
		}

		cycle.Status = models.CycleCompleted
		if err := tx.Save(cycle).Error; err != nil {
			return err
		}

		staffName := staff.Name
		note = func() {
			s.News.Emit(save.ID, &cycle.TeamID, save.Season, day, models.NewsTraining,
				fmt.Sprintf("%s training completed", cycle.Focus),
				fmt.Sprintf("The squad finished a %d-day block under %s.", activeDays, staffName))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if note != nil {
		note()
	}
	return nil
}

// qualifiedStaff finds a staff member fit to run the cycle: the coach for
// tactical focuses, anyone with the fitness stat for conditioning work.
func (s *TrainingService) qualifiedStaff(tx *gorm.DB, cycle *models.TrainingCycle) (*models.Staff, bool) {
	var staff []models.Staff
	if err := tx.Where("team_id = ?", cycle.TeamID).Find(&staff).Error; err != nil {
		return nil, false
	}
	for i := range staff {
		st := &staff[i]
		switch cycle.Focus {
		case models.FocusFitness:
			if st.Fitness >= trainingStaffMinStat {
				return st, true
			}
		default:
			if st.Role == models.RoleCoach && st.Management >= trainingStaffMinStat {
				return st, true
			}
		}
	}
	return nil, false
}

// trainingGain scales the base rate by age, staff quality and how much
// headroom is left under the player's potential. Progression collapses
// toward the floor as skill closes on the ceiling.
func trainingGain(p *models.Player, staff *models.Staff) float64 {
	youth := 0.6
	switch {
	case p.Age < 23:
		youth = 1.5
	case p.Age < 28:
		youth = 1.0
	}

	stat := staff.Management
	if staff.Fitness > stat {
		stat = staff.Fitness
	}
	staffBonus := 1 + float64(stat)/40

	return trainingBaseGain * youth * staffBonus * potentialDamping(p.Skill, p.Potential)
}

// potentialDamping clamps (potential-skill)/window into [0.1, 1.0].
func potentialDamping(skill, potential float64) float64 {
	d := (potential - skill) / dampingWindow
	if d < dampingFloor {
		return dampingFloor
	}
	if d > 1 {
		return 1
	}
	return d
}
