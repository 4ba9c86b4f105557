package services

import (
	"fmt"
	"log"
	"math/rand"

	"club-career-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sponsor offer tuning
const (
	maxSponsors        = 3
	sponsorOfferChance = 0.25
	sponsorTermDays    = 98 // 14 weeks
)

var sponsorNames = []string{
	"Northwind Telecom", "Apex Motors", "Bluepeak Energy", "Crownline Air",
	"Stellar Breweries", "Vantage Insurance", "Orbit Software", "Redstone Bank",
}

// FinanceService runs the weekly settlement for the user's club: wages out,
// sponsor and gate money in, budget floored at zero.
type FinanceService struct {
	DB   *gorm.DB
	News *NewsService
	Rng  *rand.Rand
}

func NewFinanceService(db *gorm.DB, news *NewsService, rng *rand.Rand) *FinanceService {
	return &FinanceService{DB: db, News: news, Rng: rng}
}

// WeeklyDue reports whether the settlement runs on the given day.
func WeeklyDue(day int) bool {
	return day%7 == 1
}

// WeeklyTick settles the user club's finances for one week and resolves any
// stadium project that has come due. Called with the day the tick is run
// for; does nothing off the weekly boundary.
func (s *FinanceService) WeeklyTick(save *models.Save, day int) error {
	if !WeeklyDue(day) {
		return nil
	}

	// News is emitted only after the settlement commits.
	var notes []func()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := tx.First(&team, "id = ?", save.UserTeamID).Error; err != nil {
			log.Printf("[FINANCE] ⚠️ user team %s missing, settlement skipped", save.UserTeamID)
			return nil
		}

		wages, err := s.weeklyWages(tx, team.ID)
		if err != nil {
			return err
		}

		sponsorIncome, err := s.settleSponsors(tx, save, team.ID, day, &notes)
		if err != nil {
			return err
		}

		income := sponsorIncome + team.PendingTicketIncome
		balance := income - wages

		team.Budget += balance
		if team.Budget < 0 {
			team.Budget = 0 // insolvency is not modeled, the board absorbs it
		}
		team.PendingTicketIncome = 0

		if err := tx.Save(&team).Error; err != nil {
			return err
		}

		if err := s.resolveStadiumProjects(tx, save, &team, day, &notes); err != nil {
			return err
		}

		if err := s.maybeOfferSponsor(tx, save, &team, day, &notes); err != nil {
			return err
		}

		budget := team.Budget
		notes = append(notes, func() {
			s.News.Emit(save.ID, &team.ID, save.Season, day, models.NewsFinance,
				"weekly balance",
				fmt.Sprintf("Income %d, wages %d, balance %+d. Budget now %d.", income, wages, balance, budget))
		})

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

// weeklyWages sums player and staff wages. A negative wage is a corrupt
// record; that entity is skipped rather than poisoning the settlement.
func (s *FinanceService) weeklyWages(tx *gorm.DB, teamID string) (int64, error) {
	var players []models.Player
	if err := tx.Where("team_id = ?", teamID).Find(&players).Error; err != nil {
		return 0, err
	}
	var staff []models.Staff
	if err := tx.Where("team_id = ?", teamID).Find(&staff).Error; err != nil {
		return 0, err
	}

	var total int64
	for _, p := range players {
		if p.Wage < 0 {
			log.Printf("[FINANCE] ⚠️ negative wage on player %s, skipped", p.ID)
			continue
		}
		total += p.Wage
	}
	for _, st := range staff {
		if st.Wage < 0 {
			log.Printf("[FINANCE] ⚠️ negative wage on staff %s, skipped", st.ID)
			continue
		}
		total += st.Wage
	}
	return total, nil
}

// settleSponsors drops lapsed deals and returns the weekly income of the
// rest.
func (s *FinanceService) settleSponsors(tx *gorm.DB, save *models.Save, teamID string, day int, notes *[]func()) (int64, error) {
	var sponsors []models.Sponsor
	if err := tx.Where("team_id = ?", teamID).Find(&sponsors).Error; err != nil {
		return 0, err
	}

	var income int64
	for i := range sponsors {
		sp := &sponsors[i]
		if sp.Expired(save.Season, day) {
			if err := tx.Delete(sp).Error; err != nil {
				return 0, err
			}
			name := sp.Name
			*notes = append(*notes, func() {
				s.News.Emit(save.ID, &teamID, save.Season, day, models.NewsFinance,
					"sponsor deal ends", fmt.Sprintf("The deal with %s has run out.", name))
			})
			continue
		}
		income += sp.WeeklyAmount
	}
	return income, nil
}

func (s *FinanceService) resolveStadiumProjects(tx *gorm.DB, save *models.Save, team *models.Team, day int, notes *[]func()) error {
	var projects []models.StadiumProject
	if err := tx.Where("team_id = ? AND resolved = ?", team.ID, false).Find(&projects).Error; err != nil {
		return err
	}
	for i := range projects {
		pr := &projects[i]
		if !pr.Due(save.Season, day) {
			continue
		}
		team.StadiumCapacity += pr.AddedCapacity
		if pr.NewName != "" {
			team.StadiumName = pr.NewName
		}
		pr.Resolved = true
		if err := tx.Save(pr).Error; err != nil {
			return err
		}
		if err := tx.Save(team).Error; err != nil {
			return err
		}
		stadium, capacity := team.StadiumName, team.StadiumCapacity
		*notes = append(*notes, func() {
			s.News.Emit(save.ID, &team.ID, save.Season, day, models.NewsFinance,
				"stadium works completed",
				fmt.Sprintf("%s now holds %d.", stadium, capacity))
		})
	}
	return nil
}

// maybeOfferSponsor adds a new deal when there is shirt space left:
// guaranteed in the opening week, a dice roll afterwards.
func (s *FinanceService) maybeOfferSponsor(tx *gorm.DB, save *models.Save, team *models.Team, day int, notes *[]func()) error {
	var active int64
	if err := tx.Model(&models.Sponsor{}).Where("team_id = ?", team.ID).Count(&active).Error; err != nil {
		return err
	}
	if active >= maxSponsors {
		return nil
	}
	if day != 1 && s.Rng.Float64() >= sponsorOfferChance {
		return nil
	}

	// Offer value scales with reputation.
	amount := int64(500 + team.Reputation*40 + s.Rng.Intn(500))
	sponsor := models.Sponsor{
		ID:            uuid.NewString(),
		SaveID:        save.ID,
		TeamID:        team.ID,
		Name:          sponsorNames[s.Rng.Intn(len(sponsorNames))],
		WeeklyAmount:  amount,
		ExpiresSeason: save.Season,
		ExpiresDay:    day + sponsorTermDays,
	}
	if err := tx.Create(&sponsor).Error; err != nil {
		return err
	}
	*notes = append(*notes, func() {
		s.News.Emit(save.ID, &team.ID, save.Season, day, models.NewsFinance,
			"new sponsor signed",
			fmt.Sprintf("%s pays %d a week until day %d.", sponsor.Name, amount, sponsor.ExpiresDay))
	})
	return nil
}
