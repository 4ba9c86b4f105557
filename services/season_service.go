package services

import (
	"fmt"
	"log"
	"sort"

	"club-career-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Season goals the board can set
const (
	GoalChampion  = "champion"
	GoalPromotion = "promotion"
	GoalMidtable  = "midtable"
)

// SeasonService closes out a finished season and opens the next one:
// standings, history, promotion/relegation and fixture regeneration.
type SeasonService struct {
	DB   *gorm.DB
	News *NewsService
}

func NewSeasonService(db *gorm.DB, news *NewsService) *SeasonService {
	return &SeasonService{DB: db, News: news}
}

// AllFixturesPlayed reports whether every fixture of the save has been
// resolved. A save with no fixtures at all is not a finished season.
func (s *SeasonService) AllFixturesPlayed(saveID string) (bool, error) {
	var total, unplayed int64
	if err := s.DB.Model(&models.Match{}).Where("save_id = ?", saveID).Count(&total).Error; err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}
	if err := s.DB.Model(&models.Match{}).Where("save_id = ? AND played = ?", saveID, false).
		Count(&unplayed).Error; err != nil {
		return false, err
	}
	return unplayed == 0, nil
}

// Standings ranks teams by points, then goal difference, then goals
// scored. Name breaks residual ties so the order is stable.
func Standings(teams []models.Team) []models.Team {
	out := make([]models.Team, len(teams))
	copy(out, teams)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Name < b.Name
	})
	return out
}

type leagueSwap struct {
	teamID      string
	newLeagueID string
}

// RunTransition executes the full end-of-season batch. The caller persists
// the save pointer afterwards; this mutates save.Season/Day/IsGameOver in
// memory.
func (s *SeasonService) RunTransition(save *models.Save) error {
	var leagues []models.League
	if err := s.DB.Where("save_id = ?", save.ID).Order("level ASC").Find(&leagues).Error; err != nil {
		return err
	}

	byLevel := make(map[int]*models.League, len(leagues))
	for i := range leagues {
		byLevel[leagues[i].Level] = &leagues[i]
	}

	var swaps []leagueSwap
	// Feed items queued until after the cleanup transaction, which wipes
	// the old season's news.
	var notes []func()

	for i := range leagues {
		league := &leagues[i]

		var teams []models.Team
		if err := s.DB.Where("league_id = ?", league.ID).Find(&teams).Error; err != nil {
			return err
		}
		table := Standings(teams)

		if err := s.archiveSeason(save, league, table); err != nil {
			return err
		}
		if err := s.resetPlayerSeasonStats(teams); err != nil {
			return err
		}

		userLeague := false
		userPos := 0
		for pos, t := range table {
			if t.ID == save.UserTeamID {
				userLeague = true
				userPos = pos + 1
			}
		}
		if userLeague && !s.seasonGoalMet(save, league, userPos, len(table)) {
			save.IsGameOver = true
			endedSeason, pos := save.Season, userPos
			notes = append(notes, func() {
				s.News.Emit(save.ID, &save.UserTeamID, endedSeason, 1, models.NewsSeason,
					"the board has had enough",
					fmt.Sprintf("A finish of %d. was not what was agreed. The project ends here.", pos))
			})
			log.Printf("[SEASON] 💀 season goal %q missed (position %d), career over", save.SeasonGoal, userPos)
			continue // no promotion/relegation bookkeeping for a dead career's league
		}

		// Promotion set, excluded at the top flight.
		if league.Level > 1 && league.PromotionSpots > 0 {
			if above, ok := byLevel[league.Level-1]; ok {
				for _, t := range table[:minCount(league.PromotionSpots, len(table))] {
					swaps = append(swaps, leagueSwap{teamID: t.ID, newLeagueID: above.ID})
				}
			}
		}
		// Relegation set, excluded at the bottom.
		if league.RelegationSpots > 0 {
			if below, ok := byLevel[league.Level+1]; ok {
				cut := len(table) - league.RelegationSpots
				if cut < 0 {
					cut = 0
				}
				for _, t := range table[cut:] {
					swaps = append(swaps, leagueSwap{teamID: t.ID, newLeagueID: below.ID})
				}
			}
		}

		if userLeague {
			endedSeason, pos := save.Season, userPos
			name, points := teamName(table, save.UserTeamID), teamPoints(table, save.UserTeamID)
			notes = append(notes, func() {
				s.News.Emit(save.ID, &save.UserTeamID, endedSeason, 1, models.NewsSeason,
					"season review",
					fmt.Sprintf("%s finished season %d in position %d with %d points.",
						name, endedSeason, pos, points))
			})
		}
	}

	if err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Bounded retention: a new season starts with a clean slate.
		if err := tx.Unscoped().Where("save_id = ?", save.ID).Delete(&models.Match{}).Error; err != nil {
			return err
		}
		if err := s.News.DeleteAll(tx, save.ID); err != nil {
			return err
		}

		for _, sw := range swaps {
			if err := tx.Model(&models.Team{}).Where("id = ?", sw.teamID).
				Update("league_id", sw.newLeagueID).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Team{}).Where("save_id = ?", save.ID).Updates(map[string]interface{}{
			"played": 0, "wins": 0, "draws": 0, "losses": 0,
			"goals_for": 0, "goals_against": 0, "goal_difference": 0, "points": 0,
		}).Error; err != nil {
			return err
		}

		save.Season++
		save.Day = 1

		for i := range leagues {
			var members []models.Team
			if err := tx.Where("league_id = ?", leagues[i].ID).Find(&members).Error; err != nil {
				return err
			}
			fixtures := GenerateFixtures(save.ID, leagues[i].ID, members)
			for j := range fixtures {
				if err := tx.Create(&fixtures[j]).Error; err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return err
	}

	for _, note := range notes {
		note()
	}

	log.Printf("[SEASON] 🔄 save %s rolled over into season %d", save.ID, save.Season)
	return nil
}

func (s *SeasonService) archiveSeason(save *models.Save, league *models.League, table []models.Team) error {
	for pos, t := range table {
		scorerName, scorerGoals := s.topScorer(t.ID)
		record := models.History{
			ID:             uuid.NewString(),
			SaveID:         save.ID,
			TeamID:         t.ID,
			SeasonYear:     save.Season,
			LeagueName:     league.Name,
			Position:       pos + 1,
			Points:         t.Points,
			Wins:           t.Wins,
			Draws:          t.Draws,
			Losses:         t.Losses,
			GoalsFor:       t.GoalsFor,
			GoalsAgainst:   t.GoalsAgainst,
			TopScorerName:  scorerName,
			TopScorerGoals: scorerGoals,
		}
		if err := s.DB.Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *SeasonService) topScorer(teamID string) (string, int) {
	var p models.Player
	err := s.DB.Where("team_id = ?", teamID).
		Order("season_goals DESC").First(&p).Error
	if err != nil {
		return "", 0
	}
	return p.Name, p.SeasonGoals
}

func (s *SeasonService) resetPlayerSeasonStats(teams []models.Team) error {
	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return s.DB.Model(&models.Player{}).Where("team_id IN ?", ids).Updates(map[string]interface{}{
		"season_apps": 0, "season_goals": 0, "season_assists": 0,
		"season_rating": 0, "season_pass_accuracy": 0, "season_distance_km": 0,
	}).Error
}

// seasonGoalMet evaluates the board's contract against the final position.
func (s *SeasonService) seasonGoalMet(save *models.Save, league *models.League, position, teams int) bool {
	switch save.SeasonGoal {
	case GoalChampion:
		return position == 1
	case GoalPromotion:
		if league.PromotionSpots == 0 {
			return position == 1 // already at the top: win it
		}
		return position <= league.PromotionSpots
	default: // midtable
		return position <= (teams+1)/2
	}
}

// GenerateFixtures builds a double round robin via the circle method: an
// odd team count gets a bye slot, index 0 stays fixed while the rest
// rotate, and the second leg mirrors home and away. Pressure climbs toward
// the end of each leg with a spike on the final round.
func GenerateFixtures(saveID, leagueID string, teams []models.Team) []models.Match {
	n := len(teams)
	if n < 2 {
		return nil
	}

	ids := make([]string, 0, n+1)
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	if n%2 == 1 {
		ids = append(ids, "") // bye
	}
	size := len(ids)
	roundsPerLeg := size - 1

	var fixtures []models.Match
	addRound := func(round, day int, secondLeg bool) {
		for i := 0; i < size/2; i++ {
			home, away := ids[i], ids[size-1-i]
			if home == "" || away == "" {
				continue
			}
			// Alternate venues so the fixed team is not always at home.
			if (round+i)%2 == 1 {
				home, away = away, home
			}
			if secondLeg {
				home, away = away, home
			}
			fixtures = append(fixtures, models.Match{
				ID:         uuid.NewString(),
				SaveID:     saveID,
				LeagueID:   leagueID,
				Day:        day,
				Round:      day,
				HomeTeamID: home,
				AwayTeamID: away,
				Pressure:   roundPressure(round, roundsPerLeg),
			})
		}
	}
	rotate := func() {
		// Keep ids[0] fixed, rotate the rest clockwise.
		last := ids[size-1]
		copy(ids[2:], ids[1:size-1])
		ids[1] = last
	}

	for leg := 0; leg < 2; leg++ {
		for round := 1; round <= roundsPerLeg; round++ {
			addRound(round, leg*roundsPerLeg+round, leg == 1)
			rotate()
		}
	}
	return fixtures
}

// roundPressure rises monotonically through a leg and spikes on its last
// round.
func roundPressure(round, roundsPerLeg int) float64 {
	p := 1 + 0.5*float64(round)/float64(roundsPerLeg)
	if round == roundsPerLeg {
		p += 0.5
	}
	return p
}

func minCount(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func teamName(table []models.Team, id string) string {
	for _, t := range table {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}

func teamPoints(table []models.Team, id string) int {
	for _, t := range table {
		if t.ID == id {
			return t.Points
		}
	}
	return 0
}
