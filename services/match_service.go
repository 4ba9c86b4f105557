package services

import (
	"errors"
	"fmt"
	"log"

	"club-career-system/models"
	"club-career-system/workers"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post-match state deltas applied to starters.
const (
	starterEnergyDrop    = 20
	starterConditionDrop = 8
	conditionFloor       = 30
	neutralRating        = 6.0
	ticketPrice          = 20
)

// MatchService partitions a day's fixtures into the one foreground match
// and the background batch, dispatches them to the worker pool, and folds
// results back into the store one transaction per match.
type MatchService struct {
	DB   *gorm.DB
	Pool *workers.MatchPool
	News *NewsService
}

func NewMatchService(db *gorm.DB, pool *workers.MatchPool, news *NewsService) *MatchService {
	return &MatchService{DB: db, Pool: pool, News: news}
}

// DayDispatch is the in-flight handle for one day's matches. Background
// reconciliation runs on its own; Done closes once every background match
// has been applied (or abandoned).
type DayDispatch struct {
	ForegroundMatch   *models.Match
	ForegroundRequest *workers.SimulateMatch
	ForegroundReply   <-chan workers.MatchComplete
	BackgroundCount   int
	BackgroundDone    <-chan struct{}
}

// FixturesForDay returns the day's unplayed fixtures.
func (s *MatchService) FixturesForDay(saveID string, day int) ([]models.Match, error) {
	var fixtures []models.Match
	err := s.DB.Where("save_id = ? AND day = ? AND played = ?", saveID, day, false).
		Find(&fixtures).Error
	return fixtures, err
}

// DispatchDay materializes every fixture's inputs synchronously, submits
// the background matches as one batch (not awaited here), and submits the
// foreground match as an independent job. The caller decides what to do
// with the foreground reply; nothing is applied here.
func (s *MatchService) DispatchDay(save *models.Save) (*DayDispatch, error) {
	fixtures, err := s.FixturesForDay(save.ID, save.Day)
	if err != nil {
		return nil, err
	}

	dispatch := &DayDispatch{}
	batch := workers.SimulateBatch{SaveID: save.ID}

	for i := range fixtures {
		m := fixtures[i]
		req, err := s.buildRequest(save, &m)
		if err != nil {
			log.Printf("[MATCH] ⚠️ skipping fixture %s: %v", m.ID, err)
			continue
		}
		if m.HomeTeamID == save.UserTeamID || m.AwayTeamID == save.UserTeamID {
			req.Foreground = true
			dispatch.ForegroundMatch = &m
			dispatch.ForegroundRequest = &req
			dispatch.ForegroundReply = s.Pool.Submit(req)
			continue
		}
		batch.Matches = append(batch.Matches, req)
	}

	dispatch.BackgroundCount = len(batch.Matches)
	dispatch.BackgroundDone = s.reconcileBatch(s.Pool.SubmitBatch(batch), len(batch.Matches))

	return dispatch, nil
}

// reconcileBatch applies batch results as they land, one transaction per
// match so one failure cannot corrupt its siblings. Unordered on purpose:
// each match touches only its own two teams.
func (s *MatchService) reconcileBatch(reply <-chan workers.BatchComplete, count int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if count == 0 {
			<-reply // drain the empty completion
			return
		}
		completed := <-reply
		for _, res := range completed.Results {
			if err := s.ApplyResult(res.MatchID, res.Result, false); err != nil {
				log.Printf("[MATCH] ❌ reconcile failed for %s: %v", res.MatchID, err)
			}
		}
	}()
	return done
}

// buildRequest loads both lineups and precomputes ratings so the worker
// never touches the store.
func (s *MatchService) buildRequest(save *models.Save, m *models.Match) (workers.SimulateMatch, error) {
	home, err := s.starters(m.HomeTeamID)
	if err != nil {
		return workers.SimulateMatch{}, err
	}
	away, err := s.starters(m.AwayTeamID)
	if err != nil {
		return workers.SimulateMatch{}, err
	}
	return workers.SimulateMatch{
		RequestID:   uuid.NewString(),
		MatchID:     m.ID,
		SaveID:      save.ID,
		HomeTeamID:  m.HomeTeamID,
		AwayTeamID:  m.AwayTeamID,
		HomeRatings: computeRatings(home),
		AwayRatings: computeRatings(away),
		HomePlayers: home,
		AwayPlayers: away,
		Pressure:    m.Pressure,
	}, nil
}

func (s *MatchService) starters(teamID string) ([]models.Player, error) {
	var players []models.Player
	err := s.DB.Where("team_id = ? AND is_starter = ?", teamID, true).Find(&players).Error
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("team %s has no starters flagged", teamID)
	}
	return players, nil
}

// computeRatings averages starter skill per line. A line with nobody in it
// falls back to the squad mean so the ratio math stays sane.
func computeRatings(players []models.Player) workers.TeamRatings {
	var sums = map[string]float64{}
	var counts = map[string]int{}
	total := 0.0
	for i := range players {
		p := &players[i]
		sums[p.Position] += p.Skill
		counts[p.Position]++
		total += p.Skill
	}
	overall := total / float64(len(players))
	lineAvg := func(positions ...string) float64 {
		sum, n := 0.0, 0
		for _, pos := range positions {
			sum += sums[pos]
			n += counts[pos]
		}
		if n == 0 {
			return overall
		}
		return sum / float64(n)
	}
	return workers.TeamRatings{
		Attack:   lineAvg(models.PositionFWD),
		Midfield: lineAvg(models.PositionMID),
		Defense:  lineAvg(models.PositionDEF, models.PositionGK),
		Overall:  overall,
	}
}

// ApplyResult folds one MatchResult into persistent state. The whole step
// is a single transaction; applying to an already-played match is a no-op,
// so retries never double-count.
func (s *MatchService) ApplyResult(matchID string, res models.MatchResult, foreground bool) error {
	var emit func()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[MATCH] ⚠️ match %s vanished before reconciliation, abandoned", matchID)
				return nil
			}
			return err
		}
		if match.Played {
			return nil
		}

		var home, away models.Team
		if err := tx.First(&home, "id = ?", match.HomeTeamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[MATCH] ⚠️ home team %s missing for match %s, abandoned", match.HomeTeamID, matchID)
				return nil
			}
			return err
		}
		if err := tx.First(&away, "id = ?", match.AwayTeamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[MATCH] ⚠️ away team %s missing for match %s, abandoned", match.AwayTeamID, matchID)
				return nil
			}
			return err
		}

		// 1. Persist the result onto the fixture. Background matches keep
		// only the aggregate, not the event timeline.
		stored := res
		if !foreground {
			stored = res.Truncated()
		}
		details, err := stored.Marshal()
		if err != nil {
			return err
		}
		if err := tx.Model(&match).Updates(map[string]interface{}{
			"played":       true,
			"home_score":   res.HomeScore,
			"away_score":   res.AwayScore,
			"details_json": details,
		}).Error; err != nil {
			return err
		}

		// 2. Cumulative team stats, goal difference recomputed from totals.
		if err := applyTeamResult(tx, &home, res.HomeScore, res.AwayScore); err != nil {
			return err
		}
		if err := applyTeamResult(tx, &away, res.AwayScore, res.HomeScore); err != nil {
			return err
		}

		// 3-7. Player accumulation, incidents, suspension cooldown.
		if err := s.applyPlayerUpdates(tx, &match, res); err != nil {
			return err
		}

		// 7. Club mood and the gate receipts, realized at the next
		// weekly settlement rather than immediately.
		gd := res.HomeScore - res.AwayScore
		applyClubMood(&home, gd)
		applyClubMood(&away, -gd)
		home.PendingTicketIncome += ticketRevenue(&home)
		if err := tx.Save(&home).Error; err != nil {
			return err
		}
		if err := tx.Save(&away).Error; err != nil {
			return err
		}

		// 8. News only for the user's match; background volume would be
		// unbounded.
		if foreground {
			headline := fmt.Sprintf("%s %d - %d %s", home.Name, res.HomeScore, res.AwayScore, away.Name)
			saveID, season, day := match.SaveID, 0, match.Day
			var save models.Save
			if err := tx.First(&save, "id = ?", saveID).Error; err == nil {
				season = save.Season
			}
			emit = func() {
				s.News.Emit(saveID, nil, season, day, models.NewsMatch, "full time", headline)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}
	if emit != nil {
		emit()
	}
	return nil
}

// applyTeamResult buckets the outcome and keeps points and goal difference
// derivable from the counters.
func applyTeamResult(tx *gorm.DB, team *models.Team, scored, conceded int) error {
	team.Played++
	switch {
	case scored > conceded:
		team.Wins++
	case scored == conceded:
		team.Draws++
	default:
		team.Losses++
	}
	team.GoalsFor += scored
	team.GoalsAgainst += conceded
	team.GoalDifference = team.GoalsFor - team.GoalsAgainst
	team.Points = 3*team.Wins + team.Draws
	return tx.Save(team).Error
}

func (s *MatchService) applyPlayerUpdates(tx *gorm.DB, match *models.Match, res models.MatchResult) error {
	var players []models.Player
	if err := tx.Where("team_id IN ?", []string{match.HomeTeamID, match.AwayTeamID}).
		Find(&players).Error; err != nil {
		return err
	}

	byID := make(map[string]*models.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}

	lines := make(map[string]models.PlayerMatchLine, len(res.PlayerLines))
	for _, line := range res.PlayerLines {
		lines[line.PlayerID] = line
	}

	// Players already serving a ban before this match; their cooldown
	// decrements afterwards. Fresh bans from today's cards do not.
	preSuspended := make(map[string]bool)
	for i := range players {
		if players[i].SuspensionMatches > 0 {
			preSuspended[players[i].ID] = true
		}
	}

	for i := range players {
		p := &players[i]
		if line, ok := lines[p.ID]; ok {
			// 3. Season accumulation: running average for rating/accuracy,
			// plain sums for the counting stats.
			n := float64(p.SeasonApps)
			p.SeasonRating = (p.SeasonRating*n + line.Rating) / (n + 1)
			p.SeasonPassAccuracy = (p.SeasonPassAccuracy*n + line.PassAccuracy) / (n + 1)
			p.SeasonApps++
			p.SeasonGoals += line.Goals
			p.SeasonAssists += line.Assists
			p.SeasonDistanceKM += line.DistanceKM

			// 4. The match takes its physical toll.
			p.Energy = clampInt(p.Energy-starterEnergyDrop, 0, 100)
			if p.Condition > conditionFloor {
				p.Condition = maxInt(p.Condition-starterConditionDrop, conditionFloor)
			}
			p.Confidence = clampInt(p.Confidence+int((line.Rating-neutralRating)*2), 0, 100)
		} else {
			// Non-starters stew on the bench.
			p.Confidence = clampInt(p.Confidence-1, 0, 100)
		}
	}

	// 5. Incidents.
	for _, ev := range res.Events {
		p, ok := byID[ev.PlayerID]
		if !ok {
			continue
		}
		switch ev.Kind {
		case models.EventInjury:
			p.InjuryDays += ev.InjuryDays
			p.IsStarter = false
			p.Confidence = clampInt(p.Confidence-5, 0, 100)
		case models.EventCard:
			if ev.SuspensionMatches > 0 {
				p.SuspensionMatches += ev.SuspensionMatches
				p.IsStarter = false
				p.Confidence = clampInt(p.Confidence-3, 0, 100)
			}
		}
	}

	// 6. Post-match cooldown on bans that predate this match.
	for i := range players {
		p := &players[i]
		if preSuspended[p.ID] && p.SuspensionMatches > 0 {
			p.SuspensionMatches--
		}
	}

	for i := range players {
		if err := tx.Save(&players[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyClubMood shifts confidence and reputation from one side's
// perspective of the result.
func applyClubMood(team *models.Team, goalDiff int) {
	switch {
	case goalDiff > 0:
		team.Confidence = clampInt(team.Confidence+4+goalDiff, 0, 100)
		team.Reputation = clampInt(team.Reputation+1+goalDiff/2, 0, 100)
	case goalDiff == 0:
		team.Confidence = clampInt(team.Confidence+1, 0, 100)
	default:
		team.Confidence = clampInt(team.Confidence+goalDiff-2, 0, 100)
		team.Reputation = clampInt(team.Reputation-1, 0, 100)
	}
}

// ticketRevenue estimates the home gate: attendance follows confidence.
func ticketRevenue(home *models.Team) int64 {
	fill := 0.3 + float64(home.Confidence)/200
	attendance := int64(float64(home.StadiumCapacity) * fill)
	return attendance * ticketPrice
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
