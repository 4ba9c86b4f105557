package services

import (
	"fmt"
	"testing"

	"club-career-system/models"

	"gorm.io/gorm"
)

func makeTeams(t *testing.T, db *gorm.DB, saveID, leagueID string, n int) []models.Team {
	t.Helper()
	teams := make([]models.Team, 0, n)
	for i := 0; i < n; i++ {
		team := createTeam(t, db, saveID, leagueID, fmt.Sprintf("Club %02d", i))
		teams = append(teams, *team)
	}
	return teams
}

func TestGenerateFixturesDoubleRoundRobin(t *testing.T) {
	db := newTestDB(t)
	save := createSave(t, db, GoalMidtable)
	league := createLeague(t, db, save.ID, "Test League", 1, 0, 0)
	teams := makeTeams(t, db, save.ID, league.ID, 10)

	fixtures := GenerateFixtures(save.ID, league.ID, teams)

	if len(fixtures) != 90 {
		t.Fatalf("10 teams should produce 90 fixtures, got %d", len(fixtures))
	}

	days := map[int]int{}
	appearances := map[string]int{}
	home := map[string]int{}
	pairings := map[string]int{}
	for _, f := range fixtures {
		days[f.Day]++
		appearances[f.HomeTeamID]++
		appearances[f.AwayTeamID]++
		home[f.HomeTeamID]++
		pairings[f.HomeTeamID+"|"+f.AwayTeamID]++
	}

	if len(days) != 18 {
		t.Errorf("expected 18 match days, got %d", len(days))
	}
	for day, count := range days {
		if count != 5 {
			t.Errorf("day %d has %d fixtures, want 5", day, count)
		}
	}
	for id, n := range appearances {
		if n != 18 {
			t.Errorf("team %s plays %d matches, want 18", id, n)
		}
	}
	for id, n := range home {
		if n != 9 {
			t.Errorf("team %s has %d home matches, want 9", id, n)
		}
	}
	// Every ordered pairing exactly once: the second leg mirrors the first.
	for pair, n := range pairings {
		if n != 1 {
			t.Errorf("pairing %s scheduled %d times", pair, n)
		}
	}
}

func TestGenerateFixturesOddTeamCount(t *testing.T) {
	db := newTestDB(t)
	save := createSave(t, db, GoalMidtable)
	league := createLeague(t, db, save.ID, "Test League", 1, 0, 0)
	teams := makeTeams(t, db, save.ID, league.ID, 9)

	fixtures := GenerateFixtures(save.ID, league.ID, teams)

	// 9 teams, one bye per round: 9*8 orderings.
	if len(fixtures) != 72 {
		t.Fatalf("9 teams should produce 72 fixtures, got %d", len(fixtures))
	}
	for _, f := range fixtures {
		if f.HomeTeamID == "" || f.AwayTeamID == "" {
			t.Fatal("bye slot leaked into a fixture")
		}
	}
}

func TestRoundPressureRisesAndSpikes(t *testing.T) {
	last := 0.0
	for round := 1; round <= 9; round++ {
		p := roundPressure(round, 9)
		if p <= last {
			t.Errorf("pressure not rising at round %d: %v <= %v", round, p, last)
		}
		last = p
	}
	if final := roundPressure(9, 9); final != 2.0 {
		t.Errorf("final-round pressure = %v, want 2.0", final)
	}
}

func TestStandingsOrdering(t *testing.T) {
	teams := []models.Team{
		{ID: "a", Name: "Alpha", Points: 10, GoalDifference: 5, GoalsFor: 20},
		{ID: "b", Name: "Beta", Points: 12, GoalDifference: -1, GoalsFor: 10},
		{ID: "c", Name: "Gamma", Points: 10, GoalDifference: 5, GoalsFor: 25},
		{ID: "d", Name: "Delta", Points: 10, GoalDifference: 8, GoalsFor: 15},
	}
	table := Standings(teams)
	want := []string{"b", "d", "c", "a"}
	for i, id := range want {
		if table[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i+1, table[i].ID, id)
		}
	}
}

func TestAllFixturesPlayed(t *testing.T) {
	db := newTestDB(t)
	save := createSave(t, db, GoalMidtable)
	league := createLeague(t, db, save.ID, "Test League", 1, 0, 0)
	a := createTeam(t, db, save.ID, league.ID, "A")
	b := createTeam(t, db, save.ID, league.ID, "B")

	svc := NewSeasonService(db, NewNewsService(db))

	// No fixtures at all is not a finished season.
	done, err := svc.AllFixturesPlayed(save.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("empty schedule reported as finished")
	}

	m1 := createFixture(t, db, save.ID, league.ID, 1, a.ID, b.ID)
	m2 := createFixture(t, db, save.ID, league.ID, 2, b.ID, a.ID)
	db.Model(m1).Update("played", true)

	done, _ = svc.AllFixturesPlayed(save.ID)
	if done {
		t.Error("season reported finished with one fixture open")
	}

	db.Model(m2).Update("played", true)
	done, _ = svc.AllFixturesPlayed(save.ID)
	if !done {
		t.Error("season not reported finished with all fixtures played")
	}
}

// seedPyramid builds two 4-team tiers with final standings already on the
// counters, all fixtures played.
func seedPyramid(t *testing.T, db *gorm.DB, save *models.Save) (*models.League, *models.League, []models.Team, []models.Team) {
	t.Helper()
	top := createLeague(t, db, save.ID, "Premier Division", 1, 0, 2)
	second := createLeague(t, db, save.ID, "Second Division", 2, 2, 0)

	topTeams := makeTeams(t, db, save.ID, top.ID, 4)
	secondTeams := makeTeams(t, db, save.ID, second.ID, 4)

	// Points descending by index order.
	for i := range topTeams {
		db.Model(&topTeams[i]).Updates(map[string]interface{}{
			"points": 30 - i*5, "wins": 10 - i, "played": 6, "goals_for": 20 - i,
		})
	}
	for i := range secondTeams {
		db.Model(&secondTeams[i]).Updates(map[string]interface{}{
			"points": 28 - i*5, "wins": 9 - i, "played": 6, "goals_for": 18 - i,
		})
		createPlayer(t, db, save.ID, secondTeams[i].ID, models.PositionFWD, 60, true)
	}

	m := createFixture(t, db, save.ID, top.ID, 1, topTeams[0].ID, topTeams[1].ID)
	db.Model(m).Update("played", true)

	return top, second, topTeams, secondTeams
}

func TestRunTransitionPromotionRelegation(t *testing.T) {
	db := newTestDB(t)
	save := createSave(t, db, GoalPromotion)
	top, second, topTeams, secondTeams := seedPyramid(t, db, save)

	// User club tops the second tier: promotion goal met.
	save.UserTeamID = secondTeams[0].ID
	db.Save(save)

	svc := NewSeasonService(db, NewNewsService(db))
	if err := svc.RunTransition(save); err != nil {
		t.Fatalf("RunTransition: %v", err)
	}

	if save.Season != 2 || save.Day != 1 {
		t.Fatalf("save pointer = season %d day %d, want season 2 day 1", save.Season, save.Day)
	}
	if save.IsGameOver {
		t.Fatal("promotion achieved but career ended")
	}

	// Top two of the second tier moved up, bottom two of the top tier
	// moved down.
	for _, id := range []string{secondTeams[0].ID, secondTeams[1].ID} {
		if team := reloadTeam(t, db, id); team.LeagueID != top.ID {
			t.Errorf("team %s not promoted", team.Name)
		}
	}
	for _, id := range []string{topTeams[2].ID, topTeams[3].ID} {
		if team := reloadTeam(t, db, id); team.LeagueID != second.ID {
			t.Errorf("team %s not relegated", team.Name)
		}
	}
	// Champions stay up.
	if team := reloadTeam(t, db, topTeams[0].ID); team.LeagueID != top.ID {
		t.Errorf("champion %s moved leagues", team.Name)
	}

	// Counters zeroed everywhere.
	var dirty int64
	db.Model(&models.Team{}).Where("save_id = ? AND (points > 0 OR played > 0)", save.ID).Count(&dirty)
	if dirty != 0 {
		t.Errorf("%d teams kept season counters", dirty)
	}

	// Old matches gone, fresh double round robin per 4-team tier.
	var fixtures []models.Match
	db.Where("save_id = ? AND league_id = ?", save.ID, top.ID).Find(&fixtures)
	if len(fixtures) != 12 {
		t.Errorf("top tier has %d fixtures, want 12", len(fixtures))
	}
	for _, f := range fixtures {
		if f.Played {
			t.Error("regenerated fixture already played")
		}
	}

	// One history record per club.
	var archived int64
	db.Model(&models.History{}).Where("save_id = ?", save.ID).Count(&archived)
	if archived != 8 {
		t.Errorf("%d history records, want 8", archived)
	}
}

func TestRunTransitionResetsPlayerStats(t *testing.T) {
	db := newTestDB(t)
	save := createSave(t, db, GoalMidtable)
	_, _, _, secondTeams := seedPyramid(t, db, save)
	save.UserTeamID = secondTeams[1].ID
	db.Save(save)

	var scorer models.Player
	db.Where("team_id = ?", secondTeams[0].ID).First(&scorer)
	db.Model(&scorer).Updates(map[string]interface{}{"season_goals": 17, "season_apps": 20, "season_rating": 7.4})

	svc := NewSeasonService(db, NewNewsService(db))
	if err := svc.RunTransition(save); err != nil {
		t.Fatalf("RunTransition: %v", err)
	}

	p := reloadPlayer(t, db, scorer.ID)
	if p.SeasonGoals != 0 || p.SeasonApps != 0 || p.SeasonRating != 0 {
		t.Errorf("season stats survived the transition: %+v", p)
	}

	// The 17-goal season made it into the archive first.
	var record models.History
	if err := db.Where("team_id = ? AND season_year = 1", secondTeams[0].ID).First(&record).Error; err != nil {
		t.Fatal(err)
	}
	if record.TopScorerGoals != 17 {
		t.Errorf("archived top scorer goals = %d, want 17", record.TopScorerGoals)
	}
}

func TestRunTransitionSeasonGoalMissed(t *testing.T) {
	db := newTestDB(t)
	save := createSave(t, db, GoalChampion)
	_, _, _, secondTeams := seedPyramid(t, db, save)

	// User club finished last in the second tier while chasing the title.
	save.UserTeamID = secondTeams[3].ID
	db.Save(save)

	svc := NewSeasonService(db, NewNewsService(db))
	if err := svc.RunTransition(save); err != nil {
		t.Fatalf("RunTransition: %v", err)
	}

	if !save.IsGameOver {
		t.Fatal("missed champion goal did not end the career")
	}

	var notice int64
	db.Model(&models.News{}).Where("save_id = ? AND category = ?", save.ID, models.NewsSeason).Count(&notice)
	if notice == 0 {
		t.Error("no season notice in the feed after the transition")
	}
}

func TestSeasonGoalMet(t *testing.T) {
	top := &models.League{Level: 1, PromotionSpots: 0}
	lower := &models.League{Level: 2, PromotionSpots: 2}

	tests := []struct {
		goal     string
		league   *models.League
		position int
		teams    int
		want     bool
	}{
		{GoalChampion, top, 1, 10, true},
		{GoalChampion, top, 2, 10, false},
		{GoalPromotion, lower, 2, 10, true},
		{GoalPromotion, lower, 3, 10, false},
		{GoalPromotion, top, 1, 10, true}, // top flight: only the title counts
		{GoalMidtable, top, 5, 10, true},
		{GoalMidtable, top, 6, 10, false},
	}

	svc := &SeasonService{}
	for _, tt := range tests {
		save := &models.Save{SeasonGoal: tt.goal}
		if got := svc.seasonGoalMet(save, tt.league, tt.position, tt.teams); got != tt.want {
			t.Errorf("seasonGoalMet(%s, level %d, pos %d) = %v, want %v",
				tt.goal, tt.league.Level, tt.position, got, tt.want)
		}
	}
}
