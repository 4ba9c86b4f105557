package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"club-career-system/models"
	"club-career-system/sim"
	"club-career-system/workers"

	"gorm.io/gorm"
)

type dayFixture struct {
	db       *gorm.DB
	save     *models.Save
	league   *models.League
	user     *models.Team
	opponent *models.Team
	svc      *DayService
}

// newDayFixture wires a complete controller over a two-club league with
// the user's fixture on day 1.
func newDayFixture(t *testing.T, startPool bool) *dayFixture {
	t.Helper()
	db := newTestDB(t)
	save := createSave(t, db, GoalMidtable)
	league := createLeague(t, db, save.ID, "Test League", 1, 0, 0)
	user := createTeam(t, db, save.ID, league.ID, "User FC")
	opponent := createTeam(t, db, save.ID, league.ID, "Rival FC")
	createSquad(t, db, save.ID, user.ID, 60)
	createSquad(t, db, save.ID, opponent.ID, 55)
	createCoach(t, db, save.ID, user.ID, 15)
	createCoach(t, db, save.ID, opponent.ID, 15)
	save.UserTeamID = user.ID
	db.Save(save)

	pool := workers.NewMatchPool(2, sim.NewEngine(1))
	if startPool {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		pool.Start(ctx)
	}

	news := NewNewsService(db)
	rng := testRng()
	match := NewMatchService(db, pool, news)
	roster := NewRosterService(db, rng)
	season := NewSeasonService(db, news)
	finance := NewFinanceService(db, news, rng)
	condition := NewConditionService(db, news)
	training := NewTrainingService(db, news)
	svc := NewDayService(db, match, roster, season, finance, condition, training,
		news, nil, 5*time.Second)

	return &dayFixture{db: db, save: save, league: league, user: user, opponent: opponent, svc: svc}
}

func TestAdvanceDayFullTick(t *testing.T) {
	f := newDayFixture(t, true)
	createFixture(t, f.db, f.save.ID, f.league.ID, 1, f.user.ID, f.opponent.ID)
	// A return fixture keeps the season open past this tick.
	createFixture(t, f.db, f.save.ID, f.league.ID, 2, f.opponent.ID, f.user.ID)

	result, err := f.svc.AdvanceDay(f.save.ID, false)
	if err != nil {
		t.Fatalf("AdvanceDay: %v", err)
	}

	if result.Day != 2 || result.Season != 1 {
		t.Errorf("pointer = day %d season %d, want day 2 season 1", result.Day, result.Season)
	}
	if result.SeasonEnded || result.GameOver {
		t.Errorf("unexpected flags: %+v", result)
	}
	if result.Foreground == nil {
		t.Fatal("foreground outcome missing")
	}

	var match models.Match
	if err := f.db.Where("save_id = ? AND day = 1", f.save.ID).First(&match).Error; err != nil {
		t.Fatal(err)
	}
	if !match.Played {
		t.Error("day-1 fixture not resolved")
	}

	var save models.Save
	f.db.First(&save, "id = ?", f.save.ID)
	if save.Day != 2 {
		t.Errorf("persisted day = %d, want 2", save.Day)
	}
	if !save.BackupPending {
		t.Error("committed tick did not flag the save for snapshot")
	}
}

func TestAdvanceDayTriggersSeasonTransition(t *testing.T) {
	f := newDayFixture(t, true)
	// Single remaining fixture: resolving it finishes the season.
	createFixture(t, f.db, f.save.ID, f.league.ID, 1, f.user.ID, f.opponent.ID)

	result, err := f.svc.AdvanceDay(f.save.ID, false)
	if err != nil {
		t.Fatalf("AdvanceDay: %v", err)
	}

	if !result.SeasonEnded {
		t.Fatal("season did not end with all fixtures played")
	}
	if result.Season != 2 || result.Day != 1 {
		t.Errorf("pointer = day %d season %d, want day 1 season 2", result.Day, result.Season)
	}

	var fixtures int64
	f.db.Model(&models.Match{}).Where("save_id = ? AND played = ?", f.save.ID, false).Count(&fixtures)
	if fixtures == 0 {
		t.Error("no fresh fixtures after the transition")
	}
}

func TestAdvanceDayGameOver(t *testing.T) {
	f := newDayFixture(t, true)
	f.db.Model(f.save).Update("is_game_over", true)

	if _, err := f.svc.AdvanceDay(f.save.ID, false); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
}

func TestAdvanceDayForegroundTimeout(t *testing.T) {
	// Pool never started: the foreground job sits in the queue forever and
	// the watchdog fails the tick without moving the pointer.
	f := newDayFixture(t, false)
	f.svc.ForegroundTimeout = 50 * time.Millisecond
	createFixture(t, f.db, f.save.ID, f.league.ID, 1, f.user.ID, f.opponent.ID)
	createFixture(t, f.db, f.save.ID, f.league.ID, 2, f.opponent.ID, f.user.ID)

	if _, err := f.svc.AdvanceDay(f.save.ID, false); !errors.Is(err, ErrForegroundTimeout) {
		t.Fatalf("expected ErrForegroundTimeout, got %v", err)
	}

	var match models.Match
	if err := f.db.Where("save_id = ? AND day = 1", f.save.ID).First(&match).Error; err != nil {
		t.Fatal(err)
	}
	if match.Played {
		t.Errorf("abandoned fixture was marked played: %+v", match)
	}

	var save models.Save
	f.db.First(&save, "id = ?", f.save.ID)
	if save.Day != 1 {
		t.Errorf("day advanced past a failed tick: %d", save.Day)
	}

	// The failed tick released the save; retrying is allowed and times out
	// the same way rather than reporting a tick in flight.
	if _, err := f.svc.AdvanceDay(f.save.ID, false); !errors.Is(err, ErrForegroundTimeout) {
		t.Fatalf("retry after timeout: expected ErrForegroundTimeout, got %v", err)
	}
}

func TestLiveMatchFlow(t *testing.T) {
	f := newDayFixture(t, true)
	fixture := createFixture(t, f.db, f.save.ID, f.league.ID, 1, f.user.ID, f.opponent.ID)
	createFixture(t, f.db, f.save.ID, f.league.ID, 2, f.opponent.ID, f.user.ID)

	handle, err := f.svc.AdvanceDay(f.save.ID, true)
	if err != nil {
		t.Fatalf("AdvanceDay(live): %v", err)
	}
	if handle.Live == nil || handle.Live.MatchID != fixture.ID {
		t.Fatalf("live handle missing or wrong: %+v", handle.Live)
	}
	if len(handle.Live.HomePlayers) != 11 || len(handle.Live.AwayPlayers) != 11 {
		t.Errorf("handle lineups = %d/%d players, want 11/11",
			len(handle.Live.HomePlayers), len(handle.Live.AwayPlayers))
	}
	if got := len(handle.Live.Preliminary.PlayerLines); got != 22 {
		t.Errorf("preliminary result carries %d player lines, want 22", got)
	}
	if handle.Day != 1 {
		t.Errorf("live tick advanced the day early: %d", handle.Day)
	}

	// A second advance while the live match is open must be refused.
	if _, err := f.svc.AdvanceDay(f.save.ID, false); !errors.Is(err, ErrDayInFlight) {
		t.Errorf("expected ErrDayInFlight, got %v", err)
	}

	result, err := f.svc.FinalizeLiveMatch(f.save.ID, fixture.ID, models.MatchResult{HomeScore: 2, AwayScore: 0})
	if err != nil {
		t.Fatalf("FinalizeLiveMatch: %v", err)
	}
	if result.Day != 2 {
		t.Errorf("finalize did not advance the day: %d", result.Day)
	}

	var match models.Match
	f.db.First(&match, "id = ?", fixture.ID)
	if !match.Played || match.HomeScore != 2 || match.AwayScore != 0 {
		t.Errorf("live result not applied: %+v", match)
	}
	if team := reloadTeam(t, f.db, f.user.ID); team.Points != 3 {
		t.Errorf("user points = %d, want 3", team.Points)
	}
}

func TestFinalizeWithoutPendingLive(t *testing.T) {
	f := newDayFixture(t, true)

	_, err := f.svc.FinalizeLiveMatch(f.save.ID, "some-match", models.MatchResult{})
	if !errors.Is(err, ErrNoPendingLive) {
		t.Errorf("expected ErrNoPendingLive, got %v", err)
	}
}
