package services

import (
	"testing"

	"club-career-system/models"
)

func TestDailyTickRecovery(t *testing.T) {
	db := newTestDB(t)
	save := createSave(t, db, GoalMidtable)
	league := createLeague(t, db, save.ID, "Test League", 1, 0, 0)
	team := createTeam(t, db, save.ID, league.ID, "Eastport United")
	save.UserTeamID = team.ID
	db.Save(save)

	tired := createPlayer(t, db, save.ID, team.ID, models.PositionMID, 60, true)
	db.Model(tired).Updates(map[string]interface{}{"energy": 40, "condition": 50})
	fresh := createPlayer(t, db, save.ID, team.ID, models.PositionDEF, 60, true)

	svc := NewConditionService(db, NewNewsService(db))
	if err := svc.DailyTick(save, 2); err != nil {
		t.Fatalf("DailyTick: %v", err)
	}

	p := reloadPlayer(t, db, tired.ID)
	if p.Energy != 46 || p.Condition != 53 {
		t.Errorf("healthy recovery wrong: energy=%d condition=%d", p.Energy, p.Condition)
	}

	// Already at the cap: stays clamped.
	f := reloadPlayer(t, db, fresh.ID)
	if f.Energy != 100 || f.Condition != 100 {
		t.Errorf("recovery overflowed the cap: energy=%d condition=%d", f.Energy, f.Condition)
	}
}

func TestDailyTickInjuryCountdown(t *testing.T) {
	db := newTestDB(t)
	save := createSave(t, db, GoalMidtable)
	league := createLeague(t, db, save.ID, "Test League", 1, 0, 0)
	team := createTeam(t, db, save.ID, league.ID, "Eastport United")
	save.UserTeamID = team.ID
	db.Save(save)

	hurt := createPlayer(t, db, save.ID, team.ID, models.PositionFWD, 60, false)
	db.Model(hurt).Updates(map[string]interface{}{"injury_days": 1, "energy": 50, "condition": 40})

	svc := NewConditionService(db, NewNewsService(db))
	if err := svc.DailyTick(save, 2); err != nil {
		t.Fatalf("DailyTick: %v", err)
	}

	p := reloadPlayer(t, db, hurt.ID)
	if p.InjuryDays != 0 {
		t.Errorf("injury days = %d, want 0", p.InjuryDays)
	}
	// Injured players recover at the slow rate.
	if p.Energy != 52 || p.Condition != 41 {
		t.Errorf("injured recovery wrong: energy=%d condition=%d", p.Energy, p.Condition)
	}

	// Recovery notice lands in the feed.
	var count int64
	db.Model(&models.News{}).Where("save_id = ? AND category = ?", save.ID, models.NewsInjury).Count(&count)
	if count != 1 {
		t.Errorf("expected one recovery notice, got %d", count)
	}
}

func TestDailyTickMoraleDrift(t *testing.T) {
	db := newTestDB(t)
	save := createSave(t, db, GoalMidtable)
	league := createLeague(t, db, save.ID, "Test League", 1, 0, 0)
	team := createTeam(t, db, save.ID, league.ID, "Eastport United")
	save.UserTeamID = team.ID
	db.Save(save)

	high := createPlayer(t, db, save.ID, team.ID, models.PositionMID, 60, true)
	db.Model(high).Update("morale", 80)
	low := createPlayer(t, db, save.ID, team.ID, models.PositionDEF, 60, true)
	db.Model(low).Update("morale", 20)
	mid := createPlayer(t, db, save.ID, team.ID, models.PositionFWD, 60, true)

	svc := NewConditionService(db, NewNewsService(db))
	if err := svc.DailyTick(save, 2); err != nil {
		t.Fatalf("DailyTick: %v", err)
	}

	if p := reloadPlayer(t, db, high.ID); p.Morale != 79 {
		t.Errorf("high morale = %d, want 79", p.Morale)
	}
	if p := reloadPlayer(t, db, low.ID); p.Morale != 21 {
		t.Errorf("low morale = %d, want 21", p.Morale)
	}
	if p := reloadPlayer(t, db, mid.ID); p.Morale != 50 {
		t.Errorf("midpoint morale = %d, want 50", p.Morale)
	}
}
