package services

import (
	"math/rand"
	"testing"
	"time"

	"club-career-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory store with the full schema. A
// single connection keeps the memory database alive for the whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Save{},
		&models.League{},
		&models.Team{},
		&models.Player{},
		&models.Staff{},
		&models.Match{},
		&models.Sponsor{},
		&models.StadiumProject{},
		&models.TrainingCycle{},
		&models.News{},
		&models.History{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func createSave(t *testing.T, db *gorm.DB, goal string) *models.Save {
	t.Helper()
	save := models.Save{
		ID:          uuid.NewString(),
		Name:        "test career",
		Day:         1,
		Season:      1,
		CurrentDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		SeasonGoal:  goal,
	}
	if err := db.Create(&save).Error; err != nil {
		t.Fatalf("create save: %v", err)
	}
	return &save
}

func createLeague(t *testing.T, db *gorm.DB, saveID, name string, level, promo, rel int) *models.League {
	t.Helper()
	league := models.League{
		ID:              uuid.NewString(),
		SaveID:          saveID,
		Name:            name,
		Level:           level,
		PromotionSpots:  promo,
		RelegationSpots: rel,
	}
	if err := db.Create(&league).Error; err != nil {
		t.Fatalf("create league: %v", err)
	}
	return &league
}

func createTeam(t *testing.T, db *gorm.DB, saveID, leagueID, name string) *models.Team {
	t.Helper()
	team := models.Team{
		ID:              uuid.NewString(),
		SaveID:          saveID,
		LeagueID:        leagueID,
		Name:            name,
		Confidence:      50,
		Reputation:      50,
		StadiumCapacity: 10000,
		FormationGK:     1,
		FormationDEF:    4,
		FormationMID:    4,
		FormationFWD:    2,
	}
	if err := db.Create(&team).Error; err != nil {
		t.Fatalf("create team: %v", err)
	}
	return &team
}

func createPlayer(t *testing.T, db *gorm.DB, saveID, teamID, position string, skill float64, starter bool) *models.Player {
	t.Helper()
	player := models.Player{
		ID:        uuid.NewString(),
		SaveID:    saveID,
		TeamID:    teamID,
		Name:      "Player " + uuid.NewString()[:8],
		Position:  position,
		Age:       25,
		Skill:     skill,
		Potential: skill + 10,
		Energy:    100,
		Condition: 100,
		Morale:    50,
		Wage:      500,
		IsStarter: starter,
	}
	if err := db.Create(&player).Error; err != nil {
		t.Fatalf("create player: %v", err)
	}
	return &player
}

// createSquad builds a full 18-man squad with a flagged XI.
func createSquad(t *testing.T, db *gorm.DB, saveID, teamID string, skill float64) {
	t.Helper()
	plan := []struct {
		position string
		count    int
		starters int
	}{
		{models.PositionGK, 2, 1},
		{models.PositionDEF, 6, 4},
		{models.PositionMID, 6, 4},
		{models.PositionFWD, 4, 2},
	}
	for _, p := range plan {
		for i := 0; i < p.count; i++ {
			createPlayer(t, db, saveID, teamID, p.position, skill, i < p.starters)
		}
	}
}

func createCoach(t *testing.T, db *gorm.DB, saveID, teamID string, management int) *models.Staff {
	t.Helper()
	coach := models.Staff{
		ID:         uuid.NewString(),
		SaveID:     saveID,
		TeamID:     &teamID,
		Name:       "Coach " + uuid.NewString()[:8],
		Role:       models.RoleCoach,
		Management: management,
		Fitness:    10,
		Youth:      10,
		Wage:       1000,
	}
	if err := db.Create(&coach).Error; err != nil {
		t.Fatalf("create coach: %v", err)
	}
	return &coach
}

func createFixture(t *testing.T, db *gorm.DB, saveID, leagueID string, day int, homeID, awayID string) *models.Match {
	t.Helper()
	match := models.Match{
		ID:         uuid.NewString(),
		SaveID:     saveID,
		LeagueID:   leagueID,
		Day:        day,
		Round:      day,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		Pressure:   1,
	}
	if err := db.Create(&match).Error; err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	return &match
}

func reloadPlayer(t *testing.T, db *gorm.DB, id string) *models.Player {
	t.Helper()
	var p models.Player
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("reload player %s: %v", id, err)
	}
	return &p
}

func reloadTeam(t *testing.T, db *gorm.DB, id string) *models.Team {
	t.Helper()
	var team models.Team
	if err := db.First(&team, "id = ?", id).Error; err != nil {
		t.Fatalf("reload team %s: %v", id, err)
	}
	return &team
}
