package services

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"club-career-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	teamsPerLeague  = 10
	playersPerTeam  = 18
	initialBudget   = 50000
	startingSponsor = 800
)

var cityNames = []string{
	"Eastport", "Harrowgate", "Milldale", "Redbrook", "Stonebridge",
	"Ashfield", "Weston", "Kingsmoor", "Ferndale", "Oldcastle",
	"Northgate", "Silverton", "Brackley", "Dunford", "Maplewood",
	"Clifton", "Rivermouth", "Halloway", "Thornbury", "Greystoke",
}

var clubSuffixes = []string{"United", "City", "Athletic", "Rovers", "Town", "Wanderers"}

var firstNames = []string{
	"Adam", "Bruno", "Carlos", "Daniel", "Emil", "Felix", "Gustav", "Henrik",
	"Ivan", "Jonas", "Karim", "Luca", "Marco", "Nico", "Oscar", "Pavel",
	"Rafael", "Samuel", "Tomas", "Viktor",
}

var lastNames = []string{
	"Almeida", "Berg", "Costa", "Dvorak", "Eriksen", "Fischer", "Gomes",
	"Horvat", "Ivanov", "Jensen", "Kovac", "Lindgren", "Moreau", "Novak",
	"Olsen", "Petrov", "Rossi", "Silva", "Takacs", "Weber",
}

// WorldService builds a fresh career: the two-tier pyramid, its clubs and
// squads, the opening fixtures and the user's first sponsor.
type WorldService struct {
	DB   *gorm.DB
	News *NewsService
	Rng  *rand.Rand
}

func NewWorldService(db *gorm.DB, news *NewsService, rng *rand.Rand) *WorldService {
	return &WorldService{DB: db, News: news, Rng: rng}
}

// CreateSave generates a complete world and returns the persisted save.
// The user starts in the second tier; goal is the board's season contract.
func (s *WorldService) CreateSave(name, userTeamName, goal string) (*models.Save, error) {
	switch goal {
	case GoalChampion, GoalPromotion, GoalMidtable:
	case "":
		goal = GoalMidtable
	default:
		return nil, fmt.Errorf("unknown season goal %q", goal)
	}

	save := models.Save{
		ID:          uuid.NewString(),
		Name:        name,
		Day:         1,
		Season:      1,
		CurrentDate: time.Now().UTC().Truncate(24 * time.Hour),
		SeasonGoal:  goal,
	}

	cities := s.shuffledCities()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&save).Error; err != nil {
			return err
		}

		tiers := []models.League{
			{ID: uuid.NewString(), SaveID: save.ID, Name: "Premier Division", Level: 1, RelegationSpots: 2},
			{ID: uuid.NewString(), SaveID: save.ID, Name: "Second Division", Level: 2, PromotionSpots: 2},
		}
		for i := range tiers {
			tiers[i].Slug = slug.Make(tiers[i].Name)
			if err := tx.Create(&tiers[i]).Error; err != nil {
				return err
			}
		}

		cityIdx := 0
		for _, league := range tiers {
			var teams []models.Team
			for t := 0; t < teamsPerLeague; t++ {
				teamName := fmt.Sprintf("%s %s", cities[cityIdx], clubSuffixes[s.Rng.Intn(len(clubSuffixes))])
				cityIdx++

				userTeam := league.Level == 2 && t == 0
				if userTeam && userTeamName != "" {
					teamName = userTeamName
				}

				team, err := s.createTeam(tx, &save, &league, teamName)
				if err != nil {
					return err
				}
				if userTeam {
					save.UserTeamID = team.ID
				}
				teams = append(teams, *team)
			}

			fixtures := GenerateFixtures(save.ID, league.ID, teams)
			for i := range fixtures {
				if err := tx.Create(&fixtures[i]).Error; err != nil {
					return err
				}
			}
		}

		// The user club opens with a modest shirt deal already signed.
		sponsor := models.Sponsor{
			ID:            uuid.NewString(),
			SaveID:        save.ID,
			TeamID:        save.UserTeamID,
			Name:          sponsorNames[s.Rng.Intn(len(sponsorNames))],
			WeeklyAmount:  startingSponsor,
			ExpiresSeason: 1,
			ExpiresDay:    1 + sponsorTermDays,
		}
		if err := tx.Create(&sponsor).Error; err != nil {
			return err
		}

		return tx.Save(&save).Error
	})
	if err != nil {
		return nil, err
	}

	s.News.Emit(save.ID, &save.UserTeamID, 1, 1, models.NewsSeason,
		"a new chapter", fmt.Sprintf("The board expects %s this season. Good luck.", goal))
	log.Printf("[WORLD] 🌍 save %s created (%d leagues, %d teams)", save.ID, 2, 2*teamsPerLeague)
	return &save, nil
}

func (s *WorldService) createTeam(tx *gorm.DB, save *models.Save, league *models.League, name string) (*models.Team, error) {
	// Second-tier squads are a step weaker across the board.
	baseSkill := 62.0
	if league.Level == 2 {
		baseSkill = 52.0
	}

	team := models.Team{
		ID:              uuid.NewString(),
		SaveID:          save.ID,
		LeagueID:        league.ID,
		Name:            name,
		Slug:            slug.Make(name),
		Budget:          initialBudget + int64(s.Rng.Intn(20000)),
		Confidence:      50,
		Reputation:      40 + s.Rng.Intn(20),
		StadiumName:     fmt.Sprintf("%s Park", name),
		StadiumCapacity: 10000 + s.Rng.Intn(10000),
		FormationGK:     1,
		FormationDEF:    4,
		FormationMID:    4,
		FormationFWD:    2,
	}
	if err := tx.Create(&team).Error; err != nil {
		return nil, err
	}

	// 18-man squad: 2 GK, 6 DEF, 6 MID, 4 FWD. The strongest of each
	// position line start.
	squadPlan := []struct {
		position string
		count    int
		starters int
	}{
		{models.PositionGK, 2, 1},
		{models.PositionDEF, 6, 4},
		{models.PositionMID, 6, 4},
		{models.PositionFWD, 4, 2},
	}
	for _, plan := range squadPlan {
		for i := 0; i < plan.count; i++ {
			skill := baseSkill + s.Rng.Float64()*16 - 8
			player := models.Player{
				ID:        uuid.NewString(),
				SaveID:    save.ID,
				TeamID:    team.ID,
				Name:      s.personName(),
				Position:  plan.position,
				Age:       18 + s.Rng.Intn(17),
				Skill:     skill,
				Potential: skill + 2 + s.Rng.Float64()*10,
				Energy:    100,
				Condition: 100,
				Morale:    50,
				Wage:      int64(200 + skill*8),
				IsStarter: i < plan.starters,
			}
			if err := tx.Create(&player).Error; err != nil {
				return nil, err
			}
		}
	}

	coach := models.Staff{
		ID:         uuid.NewString(),
		SaveID:     save.ID,
		TeamID:     &team.ID,
		Name:       s.personName(),
		Role:       models.RoleCoach,
		Management: 8 + s.Rng.Intn(9),
		Fitness:    6 + s.Rng.Intn(9),
		Youth:      6 + s.Rng.Intn(9),
		Wage:       1200,
	}
	if err := tx.Create(&coach).Error; err != nil {
		return nil, err
	}

	return &team, nil
}

func (s *WorldService) personName() string {
	return fmt.Sprintf("%s %s",
		firstNames[s.Rng.Intn(len(firstNames))],
		lastNames[s.Rng.Intn(len(lastNames))])
}

func (s *WorldService) shuffledCities() []string {
	cities := make([]string, len(cityNames))
	copy(cities, cityNames)
	s.Rng.Shuffle(len(cities), func(i, j int) {
		cities[i], cities[j] = cities[j], cities[i]
	})
	return cities
}
