package services

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"club-career-system/models"

	"gorm.io/gorm"
)

// RosterService fills starting lineups for teams that cannot field eleven
// eligible starters on a match day.
type RosterService struct {
	DB  *gorm.DB
	Rng *rand.Rand
}

func NewRosterService(db *gorm.DB, rng *rand.Rand) *RosterService {
	return &RosterService{DB: db, Rng: rng}
}

// selectionErrorMargin models imperfect staff judgment: a weaker coach
// widens the window of sub-optimal picks near the top of the ranking.
func selectionErrorMargin(management int) float64 {
	m := 1 - float64(management)/20
	if m < 0 {
		return 0
	}
	return m
}

// pickWindow is the number of top-ranked candidates a pick may come from.
func pickWindow(margin float64, candidates int) int {
	if candidates < 1 {
		return 0
	}
	w := 1 + int(margin*float64(candidates-1)*0.25)
	if w > candidates {
		w = candidates
	}
	return w
}

// EnsureStarters flags starters until the team meets its formation
// requirement. Injured and suspended players are never selected. No-op when
// the team already fields a full XI.
func (s *RosterService) EnsureStarters(teamID string) error {
	var team models.Team
	if err := s.DB.Preload("Players").First(&team, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("team %s not found", teamID)
		}
		return err
	}

	needed := team.StartersNeeded()

	starters := 0
	for i := range team.Players {
		p := &team.Players[i]
		// A starter who got injured or suspended since selection loses the flag.
		if p.IsStarter && !p.Eligible() {
			if err := s.DB.Model(p).Update("is_starter", false).Error; err != nil {
				return err
			}
			p.IsStarter = false
		}
		if p.IsStarter {
			starters++
		}
	}
	if starters >= needed {
		return nil
	}

	margin := selectionErrorMargin(s.coachManagement(team.SaveID, teamID))

	// Positional shortfall first, best overall afterwards.
	for _, slot := range []struct {
		position string
		required int
	}{
		{models.PositionGK, team.FormationGK},
		{models.PositionDEF, team.FormationDEF},
		{models.PositionMID, team.FormationMID},
		{models.PositionFWD, team.FormationFWD},
	} {
		have := countStarters(team.Players, slot.position)
		for have < slot.required {
			pick := s.pick(candidates(team.Players, slot.position), margin)
			if pick == nil {
				break // squad simply has nobody left at this position
			}
			if err := s.flagStarter(pick); err != nil {
				return err
			}
			have++
			starters++
		}
	}

	for starters < needed {
		pick := s.pick(candidates(team.Players, ""), margin)
		if pick == nil {
			break
		}
		if err := s.flagStarter(pick); err != nil {
			return err
		}
		starters++
	}

	return nil
}

func (s *RosterService) flagStarter(p *models.Player) error {
	if err := s.DB.Model(&models.Player{}).Where("id = ?", p.ID).
		Update("is_starter", true).Error; err != nil {
		return err
	}
	p.IsStarter = true
	return nil
}

// pick draws from a randomized window near the top of the skill ranking,
// deliberately not a strict best-first choice.
func (s *RosterService) pick(pool []*models.Player, margin float64) *models.Player {
	if len(pool) == 0 {
		return nil
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].Skill > pool[j].Skill })
	return pool[s.Rng.Intn(pickWindow(margin, len(pool)))]
}

func (s *RosterService) coachManagement(saveID, teamID string) int {
	var coach models.Staff
	err := s.DB.Where("save_id = ? AND team_id = ? AND role = ?", saveID, teamID, models.RoleCoach).
		First(&coach).Error
	if err != nil {
		return 0 // no coach: widest error window
	}
	return coach.Management
}

func countStarters(players []models.Player, position string) int {
	n := 0
	for i := range players {
		if players[i].IsStarter && players[i].Position == position {
			n++
		}
	}
	return n
}

// candidates returns eligible non-starters, optionally filtered by position.
func candidates(players []models.Player, position string) []*models.Player {
	var out []*models.Player
	for i := range players {
		p := &players[i]
		if p.IsStarter || !p.Eligible() {
			continue
		}
		if position != "" && p.Position != position {
			continue
		}
		out = append(out, p)
	}
	return out
}
