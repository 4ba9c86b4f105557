// Package sim is the headless match resolver: a pure function from two
// rated lineups and a pressure signal to a MatchResult. It never touches
// the store; the engine treats it as opaque.
package sim

import (
	"math"
	"math/rand"
	"sync"

	"club-career-system/models"
	"club-career-system/workers"
)

const (
	homeAdvantage = 0.30
	baseGoals     = 1.25
	maxGoals      = 8
)

// Engine resolves matches with a seeded RNG. Safe for concurrent use by the
// worker pool.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Resolve implements workers.Resolver.
func (e *Engine) Resolve(req workers.SimulateMatch) models.MatchResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	homeStrength := req.HomeRatings.Attack + req.HomeRatings.Midfield/2 + homeAdvantage
	awayStrength := req.AwayRatings.Attack + req.AwayRatings.Midfield/2

	homeExp := expectedGoals(homeStrength, req.AwayRatings.Defense+req.AwayRatings.Midfield/2, req.Pressure)
	awayExp := expectedGoals(awayStrength, req.HomeRatings.Defense+req.HomeRatings.Midfield/2, req.Pressure)

	res := models.MatchResult{
		HomeScore: e.poisson(homeExp),
		AwayScore: e.poisson(awayExp),
	}

	e.addGoalEvents(&res, req.HomeTeamID, req.HomePlayers, res.HomeScore)
	e.addGoalEvents(&res, req.AwayTeamID, req.AwayPlayers, res.AwayScore)
	e.addCardEvents(&res, req.HomeTeamID, req.HomePlayers, req.Pressure)
	e.addCardEvents(&res, req.AwayTeamID, req.AwayPlayers, req.Pressure)
	e.addInjuryEvents(&res, req.HomeTeamID, req.HomePlayers)
	e.addInjuryEvents(&res, req.AwayTeamID, req.AwayPlayers)

	res.Stats = e.buildStats(req, res)
	res.PlayerLines = append(
		e.buildLines(req.HomePlayers, res, req.HomeTeamID, res.HomeScore-res.AwayScore),
		e.buildLines(req.AwayPlayers, res, req.AwayTeamID, res.AwayScore-res.HomeScore)...,
	)

	return res
}

func expectedGoals(attack, defense, pressure float64) float64 {
	if defense <= 0 {
		defense = 0.1
	}
	ratio := attack / defense
	// High-stakes matches tighten up a little.
	exp := baseGoals * ratio * (1 - 0.05*(pressure-1))
	if exp < 0.2 {
		exp = 0.2
	}
	return exp
}

// poisson samples goal counts via Knuth's method, capped to keep scorelines
// plausible.
func (e *Engine) poisson(lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= e.rng.Float64()
		if p <= l {
			break
		}
		k++
		if k >= maxGoals {
			break
		}
	}
	return k
}

// positionWeight biases scorer attribution toward the front line.
func positionWeight(pos string) int {
	switch pos {
	case models.PositionFWD:
		return 6
	case models.PositionMID:
		return 3
	case models.PositionDEF:
		return 1
	default:
		return 0
	}
}

func (e *Engine) pickWeighted(players []models.Player) *models.Player {
	total := 0
	for i := range players {
		total += positionWeight(players[i].Position)
	}
	if total == 0 {
		if len(players) == 0 {
			return nil
		}
		return &players[e.rng.Intn(len(players))]
	}
	n := e.rng.Intn(total)
	for i := range players {
		n -= positionWeight(players[i].Position)
		if n < 0 {
			return &players[i]
		}
	}
	return &players[len(players)-1]
}

func (e *Engine) addGoalEvents(res *models.MatchResult, teamID string, players []models.Player, goals int) {
	for i := 0; i < goals; i++ {
		scorer := e.pickWeighted(players)
		if scorer == nil {
			continue
		}
		res.Events = append(res.Events, models.MatchEvent{
			Minute:   1 + e.rng.Intn(90),
			Kind:     models.EventGoal,
			TeamID:   teamID,
			PlayerID: scorer.ID,
		})
	}
}

func (e *Engine) addCardEvents(res *models.MatchResult, teamID string, players []models.Player, pressure float64) {
	if len(players) == 0 {
		return
	}
	// Bookings rise with the stakes; most carry no suspension.
	if e.rng.Float64() < 0.25*pressure {
		p := players[e.rng.Intn(len(players))]
		ev := models.MatchEvent{
			Minute:   1 + e.rng.Intn(90),
			Kind:     models.EventCard,
			TeamID:   teamID,
			PlayerID: p.ID,
			Detail:   "yellow",
		}
		if e.rng.Float64() < 0.18 {
			ev.Detail = "red"
			ev.SuspensionMatches = 1 + e.rng.Intn(3)
		}
		res.Events = append(res.Events, ev)
	}
}

func (e *Engine) addInjuryEvents(res *models.MatchResult, teamID string, players []models.Player) {
	if len(players) == 0 {
		return
	}
	if e.rng.Float64() < 0.08 {
		p := players[e.rng.Intn(len(players))]
		res.Events = append(res.Events, models.MatchEvent{
			Minute:     1 + e.rng.Intn(90),
			Kind:       models.EventInjury,
			TeamID:     teamID,
			PlayerID:   p.ID,
			InjuryDays: 1 + e.rng.Intn(21),
		})
	}
}

func (e *Engine) buildStats(req workers.SimulateMatch, res models.MatchResult) models.MatchStats {
	homeMid := req.HomeRatings.Midfield
	awayMid := req.AwayRatings.Midfield
	if homeMid+awayMid <= 0 {
		homeMid, awayMid = 1, 1
	}
	homePoss := int(100 * homeMid / (homeMid + awayMid))
	if homePoss < 25 {
		homePoss = 25
	}
	if homePoss > 75 {
		homePoss = 75
	}
	return models.MatchStats{
		HomePossession: homePoss,
		AwayPossession: 100 - homePoss,
		HomeShots:      res.HomeScore*2 + 3 + e.rng.Intn(6),
		AwayShots:      res.AwayScore*2 + 3 + e.rng.Intn(6),
		HomeFouls:      5 + e.rng.Intn(10),
		AwayFouls:      5 + e.rng.Intn(10),
	}
}

func (e *Engine) buildLines(players []models.Player, res models.MatchResult, teamID string, goalDiff int) []models.PlayerMatchLine {
	lines := make([]models.PlayerMatchLine, 0, len(players))
	for i := range players {
		p := &players[i]
		goals := 0
		for _, ev := range res.Events {
			if ev.Kind == models.EventGoal && ev.PlayerID == p.ID {
				goals++
			}
		}

		rating := 6.0 + 0.3*float64(goalDiff) + float64(goals)*0.8 + e.rng.Float64()*1.2 - 0.6
		rating = clamp(rating, 1.0, 10.0)

		lines = append(lines, models.PlayerMatchLine{
			PlayerID:     p.ID,
			Rating:       math.Round(rating*10) / 10,
			Goals:        goals,
			PassAccuracy: 60 + e.rng.Float64()*35,
			DistanceKM:   8 + e.rng.Float64()*5,
		})
	}
	// Spread assists over non-scorers for roughly half the goals.
	scored := 0
	for _, ev := range res.Events {
		if ev.Kind == models.EventGoal && ev.TeamID == teamID {
			scored++
		}
	}
	for i := 0; i < scored && len(lines) > 0; i++ {
		if e.rng.Float64() < 0.5 {
			lines[e.rng.Intn(len(lines))].Assists++
		}
	}
	return lines
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
