package models

import "encoding/json"

// Match is a scheduled fixture; Played flips to true exactly once when the
// result is reconciled. Unique per (save, day, home, away).
type Match struct {
	ID         string  `gorm:"primaryKey" json:"id"`
	SaveID     string  `gorm:"index;not null" json:"save_id"`
	LeagueID   string  `gorm:"index;not null" json:"league_id"`
	Day        int     `gorm:"index;not null" json:"day"`
	Round      int     `json:"round"`
	HomeTeamID string  `gorm:"index;not null" json:"home_team_id"`
	AwayTeamID string  `gorm:"index;not null" json:"away_team_id"`
	Pressure   float64 `gorm:"default:1" json:"pressure"` // stakes signal consumed by the resolver

	Played    bool   `gorm:"default:false" json:"played"`
	HomeScore int    `gorm:"default:0" json:"home_score"`
	AwayScore int    `gorm:"default:0" json:"away_score"`

	// Serialized MatchResult, populated exactly once. Background matches
	// store it with the event timeline stripped to bound storage growth.
	DetailsJSON string `gorm:"type:text" json:"details_json,omitempty"`

	Timestamps
}

// Match event kinds. A closed set, one field layout per kind.
const (
	EventGoal   = "GOAL"
	EventCard   = "CARD"
	EventInjury = "INJURY"
)

// MatchEvent is one entry of the event timeline.
type MatchEvent struct {
	Minute   int    `json:"minute"`
	Kind     string `json:"kind"`
	TeamID   string `json:"team_id"`
	PlayerID string `json:"player_id"`

	// CARD: matches the player sits out (0 for a plain booking)
	SuspensionMatches int `json:"suspension_matches,omitempty"`
	// INJURY: recovery length in days
	InjuryDays int `json:"injury_days,omitempty"`

	Detail string `json:"detail,omitempty"`
}

// MatchStats aggregates the non-event numbers of a resolved match.
type MatchStats struct {
	HomePossession int `json:"home_possession"`
	AwayPossession int `json:"away_possession"`
	HomeShots      int `json:"home_shots"`
	AwayShots      int `json:"away_shots"`
	HomeFouls      int `json:"home_fouls"`
	AwayFouls      int `json:"away_fouls"`
}

// PlayerMatchLine carries one starter's per-match numbers back into the
// season accumulators.
type PlayerMatchLine struct {
	PlayerID     string  `json:"player_id"`
	Rating       float64 `json:"rating"` // 1.0-10.0, 6.0 neutral
	Goals        int     `json:"goals"`
	Assists      int     `json:"assists"`
	PassAccuracy float64 `json:"pass_accuracy"`
	DistanceKM   float64 `json:"distance_km"`
}

// MatchResult is what the resolver produces for one fixture. The sum of
// GOAL events per team always equals the final score.
type MatchResult struct {
	HomeScore   int               `json:"home_score"`
	AwayScore   int               `json:"away_score"`
	Events      []MatchEvent      `json:"events,omitempty"`
	Stats       MatchStats        `json:"stats"`
	PlayerLines []PlayerMatchLine `json:"player_lines,omitempty"`
}

// Truncated returns a copy with the event timeline dropped, the form
// background matches are persisted in.
func (r MatchResult) Truncated() MatchResult {
	out := r
	out.Events = nil
	return out
}

// Marshal serializes the result for the Match.DetailsJSON column.
func (r MatchResult) Marshal() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
