package models

// History archives one team's final standing for a completed season.
// Written only during the season transition, one record per team per season.
type History struct {
	ID         string `gorm:"primaryKey" json:"id"`
	SaveID     string `gorm:"index;not null" json:"save_id"`
	TeamID     string `gorm:"index;not null" json:"team_id"`
	SeasonYear int    `gorm:"index" json:"season_year"`
	LeagueName string `json:"league_name"`
	Position   int    `json:"position"`

	Points       int `json:"points"`
	Wins         int `json:"wins"`
	Draws        int `json:"draws"`
	Losses       int `json:"losses"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`

	TopScorerName  string `json:"top_scorer_name"`
	TopScorerGoals int    `json:"top_scorer_goals"`

	Timestamps
}
