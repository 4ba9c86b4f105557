package models

// Team carries both the permanent club identity and the season-scoped
// counters that reset at season end. Points and GoalDifference are always
// derived from the other counters, never drift independently.
type Team struct {
	ID       string `gorm:"primaryKey" json:"id"`
	SaveID   string `gorm:"index;not null" json:"save_id"`
	LeagueID string `gorm:"index;not null" json:"league_id"`
	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"index" json:"slug"`

	// Season counters. points == 3*wins + draws, goal_difference == gf - ga
	Played         int `gorm:"default:0" json:"played"`
	Wins           int `gorm:"default:0" json:"wins"`
	Draws          int `gorm:"default:0" json:"draws"`
	Losses         int `gorm:"default:0" json:"losses"`
	GoalsFor       int `gorm:"default:0" json:"goals_for"`
	GoalsAgainst   int `gorm:"default:0" json:"goals_against"`
	GoalDifference int `gorm:"default:0" json:"goal_difference"`
	Points         int `gorm:"default:0" json:"points"`

	// Finances. Budget is floored at zero; insolvency is not modeled.
	Budget              int64 `gorm:"default:0" json:"budget"`
	PendingTicketIncome int64 `gorm:"default:0" json:"pending_ticket_income"`

	Confidence int `gorm:"default:50" json:"confidence"` // 0-100
	Reputation int `gorm:"default:50" json:"reputation"` // 0-100

	StadiumName     string `json:"stadium_name"`
	StadiumCapacity int    `gorm:"default:15000" json:"stadium_capacity"`

	// Starting-lineup requirement, counts per position (GK/DEF/MID/FWD)
	FormationGK  int `gorm:"default:1" json:"formation_gk"`
	FormationDEF int `gorm:"default:4" json:"formation_def"`
	FormationMID int `gorm:"default:4" json:"formation_mid"`
	FormationFWD int `gorm:"default:2" json:"formation_fwd"`

	Players  []Player  `json:"players,omitempty" gorm:"foreignKey:TeamID"`
	Sponsors []Sponsor `json:"sponsors,omitempty" gorm:"foreignKey:TeamID"`

	Timestamps
}

// StartersNeeded is the full XI requirement from the formation counts.
func (t *Team) StartersNeeded() int {
	return t.FormationGK + t.FormationDEF + t.FormationMID + t.FormationFWD
}
