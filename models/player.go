package models

// Player positions
const (
	PositionGK  = "GK"
	PositionDEF = "DEF"
	PositionMID = "MID"
	PositionFWD = "FWD"
)

type Player struct {
	ID       string `gorm:"primaryKey" json:"id"`
	SaveID   string `gorm:"index;not null" json:"save_id"`
	TeamID   string `gorm:"index;not null" json:"team_id"`
	Name     string `gorm:"not null" json:"name"`
	Position string `gorm:"type:varchar(4);not null" json:"position"`
	Age      int    `json:"age"`

	// Skill never exceeds Potential; training damps out near the ceiling.
	Skill     float64 `json:"skill"`
	Potential float64 `json:"potential"`

	// Physical/mental state, all 0-100
	Energy     int `gorm:"default:100" json:"energy"`
	Condition  int `gorm:"default:100" json:"condition"`
	Morale     int `gorm:"default:50" json:"morale"`
	Confidence int `gorm:"default:50" json:"confidence"`

	Wage int64 `json:"wage"` // weekly

	InjuryDays        int  `gorm:"default:0" json:"injury_days"`
	SuspensionMatches int  `gorm:"default:0" json:"suspension_matches"`
	IsStarter         bool `gorm:"default:false" json:"is_starter"`

	// Season stats, reset at season transition. Rating and pass accuracy
	// are running averages over SeasonApps; the rest are plain sums.
	SeasonApps         int     `gorm:"default:0" json:"season_apps"`
	SeasonGoals        int     `gorm:"default:0" json:"season_goals"`
	SeasonAssists      int     `gorm:"default:0" json:"season_assists"`
	SeasonRating       float64 `gorm:"default:0" json:"season_rating"`
	SeasonPassAccuracy float64 `gorm:"default:0" json:"season_pass_accuracy"`
	SeasonDistanceKM   float64 `gorm:"default:0" json:"season_distance_km"`

	Timestamps
}

// Eligible reports whether the player can be fielded.
func (p *Player) Eligible() bool {
	return p.InjuryDays == 0 && p.SuspensionMatches == 0
}
