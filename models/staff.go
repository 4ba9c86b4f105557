package models

// Staff roles
const (
	RoleCoach  = "COACH"
	RolePhysio = "PHYSIO"
	RoleScout  = "SCOUT"
)

// Staff member. TeamID nil means the person sits on the free market.
// At most one COACH per team drives tactical and training decisions.
type Staff struct {
	ID     string  `gorm:"primaryKey" json:"id"`
	SaveID string  `gorm:"index;not null" json:"save_id"`
	TeamID *string `gorm:"index" json:"team_id,omitempty"`
	Name   string  `gorm:"not null" json:"name"`
	Role   string  `gorm:"type:varchar(8);not null" json:"role"`

	// Stats on a 0-20 scale
	Management int `gorm:"default:10" json:"management"`
	Fitness    int `gorm:"default:10" json:"fitness"`
	Youth      int `gorm:"default:10" json:"youth"`

	Wage       int64 `json:"wage"` // weekly
	Confidence int   `gorm:"default:50" json:"confidence"`

	Timestamps
}
