package models

// Training focus categories
const (
	FocusAttack    = "ATTACK"
	FocusDefense   = "DEFENSE"
	FocusFitness   = "FITNESS"
	FocusTechnique = "TECHNIQUE"
)

// Training cycle states
const (
	CycleActive    = "active"
	CycleCompleted = "completed"
	CycleCancelled = "cancelled"
)

// TrainingCycle is a multi-day progression block ending on a weekly
// boundary. On its end day a qualified staff member must still be around,
// otherwise the cycle cancels without progression.
type TrainingCycle struct {
	ID     string `gorm:"primaryKey" json:"id"`
	SaveID string `gorm:"index;not null" json:"save_id"`
	TeamID string `gorm:"index;not null" json:"team_id"`
	Focus  string `gorm:"type:varchar(12);not null" json:"focus"`

	Season   int    `json:"season"`
	StartDay int    `json:"start_day"`
	EndDay   int    `json:"end_day"`
	Status   string `gorm:"type:varchar(12);default:'active'" json:"status"`

	Timestamps
}
