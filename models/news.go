package models

// News categories
const (
	NewsMatch    = "match"
	NewsFinance  = "finance"
	NewsInjury   = "injury"
	NewsTraining = "training"
	NewsSeason   = "season"
)

// News is a feed item. Background-simulated matches never emit news, the
// volume would be unbounded. Old items are pruned weekly.
type News struct {
	ID       string  `gorm:"primaryKey" json:"id"`
	SaveID   string  `gorm:"index;not null" json:"save_id"`
	TeamID   *string `gorm:"index" json:"team_id,omitempty"`
	Day      int     `json:"day"`
	Season   int     `json:"season"`
	Category string  `gorm:"type:varchar(12)" json:"category"`
	Headline string  `json:"headline"`
	Body     string  `gorm:"type:text" json:"body"`

	Timestamps
}
