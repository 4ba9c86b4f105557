package models

// League is one tier of the pyramid. Level 1 is the top flight
// (PromotionSpots=0); the lowest level has RelegationSpots=0.
type League struct {
	ID              string `gorm:"primaryKey" json:"id"`
	SaveID          string `gorm:"index;not null" json:"save_id"`
	Name            string `gorm:"not null" json:"name"`
	Slug            string `gorm:"index" json:"slug"`
	Level           int    `gorm:"not null" json:"level"`
	PromotionSpots  int    `gorm:"default:0" json:"promotion_spots"`
	RelegationSpots int    `gorm:"default:0" json:"relegation_spots"`

	Teams []Team `json:"teams,omitempty" gorm:"foreignKey:LeagueID"`

	Timestamps
}
