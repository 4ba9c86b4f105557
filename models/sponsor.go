package models

// Sponsor is an active sponsorship deal. A club holds at most three; a deal
// expires once the save pointer passes (ExpiresSeason, ExpiresDay).
type Sponsor struct {
	ID           string `gorm:"primaryKey" json:"id"`
	SaveID       string `gorm:"index;not null" json:"save_id"`
	TeamID       string `gorm:"index;not null" json:"team_id"`
	Name         string `gorm:"not null" json:"name"`
	WeeklyAmount int64  `json:"weekly_amount"`

	ExpiresSeason int `json:"expires_season"`
	ExpiresDay    int `json:"expires_day"`

	Timestamps
}

// Expired reports whether the deal has lapsed at the given save pointer.
func (s *Sponsor) Expired(season, day int) bool {
	if season != s.ExpiresSeason {
		return season > s.ExpiresSeason
	}
	return day > s.ExpiresDay
}

// StadiumProject is a pending ground upgrade, resolved by the weekly
// settlement once the save pointer reaches its completion date.
type StadiumProject struct {
	ID            string `gorm:"primaryKey" json:"id"`
	SaveID        string `gorm:"index;not null" json:"save_id"`
	TeamID        string `gorm:"index;not null" json:"team_id"`
	AddedCapacity int    `json:"added_capacity"`
	NewName       string `json:"new_name,omitempty"`
	Cost          int64  `json:"cost"`

	CompleteSeason int  `json:"complete_season"`
	CompleteDay    int  `json:"complete_day"`
	Resolved       bool `gorm:"default:false" json:"resolved"`

	Timestamps
}

// Due reports whether the project should resolve at the given pointer.
func (p *StadiumProject) Due(season, day int) bool {
	if p.Resolved {
		return false
	}
	if season != p.CompleteSeason {
		return season > p.CompleteSeason
	}
	return day >= p.CompleteDay
}
