package models

import "time"

type Review struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Review    string         `gorm:"not null" json:"review"`
	Rating    float64        `gorm:"not null" json:"rating"`
	TourID    uint           `gorm:"not null;uniqueIndex:uidx_reviews_tour_user" json:"tour"`
	UserID    uint           `gorm:"not null;uniqueIndex:uidx_reviews_tour_user" json:"-"`
	Author    *PublicProfile `gorm:"-" json:"user,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"-"`
}
