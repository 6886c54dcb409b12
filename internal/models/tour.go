package models

import (
	"encoding/json"
	"time"
)

const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

const (
	DefaultRatingsAverage  = 4.5
	DefaultRatingsQuantity = 0
)

// GeoPoint is a GeoJSON-style point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
}

func (point GeoPoint) Longitude() float64 {
	if len(point.Coordinates) < 2 {
		return 0
	}
	return point.Coordinates[0]
}

func (point GeoPoint) Latitude() float64 {
	if len(point.Coordinates) < 2 {
		return 0
	}
	return point.Coordinates[1]
}

// TourLocation is a waypoint tagged with the itinerary day it belongs to.
type TourLocation struct {
	GeoPoint
	Day int `json:"day"`
}

type Tour struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"uniqueIndex;not null" json:"name"`
	Slug            string         `gorm:"index;not null;default:''" json:"slug"`
	Duration        int            `gorm:"not null" json:"duration"`
	MaxGroupSize    int            `gorm:"not null" json:"maxGroupSize"`
	Difficulty      string         `gorm:"not null" json:"difficulty"`
	RatingsAverage  float64        `gorm:"not null;default:4.5" json:"ratingsAverage"`
	RatingsQuantity int64          `gorm:"not null;default:0" json:"ratingsQuantity"`
	Price           float64        `gorm:"not null" json:"price"`
	PriceDiscount   float64        `gorm:"not null;default:0" json:"priceDiscount,omitempty"`
	Summary         string         `gorm:"not null;default:''" json:"summary"`
	Description     string         `gorm:"not null;default:''" json:"description,omitempty"`
	ImageCover      string         `gorm:"not null;default:''" json:"imageCover"`
	Images          []string       `gorm:"serializer:json" json:"images"`
	StartDates      []time.Time    `gorm:"serializer:json" json:"startDates"`
	SecretTour      bool           `gorm:"not null;default:false" json:"secretTour"`
	StartLocation   GeoPoint       `gorm:"serializer:json" json:"startLocation"`
	Locations       []TourLocation `gorm:"serializer:json" json:"locations"`
	GuideIDs        []uint         `gorm:"serializer:json" json:"guides"`
	Guides          []User         `gorm:"-" json:"-"`
	Reviews         []Review       `gorm:"foreignKey:TourID" json:"reviews,omitempty"`
	CreatedAt       time.Time      `json:"-"`
	UpdatedAt       time.Time      `json:"-"`
}

// DurationWeeks is derived from Duration and never persisted.
func (tour *Tour) DurationWeeks() float64 {
	return float64(tour.Duration) / 7
}

// MarshalJSON adds the derived durationWeeks value and replaces the guide
// identifiers with the populated guide records. The outer "guides" field
// shadows the embedded identifier field by depth.
func (tour Tour) MarshalJSON() ([]byte, error) {
	type plainTour Tour
	guides := tour.Guides
	if guides == nil {
		guides = []User{}
	}
	return json.Marshal(struct {
		plainTour
		DurationWeeks float64 `json:"durationWeeks"`
		Guides        []User  `json:"guides"`
	}{
		plainTour:     plainTour(tour),
		DurationWeeks: tour.DurationWeeks(),
		Guides:        guides,
	})
}
