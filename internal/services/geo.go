package services

import (
	"math"
	"sort"

	"github.com/marloweh/trailbook/internal/models"
	"gorm.io/gorm"
)

const earthRadiusKm = 6371

const (
	UnitMiles      = "mi"
	UnitKilometers = "km"
)

// GeoService answers the geospatial tour lookups. Start locations are stored
// as JSON points, so distances are computed here with the haversine formula
// rather than by a store-side geo index.
type GeoService struct {
	database *gorm.DB
}

func NewGeoService(database *gorm.DB) *GeoService {
	return &GeoService{database: database}
}

// ToursWithin lists non-secret tours whose start location lies within the
// given radius of the center point. The radius is interpreted in the given
// unit ("mi" or "km").
func (service *GeoService) ToursWithin(centerLat float64, centerLng float64, radius float64, unit string) ([]models.Tour, error) {
	radiusKm := radius
	if unit == UnitMiles {
		radiusKm = radius * 1.60934
	}

	tours, err := service.listTours()
	if err != nil {
		return nil, err
	}

	within := make([]models.Tour, 0)
	for _, tour := range tours {
		distance := haversineDistanceKm(centerLat, centerLng, tour.StartLocation.Latitude(), tour.StartLocation.Longitude())
		if distance <= radiusKm {
			within = append(within, tour)
		}
	}
	return within, nil
}

type TourDistance struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// TourDistances returns every non-secret tour with its distance from the
// given point, nearest first, in the requested unit.
func (service *GeoService) TourDistances(lat float64, lng float64, unit string) ([]TourDistance, error) {
	multiplier := 1.0
	if unit == UnitMiles {
		multiplier = 0.621371
	}

	tours, err := service.listTours()
	if err != nil {
		return nil, err
	}

	distances := make([]TourDistance, 0, len(tours))
	for _, tour := range tours {
		distanceKm := haversineDistanceKm(lat, lng, tour.StartLocation.Latitude(), tour.StartLocation.Longitude())
		distances = append(distances, TourDistance{
			ID:       tour.ID,
			Name:     tour.Name,
			Distance: distanceKm * multiplier,
		})
	}

	sort.Slice(distances, func(i, j int) bool {
		return distances[i].Distance < distances[j].Distance
	})
	return distances, nil
}

func (service *GeoService) listTours() ([]models.Tour, error) {
	tours := make([]models.Tour, 0)
	if err := service.database.
		Where("secret_tour = ?", false).
		Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

func degToRad(d float64) float64 {
	return d * (math.Pi / 180)
}

func haversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degToRad(lat2 - lat1)
	dLon := degToRad(lon2 - lon1)

	lat1Rad := degToRad(lat1)
	lat2Rad := degToRad(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
