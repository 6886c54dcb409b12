package services

import (
	"math"

	"github.com/marloweh/trailbook/internal/models"
	"gorm.io/gorm"
)

// ReviewService recomputes the cached rating aggregates on a tour after any
// review mutation. The recomputation is an explicit post-write step invoked
// by every review create, update, and delete path; it is not transactionally
// coupled to the triggering write.
type ReviewService struct {
	database *gorm.DB
}

func NewReviewService(database *gorm.DB) *ReviewService {
	return &ReviewService{database: database}
}

type ratingAggregate struct {
	Quantity int64   `gorm:"column:quantity"`
	Average  float64 `gorm:"column:average"`
}

// RecalculateTourRatings refreshes a tour's rating count and average from
// its current reviews. With zero reviews the aggregates fall back to their
// defaults (count 0, average 4.5).
func (service *ReviewService) RecalculateTourRatings(tourID uint) error {
	var aggregate ratingAggregate
	if err := service.database.
		Raw(`SELECT COUNT(*) AS quantity, COALESCE(AVG(rating), 0) AS average FROM reviews WHERE tour_id = ?`, tourID).
		Scan(&aggregate).Error; err != nil {
		return err
	}

	quantity := aggregate.Quantity
	average := models.DefaultRatingsAverage
	if quantity > 0 {
		average = RoundRating(aggregate.Average)
	}

	return service.database.Model(&models.Tour{}).
		Where("id = ?", tourID).
		Updates(map[string]any{
			"ratings_quantity": quantity,
			"ratings_average":  average,
		}).Error
}

// RoundRating rounds to one decimal and clamps into the valid [1, 5] range.
func RoundRating(value float64) float64 {
	rounded := math.Round(value*10) / 10
	if rounded < 1 {
		return 1
	}
	if rounded > 5 {
		return 5
	}
	return rounded
}
