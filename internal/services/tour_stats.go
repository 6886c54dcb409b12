package services

import (
	"sort"
	"strings"

	"github.com/marloweh/trailbook/internal/models"
	"gorm.io/gorm"
)

// TourStatsService produces the read-only reporting views over tours.
type TourStatsService struct {
	database *gorm.DB
}

func NewTourStatsService(database *gorm.DB) *TourStatsService {
	return &TourStatsService{database: database}
}

type DifficultyStats struct {
	Difficulty string  `gorm:"column:difficulty" json:"difficulty"`
	NumTours   int64   `gorm:"column:num_tours" json:"numTours"`
	NumRatings int64   `gorm:"column:num_ratings" json:"numRatings"`
	AvgRating  float64 `gorm:"column:avg_rating" json:"avgRating"`
	AvgPrice   float64 `gorm:"column:avg_price" json:"avgPrice"`
	MinPrice   float64 `gorm:"column:min_price" json:"minPrice"`
	MaxPrice   float64 `gorm:"column:max_price" json:"maxPrice"`
}

// StatsByDifficulty aggregates well-rated tours per difficulty, ordered by
// ascending average price.
func (service *TourStatsService) StatsByDifficulty() ([]DifficultyStats, error) {
	stats := make([]DifficultyStats, 0)
	err := service.database.Raw(`
SELECT UPPER(difficulty) AS difficulty,
       COUNT(*) AS num_tours,
       SUM(ratings_quantity) AS num_ratings,
       AVG(ratings_average) AS avg_rating,
       AVG(price) AS avg_price,
       MIN(price) AS min_price,
       MAX(price) AS max_price
FROM tours
WHERE ratings_average >= 4.5
GROUP BY UPPER(difficulty)
ORDER BY avg_price ASC`).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

type MonthlyPlanEntry struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// MonthlyPlan expands every tour start date falling in the given year and
// groups the starts per calendar month, busiest month first. Start dates
// live in a JSON column, so the expansion happens here instead of the store.
func (service *TourStatsService) MonthlyPlan(year int) ([]MonthlyPlanEntry, error) {
	tours := make([]models.Tour, 0)
	if err := service.database.
		Select("id", "name", "start_dates").
		Find(&tours).Error; err != nil {
		return nil, err
	}

	byMonth := make(map[int][]string)
	for _, tour := range tours {
		for _, start := range tour.StartDates {
			if start.Year() != year {
				continue
			}
			month := int(start.Month())
			byMonth[month] = append(byMonth[month], tour.Name)
		}
	}

	plan := make([]MonthlyPlanEntry, 0, len(byMonth))
	for month, names := range byMonth {
		plan = append(plan, MonthlyPlanEntry{
			Month:         month,
			NumTourStarts: len(names),
			Tours:         names,
		})
	}

	sort.Slice(plan, func(i, j int) bool {
		if plan[i].NumTourStarts == plan[j].NumTourStarts {
			return plan[i].Month < plan[j].Month
		}
		return plan[i].NumTourStarts > plan[j].NumTourStarts
	})

	return plan, nil
}

// NormalizeDifficulty lowercases and trims a difficulty value; validation of
// the enum happens at the input boundary.
func NormalizeDifficulty(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
