package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/marloweh/trailbook/internal/apperr"
	"github.com/marloweh/trailbook/internal/models"
)

func (handler *Handler) reviewConfig() resourceConfig[models.Review] {
	return resourceConfig[models.Review]{
		notFoundMessage: "No review found with that ID",
		scope:           scopeReviewsToTour,
		validate:        handler.validateReview,
		preCreate: []func(c *fiber.Ctx, record *models.Review) error{
			handler.setReviewTourAndUser,
		},
		preUpdate: []func(c *fiber.Ctx, previous models.Review, record *models.Review) error{
			restoreReviewOwnership,
		},
		postLoad: handler.decorateReviews,
		postWrite: []func(c *fiber.Ctx, record *models.Review) error{
			handler.refreshTourRatings,
		},
	}
}

// scopeReviewsToTour narrows queries to the parent tour when the review
// routes are mounted under /tours/:tourId.
func scopeReviewsToTour(c *fiber.Ctx, tx *gorm.DB) *gorm.DB {
	if raw := c.Params("tourId"); raw != "" {
		if tourID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return tx.Where("tour_id = ?", uint(tourID))
		}
	}
	return tx
}

func (handler *Handler) validateReview(c *fiber.Ctx, review *models.Review) error {
	problems := make([]string, 0)
	if strings.TrimSpace(review.Review) == "" {
		problems = append(problems, "Review can not be empty")
	}
	if review.Rating < 1 || review.Rating > 5 {
		problems = append(problems, "Rating must be between 1 and 5")
	}
	if review.TourID == 0 {
		problems = append(problems, "Review must belong to a tour")
	}
	if len(problems) > 0 {
		return apperr.New(fiber.StatusBadRequest, "Invalid input data. "+strings.Join(problems, ". "))
	}
	return nil
}

// setReviewTourAndUser fills the tour from the nested route and the author
// from the authenticated session, so clients cannot review on behalf of
// someone else.
func (handler *Handler) setReviewTourAndUser(c *fiber.Ctx, review *models.Review) error {
	review.ID = 0
	review.CreatedAt = time.Time{}
	if review.TourID == 0 {
		if raw := c.Params("tourId"); raw != "" {
			tourID, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return apperr.Newf(fiber.StatusBadRequest, "Invalid id: %s", raw)
			}
			review.TourID = uint(tourID)
		}
	}

	user := handler.currentUser(c)
	if user == nil {
		return apperr.New(fiber.StatusUnauthorized, "You are not logged in! Please log in to get access.")
	}
	review.UserID = user.ID

	var tourCount int64
	if err := handler.database.Model(&models.Tour{}).
		Where("id = ?", review.TourID).
		Count(&tourCount).Error; err != nil {
		return err
	}
	if tourCount == 0 {
		return apperr.New(fiber.StatusNotFound, "No tour found with that ID")
	}
	return nil
}

// restoreReviewOwnership keeps the tour and author bindings immutable on
// update.
func restoreReviewOwnership(c *fiber.Ctx, previous models.Review, review *models.Review) error {
	review.ID = previous.ID
	review.TourID = previous.TourID
	review.UserID = previous.UserID
	review.CreatedAt = previous.CreatedAt
	return nil
}

func (handler *Handler) decorateReviews(c *fiber.Ctx, reviews []*models.Review) error {
	authorIDs := make([]uint, 0, len(reviews))
	for _, review := range reviews {
		authorIDs = append(authorIDs, review.UserID)
	}

	authorsByID, err := handler.users.MapByIDs(authorIDs)
	if err != nil {
		return err
	}
	for _, review := range reviews {
		if author, exists := authorsByID[review.UserID]; exists {
			profile := author.Profile()
			review.Author = &profile
		}
	}
	return nil
}

// refreshTourRatings keeps the tour's rating aggregates in sync after any
// review write.
func (handler *Handler) refreshTourRatings(c *fiber.Ctx, review *models.Review) error {
	return handler.reviews.RecalculateTourRatings(review.TourID)
}
