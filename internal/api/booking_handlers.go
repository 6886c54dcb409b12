package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/marloweh/trailbook/internal/apperr"
	"github.com/marloweh/trailbook/internal/models"
)

// GetCheckoutSession opens a payment session for the given tour with the
// external checkout provider.
func (handler *Handler) GetCheckoutSession(c *fiber.Ctx) error {
	raw := c.Params("tourId")
	tourID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || tourID == 0 {
		return apperr.Newf(fiber.StatusBadRequest, "Invalid id: %s", raw)
	}

	var tour models.Tour
	if err := handler.database.First(&tour, uint(tourID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(fiber.StatusNotFound, "No tour found with that ID")
		}
		return err
	}

	if handler.checkout == nil {
		return apperr.New(fiber.StatusServiceUnavailable, "Checkout is not configured")
	}

	user := handler.currentUser(c)
	session, err := handler.checkout.CreateSession(user.ID, tour.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"session": session,
	})
}
