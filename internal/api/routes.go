package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marloweh/trailbook/internal/models"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	registerUserRoutes(app, handler)
	registerTourRoutes(app, handler)
	registerReviewRoutes(app, handler)
	registerBookingRoutes(app, handler)
}

func registerUserRoutes(app *fiber.App, handler *Handler) {
	userCfg := handler.userConfig()

	users := app.Group("/api/v1/users")
	users.Post("/signup", handler.Signup)
	users.Post("/login", handler.Login)
	users.Get("/logout", handler.Logout)
	users.Post("/forgotPassword", handler.ForgotPassword)
	users.Patch("/resetPassword/:token", handler.ResetPassword)

	users.Use(handler.Protect)
	users.Patch("/updateMyPassword", handler.UpdatePassword)
	users.Get("/me", handler.Me)
	users.Patch("/updateMe", handler.UpdateMe)
	users.Delete("/deleteMe", handler.DeleteMe)

	users.Use(handler.RestrictTo(models.RoleAdmin))
	users.Get("", getAll(handler, userCfg))
	users.Post("", handler.CreateUser)
	users.Get("/:id", getOne(handler, userCfg))
	users.Patch("/:id", updateOne(handler, userCfg))
	users.Delete("/:id", deleteOne(handler, userCfg))
}

func registerTourRoutes(app *fiber.App, handler *Handler) {
	tourCfg := handler.tourConfig()
	detailCfg := handler.tourDetailConfig()

	tours := app.Group("/api/v1/tours")
	tours.Get("/top-5-cheap", handler.AliasTopTours, getAll(handler, tourCfg))
	tours.Get("/tour-stats", handler.GetTourStats)
	tours.Get("/monthly-plan/:year",
		handler.Protect,
		handler.RestrictTo(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide),
		handler.GetMonthlyPlan)
	tours.Get("/tours-within/:distance/center/:latlng/unit/:unit", handler.GetToursWithin)
	tours.Get("/distances/:latlng/unit/:unit", handler.GetTourDistances)

	tours.Get("", handler.SoftProtect, getAll(handler, tourCfg))
	tours.Post("",
		handler.Protect,
		handler.RestrictTo(models.RoleAdmin, models.RoleLeadGuide),
		createOne(handler, tourCfg))
	tours.Get("/:id", handler.SoftProtect, getOne(handler, detailCfg))
	tours.Patch("/:id",
		handler.Protect,
		handler.RestrictTo(models.RoleAdmin, models.RoleLeadGuide),
		handler.UploadTourImages,
		updateOne(handler, tourCfg))
	tours.Delete("/:id",
		handler.Protect,
		handler.RestrictTo(models.RoleAdmin, models.RoleLeadGuide),
		deleteOne(handler, tourCfg))
}

func registerReviewRoutes(app *fiber.App, handler *Handler) {
	reviewCfg := handler.reviewConfig()

	// Nested under a tour and mounted standalone; the shared scope keys off
	// the :tourId parameter.
	nested := app.Group("/api/v1/tours/:tourId/reviews", handler.Protect)
	nested.Get("", getAll(handler, reviewCfg))
	nested.Post("", handler.RestrictTo(models.RoleUser), createOne(handler, reviewCfg))

	reviews := app.Group("/api/v1/reviews", handler.Protect)
	reviews.Get("", getAll(handler, reviewCfg))
	reviews.Post("", handler.RestrictTo(models.RoleUser), createOne(handler, reviewCfg))
	reviews.Get("/:id", getOne(handler, reviewCfg))
	reviews.Patch("/:id", handler.RestrictTo(models.RoleUser, models.RoleAdmin), updateOne(handler, reviewCfg))
	reviews.Delete("/:id", handler.RestrictTo(models.RoleUser, models.RoleAdmin), deleteOne(handler, reviewCfg))
}

func registerBookingRoutes(app *fiber.App, handler *Handler) {
	bookings := app.Group("/api/v1/bookings", handler.Protect)
	bookings.Get("/checkout-session/:tourId", handler.GetCheckoutSession)
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success"})
}
