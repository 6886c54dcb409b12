package api

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/marloweh/trailbook/internal/apperr"
	"github.com/marloweh/trailbook/internal/images"
	"github.com/marloweh/trailbook/internal/models"
	"github.com/marloweh/trailbook/internal/services"
)

const (
	tourImageDir          = "img/tours"
	tourCoverWidth        = 2000
	tourCoverHeight       = 1333
	tourGalleryWidth      = 1200
	tourGalleryHeight     = 800
	maxTourGalleryUploads = 3
)

const (
	localTourCoverKey   = "uploadedTourCover"
	localTourGalleryKey = "uploadedTourGallery"
)

func (handler *Handler) tourConfig() resourceConfig[models.Tour] {
	return resourceConfig[models.Tour]{
		notFoundMessage: "No tour found with that ID",
		scope:           excludeSecretTours,
		validate:        handler.validateTour,
		preCreate: []func(c *fiber.Ctx, record *models.Tour) error{
			handler.prepareNewTour,
		},
		preUpdate: []func(c *fiber.Ctx, previous models.Tour, record *models.Tour) error{
			handler.mergeTourUpdate,
		},
		postLoad: handler.decorateTours,
	}
}

func (handler *Handler) tourDetailConfig() resourceConfig[models.Tour] {
	cfg := handler.tourConfig()
	cfg.eagerLoads = []string{"Reviews"}
	return cfg
}

// excludeSecretTours keeps secret tours out of default listings and lookups.
func excludeSecretTours(c *fiber.Ctx, tx *gorm.DB) *gorm.DB {
	return tx.Where("secret_tour = ?", false)
}

func (handler *Handler) validateTour(c *fiber.Ctx, tour *models.Tour) error {
	problems := make([]string, 0)

	name := strings.TrimSpace(tour.Name)
	switch {
	case name == "":
		problems = append(problems, "A tour must have a name")
	case len(name) < 10:
		problems = append(problems, "A tour name must have at least 10 characters")
	case len(name) > 40:
		problems = append(problems, "A tour name must have at most 40 characters")
	}
	if tour.Duration < 1 {
		problems = append(problems, "A tour must have a duration")
	}
	if tour.MaxGroupSize < 1 {
		problems = append(problems, "A tour must have a group size")
	}
	switch services.NormalizeDifficulty(tour.Difficulty) {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyDifficult:
	default:
		problems = append(problems, "Difficulty is either: easy, medium, difficult")
	}
	if tour.Price <= 0 {
		problems = append(problems, "A tour must have a price")
	}
	if tour.PriceDiscount > 0 && tour.PriceDiscount >= tour.Price {
		problems = append(problems, "Discount price should be below regular price")
	}
	if strings.TrimSpace(tour.Summary) == "" {
		problems = append(problems, "A tour must have a summary")
	}
	if strings.TrimSpace(tour.ImageCover) == "" {
		problems = append(problems, "A tour must have a cover image")
	}

	if len(problems) > 0 {
		return apperr.New(fiber.StatusBadRequest, "Invalid input data. "+strings.Join(problems, ". "))
	}
	return nil
}

// prepareNewTour runs the explicit pre-create pipeline: normalize, derive
// the slug, and force the rating aggregates to their defaults. Clients
// never set aggregates directly.
func (handler *Handler) prepareNewTour(c *fiber.Ctx, tour *models.Tour) error {
	tour.ID = 0
	tour.Name = strings.TrimSpace(tour.Name)
	tour.Difficulty = services.NormalizeDifficulty(tour.Difficulty)
	tour.Slug = services.Slugify(tour.Name)
	tour.RatingsAverage = models.DefaultRatingsAverage
	tour.RatingsQuantity = models.DefaultRatingsQuantity
	return nil
}

// mergeTourUpdate re-derives the slug, restores the write-protected
// aggregate fields, and applies any uploaded image names.
func (handler *Handler) mergeTourUpdate(c *fiber.Ctx, previous models.Tour, tour *models.Tour) error {
	tour.ID = previous.ID
	tour.CreatedAt = previous.CreatedAt
	tour.RatingsAverage = previous.RatingsAverage
	tour.RatingsQuantity = previous.RatingsQuantity
	tour.Name = strings.TrimSpace(tour.Name)
	tour.Difficulty = services.NormalizeDifficulty(tour.Difficulty)
	tour.Slug = services.Slugify(tour.Name)

	if cover, ok := c.Locals(localTourCoverKey).(string); ok && cover != "" {
		tour.ImageCover = cover
	}
	if gallery, ok := c.Locals(localTourGalleryKey).([]string); ok && len(gallery) > 0 {
		tour.Images = gallery
	}
	return nil
}

// decorateTours populates guides and, when reviews were eager-loaded, the
// review authors.
func (handler *Handler) decorateTours(c *fiber.Ctx, tours []*models.Tour) error {
	guideIDs := make([]uint, 0)
	reviewerIDs := make([]uint, 0)
	for _, tour := range tours {
		guideIDs = append(guideIDs, tour.GuideIDs...)
		for _, review := range tour.Reviews {
			reviewerIDs = append(reviewerIDs, review.UserID)
		}
	}

	guidesByID, err := handler.users.MapByIDs(guideIDs)
	if err != nil {
		return err
	}
	reviewersByID, err := handler.users.MapByIDs(reviewerIDs)
	if err != nil {
		return err
	}

	for _, tour := range tours {
		tour.Guides = make([]models.User, 0, len(tour.GuideIDs))
		for _, guideID := range tour.GuideIDs {
			if guide, exists := guidesByID[guideID]; exists {
				tour.Guides = append(tour.Guides, guide)
			}
		}
		for index := range tour.Reviews {
			if reviewer, exists := reviewersByID[tour.Reviews[index].UserID]; exists {
				profile := reviewer.Profile()
				tour.Reviews[index].Author = &profile
			}
		}
	}
	return nil
}

// AliasTopTours rewrites the request query so the standard list handler
// returns the five best-rated, cheapest-first tours.
func (handler *Handler) AliasTopTours(c *fiber.Ctx) error {
	c.Request().URI().SetQueryString("limit=5&sort=-ratingsAverage,price&fields=name,price,ratingsAverage,summary,difficulty")
	return c.Next()
}

func (handler *Handler) GetTourStats(c *fiber.Ctx) error {
	stats, err := handler.tourStats.StatsByDifficulty()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"stats": stats},
	})
}

func (handler *Handler) GetMonthlyPlan(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return apperr.Newf(fiber.StatusBadRequest, "Invalid year: %s", c.Params("year"))
	}

	plan, err := handler.tourStats.MonthlyPlan(year)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"plan": plan},
	})
}

// GetToursWithin lists tours whose start location lies within
// :distance (in :unit) of the :latlng center point.
func (handler *Handler) GetToursWithin(c *fiber.Ctx) error {
	distance, err := strconv.ParseFloat(c.Params("distance"), 64)
	if err != nil || distance < 0 {
		return apperr.Newf(fiber.StatusBadRequest, "Invalid distance: %s", c.Params("distance"))
	}
	lat, lng, err := parseLatLng(c.Params("latlng"))
	if err != nil {
		return err
	}

	tours, err := handler.geo.ToursWithin(lat, lng, distance, c.Params("unit"))
	if err != nil {
		return err
	}

	pointers := make([]*models.Tour, len(tours))
	for index := range tours {
		pointers[index] = &tours[index]
	}
	if err := handler.decorateTours(c, pointers); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"results": len(tours),
		"data":    fiber.Map{"data": tours},
	})
}

func (handler *Handler) GetTourDistances(c *fiber.Ctx) error {
	lat, lng, err := parseLatLng(c.Params("latlng"))
	if err != nil {
		return err
	}

	distances, err := handler.geo.TourDistances(lat, lng, c.Params("unit"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"results": len(distances),
		"data":    fiber.Map{"data": distances},
	})
}

func parseLatLng(raw string) (float64, float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, apperr.New(fiber.StatusBadRequest, "Please provide latitude and longitude in the format lat,lng")
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lngErr != nil {
		return 0, 0, apperr.New(fiber.StatusBadRequest, "Please provide latitude and longitude in the format lat,lng")
	}
	return lat, lng, nil
}

// UploadTourImages processes an optional multipart cover image and up to
// three gallery images, storing the generated file names for the update
// step. Non-multipart requests pass through untouched.
func (handler *Handler) UploadTourImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Next()
	}

	tourID, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if covers := form.File["imageCover"]; len(covers) > 0 {
		coverName := images.TourImageName(tourID, 0)
		if err := handler.processUpload(covers[0], tourCoverWidth, tourCoverHeight, coverName); err != nil {
			return err
		}
		c.Locals(localTourCoverKey, coverName)
	}

	gallery := form.File["images"]
	if len(gallery) > maxTourGalleryUploads {
		gallery = gallery[:maxTourGalleryUploads]
	}
	galleryNames := make([]string, 0, len(gallery))
	for index, file := range gallery {
		fileName := images.TourImageName(tourID, index+1)
		if err := handler.processUpload(file, tourGalleryWidth, tourGalleryHeight, fileName); err != nil {
			return err
		}
		galleryNames = append(galleryNames, fileName)
	}
	if len(galleryNames) > 0 {
		c.Locals(localTourGalleryKey, galleryNames)
	}

	return c.Next()
}

func (handler *Handler) processUpload(file *multipart.FileHeader, width int, height int, fileName string) error {
	if !strings.HasPrefix(file.Header.Get(fiber.HeaderContentType), "image") {
		return apperr.New(fiber.StatusBadRequest, "Not an image. Please upload only images")
	}

	opened, err := file.Open()
	if err != nil {
		return err
	}
	defer opened.Close()

	raw, err := io.ReadAll(opened)
	if err != nil {
		return err
	}
	return handler.images.ResizeJPEG(raw, width, height, tourImageDir, fileName)
}
