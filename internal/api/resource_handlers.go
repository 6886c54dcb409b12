package api

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/marloweh/trailbook/internal/apperr"
	"github.com/marloweh/trailbook/internal/db"
)

// resourceConfig parameterizes the generic CRUD handlers for one resource
// type. Everything resource-specific (scoping, validation, the explicit
// pre/post pipeline steps that replace implicit store hooks) is injected
// here; the handlers themselves stay generic.
type resourceConfig[T any] struct {
	// notFoundMessage is used when an identifier does not resolve.
	notFoundMessage string
	// scope narrows every query, e.g. to a parent route scope or to
	// exclude records hidden from listings.
	scope func(c *fiber.Ctx, tx *gorm.DB) *gorm.DB
	// validate runs before any write is persisted.
	validate func(c *fiber.Ctx, record *T) error
	// preCreate steps prepare a new record built from the request body.
	preCreate []func(c *fiber.Ctx, record *T) error
	// preUpdate steps run after the body has been merged onto the stored
	// record; previous carries the pre-merge snapshot.
	preUpdate []func(c *fiber.Ctx, previous T, record *T) error
	// postLoad decorates records before they are serialized.
	postLoad func(c *fiber.Ctx, records []*T) error
	// postWrite steps run after any create, update, or delete.
	postWrite []func(c *fiber.Ctx, record *T) error
	// eagerLoads names related collections resolved on get-one.
	eagerLoads []string
}

func (cfg resourceConfig[T]) applyScope(c *fiber.Ctx, tx *gorm.DB) *gorm.DB {
	if cfg.scope != nil {
		return cfg.scope(c, tx)
	}
	return tx
}

func (cfg resourceConfig[T]) runPostLoad(c *fiber.Ctx, records []*T) error {
	if cfg.postLoad == nil {
		return nil
	}
	return cfg.postLoad(c, records)
}

func (cfg resourceConfig[T]) runPostWrite(c *fiber.Ctx, record *T) error {
	for _, step := range cfg.postWrite {
		if err := step(c, record); err != nil {
			return err
		}
	}
	return nil
}

func (cfg resourceConfig[T]) notFound() error {
	message := cfg.notFoundMessage
	if message == "" {
		message = "No document found with that ID"
	}
	return apperr.New(fiber.StatusNotFound, message)
}

// createOne persists a new record built from the full request body and
// responds 201 with the created record.
func createOne[T any](handler *Handler, cfg resourceConfig[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		record := new(T)
		if err := c.BodyParser(record); err != nil {
			return apperr.New(fiber.StatusBadRequest, "Invalid request body")
		}

		for _, step := range cfg.preCreate {
			if err := step(c, record); err != nil {
				return err
			}
		}
		if cfg.validate != nil {
			if err := cfg.validate(c, record); err != nil {
				return err
			}
		}

		if err := handler.database.Create(record).Error; err != nil {
			return err
		}
		if err := cfg.runPostWrite(c, record); err != nil {
			return err
		}
		if err := cfg.runPostLoad(c, []*T{record}); err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"status": "success",
			"data":   fiber.Map{"data": record},
		})
	}
}

// getAll lists the (optionally parent-scoped) collection with the query
// refinements applied in their fixed order.
func getAll[T any](handler *Handler, cfg resourceConfig[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		features := db.ParseQueryFeatures(requestQueryValues(c))

		tx := cfg.applyScope(c, handler.database.Model(new(T)))
		records := make([]*T, 0)
		if err := features.Apply(tx).Find(&records).Error; err != nil {
			return err
		}
		if err := cfg.runPostLoad(c, records); err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"status":  "success",
			"results": len(records),
			"data":    fiber.Map{"data": records},
		})
	}
}

// getOne fetches by identifier, eager-loading the configured related
// collections.
func getOne[T any](handler *Handler, cfg resourceConfig[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recordID, err := parseIDParam(c)
		if err != nil {
			return err
		}

		tx := cfg.applyScope(c, handler.database)
		for _, eagerLoad := range cfg.eagerLoads {
			tx = tx.Preload(eagerLoad)
		}

		record := new(T)
		if err := tx.First(record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cfg.notFound()
			}
			return err
		}
		if err := cfg.runPostLoad(c, []*T{record}); err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"status": "success",
			"data":   fiber.Map{"data": record},
		})
	}
}

// updateOne applies a partial update from the request body onto the stored
// record, re-running validation before saving.
func updateOne[T any](handler *Handler, cfg resourceConfig[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recordID, err := parseIDParam(c)
		if err != nil {
			return err
		}

		record := new(T)
		if err := cfg.applyScope(c, handler.database).First(record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cfg.notFound()
			}
			return err
		}
		previous := *record

		if isJSONRequest(c) && len(c.Body()) > 0 {
			if err := json.Unmarshal(c.Body(), record); err != nil {
				return apperr.New(fiber.StatusBadRequest, "Invalid request body")
			}
		}
		for _, step := range cfg.preUpdate {
			if err := step(c, previous, record); err != nil {
				return err
			}
		}
		if cfg.validate != nil {
			if err := cfg.validate(c, record); err != nil {
				return err
			}
		}

		if err := handler.database.Save(record).Error; err != nil {
			return err
		}
		if err := cfg.runPostWrite(c, record); err != nil {
			return err
		}
		if err := cfg.runPostLoad(c, []*T{record}); err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"status": "success",
			"data":   fiber.Map{"data": record},
		})
	}
}

// deleteOne removes by identifier and responds 204 with an empty body.
func deleteOne[T any](handler *Handler, cfg resourceConfig[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recordID, err := parseIDParam(c)
		if err != nil {
			return err
		}

		record := new(T)
		if err := cfg.applyScope(c, handler.database).First(record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cfg.notFound()
			}
			return err
		}

		if err := handler.database.Delete(record).Error; err != nil {
			return err
		}
		if err := cfg.runPostWrite(c, record); err != nil {
			return err
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// parseIDParam reads the :id route parameter; malformed identifiers become
// a normalized Bad-Request.
func parseIDParam(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, apperr.Newf(fiber.StatusBadRequest, "Invalid id: %s", raw)
	}
	return uint(parsed), nil
}

func requestQueryValues(c *fiber.Ctx) url.Values {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return values
}

func isJSONRequest(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
}
