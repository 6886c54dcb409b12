package api

import (
	"errors"
	"html/template"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/marloweh/trailbook/internal/apperr"
)

const genericErrorMessage = "Something went very wrong"

var errorPageTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>Something went wrong</title></head>
<body>
  <h1>Something went wrong</h1>
  <p>{{.Message}}</p>
</body>
</html>
`))

// NewErrorHandler builds the terminal error handler. Verbosity is fixed at
// construction: verbose mode always returns full detail, restrained mode
// only exposes operational messages. Known store and token failure shapes
// are reclassified into operational equivalents before formatting.
func NewErrorHandler(verbose bool, logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message, operational := classify(err)

		if !operational {
			logger.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
		}

		if strings.HasPrefix(c.Path(), "/api") {
			if verbose {
				return c.Status(code).JSON(fiber.Map{
					"status":  apperr.StatusClass(code),
					"message": message,
					"error":   err.Error(),
				})
			}
			if !operational {
				message = genericErrorMessage
			}
			return c.Status(code).JSON(fiber.Map{
				"status":  apperr.StatusClass(code),
				"message": message,
			})
		}

		if !verbose && !operational {
			message = "Please try again later"
		}
		c.Status(code).Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return errorPageTemplate.Execute(c, fiber.Map{"Message": message})
	}
}

// classify maps any forwarded failure to a status code, client-facing
// message, and whether the failure is operational (safe to show verbatim).
func classify(err error) (int, string, bool) {
	var operationalErr *apperr.Error
	if errors.As(err, &operationalErr) {
		return operationalErr.Code, operationalErr.Message, true
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message, true
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return fiber.StatusBadRequest, "Invalid input data. " + validationMessage(validationErrs), true
	}

	switch {
	case strings.Contains(err.Error(), "no such column"):
		return fiber.StatusBadRequest, "Unknown field in request query", true
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound, "No document found with that ID", true
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.StatusBadRequest, "Duplicate field value. Please use another value", true
	case errors.Is(err, jwt.ErrTokenExpired):
		return fiber.StatusUnauthorized, "Your token has expired. Please log in again", true
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return fiber.StatusUnauthorized, "Invalid token. Please log in again", true
	}

	return fiber.StatusInternalServerError, err.Error(), false
}

func validationMessage(validationErrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			parts = append(parts, "The "+fieldErr.Field()+" field is required")
		case "email":
			parts = append(parts, "Please provide a valid email")
		case "min":
			parts = append(parts, "The "+fieldErr.Field()+" field must have at least "+fieldErr.Param()+" characters")
		case "max":
			parts = append(parts, "The "+fieldErr.Field()+" field must have at most "+fieldErr.Param()+" characters")
		case "eqfield":
			parts = append(parts, "The "+fieldErr.Field()+" field must match "+fieldErr.Param())
		case "oneof":
			parts = append(parts, "The "+fieldErr.Field()+" field must be one of: "+fieldErr.Param())
		default:
			parts = append(parts, "The "+fieldErr.Field()+" field is invalid")
		}
	}
	return strings.Join(parts, ". ")
}
