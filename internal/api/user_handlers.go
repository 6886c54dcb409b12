package api

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/marloweh/trailbook/internal/apperr"
	"github.com/marloweh/trailbook/internal/images"
	"github.com/marloweh/trailbook/internal/models"
	"github.com/marloweh/trailbook/internal/services"
)

const (
	userPhotoDir    = "img/users"
	userPhotoWidth  = 500
	userPhotoHeight = 500
)

func (handler *Handler) userConfig() resourceConfig[models.User] {
	return resourceConfig[models.User]{
		notFoundMessage: "No user found with that ID",
		scope:           excludeInactiveUsers,
		preUpdate: []func(c *fiber.Ctx, previous models.User, record *models.User) error{
			restoreUserCredentials,
		},
	}
}

// excludeInactiveUsers hides deactivated accounts from every user query.
func excludeInactiveUsers(c *fiber.Ctx, tx *gorm.DB) *gorm.DB {
	return tx.Where("active = ?", true)
}

// restoreUserCredentials keeps the admin update route from touching
// credentials; passwords only move through the dedicated flows.
func restoreUserCredentials(c *fiber.Ctx, previous models.User, user *models.User) error {
	user.ID = previous.ID
	user.PasswordHash = previous.PasswordHash
	user.PasswordChangedAt = previous.PasswordChangedAt
	user.PasswordResetToken = previous.PasswordResetToken
	user.PasswordResetExpires = previous.PasswordResetExpires
	user.Active = previous.Active
	user.CreatedAt = previous.CreatedAt
	user.Email = services.NormalizeEmail(user.Email)
	return nil
}

// CreateUser is the admin route for provisioning accounts with a role.
func (handler *Handler) CreateUser(c *fiber.Ctx) error {
	var input createUserInput
	if err := handler.parseInput(c, &input); err != nil {
		return err
	}

	user, err := handler.auth.Signup(input.Name, input.Email, input.Password)
	if err != nil {
		return err
	}
	if input.Role != "" && input.Role != user.Role {
		user.Role = input.Role
		if err := handler.users.Save(&user); err != nil {
			return err
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"data": user},
	})
}

// Me responds with the authenticated user in the standard single-resource
// shape.
func (handler *Handler) Me(c *fiber.Ctx) error {
	user := handler.currentUser(c)
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"data": user},
	})
}

type updateMeInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateMe lets the authenticated user change their own name, email, and
// profile photo. Password fields are rejected outright so nobody bypasses
// the password-change flow.
func (handler *Handler) UpdateMe(c *fiber.Ctx) error {
	user := handler.currentUser(c)

	updates := map[string]any{}

	if isJSONRequest(c) && len(c.Body()) > 0 {
		if err := rejectPasswordFields(c.Body()); err != nil {
			return err
		}
		var input updateMeInput
		if err := c.BodyParser(&input); err != nil {
			return apperr.New(fiber.StatusBadRequest, "Invalid request body")
		}
		if name := strings.TrimSpace(input.Name); name != "" {
			updates["name"] = name
		}
		if email := strings.TrimSpace(input.Email); email != "" {
			updates["email"] = services.NormalizeEmail(email)
		}
	}

	if form, err := c.MultipartForm(); err == nil {
		if values := form.Value["password"]; len(values) > 0 {
			return passwordFieldError()
		}
		if values := form.Value["passwordConfirm"]; len(values) > 0 {
			return passwordFieldError()
		}
		if name := strings.TrimSpace(firstFormValue(form.Value["name"])); name != "" {
			updates["name"] = name
		}
		if email := strings.TrimSpace(firstFormValue(form.Value["email"])); email != "" {
			updates["email"] = services.NormalizeEmail(email)
		}
		if photos := form.File["photo"]; len(photos) > 0 {
			photoName, err := handler.processUserPhoto(user.ID, photos[0])
			if err != nil {
				return err
			}
			updates["photo"] = photoName
		}
	}

	if len(updates) > 0 {
		if err := handler.users.UpdateByID(user.ID, updates); err != nil {
			return err
		}
	}

	updated, err := handler.users.FindByID(user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"data": updated},
	})
}

// DeleteMe deactivates the account instead of deleting the row; inactive
// users simply disappear from queries and can no longer log in.
func (handler *Handler) DeleteMe(c *fiber.Ctx) error {
	user := handler.currentUser(c)
	if err := handler.users.Deactivate(user.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (handler *Handler) processUserPhoto(userID uint, file *multipart.FileHeader) (string, error) {
	if !strings.HasPrefix(file.Header.Get(fiber.HeaderContentType), "image") {
		return "", apperr.New(fiber.StatusBadRequest, "Not an image. Please upload only images")
	}

	opened, err := file.Open()
	if err != nil {
		return "", err
	}
	defer opened.Close()

	raw, err := io.ReadAll(opened)
	if err != nil {
		return "", err
	}

	photoName := images.UserPhotoName(userID)
	if err := handler.images.ResizeJPEG(raw, userPhotoWidth, userPhotoHeight, userPhotoDir, photoName); err != nil {
		return "", err
	}
	return photoName, nil
}

func rejectPasswordFields(body []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return apperr.New(fiber.StatusBadRequest, "Invalid request body")
	}
	if _, exists := fields["password"]; exists {
		return passwordFieldError()
	}
	if _, exists := fields["passwordConfirm"]; exists {
		return passwordFieldError()
	}
	return nil
}

func passwordFieldError() error {
	return apperr.New(fiber.StatusBadRequest, "This route is not for password updates. Please use /updateMyPassword.")
}

func firstFormValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
