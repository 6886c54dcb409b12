package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/marloweh/trailbook/internal/apperr"
	"github.com/marloweh/trailbook/internal/services"
)

// parseInput decodes the request body into input and runs its validation
// tags. Validation failures surface through the terminal error handler.
func (handler *Handler) parseInput(c *fiber.Ctx, input any) error {
	if err := c.BodyParser(input); err != nil {
		return apperr.New(fiber.StatusBadRequest, "Invalid request body")
	}
	return handler.validate.Struct(input)
}

func (handler *Handler) Signup(c *fiber.Ctx) error {
	var input signupInput
	if err := handler.parseInput(c, &input); err != nil {
		return err
	}

	user, err := handler.auth.Signup(input.Name, input.Email, input.Password)
	if err != nil {
		return err
	}

	profileURL := fmt.Sprintf("%s://%s/me", c.Protocol(), c.Hostname())
	if err := handler.mailer.SendWelcome(user, profileURL); err != nil {
		handler.logger.Error().Err(err).Str("email", user.Email).Msg("welcome email failed")
	}

	return handler.issueSession(c, &user, fiber.StatusCreated)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	var input loginInput
	if err := handler.parseInput(c, &input); err != nil {
		return err
	}

	user, err := handler.auth.Authenticate(input.Email, input.Password)
	if err != nil {
		return apperr.New(fiber.StatusUnauthorized, "Incorrect email or password")
	}

	return handler.issueSession(c, &user, fiber.StatusOK)
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearSessionCookie(c)
	return c.JSON(fiber.Map{"status": "success"})
}

func (handler *Handler) ForgotPassword(c *fiber.Ctx) error {
	var input forgotPasswordInput
	if err := handler.parseInput(c, &input); err != nil {
		return err
	}

	user, rawToken, err := handler.auth.StartPasswordReset(input.Email)
	if err != nil {
		return apperr.New(fiber.StatusNotFound, "There is no user with that email address")
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", c.Protocol(), c.Hostname(), rawToken)
	if err := handler.mailer.SendPasswordReset(user, resetURL); err != nil {
		// A token that cannot reach the user must not stay redeemable.
		if clearErr := handler.auth.ClearPasswordReset(user.ID); clearErr != nil {
			handler.logger.Error().Err(clearErr).Uint("user", user.ID).Msg("clearing reset token failed")
		}
		handler.logger.Error().Err(err).Str("email", user.Email).Msg("password reset email failed")
		return apperr.New(fiber.StatusInternalServerError, "There was an error sending the email. Try again later")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

func (handler *Handler) ResetPassword(c *fiber.Ctx) error {
	var input resetPasswordInput
	if err := handler.parseInput(c, &input); err != nil {
		return err
	}

	user, err := handler.auth.FinishPasswordReset(c.Params("token"), input.Password)
	if err != nil {
		if err == services.ErrResetTokenInvalid {
			return apperr.New(fiber.StatusBadRequest, "Token is invalid or has expired")
		}
		return err
	}

	return handler.issueSession(c, &user, fiber.StatusOK)
}

// UpdatePassword changes the password of the authenticated user and issues a
// fresh session token, invalidating all tokens issued before the change.
func (handler *Handler) UpdatePassword(c *fiber.Ctx) error {
	var input updatePasswordInput
	if err := handler.parseInput(c, &input); err != nil {
		return err
	}

	user := handler.currentUser(c)
	if !handler.auth.VerifyPassword(user, input.PasswordCurrent) {
		return apperr.New(fiber.StatusUnauthorized, "Your current password is wrong")
	}

	if err := handler.auth.ChangePassword(user, input.Password); err != nil {
		return err
	}

	return handler.issueSession(c, user, fiber.StatusOK)
}
