package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/marloweh/trailbook/internal/apperr"
	"github.com/marloweh/trailbook/internal/models"
)

const currentUserKey = "currentUser"

// Protect gates a route behind a valid session token carried in the
// Authorization header (bearer scheme) or the session cookie. On success the
// resolved identity is attached to the request context.
func (handler *Handler) Protect(c *fiber.Ctx) error {
	user, err := handler.authenticateRequest(c)
	if err != nil {
		return err
	}
	c.Locals(currentUserKey, user)
	return c.Next()
}

// SoftProtect runs the same verification as Protect, but any failure is
// treated as "no session" and the request proceeds unauthenticated.
func (handler *Handler) SoftProtect(c *fiber.Ctx) error {
	if user, err := handler.authenticateRequest(c); err == nil {
		c.Locals(currentUserKey, user)
	}
	return c.Next()
}

// RestrictTo produces a gate that fails with Forbidden unless the resolved
// identity's role is in the given set. Must run after Protect.
func (handler *Handler) RestrictTo(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := handler.currentUser(c)
		if user == nil || !user.HasRole(roles...) {
			return apperr.New(fiber.StatusForbidden, "You do not have permission to perform this action")
		}
		return c.Next()
	}
}

func (handler *Handler) currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}

func (handler *Handler) authenticateRequest(c *fiber.Ctx) (*models.User, error) {
	rawToken := extractToken(c)
	if rawToken == "" {
		return nil, apperr.New(fiber.StatusUnauthorized, "You are not logged in. Please log in to get access")
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return handler.jwtSecret, nil
	})
	if err != nil {
		// Raw jwt failures are reclassified by the terminal error handler.
		return nil, err
	}
	if !token.Valid || claims.IssuedAt == nil {
		return nil, jwt.ErrTokenUnverifiable
	}

	user, err := handler.auth.FindByID(claims.UserID)
	if err != nil {
		return nil, apperr.New(fiber.StatusUnauthorized, "The user belonging to this token no longer exists")
	}
	if !user.Active {
		return nil, apperr.New(fiber.StatusUnauthorized, "The user belonging to this token no longer exists")
	}
	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, apperr.New(fiber.StatusUnauthorized, "User recently changed password. Please log in again")
	}

	return &user, nil
}

func extractToken(c *fiber.Ctx) string {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(authorization, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	}
	return strings.TrimSpace(c.Cookies(authCookieName))
}
