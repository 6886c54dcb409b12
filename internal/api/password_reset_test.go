package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/marloweh/trailbook/internal/models"
)

func TestForgotPasswordUnknownEmail(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)

	response := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/forgotPassword", map[string]string{
		"email": "nobody@example.com",
	}))
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", response.StatusCode)
	}
	if message := bodyMessage(t, response); message != "There is no user with that email address" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	app, database, mailer := newTestApp(t)
	user := createTestUser(t, database, "reset@example.com", "oldpass123", models.RoleUser)

	forgotResponse := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/forgotPassword", map[string]string{
		"email": "reset@example.com",
	}))
	if forgotResponse.StatusCode != http.StatusOK {
		t.Fatalf("forgot password: expected status 200, got %d", forgotResponse.StatusCode)
	}
	if message, _ := decodeBody(t, forgotResponse)["message"].(string); message != "Token sent to email!" {
		t.Fatalf("unexpected message %q", message)
	}

	resetURL := mailer.resetURL()
	if resetURL == "" {
		t.Fatal("expected a reset email to be sent")
	}
	rawToken := resetURL[strings.LastIndex(resetURL, "/")+1:]

	var pending models.User
	if err := database.First(&pending, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if pending.PasswordResetToken == "" || pending.PasswordResetToken == rawToken {
		t.Fatal("expected only the token hash to be persisted")
	}

	resetResponse := doRequest(t, app, jsonRequest(t, http.MethodPatch, "/api/v1/users/resetPassword/"+rawToken, map[string]string{
		"password":        "newpass123",
		"passwordConfirm": "newpass123",
	}))
	if resetResponse.StatusCode != http.StatusOK {
		t.Fatalf("reset password: expected status 200, got %d", resetResponse.StatusCode)
	}
	if token, _ := decodeBody(t, resetResponse)["token"].(string); token == "" {
		t.Fatal("expected a fresh session token after reset")
	}

	loginTestUser(t, app, "reset@example.com", "newpass123")

	oldLogin := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    "reset@example.com",
		"password": "oldpass123",
	}))
	if oldLogin.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old password: expected status 401, got %d", oldLogin.StatusCode)
	}
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	t.Parallel()

	app, database, mailer := newTestApp(t)
	createTestUser(t, database, "once@example.com", "oldpass123", models.RoleUser)

	doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/forgotPassword", map[string]string{
		"email": "once@example.com",
	}))
	resetURL := mailer.resetURL()
	rawToken := resetURL[strings.LastIndex(resetURL, "/")+1:]

	first := doRequest(t, app, jsonRequest(t, http.MethodPatch, "/api/v1/users/resetPassword/"+rawToken, map[string]string{
		"password":        "newpass123",
		"passwordConfirm": "newpass123",
	}))
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first redemption: expected status 200, got %d", first.StatusCode)
	}

	second := doRequest(t, app, jsonRequest(t, http.MethodPatch, "/api/v1/users/resetPassword/"+rawToken, map[string]string{
		"password":        "another123",
		"passwordConfirm": "another123",
	}))
	if second.StatusCode != http.StatusBadRequest {
		t.Fatalf("second redemption: expected status 400, got %d", second.StatusCode)
	}
	if message := bodyMessage(t, second); message != "Token is invalid or has expired" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestPasswordResetTokenExpires(t *testing.T) {
	t.Parallel()

	app, database, mailer := newTestApp(t)
	user := createTestUser(t, database, "expired@example.com", "oldpass123", models.RoleUser)

	doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/forgotPassword", map[string]string{
		"email": "expired@example.com",
	}))
	resetURL := mailer.resetURL()
	rawToken := resetURL[strings.LastIndex(resetURL, "/")+1:]

	expired := time.Now().Add(-time.Minute)
	if err := database.Model(&models.User{}).Where("id = ?", user.ID).
		Update("password_reset_expires", expired).Error; err != nil {
		t.Fatalf("backdate expiry: %v", err)
	}

	response := doRequest(t, app, jsonRequest(t, http.MethodPatch, "/api/v1/users/resetPassword/"+rawToken, map[string]string{
		"password":        "newpass123",
		"passwordConfirm": "newpass123",
	}))
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", response.StatusCode)
	}
	if message := bodyMessage(t, response); message != "Token is invalid or has expired" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestForgotPasswordMailFailureClearsToken(t *testing.T) {
	t.Parallel()

	app, database, mailer := newTestApp(t)
	user := createTestUser(t, database, "unreachable@example.com", "oldpass123", models.RoleUser)
	mailer.failNextReset = true

	response := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/forgotPassword", map[string]string{
		"email": "unreachable@example.com",
	}))
	if response.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", response.StatusCode)
	}

	var stored models.User
	if err := database.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.PasswordResetToken != "" || stored.PasswordResetExpires != nil {
		t.Fatal("expected the undeliverable token to be cleared")
	}
}
