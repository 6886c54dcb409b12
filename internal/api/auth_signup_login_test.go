package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/marloweh/trailbook/internal/models"
)

func TestSignupIssuesSessionAndHidesSensitiveFields(t *testing.T) {
	t.Parallel()

	app, database, mailer := newTestApp(t)

	response := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/signup", map[string]string{
		"name":            "Leo Gonzalez",
		"email":           "Leo@Example.COM",
		"password":        "pass12345",
		"passwordConfirm": "pass12345",
	}))
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", response.StatusCode)
	}

	payload := decodeBody(t, response)
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected a session token in the signup response")
	}
	if cookie := responseCookie(response.Cookies(), authCookieName); cookie == nil || cookie.Value != token {
		t.Fatal("expected the session cookie to carry the issued token")
	}

	data, _ := payload["data"].(map[string]any)
	user, _ := data["user"].(map[string]any)
	if user["email"] != "leo@example.com" {
		t.Fatalf("expected normalized email, got %v", user["email"])
	}
	for _, hidden := range []string{"password", "passwordHash", "passwordResetToken", "active"} {
		if _, exists := user[hidden]; exists {
			t.Fatalf("expected %s to be hidden from the response", hidden)
		}
	}

	var stored models.User
	if err := database.First(&stored, "email = ?", "leo@example.com").Error; err != nil {
		t.Fatalf("load stored user: %v", err)
	}
	if stored.Role != models.RoleUser {
		t.Fatalf("expected default role user, got %q", stored.Role)
	}
	if stored.PasswordHash == "pass12345" || stored.PasswordHash == "" {
		t.Fatal("expected the password to be stored hashed")
	}
	if mailer.welcomeCount != 1 {
		t.Fatalf("expected one welcome email, got %d", mailer.welcomeCount)
	}
}

func TestSignupPasswordMismatchPersistsNothing(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)

	response := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/signup", map[string]string{
		"name":            "Mismatch",
		"email":           "mismatch@example.com",
		"password":        "pass12345",
		"passwordConfirm": "different1",
	}))
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", response.StatusCode)
	}
	if message := bodyMessage(t, response); !strings.Contains(message, "Invalid input data") {
		t.Fatalf("expected a validation message, got %q", message)
	}

	var count int64
	if err := database.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no persisted users, got %d", count)
	}
}

func TestSignupDuplicateEmailRejected(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestUser(t, database, "taken@example.com", "pass12345", models.RoleUser)

	response := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/signup", map[string]string{
		"name":            "Second",
		"email":           "taken@example.com",
		"password":        "pass12345",
		"passwordConfirm": "pass12345",
	}))
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", response.StatusCode)
	}
	if message := bodyMessage(t, response); !strings.Contains(message, "Duplicate") {
		t.Fatalf("expected a duplicate-value message, got %q", message)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestUser(t, database, "login@example.com", "pass12345", models.RoleUser)

	response := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    "login@example.com",
		"password": "wrongpass1",
	}))
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", response.StatusCode)
	}
	if message := bodyMessage(t, response); message != "Incorrect email or password" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestProtectRequiresToken(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)

	response := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/users/me", nil))
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", response.StatusCode)
	}
}

func TestProtectAcceptsHeaderAndCookieTokens(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestUser(t, database, "bearer@example.com", "pass12345", models.RoleUser)
	token := loginTestUser(t, app, "bearer@example.com", "pass12345")

	headerResponse := doRequest(t, app, authedJSONRequest(t, http.MethodGet, "/api/v1/users/me", token, nil))
	if headerResponse.StatusCode != http.StatusOK {
		t.Fatalf("bearer token: expected status 200, got %d", headerResponse.StatusCode)
	}

	cookieRequest := jsonRequest(t, http.MethodGet, "/api/v1/users/me", nil)
	cookieRequest.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
	cookieResponse := doRequest(t, app, cookieRequest)
	if cookieResponse.StatusCode != http.StatusOK {
		t.Fatalf("cookie token: expected status 200, got %d", cookieResponse.StatusCode)
	}

	record := dataRecord(t, decodeBody(t, cookieResponse))
	if record["email"] != "bearer@example.com" {
		t.Fatalf("expected the authenticated user, got %v", record["email"])
	}
}

func TestProtectRejectsGarbageToken(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)

	response := doRequest(t, app, authedJSONRequest(t, http.MethodGet, "/api/v1/users/me", "not-a-token", nil))
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", response.StatusCode)
	}
	if message := bodyMessage(t, response); message != "Invalid token. Please log in again" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestSoftProtectNeverBlocksPublicRoutes(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestTour(t, database, models.Tour{Name: "The Forest Hiker"})

	// An expired or garbage token on a soft-gated route is treated as no
	// session, not as a failure.
	response := doRequest(t, app, authedJSONRequest(t, http.MethodGet, "/api/v1/tours", "garbage-token", nil))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	if results := decodeBody(t, response)["results"]; results != float64(1) {
		t.Fatalf("expected the public listing, got %v", results)
	}
}

func TestLogoutOverwritesSessionCookie(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)

	response := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/users/logout", nil))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	if value := responseCookieValue(response.Cookies(), authCookieName); value != "loggedout" {
		t.Fatalf("expected the cookie to be overwritten, got %q", value)
	}
}
