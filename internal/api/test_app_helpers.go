package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/marloweh/trailbook/internal/db"
	"github.com/marloweh/trailbook/internal/images"
	"github.com/marloweh/trailbook/internal/models"
	"github.com/marloweh/trailbook/internal/payments"
)

// recordingMailer captures outgoing mail so tests can extract reset links
// without a real SMTP hop.
type recordingMailer struct {
	mu            sync.Mutex
	welcomeCount  int
	lastResetURL  string
	failNextReset bool
}

func (mailer *recordingMailer) SendWelcome(user models.User, actionURL string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.welcomeCount++
	return nil
}

func (mailer *recordingMailer) SendPasswordReset(user models.User, resetURL string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if mailer.failNextReset {
		mailer.failNextReset = false
		return io.ErrClosedPipe
	}
	mailer.lastResetURL = resetURL
	return nil
}

func (mailer *recordingMailer) resetURL() string {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	return mailer.lastResetURL
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *recordingMailer) {
	t.Helper()
	return newTestAppWithCheckout(t, nil)
}

func newTestAppWithCheckout(t *testing.T, checkout payments.CheckoutClient) (*fiber.App, *gorm.DB, *recordingMailer) {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "trailbook-test.db")
	database, err := db.OpenSQLite(databasePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	mailer := &recordingMailer{}
	handler := NewHandler(database, Options{
		JWTSecret: "test-secret-key",
		JWTTTL:    time.Hour,
		Mailer:    mailer,
		Checkout:  checkout,
		Images:    images.NewProcessor(t.TempDir()),
		Logger:    zerolog.Nop(),
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: NewErrorHandler(false, zerolog.Nop()),
	})
	RegisterRoutes(app, handler)
	return app, database, mailer
}

func createTestUser(t *testing.T, database *gorm.DB, email string, password string, role string) models.User {
	t.Helper()

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         role,
		Active:       true,
	}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestTour(t *testing.T, database *gorm.DB, tour models.Tour) models.Tour {
	t.Helper()

	if tour.Name == "" {
		tour.Name = "The Forest Hiker"
	}
	if tour.Duration == 0 {
		tour.Duration = 7
	}
	if tour.MaxGroupSize == 0 {
		tour.MaxGroupSize = 15
	}
	if tour.Difficulty == "" {
		tour.Difficulty = models.DifficultyEasy
	}
	if tour.Price == 0 {
		tour.Price = 497
	}
	if tour.RatingsAverage == 0 {
		tour.RatingsAverage = models.DefaultRatingsAverage
	}
	if tour.Summary == "" {
		tour.Summary = "Breathtaking hike through canadian forests"
	}
	if tour.ImageCover == "" {
		tour.ImageCover = "tour-1-cover.jpg"
	}
	if err := database.Create(&tour).Error; err != nil {
		t.Fatalf("create tour: %v", err)
	}
	return tour
}

func jsonRequest(t *testing.T, method string, target string, payload any) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, target, body)
	if payload != nil {
		request.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return request
}

func authedJSONRequest(t *testing.T, method string, target string, token string, payload any) *http.Request {
	t.Helper()
	request := jsonRequest(t, method, target, payload)
	request.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return request
}

func doRequest(t *testing.T, app *fiber.App, request *http.Request) *http.Response {
	t.Helper()
	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", request.Method, request.URL.Path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func decodeBody(t *testing.T, response *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode response body %q: %v", raw, err)
	}
	return payload
}

func bodyMessage(t *testing.T, response *http.Response) string {
	t.Helper()
	message, _ := decodeBody(t, response)["message"].(string)
	return message
}

func dataRecord(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()

	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data envelope: %v", payload)
	}
	record, ok := data["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data.data record: %v", payload)
	}
	return record
}

func dataRecords(t *testing.T, payload map[string]any) []any {
	t.Helper()

	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data envelope: %v", payload)
	}
	records, ok := data["data"].([]any)
	if !ok {
		t.Fatalf("response has no data.data list: %v", payload)
	}
	return records
}

func loginTestUser(t *testing.T, app *fiber.App, email string, password string) string {
	t.Helper()

	response := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    email,
		"password": password,
	}))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected status 200, got %d", email, response.StatusCode)
	}

	token, _ := decodeBody(t, response)["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in response", email)
	}
	return token
}
