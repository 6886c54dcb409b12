package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/marloweh/trailbook/internal/models"
)

func TestCreateTourForcesDefaultsAndSlug(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestUser(t, database, "lead@example.com", "pass12345", models.RoleLeadGuide)
	token := loginTestUser(t, app, "lead@example.com", "pass12345")

	response := doRequest(t, app, authedJSONRequest(t, http.MethodPost, "/api/v1/tours", token, map[string]any{
		"name":            "The Sea Explorer",
		"duration":        7,
		"maxGroupSize":    15,
		"difficulty":      "medium",
		"price":           497,
		"summary":         "Exploring the jaw-dropping US east coast by foot and by boat",
		"imageCover":      "tour-2-cover.jpg",
		"ratingsAverage":  1.2,
		"ratingsQuantity": 99,
	}))
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", response.StatusCode)
	}

	record := dataRecord(t, decodeBody(t, response))
	if record["slug"] != "the-sea-explorer" {
		t.Fatalf("expected derived slug, got %v", record["slug"])
	}
	if record["ratingsAverage"] != 4.5 {
		t.Fatalf("expected the default ratings average, got %v", record["ratingsAverage"])
	}
	if record["ratingsQuantity"] != float64(0) {
		t.Fatalf("expected the default ratings quantity, got %v", record["ratingsQuantity"])
	}
	if record["durationWeeks"] != float64(1) {
		t.Fatalf("expected durationWeeks 1, got %v", record["durationWeeks"])
	}
}

func TestCreateTourValidation(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestUser(t, database, "lead2@example.com", "pass12345", models.RoleLeadGuide)
	token := loginTestUser(t, app, "lead2@example.com", "pass12345")

	response := doRequest(t, app, authedJSONRequest(t, http.MethodPost, "/api/v1/tours", token, map[string]any{
		"name":       "Short",
		"difficulty": "extreme",
		"price":      0,
	}))
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", response.StatusCode)
	}
	message := bodyMessage(t, response)
	for _, expected := range []string{
		"A tour name must have at least 10 characters",
		"Difficulty is either: easy, medium, difficult",
		"A tour must have a price",
	} {
		if !strings.Contains(message, expected) {
			t.Fatalf("expected %q in %q", expected, message)
		}
	}
}

func TestCreateTourRequiresElevatedRole(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestUser(t, database, "plain@example.com", "pass12345", models.RoleUser)
	token := loginTestUser(t, app, "plain@example.com", "pass12345")

	response := doRequest(t, app, authedJSONRequest(t, http.MethodPost, "/api/v1/tours", token, map[string]any{
		"name": "The Mountain Biker",
	}))
	if response.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", response.StatusCode)
	}
	if message := bodyMessage(t, response); message != "You do not have permission to perform this action" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestListToursHidesSecretTours(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestTour(t, database, models.Tour{Name: "The Forest Hiker"})
	secret := createTestTour(t, database, models.Tour{Name: "The Hidden Gem", SecretTour: true})

	response := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/tours", nil))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	payload := decodeBody(t, response)
	if payload["results"] != float64(1) {
		t.Fatalf("expected 1 visible tour, got %v", payload["results"])
	}
	records := dataRecords(t, payload)
	if name := records[0].(map[string]any)["name"]; name != "The Forest Hiker" {
		t.Fatalf("unexpected tour %v", name)
	}

	detail := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/tours/"+formatID(secret.ID), nil))
	if detail.StatusCode != http.StatusNotFound {
		t.Fatalf("secret tour lookup: expected status 404, got %d", detail.StatusCode)
	}
}

func TestSecretTourCreatedViaAPIIsHiddenFromListing(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestUser(t, database, "lead3@example.com", "pass12345", models.RoleLeadGuide)
	token := loginTestUser(t, app, "lead3@example.com", "pass12345")
	createTestTour(t, database, models.Tour{Name: "The Forest Hiker"})

	response := doRequest(t, app, authedJSONRequest(t, http.MethodPost, "/api/v1/tours", token, map[string]any{
		"name":         "The Hidden Waterfall",
		"duration":     3,
		"maxGroupSize": 8,
		"difficulty":   "medium",
		"price":        299,
		"summary":      "An off-catalog trip reserved for returning customers",
		"imageCover":   "tour-9-cover.jpg",
		"secretTour":   true,
	}))
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", response.StatusCode)
	}
	if record := dataRecord(t, decodeBody(t, response)); record["secretTour"] != true {
		t.Fatalf("expected the secret flag to persist, got %v", record["secretTour"])
	}

	listing := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/tours", nil))
	if listing.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", listing.StatusCode)
	}
	payload := decodeBody(t, listing)
	if payload["results"] != float64(1) {
		t.Fatalf("expected 1 visible tour, got %v", payload["results"])
	}
	records := dataRecords(t, payload)
	if name := records[0].(map[string]any)["name"]; name != "The Forest Hiker" {
		t.Fatalf("unexpected tour %v", name)
	}
}

func TestUnknownFilterFieldIsBadRequest(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestTour(t, database, models.Tour{Name: "The Forest Hiker"})

	response := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/tours?totallyUnknownField=1", nil))
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", response.StatusCode)
	}
	if message := bodyMessage(t, response); message != "Unknown field in request query" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestPartialTourUpdateKeepsUntouchedFields(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestUser(t, database, "editor@example.com", "pass12345", models.RoleAdmin)
	token := loginTestUser(t, app, "editor@example.com", "pass12345")
	tour := createTestTour(t, database, models.Tour{Name: "The Forest Hiker", Price: 497, Duration: 7})

	response := doRequest(t, app, authedJSONRequest(t, http.MethodPatch, "/api/v1/tours/"+formatID(tour.ID), token, map[string]any{
		"price": 599,
	}))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	record := dataRecord(t, decodeBody(t, response))
	if record["price"] != float64(599) {
		t.Fatalf("expected updated price, got %v", record["price"])
	}
	if record["name"] != "The Forest Hiker" {
		t.Fatalf("expected untouched name, got %v", record["name"])
	}
	if record["duration"] != float64(7) {
		t.Fatalf("expected untouched duration, got %v", record["duration"])
	}
}

func TestDeleteTour(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestUser(t, database, "remover@example.com", "pass12345", models.RoleAdmin)
	token := loginTestUser(t, app, "remover@example.com", "pass12345")
	tour := createTestTour(t, database, models.Tour{Name: "The Forest Hiker"})

	response := doRequest(t, app, authedJSONRequest(t, http.MethodDelete, "/api/v1/tours/"+formatID(tour.ID), token, nil))
	if response.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", response.StatusCode)
	}

	missing := doRequest(t, app, authedJSONRequest(t, http.MethodDelete, "/api/v1/tours/"+formatID(tour.ID), token, nil))
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", missing.StatusCode)
	}
	if message := bodyMessage(t, missing); message != "No tour found with that ID" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestMalformedTourIDIsBadRequest(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)

	response := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/tours/not-an-id", nil))
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", response.StatusCode)
	}
	if message := bodyMessage(t, response); message != "Invalid id: not-an-id" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestTourResponsePopulatesGuides(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	guide := createTestUser(t, database, "guide@example.com", "pass12345", models.RoleGuide)
	tour := createTestTour(t, database, models.Tour{Name: "The Forest Hiker", GuideIDs: []uint{guide.ID}})

	response := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/tours/"+formatID(tour.ID), nil))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	record := dataRecord(t, decodeBody(t, response))
	guides, ok := record["guides"].([]any)
	if !ok || len(guides) != 1 {
		t.Fatalf("expected one populated guide, got %v", record["guides"])
	}
	if email := guides[0].(map[string]any)["email"]; email != "guide@example.com" {
		t.Fatalf("unexpected guide %v", email)
	}
}
