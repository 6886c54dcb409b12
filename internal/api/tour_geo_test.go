package api

import (
	"net/http"
	"testing"

	"github.com/marloweh/trailbook/internal/models"
)

func geoTour(name string, lat float64, lng float64) models.Tour {
	return models.Tour{
		Name: name,
		StartLocation: models.GeoPoint{
			Type:        "Point",
			Coordinates: []float64{lng, lat},
		},
	}
}

func TestToursWithinFiltersByRadius(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	// Near Los Angeles and near New York; the center is LA.
	createTestTour(t, database, geoTour("The Coast Walker", 34.0, -118.2))
	createTestTour(t, database, geoTour("The East Sider", 40.7, -74.0))

	response := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/tours/tours-within/200/center/34.1,-118.1/unit/mi", nil))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	payload := decodeBody(t, response)
	if payload["results"] != float64(1) {
		t.Fatalf("expected 1 tour within range, got %v", payload["results"])
	}
	records := dataRecords(t, payload)
	if name := records[0].(map[string]any)["name"]; name != "The Coast Walker" {
		t.Fatalf("unexpected tour %v", name)
	}
}

func TestTourDistancesSortedNearestFirst(t *testing.T) {
	t.Parallel()

	app, database, _ := newTestApp(t)
	createTestTour(t, database, geoTour("The Far Trekker", 40.7, -74.0))
	createTestTour(t, database, geoTour("The Near Rambler", 34.0, -118.2))

	response := doRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v1/tours/distances/34.1,-118.1/unit/km", nil))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	records := dataRecords(t, decodeBody(t, response))
	if len(records) != 2 {
		t.Fatalf("expected 2 distances, got %d", len(records))
	}
	first := records[0].(map[string]any)
	second := records[1].(map[string]any)
	if first["name"] != "The Near Rambler" {
		t.Fatalf("expected the nearest tour first, got %v", first["name"])
	}
	if first["distance"].(float64) >= second["distance"].(float64) {
		t.Fatal("expected distances in ascending order")
	}
}

func TestGeoRoutesRejectMalformedCenter(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)

	for _, target := range []string{
		"/api/v1/tours/tours-within/200/center/garbage/unit/mi",
		"/api/v1/tours/distances/34.1/unit/km",
	} {
		response := doRequest(t, app, jsonRequest(t, http.MethodGet, target, nil))
		if response.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", target, response.StatusCode)
		}
		if message := bodyMessage(t, response); message != "Please provide latitude and longitude in the format lat,lng" {
			t.Fatalf("%s: unexpected message %q", target, message)
		}
	}
}
