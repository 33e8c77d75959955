package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"venuesurvey/server/internal/database"
	"venuesurvey/server/internal/models"
	"venuesurvey/server/internal/survey"
)

const venuesCSV = "google_place_id,google_name,amenity,search_ward,business_status,google_rating,google_lat,google_lng,google_vicinity\n" +
	"ChIJ1,The Old Duke,pub,Central,OPERATIONAL,4.5,51.4527,-2.5926,45 King St\n" +
	"ChIJ2,Bocabar,cafe,Easton,OPERATIONAL,4.1,,,Paintworks\n" +
	"ChIJ3,The Kensington Arms,pub,Redland,CLOSED_PERMANENTLY,4.8,51.4690,-2.6010,35 Stanley Rd\n"

// MockGeocoder is a mock implementation of database.Geocoder
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) GeocodeAddress(street, postalCode, city string) (float64, float64, error) {
	args := m.Called(street, postalCode, city)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}

func setupTestRouter(t *testing.T, geocoder database.Geocoder) (*gin.Engine, *database.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "venues.db"), logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	svc := survey.NewService(db, logger, "bristol_venues")
	handler := NewHandler(db, svc, geocoder, logger, "Bristol")

	router := gin.New()
	SetupRoutes(router, handler, []string{"http://localhost:5173"})
	return router, db
}

func uploadCSV(t *testing.T, router *gin.Engine, content string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "venues.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doJSON(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeVenues(t *testing.T, w *httptest.ResponseRecorder) []models.Venue {
	t.Helper()
	var venues []models.Venue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &venues))
	return venues
}

func TestImportAndListVenues(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := uploadCSV(t, router, venuesCSV)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.ImportResult{Imported: 3, Errors: 0}, result)

	w = uploadCSV(t, router, venuesCSV)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Imported, "re-import adds nothing")

	w = doJSON(router, http.MethodGet, "/api/venues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeVenues(t, w), 2, "closed venue hidden by default")

	w = doJSON(router, http.MethodGet, "/api/venues?business_status=any", nil)
	assert.Len(t, decodeVenues(t, w), 3)

	w = doJSON(router, http.MethodGet, "/api/venues?amenity=pub&business_status=CLOSED_PERMANENTLY", nil)
	venues := decodeVenues(t, w)
	require.Len(t, venues, 1)
	assert.Equal(t, "The Kensington Arms", *venues[0].GoogleName)

	w = doJSON(router, http.MethodGet, "/api/venues?min_rating=high", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImport_RequiresFile(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/api/import", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = uploadCSV(t, router, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVenue(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)

	w := doJSON(router, http.MethodGet, "/api/venues/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var venue models.Venue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &venue))
	assert.Equal(t, "The Old Duke", *venue.GoogleName)

	w = doJSON(router, http.MethodGet, "/api/venues/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/venues/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkVisitedAndStatistics(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)

	w := doJSON(router, http.MethodPost, "/api/venues/1/visit", gin.H{
		"interest_status": "Interested",
		"notes":           "Owner keen, call back Tuesday",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var venue models.Venue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &venue))
	assert.True(t, venue.Visited)
	assert.NotNil(t, venue.VisitDate)
	require.NotNil(t, venue.InterestStatus)
	assert.Equal(t, models.Interested, *venue.InterestStatus)

	w = doJSON(router, http.MethodPost, "/api/venues/2/visit", gin.H{"interest_status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/venues/9999/visit", gin.H{"interest_status": "interested"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.VenueStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Visited)
	assert.Equal(t, int64(1), stats.Interested)
	assert.Equal(t, 100.0, stats.ConversionRate)

	w = doJSON(router, http.MethodGet, "/api/venues?status=Interested", nil)
	assert.Len(t, decodeVenues(t, w), 1)
}

func TestUpdateVenue_RejectsProtectedColumns(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)

	w := doJSON(router, http.MethodPatch, "/api/venues/1", gin.H{"google_place_id": "ChIJ999"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPatch, "/api/venues/1", gin.H{"notes": "Closed Mondays"})
	require.Equal(t, http.StatusOK, w.Code)

	var venue models.Venue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &venue))
	require.NotNil(t, venue.Notes)
	assert.Equal(t, "Closed Mondays", *venue.Notes)
}

func TestUpdateVenue_RejectsMistypedValues(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)

	for _, body := range []gin.H{
		{"visit_date": "not-a-date"},
		{"visited": "banana"},
		{"google_rating": "abc"},
	} {
		w := doJSON(router, http.MethodPatch, "/api/venues/1", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
	}

	w := doJSON(router, http.MethodPatch, "/api/venues/1", gin.H{"visit_date": "2026-02-14T10:15:00Z", "visited": true})
	require.Equal(t, http.StatusOK, w.Code)

	var venue models.Venue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &venue))
	require.NotNil(t, venue.VisitDate)
	assert.Equal(t, 2026, venue.VisitDate.Year())
}

func TestEditStatus_RequiresVisit(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)

	w := doJSON(router, http.MethodPut, "/api/venues/2/status", gin.H{"interest_status": "interested"})
	assert.Equal(t, http.StatusConflict, w.Code)

	doJSON(router, http.MethodPost, "/api/venues/2/visit", gin.H{"interest_status": "not_interested"})
	w = doJSON(router, http.MethodPut, "/api/venues/2/status", gin.H{"interest_status": "interested", "notes": "Changed their mind"})
	require.Equal(t, http.StatusOK, w.Code)

	var venue models.Venue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &venue))
	assert.True(t, venue.HasInterest(models.Interested))
}

func TestSetPriority(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)

	w := doJSON(router, http.MethodPut, "/api/venues/2/priority", gin.H{"is_priority": true})
	require.Equal(t, http.StatusOK, w.Code)

	var venue models.Venue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &venue))
	assert.True(t, venue.IsPriority)

	w = doJSON(router, http.MethodPut, "/api/venues/2/priority", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWardsAndFilters(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)
	doJSON(router, http.MethodPost, "/api/venues/2/visit", gin.H{"interest_status": "not_interested"})

	w := doJSON(router, http.MethodGet, "/api/wards", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var wards []WardSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wards))
	require.Len(t, wards, 3)
	for _, ward := range wards {
		if ward.Ward != nil && *ward.Ward == "Easton" {
			assert.Equal(t, 100.0, ward.CompletionPercent)
			assert.Equal(t, 0.0, ward.ConversionPercent)
		}
	}

	w = doJSON(router, http.MethodGet, "/api/filters", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var options map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &options))
	assert.Equal(t, []string{"cafe", "pub"}, options["amenities"])
	assert.Contains(t, options["wards"], "Redland")
}

func TestGetMap(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)

	w := doJSON(router, http.MethodGet, "/api/map?lat=51.4545&lng=-2.5879", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1, "only operational venues with coordinates")
	assert.Equal(t, "The Old Duke", fc.Features[0].Properties["name"])
	assert.Contains(t, fc.Features[0].Properties, "distance_miles")

	w = doJSON(router, http.MethodGet, "/api/map?lat=north", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCSV(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)
	doJSON(router, http.MethodPost, "/api/venues/1/visit", gin.H{"interest_status": "interested"})

	w := doJSON(router, http.MethodGet, "/api/export?type=hot_leads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bristol_venues_hot_leads_")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Name,Type"))
	assert.Contains(t, lines[1], "The Old Duke")

	w = doJSON(router, http.MethodGet, "/api/export?type=everything", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetSurvey(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	uploadCSV(t, router, venuesCSV)
	doJSON(router, http.MethodPost, "/api/venues/1/visit", gin.H{"interest_status": "interested"})

	w := doJSON(router, http.MethodPost, "/api/reset", gin.H{"confirm": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/reset", gin.H{"confirm": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/stats", nil)
	var stats models.VenueStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(0), stats.Visited)
	assert.Equal(t, int64(3), stats.Total)
}

func TestUpdateCoordinates(t *testing.T) {
	router, _ := setupTestRouter(t, nil)
	w := doJSON(router, http.MethodPost, "/api/update-coordinates", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	geocoder := &MockGeocoder{}
	geocoder.On("GeocodeAddress", "Paintworks", "", "Bristol").Return(51.4470, -2.5750, nil).Once()

	router, _ = setupTestRouter(t, geocoder)
	uploadCSV(t, router, venuesCSV)

	w = doJSON(router, http.MethodPost, "/api/update-coordinates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result database.CoordinateBackfill
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, database.CoordinateBackfill{Candidates: 1, Updated: 1}, result)
	geocoder.AssertExpectations(t)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/venues", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
