package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"venuesurvey/server/internal/csvio"
	"venuesurvey/server/internal/database"
	"venuesurvey/server/internal/mapview"
	"venuesurvey/server/internal/models"
	"venuesurvey/server/internal/survey"
)

type Handler struct {
	db       *database.Database
	survey   *survey.Service
	geocoder database.Geocoder
	logger   *logrus.Logger
	city     string
}

type VisitRequest struct {
	InterestStatus string `json:"interest_status" binding:"required"`
	Notes          string `json:"notes"`
}

type PriorityRequest struct {
	IsPriority *bool `json:"is_priority" binding:"required"`
}

type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

// WardSummary is a ward row with its derived percentages
type WardSummary struct {
	models.WardStats
	CompletionPercent float64 `json:"completion_percent"`
	ConversionPercent float64 `json:"conversion_percent"`
}

func NewHandler(db *database.Database, svc *survey.Service, geocoder database.Geocoder, logger *logrus.Logger, city string) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:       db,
		survey:   svc,
		geocoder: geocoder,
		logger:   logger,
		city:     city,
	}
}

func (h *Handler) ListVenues(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	venues, err := h.survey.List(survey.ListOptions{
		Filter: filter,
		Quick:  c.Query("quick"),
		Search: c.Query("q"),
		Sort:   survey.SortOrder(c.Query("sort")),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to list venues")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list venues"})
		return
	}

	c.JSON(http.StatusOK, venues)
}

func (h *Handler) GetVenue(c *gin.Context) {
	id, ok := venueID(c)
	if !ok {
		return
	}

	venue, err := h.db.GetVenueByID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get venue")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get venue"})
		return
	}
	if venue == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Venue not found"})
		return
	}

	c.JSON(http.StatusOK, venue)
}

func (h *Handler) UpdateVenue(c *gin.Context) {
	id, ok := venueID(c)
	if !ok {
		return
	}

	var update models.VenueUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	venue, err := h.db.UpdateVenue(id, update)
	h.respondVenue(c, venue, err, "Failed to update venue")
}

func (h *Handler) MarkVisited(c *gin.Context) {
	id, ok := venueID(c)
	if !ok {
		return
	}

	var req VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	interest, err := models.ParseInterestStatus(req.InterestStatus)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	venue, err := h.survey.MarkVisited(id, interest, req.Notes)
	h.respondVenue(c, venue, err, "Failed to mark venue as visited")
}

func (h *Handler) EditStatus(c *gin.Context) {
	id, ok := venueID(c)
	if !ok {
		return
	}

	var req VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	interest, err := models.ParseInterestStatus(req.InterestStatus)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	venue, err := h.survey.EditStatus(id, interest, req.Notes)
	h.respondVenue(c, venue, err, "Failed to update status")
}

func (h *Handler) SetPriority(c *gin.Context) {
	id, ok := venueID(c)
	if !ok {
		return
	}

	var req PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	venue, err := h.survey.SetPriority(id, *req.IsPriority)
	h.respondVenue(c, venue, err, "Failed to set priority")
}

func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.db.GetStatistics()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get statistics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetWardStatistics(c *gin.Context) {
	wards, err := h.db.GetWardStatistics()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get ward statistics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get ward statistics"})
		return
	}

	summaries := make([]WardSummary, 0, len(wards))
	for _, w := range wards {
		summaries = append(summaries, WardSummary{
			WardStats:         w,
			CompletionPercent: w.CompletionPercent(),
			ConversionPercent: w.ConversionPercent(),
		})
	}

	c.JSON(http.StatusOK, summaries)
}

// GetFilterOptions returns the values the venue filters can take
func (h *Handler) GetFilterOptions(c *gin.Context) {
	columns := map[string]string{
		"wards":            "search_ward",
		"postcode_sectors": "search_postcode_sector",
		"amenities":        "amenity",
		"cuisines":         "cuisine",
	}

	options := gin.H{}
	for key, column := range columns {
		values, err := h.db.GetDistinctValues(column)
		if err != nil {
			h.logger.WithError(err).WithField("column", column).Error("Failed to get filter options")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get filter options"})
			return
		}
		options[key] = values
	}

	c.JSON(http.StatusOK, options)
}

func (h *Handler) GetMap(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user *orb.Point
	if c.Query("lat") != "" || c.Query("lng") != "" {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		if latErr != nil || lngErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must both be numbers"})
			return
		}
		user = &orb.Point{lng, lat}
	}

	venues, err := h.survey.List(survey.ListOptions{Filter: filter, Quick: c.Query("quick")})
	if err != nil {
		h.logger.WithError(err).Error("Failed to load map venues")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load map"})
		return
	}

	c.JSON(http.StatusOK, mapview.BuildFeatureCollection(venues, user))
}

func (h *Handler) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A CSV file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.WithError(err).Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	records, err := csvio.ReadRecords(file)
	if err != nil {
		h.logger.WithError(err).WithField("filename", fileHeader.Filename).Warn("Rejected CSV upload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.db.ImportFromCSV(records)
	if err != nil {
		h.logger.WithError(err).Error("Failed to import venues")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import venues"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ExportCSV(c *gin.Context) {
	kind, err := survey.ParseExportKind(c.Query("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	export, err := h.survey.Export(kind, survey.ExportOptions{
		Ward:    c.Query("ward"),
		Amenity: c.Query("amenity"),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to export venues")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export venues"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+export.Filename+"\"")
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := csvio.WriteVenues(c.Writer, export.Venues); err != nil {
		h.logger.WithError(err).Error("Failed to write export")
	}
}

func (h *Handler) ResetSurvey(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reset must be confirmed"})
		return
	}

	affected, err := h.survey.Reset()
	if err != nil {
		h.logger.WithError(err).Error("Failed to reset survey data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset survey data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": affected})
}

func (h *Handler) UpdateCoordinates(c *gin.Context) {
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding is not configured"})
		return
	}

	result, err := h.db.UpdateMissingCoordinates(h.geocoder, h.city)
	if err != nil {
		h.logger.WithError(err).Error("Failed to update coordinates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coordinates"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) respondVenue(c *gin.Context, venue *models.Venue, err error, failure string) {
	switch {
	case errors.Is(err, models.ErrNonUpdatableColumn),
		errors.Is(err, models.ErrInvalidColumnValue),
		errors.Is(err, models.ErrInvalidInterestStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, survey.ErrNotVisited):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.WithError(err).Error(failure)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failure})
	case venue == nil:
		c.JSON(http.StatusNotFound, gin.H{"error": "Venue not found"})
	default:
		c.JSON(http.StatusOK, venue)
	}
}

func venueID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venue id"})
		return 0, false
	}
	return id, true
}

// parseFilter reads venue filter criteria from the query string. An absent
// business_status keeps the operational default, "any" disables it.
func parseFilter(c *gin.Context) (models.VenueFilter, error) {
	filter := models.VenueFilter{
		Ward:           c.Query("ward"),
		PostcodeSector: c.Query("postcode_sector"),
		Amenity:        c.Query("amenity"),
		Cuisine:        c.Query("cuisine"),
	}

	if raw := c.Query("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, errors.New("min_rating must be a number")
		}
		filter.MinRating = rating
	}

	if raw := c.Query("visited"); raw != "" {
		visited, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("visited must be true or false")
		}
		filter.Visited = &visited
	}

	if raw := c.Query("interest_status"); raw != "" && raw != models.AllSentinel {
		interest, err := models.ParseInterestStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.InterestStatus = &interest
	}

	if raw, ok := c.GetQuery("business_status"); ok {
		if strings.EqualFold(raw, "any") {
			filter.BusinessStatus = models.AnyBusinessStatus()
		} else {
			filter.BusinessStatus = &raw
		}
	}

	return survey.StatusFilter(filter, c.Query("status")), nil
}
