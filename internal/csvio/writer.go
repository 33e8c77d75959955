package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"venuesurvey/server/internal/models"
)

// VisitDateLayout is the timestamp format written for visit dates
const VisitDateLayout = "2006-01-02 15:04:05"

// ExportHeader is the fixed column order of exported files
var ExportHeader = []string{
	"ID",
	"Name",
	"Type",
	"Cuisine",
	"Ward",
	"Postcode",
	"Postcode Sector",
	"Address",
	"Phone",
	"Website",
	"Rating",
	"Total Reviews",
	"Price Level",
	"Latitude",
	"Longitude",
	"Business Status",
	"Visited",
	"Visit Date",
	"Interest Status",
	"Priority",
	"Notes",
	"Data Source",
}

// ExportRow flattens a venue into the ExportHeader column order
func ExportRow(v *models.Venue) []string {
	var interest string
	if v.InterestStatus != nil {
		interest = string(*v.InterestStatus)
	}
	var visitDate string
	if v.VisitDate != nil {
		visitDate = v.VisitDate.Format(VisitDateLayout)
	}

	return []string{
		strconv.FormatInt(v.ID, 10),
		deref(v.GoogleName),
		deref(v.Amenity),
		deref(v.Cuisine),
		deref(v.SearchWard),
		deref(v.Postcode),
		deref(v.SearchPostcodeSector),
		v.DisplayAddress(),
		v.DisplayPhone(),
		v.DisplayWebsite(),
		formatFloat(v.GoogleRating),
		formatInt(v.GoogleUserRatingsTotal),
		formatInt(v.GooglePriceLevel),
		formatFloat(v.GoogleLat),
		formatFloat(v.GoogleLng),
		deref(v.BusinessStatus),
		formatBool(v.Visited),
		visitDate,
		interest,
		formatBool(v.IsPriority),
		deref(v.Notes),
		deref(v.DataSource),
	}
}

// WriteVenues writes the header followed by one row per venue, in order.
func WriteVenues(out io.Writer, venues []models.Venue) error {
	w := csv.NewWriter(out)
	if err := w.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range venues {
		if err := w.Write(ExportRow(&venues[i])); err != nil {
			return fmt.Errorf("failed to write venue %d: %w", venues[i].ID, err)
		}
	}
	w.Flush()
	return w.Error()
}

// ExportFilename names an export file after its selection and generation time,
// e.g. "bristol_venues_hot_leads_20260214_093000.csv".
func ExportFilename(prefix, kind string, at time.Time) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(kind)), " ", "_")
	return fmt.Sprintf("%s_%s_%s.csv", prefix, slug, at.Format("20060102_150405"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
