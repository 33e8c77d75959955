package survey

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"venuesurvey/server/internal/csvio"
	"venuesurvey/server/internal/models"
)

var (
	ErrUnknownExportType = errors.New("unknown export type")
	ErrNotVisited        = errors.New("venue has not been visited")
)

// Store is the venue store surface the survey workflow relies on
type Store interface {
	GetAllVenues() ([]models.Venue, error)
	GetVenueByID(id int64) (*models.Venue, error)
	UpdateVenue(id int64, update models.VenueUpdate) (*models.Venue, error)
	FilterVenues(filter models.VenueFilter) ([]models.Venue, error)
	ResetSurveyData() (int64, error)
}

type Service struct {
	store        Store
	logger       *logrus.Logger
	now          func() time.Time
	exportPrefix string
}

func NewService(store Store, logger *logrus.Logger, exportPrefix string) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Service{
		store:        store,
		logger:       logger,
		now:          time.Now,
		exportPrefix: exportPrefix,
	}
}

// MarkVisited records a completed visit. visited and visit_date are always
// written together.
func (s *Service) MarkVisited(id int64, interest models.InterestStatus, notes string) (*models.Venue, error) {
	if _, err := models.ParseInterestStatus(string(interest)); err != nil {
		return nil, err
	}

	venue, err := s.store.UpdateVenue(id, models.VenueUpdate{
		"visited":         true,
		"visit_date":      s.now(),
		"interest_status": interest,
		"notes":           notes,
	})
	if err != nil {
		return nil, err
	}
	if venue != nil {
		s.logger.WithFields(logrus.Fields{
			"venue_id": id,
			"interest": interest,
		}).Info("Marked venue as visited")
	}
	return venue, nil
}

// EditStatus changes the interest outcome and notes of a visit without
// touching the visit itself. Venues not yet visited return ErrNotVisited.
func (s *Service) EditStatus(id int64, interest models.InterestStatus, notes string) (*models.Venue, error) {
	if _, err := models.ParseInterestStatus(string(interest)); err != nil {
		return nil, err
	}

	venue, err := s.store.GetVenueByID(id)
	if err != nil || venue == nil {
		return nil, err
	}
	if !venue.Visited {
		return nil, fmt.Errorf("%w: %d", ErrNotVisited, id)
	}

	return s.store.UpdateVenue(id, models.VenueUpdate{
		"interest_status": interest,
		"notes":           notes,
	})
}

func (s *Service) SetPriority(id int64, priority bool) (*models.Venue, error) {
	return s.store.UpdateVenue(id, models.VenueUpdate{"is_priority": priority})
}

// Reset clears survey state on every venue
func (s *Service) Reset() (int64, error) {
	return s.store.ResetSurveyData()
}

// StatusFilter maps a survey status picker label onto filter criteria.
// Unknown labels and "All" leave the filter unchanged.
func StatusFilter(filter models.VenueFilter, label string) models.VenueFilter {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "not visited", "not_visited":
		visited := false
		filter.Visited = &visited
	case "visited":
		visited := true
		filter.Visited = &visited
	case "interested":
		filter.InterestStatus = models.Interested.Ptr()
	case "not interested", "not_interested":
		filter.InterestStatus = models.NotInterested.Ptr()
	}
	return filter
}

// SortOrder selects how venue listings are ordered
type SortOrder string

const (
	SortByName      SortOrder = "name"
	SortByRating    SortOrder = "rating"
	SortByVisitDate SortOrder = "visit_date"
)

// ListOptions narrows and orders a venue listing
type ListOptions struct {
	Filter models.VenueFilter

	// Quick is a dashboard shortcut applied after the filter:
	// "interested", "not_visited" or "not_interested".
	Quick string

	// Search is matched case-insensitively against the venue name
	Search string

	Sort SortOrder
}

// List returns the filtered, searched and sorted venues.
func (s *Service) List(opts ListOptions) ([]models.Venue, error) {
	venues, err := s.store.FilterVenues(opts.Filter)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(opts.Search))
	kept := venues[:0]
	for _, v := range venues {
		if !matchesQuick(&v, opts.Quick) {
			continue
		}
		if query != "" && (v.GoogleName == nil || !strings.Contains(strings.ToLower(*v.GoogleName), query)) {
			continue
		}
		kept = append(kept, v)
	}

	sortVenues(kept, opts.Sort)
	return kept, nil
}

func matchesQuick(v *models.Venue, quick string) bool {
	switch quick {
	case "interested":
		return v.HasInterest(models.Interested)
	case "not_visited":
		return !v.Visited
	case "not_interested":
		return v.HasInterest(models.NotInterested)
	}
	return true
}

func sortVenues(venues []models.Venue, order SortOrder) {
	switch order {
	case SortByName:
		sort.SliceStable(venues, func(i, j int) bool {
			return nameOf(&venues[i]) < nameOf(&venues[j])
		})
	case SortByRating:
		sort.SliceStable(venues, func(i, j int) bool {
			return ratingOf(&venues[i]) > ratingOf(&venues[j])
		})
	case SortByVisitDate:
		sort.SliceStable(venues, func(i, j int) bool {
			a, b := venues[i].VisitDate, venues[j].VisitDate
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return a.After(*b)
		})
	}
}

func nameOf(v *models.Venue) string {
	if v.GoogleName == nil {
		return ""
	}
	return *v.GoogleName
}

func ratingOf(v *models.Venue) float64 {
	if v.GoogleRating == nil {
		return 0
	}
	return *v.GoogleRating
}

// ExportKind names a predefined export selection
type ExportKind string

const (
	ExportAll           ExportKind = "all"
	ExportHotLeads      ExportKind = "hot_leads"
	ExportNotInterested ExportKind = "not_interested"
	ExportNotVisited    ExportKind = "not_visited"
	ExportVisited       ExportKind = "visited"
	ExportCustom        ExportKind = "custom"
)

// ParseExportKind validates an export type name
func ParseExportKind(s string) (ExportKind, error) {
	switch k := ExportKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ExportAll, ExportHotLeads, ExportNotInterested, ExportNotVisited, ExportVisited, ExportCustom:
		return k, nil
	case "":
		return ExportAll, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExportType, s)
}

// Export is a selection of venues ready to be written out
type Export struct {
	Kind     ExportKind
	Filename string
	Venues   []models.Venue
}

// ExportOptions carries the criteria of a custom export
type ExportOptions struct {
	Ward    string
	Amenity string
}

// Export selects venues for the given kind. "all" returns every stored
// venue regardless of business status; the other kinds go through the
// default listing filter.
func (s *Service) Export(kind ExportKind, opts ExportOptions) (*Export, error) {
	var (
		venues []models.Venue
		err    error
	)

	switch kind {
	case ExportAll:
		venues, err = s.store.GetAllVenues()
	case ExportHotLeads:
		venues, err = s.store.FilterVenues(models.VenueFilter{InterestStatus: models.Interested.Ptr()})
	case ExportNotInterested:
		venues, err = s.store.FilterVenues(models.VenueFilter{InterestStatus: models.NotInterested.Ptr()})
	case ExportNotVisited:
		visited := false
		venues, err = s.store.FilterVenues(models.VenueFilter{Visited: &visited})
	case ExportVisited:
		visited := true
		venues, err = s.store.FilterVenues(models.VenueFilter{Visited: &visited})
	case ExportCustom:
		venues, err = s.store.FilterVenues(models.VenueFilter{Ward: opts.Ward, Amenity: opts.Amenity})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExportType, kind)
	}
	if err != nil {
		return nil, err
	}

	return &Export{
		Kind:     kind,
		Filename: csvio.ExportFilename(s.exportPrefix, string(kind), s.now()),
		Venues:   venues,
	}, nil
}
