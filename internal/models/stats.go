package models

// VenueStats summarises survey progress over every stored venue
type VenueStats struct {
	Total          int64   `json:"total"`
	Visited        int64   `json:"visited"`
	NotVisited     int64   `json:"not_visited"`
	Interested     int64   `json:"interested"`
	NotInterested  int64   `json:"not_interested"`
	ConversionRate float64 `json:"conversion_rate"`
}

// NewVenueStats derives the not-visited count and conversion rate from the raw counts.
func NewVenueStats(total, visited, interested, notInterested int64) VenueStats {
	return VenueStats{
		Total:          total,
		Visited:        visited,
		NotVisited:     total - visited,
		Interested:     interested,
		NotInterested:  notInterested,
		ConversionRate: percent(interested, visited),
	}
}

// WardStats is one row of the coverage-by-ward rollup. Ward is nil for
// venues without a ward tag.
type WardStats struct {
	Ward          *string `json:"ward"`
	Total         int64   `json:"total"`
	Visited       int64   `json:"visited"`
	Interested    int64   `json:"interested"`
	NotInterested int64   `json:"not_interested"`
}

// CompletionPercent is the share of the ward already visited
func (w WardStats) CompletionPercent() float64 {
	return percent(w.Visited, w.Total)
}

// ConversionPercent is the share of visited venues that were interested
func (w WardStats) ConversionPercent() float64 {
	return percent(w.Interested, w.Visited)
}

// ImportResult carries the counters reported back after a CSV import
type ImportResult struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
}

func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
