package models

// AllSentinel is the picker value meaning "do not filter on this field"
const AllSentinel = "All"

// VenueFilter holds the criteria used to narrow venue listings. All
// supplied criteria must match.
type VenueFilter struct {
	Ward           string
	PostcodeSector string
	Amenity        string
	Cuisine        string

	// MinRating is an inclusive lower bound; zero or below disables it
	MinRating float64

	Visited        *bool
	InterestStatus *InterestStatus

	// BusinessStatus is tri-state: nil narrows to DefaultBusinessStatus,
	// a pointer to "" disables the constraint, anything else is matched exactly.
	BusinessStatus *string
}

// AnyBusinessStatus returns a BusinessStatus value that disables the
// business status constraint.
func AnyBusinessStatus() *string {
	s := ""
	return &s
}

// EffectiveBusinessStatus resolves the tri-state business status. The
// boolean is false when no constraint should be applied.
func (f VenueFilter) EffectiveBusinessStatus() (string, bool) {
	if f.BusinessStatus == nil {
		return DefaultBusinessStatus, true
	}
	if *f.BusinessStatus == "" {
		return "", false
	}
	return *f.BusinessStatus, true
}

// Active reports whether an exact-match picker value should constrain the query.
func Active(value string) bool {
	return value != "" && value != AllSentinel
}
