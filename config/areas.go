package config

// SurveyArea describes the city a survey covers
type SurveyArea struct {
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Center    []float64 `json:"center"`
	ZoomLevel int       `json:"zoom_level"`
}

// SupportedAreas is a list of areas the survey can be run in
var SupportedAreas = []SurveyArea{
	{
		Name:      "Bristol",
		Country:   "United Kingdom",
		Center:    []float64{51.4545, -2.5879},
		ZoomLevel: 13,
	},
}

// DefaultArea is the area used when none is requested
func DefaultArea() SurveyArea {
	return SupportedAreas[0]
}

// GetAreaByName returns a survey area by name
func GetAreaByName(name string) *SurveyArea {
	for i := range SupportedAreas {
		if SupportedAreas[i].Name == name {
			return &SupportedAreas[i]
		}
	}
	return nil
}
