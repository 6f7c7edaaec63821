package extract

import (
	"regexp"
	"strings"
)

// medicationMarkers delimit where a summary's narrative ends and its
// medication plan begins. Matched case-insensitively; the earliest marker
// in the text wins.
var medicationMarkers = []string{
	"medication:",
	"rx:",
	"prescription:",
	"take the following:",
}

var markerPrefix = regexp.MustCompile(`(?i)^(medication:|rx:|prescription:|take the following:)`)

// ClinicalFields is a summary split into its prescription sections.
type ClinicalFields struct {
	Narrative  string `json:"narrative"`
	Medication string `json:"medication"`
	Vitals     Vitals `json:"vitals"`
}

// SplitMedication divides summary text at the first medication marker. The
// marker itself belongs to neither half. Without a marker the whole text is
// narrative and the medication section is empty.
func SplitMedication(text string) (narrative, medication string) {
	lower := strings.ToLower(text)
	cut := -1
	for _, marker := range medicationMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 && (cut < 0 || idx < cut) {
			cut = idx
		}
	}
	if cut < 0 {
		return strings.TrimSpace(text), ""
	}

	narrative = strings.TrimSpace(text[:cut])
	medication = strings.TrimSpace(markerPrefix.ReplaceAllString(text[cut:], ""))
	return narrative, medication
}

// Fields extracts all prescription sections from a clinical summary.
func Fields(summary string) ClinicalFields {
	narrative, medication := SplitMedication(summary)
	return ClinicalFields{
		Narrative:  narrative,
		Medication: medication,
		Vitals:     ExtractVitals(summary),
	}
}
