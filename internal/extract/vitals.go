// Package extract pulls structured clinical fields out of free-text
// summaries with lightweight pattern matching. It is a best-effort aid for
// the prescriber; missing values render as blank lines to fill by hand.
package extract

import (
	"regexp"
	"strings"
)

// Vitals holds the extracted measurements, already normalized for display.
// Fields that could not be found carry their write-in placeholder.
type Vitals struct {
	SpO2   string `json:"spo2"`
	BP     string `json:"bp"`
	Pulse  string `json:"pulse"`
	Height string `json:"height"`
	Weight string `json:"weight"`
}

// Placeholders used when a vital is not mentioned in the text.
const (
	PlaceholderSpO2   = "________%"
	PlaceholderBP     = "________mmHg"
	PlaceholderPulse  = "________bpm"
	PlaceholderHeight = "________ cm/in"
	PlaceholderWeight = "________ kg/lb"
)

var (
	spo2Pattern   = regexp.MustCompile(`(?i)(?:spo2|saturation)\s*(?:is|at)\s*(\d{1,3}[\s%]*)`)
	bpPattern     = regexp.MustCompile(`(?i)(?:blood\s*pressure|b\.p\.|bp)\s*is\s*(\d{2,3}\s*/\s*\d{2,3})`)
	pulsePattern  = regexp.MustCompile(`(?i)(?:pulse|heart\s*rate)\s*is\s*(\d{1,3})`)
	heightPattern = regexp.MustCompile(`(?i)height\s*is\s*([\d.]+\s*(?:cm|in))`)
	weightPattern = regexp.MustCompile(`(?i)weight\s*is\s*([\d.]+\s*(?:kg|lb))`)

	nonNumeric = regexp.MustCompile(`[^\d]`)
)

// ExtractVitals scans narrative text for vital-sign mentions. Matching is
// case-insensitive; each vital is independent of the others.
func ExtractVitals(text string) Vitals {
	v := Vitals{
		SpO2:   PlaceholderSpO2,
		BP:     PlaceholderBP,
		Pulse:  PlaceholderPulse,
		Height: PlaceholderHeight,
		Weight: PlaceholderWeight,
	}

	if m := spo2Pattern.FindStringSubmatch(text); m != nil {
		value := strings.TrimSpace(m[1])
		if !strings.HasSuffix(value, "%") {
			value += "%"
		}
		v.SpO2 = value
	}
	if m := bpPattern.FindStringSubmatch(text); m != nil {
		v.BP = strings.ReplaceAll(strings.TrimSpace(m[1]), " ", "")
	}
	if m := pulsePattern.FindStringSubmatch(text); m != nil {
		v.Pulse = nonNumeric.ReplaceAllString(m[1], "") + " bpm"
	}
	if m := heightPattern.FindStringSubmatch(text); m != nil {
		v.Height = strings.TrimSpace(m[1])
	}
	if m := weightPattern.FindStringSubmatch(text); m != nil {
		v.Weight = strings.TrimSpace(m[1])
	}
	return v
}
