package extract

import "testing"

func TestExtractVitals(t *testing.T) {
	got := ExtractVitals("Blood pressure is 128/82, pulse is 76, SpO2 is 98%")

	if got.BP != "128/82" {
		t.Errorf("BP = %q, want 128/82", got.BP)
	}
	if got.Pulse != "76 bpm" {
		t.Errorf("Pulse = %q, want 76 bpm", got.Pulse)
	}
	if got.SpO2 != "98%" {
		t.Errorf("SpO2 = %q, want 98%%", got.SpO2)
	}
	if got.Height != PlaceholderHeight {
		t.Errorf("Height = %q, want placeholder", got.Height)
	}
	if got.Weight != PlaceholderWeight {
		t.Errorf("Weight = %q, want placeholder", got.Weight)
	}
}

func TestExtractVitalsVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Vitals
	}{
		{
			name: "saturation without percent sign",
			text: "Saturation at 97 on room air",
			want: Vitals{SpO2: "97%", BP: PlaceholderBP, Pulse: PlaceholderPulse, Height: PlaceholderHeight, Weight: PlaceholderWeight},
		},
		{
			name: "abbreviated blood pressure",
			text: "BP is 140/90 today",
			want: Vitals{SpO2: PlaceholderSpO2, BP: "140/90", Pulse: PlaceholderPulse, Height: PlaceholderHeight, Weight: PlaceholderWeight},
		},
		{
			name: "heart rate alias",
			text: "Heart rate is 102, patient anxious",
			want: Vitals{SpO2: PlaceholderSpO2, BP: PlaceholderBP, Pulse: "102 bpm", Height: PlaceholderHeight, Weight: PlaceholderWeight},
		},
		{
			name: "height and weight with units",
			text: "Height is 172 cm and weight is 68.5 kg",
			want: Vitals{SpO2: PlaceholderSpO2, BP: PlaceholderBP, Pulse: PlaceholderPulse, Height: "172 cm", Weight: "68.5 kg"},
		},
		{
			name: "mixed case",
			text: "SPO2 IS 95%, BLOOD PRESSURE IS 118/76",
			want: Vitals{SpO2: "95%", BP: "118/76", Pulse: PlaceholderPulse, Height: PlaceholderHeight, Weight: PlaceholderWeight},
		},
		{
			name: "no vitals mentioned",
			text: "Patient reports mild seasonal allergies.",
			want: Vitals{SpO2: PlaceholderSpO2, BP: PlaceholderBP, Pulse: PlaceholderPulse, Height: PlaceholderHeight, Weight: PlaceholderWeight},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractVitals(tc.text); got != tc.want {
				t.Errorf("ExtractVitals(%q) = %+v, want %+v", tc.text, got, tc.want)
			}
		})
	}
}

func TestSplitMedication(t *testing.T) {
	narrative, medication := SplitMedication(
		"Patient presents with seasonal rhinitis. Medication: Cetirizine 10mg once daily for 7 days.")

	if narrative != "Patient presents with seasonal rhinitis." {
		t.Errorf("narrative = %q", narrative)
	}
	if medication != "Cetirizine 10mg once daily for 7 days." {
		t.Errorf("medication = %q", medication)
	}
}

func TestSplitMedicationEarliestMarkerWins(t *testing.T) {
	narrative, medication := SplitMedication(
		"Assessment done. Rx: Paracetamol 500mg. Prescription: ignore this half.")

	if narrative != "Assessment done." {
		t.Errorf("narrative = %q", narrative)
	}
	if medication != "Paracetamol 500mg. Prescription: ignore this half." {
		t.Errorf("medication = %q", medication)
	}
}

func TestSplitMedicationCaseInsensitive(t *testing.T) {
	_, medication := SplitMedication("Plan follows. TAKE THE FOLLOWING: Amoxicillin 250mg.")
	if medication != "Amoxicillin 250mg." {
		t.Errorf("medication = %q", medication)
	}
}

func TestSplitMedicationNoMarker(t *testing.T) {
	narrative, medication := SplitMedication("  Routine check-up, no concerns.  ")
	if narrative != "Routine check-up, no concerns." {
		t.Errorf("narrative = %q", narrative)
	}
	if medication != "" {
		t.Errorf("medication = %q, want empty", medication)
	}
}

func TestFields(t *testing.T) {
	got := Fields("Pulse is 88 and SpO2 is 96%. Rx: Ibuprofen 400mg as needed.")

	if got.Narrative != "Pulse is 88 and SpO2 is 96%." {
		t.Errorf("narrative = %q", got.Narrative)
	}
	if got.Medication != "Ibuprofen 400mg as needed." {
		t.Errorf("medication = %q", got.Medication)
	}
	if got.Vitals.Pulse != "88 bpm" || got.Vitals.SpO2 != "96%" {
		t.Errorf("vitals = %+v", got.Vitals)
	}
}
