package document

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testPrescription() Prescription {
	return Prescription{
		RecordID:      "REC-1001",
		PatientName:   "Ravi Kumar",
		PatientDOB:    time.Date(1988, time.March, 14, 0, 0, 0, 0, time.UTC),
		PatientGender: "Male",
		Summary:       "Blood pressure is 128/82, pulse is 76. Mild viral fever. Medication: Paracetamol 500mg twice daily for 3 days.",
		Date:          time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC),
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	dob := time.Date(1988, time.December, 31, 0, 0, 0, 0, time.UTC)
	// Calendar-year difference, not birthday-adjusted.
	if got := Age(dob, now); got != 38 {
		t.Errorf("Age = %d, want 38", got)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("REC-42"); got != "PRESCRIPTION-REC-42.pdf" {
		t.Errorf("Filename = %q", got)
	}
}

func TestRender(t *testing.T) {
	data, err := Render(testPrescription())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output does not start with PDF magic: %q", data[:8])
	}
}

func TestRenderWithoutMedication(t *testing.T) {
	p := testPrescription()
	p.Summary = "Routine follow-up, no concerns."
	data, err := Render(p)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty output")
	}
}

func TestRenderMissingDemographics(t *testing.T) {
	p := Prescription{
		RecordID: "REC-2",
		Summary:  "No vitals recorded.",
		Date:     time.Now(),
	}
	if _, err := Render(p); err != nil {
		t.Fatalf("render with missing demographics: %v", err)
	}
}

func TestSaveToDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	path, err := SaveToDir(testPrescription(), dir)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "PRESCRIPTION-REC-1001.pdf" {
		t.Errorf("unexpected filename %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("saved file is not a PDF")
	}
}
