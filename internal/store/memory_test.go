package store

import (
	"testing"
	"time"

	"github.com/deepakbalivada04/MediConvo/internal/live"
)

func testRecord(id, patientID string) ConsultationRecord {
	return ConsultationRecord{
		ID:        id,
		PatientID: patientID,
		Date:      time.Date(2026, time.August, 24, 10, 0, 0, 0, time.UTC), // a Monday
		Transcript: []live.ChatMessage{
			{Role: live.RoleUser, Text: "hello", Timestamp: time.Now()},
		},
		Summary: "summary",
		Status:  StatusCompleted,
	}
}

func TestUpsertPatientOverwrites(t *testing.T) {
	m := NewMemory()
	m.UpsertPatient(Patient{ID: "PT-1", Name: "First", PrimaryLanguage: "Telugu"})
	m.UpsertPatient(Patient{ID: "PT-1", Name: "Second", PrimaryLanguage: "Hindi"})

	got, ok := m.GetPatient("PT-1")
	if !ok {
		t.Fatal("patient not found")
	}
	if got.Name != "Second" || got.PrimaryLanguage != "Hindi" {
		t.Errorf("duplicate id did not overwrite: %+v", got)
	}
	if len(m.Patients()) != 1 {
		t.Errorf("expected 1 patient, got %d", len(m.Patients()))
	}
}

func TestAddRecordNewestFirst(t *testing.T) {
	m := NewMemory()
	m.AddRecord(testRecord("CONS-1", "PT-1"), 5*time.Minute)
	m.AddRecord(testRecord("CONS-2", "PT-1"), 5*time.Minute)

	records := m.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "CONS-2" || records[1].ID != "CONS-1" {
		t.Errorf("records not newest first: %s, %s", records[0].ID, records[1].ID)
	}

	if _, ok := m.GetRecord("CONS-1"); !ok {
		t.Error("record lookup failed")
	}
	if _, ok := m.GetRecord("missing"); ok {
		t.Error("lookup of missing record succeeded")
	}
}

func TestStatsFoldInSessions(t *testing.T) {
	m := NewMemory()
	m.UpsertPatient(Patient{ID: "PT-1", Name: "A", PrimaryLanguage: "Telugu"})

	m.AddRecord(testRecord("CONS-1", "PT-1"), 10*time.Minute)
	m.AddRecord(testRecord("CONS-2", "PT-1"), 20*time.Minute)

	stats := m.Stats()
	if stats.TotalConsultations != 2 {
		t.Errorf("total = %d, want 2", stats.TotalConsultations)
	}
	if stats.AvgDurationMinutes != 15 {
		t.Errorf("avg duration = %v, want 15", stats.AvgDurationMinutes)
	}

	var telugu int
	for _, lc := range stats.LanguageDistribution {
		if lc.Name == "Telugu" {
			telugu = lc.Value
		}
	}
	if telugu != 2 {
		t.Errorf("Telugu count = %d, want 2", telugu)
	}

	if len(stats.DailyActivity) != 1 || stats.DailyActivity[0].Day != "Mon" || stats.DailyActivity[0].Consultations != 2 {
		t.Errorf("daily activity = %+v", stats.DailyActivity)
	}
}

func TestStatsUnknownPatientLanguage(t *testing.T) {
	m := NewMemory()
	m.AddRecord(testRecord("CONS-1", "unregistered"), time.Minute)

	for _, lc := range m.Stats().LanguageDistribution {
		if lc.Value != 0 {
			t.Errorf("distribution changed for unregistered patient: %+v", lc)
		}
	}
}

func TestStatsReturnsCopy(t *testing.T) {
	m := NewMemory()
	stats := m.Stats()
	stats.LanguageDistribution[0].Value = 99

	if m.Stats().LanguageDistribution[0].Value != 0 {
		t.Error("mutating returned stats leaked into the store")
	}
}
