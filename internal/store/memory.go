// Package store keeps consultation state in process memory. Durability is
// explicitly out of scope; a restart starts from a clean slate.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/deepakbalivada04/MediConvo/internal/live"
)

// Patient is a demographic identity. Registration does not validate against
// any backing system; a duplicate id simply overwrites the earlier entry.
type Patient struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DateOfBirth     time.Time `json:"dateOfBirth,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	Address         string    `json:"address,omitempty"`
	PrimaryLanguage string    `json:"primaryLanguage"`
	RegisteredAt    time.Time `json:"registeredAt"`
}

// RecordStatus marks whether a consultation record carries its summary.
type RecordStatus string

const (
	StatusCompleted RecordStatus = "completed"

	// StatusPending marks a record saved before its summary could be
	// generated.
	StatusPending RecordStatus = "pending"
)

// ConsultationRecord is created exactly once, at session end, and is
// immutable afterwards.
type ConsultationRecord struct {
	ID         string             `json:"id"`
	PatientID  string             `json:"patientId"`
	Date       time.Time          `json:"date"`
	Transcript []live.ChatMessage `json:"transcript"`
	Summary    string             `json:"summary"`
	Status     RecordStatus       `json:"status"`
}

// LanguageCount is one slice of the dashboard language distribution.
type LanguageCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DailyCount is one day of consultation activity.
type DailyCount struct {
	Day           string `json:"day"`
	Consultations int    `json:"consultations"`
}

// DashboardStats aggregates activity for the dashboard view.
type DashboardStats struct {
	TotalConsultations   int             `json:"totalConsultations"`
	AvgDurationMinutes   float64         `json:"avgDurationMinutes"`
	LanguageDistribution []LanguageCount `json:"languageDistribution"`
	DailyActivity        []DailyCount    `json:"dailyActivity"`
}

// Memory is the in-process store. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	patients map[string]Patient
	records  []ConsultationRecord
	stats    DashboardStats
	daily    map[string]int
}

// NewMemory returns an empty store with the dashboard language slices
// pre-seeded so the distribution chart always has its axes.
func NewMemory() *Memory {
	return &Memory{
		patients: make(map[string]Patient),
		daily:    make(map[string]int),
		stats: DashboardStats{
			LanguageDistribution: []LanguageCount{
				{Name: "Telugu"},
				{Name: "Hindi"},
				{Name: "Odia"},
			},
		},
	}
}

// NewRecordID mints a consultation record id.
func NewRecordID() string {
	return fmt.Sprintf("CONS-%d", time.Now().UnixMilli())
}

// UpsertPatient registers a patient, overwriting any existing entry with
// the same id.
func (m *Memory) UpsertPatient(p Patient) {
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
}

// GetPatient looks a patient up by id.
func (m *Memory) GetPatient(id string) (Patient, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[id]
	return p, ok
}

// Patients lists registered patients sorted by id.
func (m *Memory) Patients() []Patient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Patient, 0, len(m.patients))
	for _, p := range m.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddRecord stores a finished consultation, newest first, and folds the
// session into the dashboard stats. The patient's primary language bumps
// its distribution slice; unknown languages leave the distribution alone.
func (m *Memory) AddRecord(rec ConsultationRecord, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append([]ConsultationRecord{rec}, m.records...)

	n := float64(m.stats.TotalConsultations)
	minutes := duration.Minutes()
	m.stats.AvgDurationMinutes = (m.stats.AvgDurationMinutes*n + minutes) / (n + 1)
	m.stats.TotalConsultations++

	if p, ok := m.patients[rec.PatientID]; ok {
		for i := range m.stats.LanguageDistribution {
			if m.stats.LanguageDistribution[i].Name == p.PrimaryLanguage {
				m.stats.LanguageDistribution[i].Value++
			}
		}
	}

	day := rec.Date.Format("Mon")
	m.daily[day]++
	m.rebuildDailyLocked()
}

// GetRecord looks a record up by id.
func (m *Memory) GetRecord(id string) (ConsultationRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return ConsultationRecord{}, false
}

// Records lists consultations newest first.
func (m *Memory) Records() []ConsultationRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ConsultationRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Stats returns a copy of the dashboard aggregates.
func (m *Memory) Stats() DashboardStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.stats
	out.LanguageDistribution = make([]LanguageCount, len(m.stats.LanguageDistribution))
	copy(out.LanguageDistribution, m.stats.LanguageDistribution)
	out.DailyActivity = make([]DailyCount, len(m.stats.DailyActivity))
	copy(out.DailyActivity, m.stats.DailyActivity)
	return out
}

var weekDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (m *Memory) rebuildDailyLocked() {
	m.stats.DailyActivity = m.stats.DailyActivity[:0]
	for _, day := range weekDays {
		if count, ok := m.daily[day]; ok {
			m.stats.DailyActivity = append(m.stats.DailyActivity, DailyCount{Day: day, Consultations: count})
		}
	}
}
