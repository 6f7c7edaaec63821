// Package document renders printable consultation artifacts. The only
// artifact today is the prescription sheet generated from a saved record.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/deepakbalivada04/MediConvo/internal/extract"
	"github.com/deepakbalivada04/MediConvo/internal/observability"
)

// DefaultPrescriberLicense is printed until prescriber profiles carry a
// real license number.
const DefaultPrescriberLicense = "MD-A12345"

// Prescription carries everything the rendered sheet needs.
type Prescription struct {
	RecordID      string
	PatientName   string
	PatientDOB    time.Time // zero value prints as N/A
	PatientGender string
	Summary       string
	Date          time.Time
}

// Age is the calendar-year difference between birth and now. Birthdays
// within the year are ignored on purpose; the sheet only needs a rough age.
func Age(dob, now time.Time) int {
	return now.Year() - dob.Year()
}

// Filename is the canonical download name for a prescription sheet.
func Filename(recordID string) string {
	return fmt.Sprintf("PRESCRIPTION-%s.pdf", recordID)
}

// Render lays out the prescription as a single A4 page and returns the PDF
// bytes. The summary is split into narrative and medication halves; vitals
// found in the text are filled in, missing ones print as blank lines.
func Render(p Prescription) ([]byte, error) {
	fields := extract.Fields(p.Summary)

	age := "N/A"
	if !p.PatientDOB.IsZero() {
		age = strconv.Itoa(Age(p.PatientDOB, p.Date))
	}
	name := p.PatientName
	if name == "" {
		name = "N/A"
	}
	gender := p.PatientGender
	if gender == "" {
		gender = "N/A"
	}
	date := fmt.Sprintf("%d/%d/%d", int(p.Date.Month()), p.Date.Day(), p.Date.Year())

	pdf := gofpdf.New("P", "mm", "A4", "")
	_, pageHeight := pdf.GetPageSize()
	pdf.SetFooterFunc(func() {
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(100, 100, 100)
		pdf.Text(10, pageHeight-10, "This document is generated by the MediConvo Medical Translation System.")
		pdf.Text(10, pageHeight-5, "THANK YOU")
	})
	pdf.AddPage()
	pdf.SetTextColor(0, 0, 0)

	// Top of the page stays blank for the hospital letterhead stamp.
	y := 90.0

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(150, y, "Date: "+date)
	pdf.Text(150, y+5, "Record ID: "+p.RecordID)
	pdf.Line(10, y+10, 200, y+10)
	y += 15

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(10, y, "Patient Demographics")
	y += 7

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(10, y, "Name: "+name)
	pdf.Text(70, y, "Age: "+age)
	pdf.Text(100, y, "Gender: "+gender)
	y += 7

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(10, y, "Vitals:")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(40, y, "Height: "+fields.Vitals.Height)
	pdf.Text(100, y, "Weight: "+fields.Vitals.Weight)
	y += 7

	pdf.Text(40, y, "SpO2: "+fields.Vitals.SpO2)
	pdf.Text(80, y, "BP: "+fields.Vitals.BP)
	pdf.Text(130, y, "Pulse: "+fields.Vitals.Pulse)
	y += 15

	pdf.Line(10, y, 200, y)
	y += 10

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(10, y, "Diagnosis & Assessment:")
	pdf.SetFont("Helvetica", "", 10)
	y += 7

	narrativeLines := pdf.SplitText(fields.Narrative, 180)
	for i, line := range narrativeLines {
		pdf.Text(15, y+float64(i)*5, line)
	}
	y += float64(len(narrativeLines))*5 + 10

	pdf.Line(10, y-5, 200, y-5)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(10, y, "Rx")
	y += 8

	if fields.Medication != "" {
		pdf.SetFont("Helvetica", "", 10)
		medicationLines := pdf.SplitText(fields.Medication, 180)
		for i, line := range medicationLines {
			pdf.Text(15, y+float64(i)*5, line)
		}
		y += float64(len(medicationLines))*5 + 5
	} else {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Text(15, y, "Medications :")
		y += 5
		// Ruled lines for a handwritten prescription.
		for i := 0; i < 4; i++ {
			pdf.Line(15, y+float64(i)*5, 180, y+float64(i)*5)
		}
		y += 25
	}

	pdf.Line(130, y, 200, y)
	y += 5
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(140, y, "Prescriber's Signature")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render prescription %s: %w", p.RecordID, err)
	}
	observability.RecordDocumentRendered()
	return buf.Bytes(), nil
}

// SaveToDir renders the prescription and writes it under dir using the
// canonical filename. The directory is created if needed.
func SaveToDir(p Prescription, dir string) (string, error) {
	data, err := Render(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}
	path := filepath.Join(dir, Filename(p.RecordID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write prescription: %w", err)
	}
	return path, nil
}
