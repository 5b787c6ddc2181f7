// Package pdf renders printable documents.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"elderlink/internal/models"
)

// RenderPrescription produces an A4 PDF of the prescription and its items.
func RenderPrescription(p *models.Prescription) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 10, 10)
	doc.SetTitle("Prescription "+p.ID.String(), true)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Arial", "B", 16)
	doc.SetTextColor(20, 60, 120)
	doc.CellFormat(0, 10, "ElderLink - Prescription", "", 1, "C", false, 0, "")

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Arial", "B", 12)
	doc.CellFormat(0, 10, "Details", "1", 1, "C", false, 0, "")
	addDetail(doc, tr, "Prescription ID", p.ID.String())
	addDetail(doc, tr, "Patient", p.ElderName)
	addDetail(doc, tr, "Doctor", p.DoctorName)
	addDetail(doc, tr, "Issued", p.IssuedAt.Format("2006-01-02"))
	addDetail(doc, tr, "Status", string(p.Status))
	addDetail(doc, tr, "Diagnosis", p.Diagnosis)
	if p.Notes != nil && strings.TrimSpace(*p.Notes) != "" {
		addDetail(doc, tr, "Notes", *p.Notes)
	}

	doc.Ln(4)
	doc.SetFont("Arial", "B", 11)
	doc.SetFillColor(230, 230, 230)
	widths := []float64{60, 35, 45, 25, 25}
	headers := []string{"Medicine", "Dosage", "Frequency", "Days", "Qty"}
	for i, h := range headers {
		doc.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 10)
	for _, item := range p.Items {
		doc.CellFormat(widths[0], 8, tr(item.MedicineName), "1", 0, "", false, 0, "")
		doc.CellFormat(widths[1], 8, tr(item.Dosage), "1", 0, "", false, 0, "")
		doc.CellFormat(widths[2], 8, tr(item.Frequency), "1", 0, "", false, 0, "")
		doc.CellFormat(widths[3], 8, fmt.Sprintf("%d", item.DurationDays), "1", 0, "C", false, 0, "")
		doc.CellFormat(widths[4], 8, fmt.Sprintf("%d", item.Quantity), "1", 1, "C", false, 0, "")
	}

	doc.SetY(doc.GetY() + 12)
	doc.SetFont("Arial", "I", 9)
	doc.CellFormat(0, 10, "This is a computer generated prescription", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addDetail(doc *gofpdf.Fpdf, tr func(string) string, label, value string) {
	doc.SetFont("Arial", "B", 10)
	doc.CellFormat(45, 8, label, "1", 0, "", false, 0, "")
	doc.SetFont("Arial", "", 10)
	doc.MultiCell(0, 8, tr(value), "1", "", false)
}
