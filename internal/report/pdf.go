// Package report renders interview results as PDF documents for
// recruiters.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/store"
)

// Data gathers everything one interview report needs.
type Data struct {
	Interview  *store.Interview
	Position   *store.Position
	Candidate  *store.Candidate
	Answers    []store.InterviewAnswer
	Transcript []store.TranscriptEntry
	Questions  map[string]string // question id -> text
}

// Render produces the interview report PDF.
func Render(d Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Interview Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	meta := [][2]string{
		{"Position", d.Position.Title},
		{"Candidate", fmt.Sprintf("%s %s", d.Candidate.FirstName, d.Candidate.LastName)},
		{"Status", d.Interview.Status},
	}
	if d.Interview.StartedAt != nil {
		meta = append(meta, [2]string{"Started", d.Interview.StartedAt.Format(time.RFC1123)})
	}
	if d.Interview.FinishedAt != nil {
		meta = append(meta, [2]string{"Finished", d.Interview.FinishedAt.Format(time.RFC1123)})
	}
	for _, kv := range meta {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(30, 7, kv[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, kv[1], "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, "Answers", "", 1, "L", false, 0, "")
	if len(d.Answers) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(0, 7, "No answers were recorded.", "", 1, "L", false, 0, "")
	}
	for i, a := range d.Answers {
		question := d.Questions[a.QuestionID]
		if question == "" {
			question = a.QuestionID
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, question), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, a.Transcript, "", "L", false)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 5,
			fmt.Sprintf("quality: %s, duration: %s", a.Quality, (time.Duration(a.ClipDurationMs)*time.Millisecond).Round(time.Second)),
			"", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	pdf.Ln(2)

	if len(d.Transcript) > 0 {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 9, "Full Transcript", "", 1, "L", false, 0, "")
		for _, e := range d.Transcript {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 6, fmt.Sprintf("%s  %s", e.At.Format("15:04:05"), e.Role), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, e.Text, "", "L", false)
			pdf.Ln(1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}
