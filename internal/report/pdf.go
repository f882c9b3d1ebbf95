// Package report renders the one-page PDF summary of a decision record.
// The layout is fixed: title, generation timestamp, prediction result,
// confidence, and the advisory note derived from the label. Rendering
// failures are isolated to the report request; the decision they describe
// has already been delivered.
package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/voxscreen/voxscreen/pkg/models"
)

// Filename is the suggested download name for rendered reports.
const Filename = "depression_report.pdf"

const reportTitle = "Child Speech Depression Detection Report"

// RenderError reports a document-generation failure.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render report: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Builder renders decision records. Stateless; one instance serves all
// requests.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Render produces the PDF bytes for a decision record. The advisory text
// is derived from the label again here rather than read from the record,
// so the report can never disagree with the decision surface.
func (b *Builder) Render(rec *models.DecisionRecord) ([]byte, error) {
	if rec == nil {
		return nil, &RenderError{Err: fmt.Errorf("nil decision record")}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "", 16)
	pdf.CellFormat(190, 10, reportTitle, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.Ln(10)
	pdf.CellFormat(190, 10, fmt.Sprintf("Date & Time: %s", rec.Timestamp.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.CellFormat(190, 10, fmt.Sprintf("Prediction Result: %s", rec.Label), "", 1, "L", false, 0, "")
	pdf.CellFormat(190, 10, fmt.Sprintf("Confidence Score: %.2f%%", rec.ConfidencePercent), "", 1, "L", false, 0, "")
	pdf.Ln(10)
	pdf.MultiCell(0, 10, fmt.Sprintf("Note:\n%s", models.AdvisoryFor(rec.Label)), "", "L", false)

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, &RenderError{Err: err}
	}
	return out.Bytes(), nil
}
