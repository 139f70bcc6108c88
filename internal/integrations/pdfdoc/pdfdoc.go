package pdfdoc

import (
	"bytes"
	"strconv"

	"github.com/BearBump/AttendTrack/internal/services/reports"
	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

const (
	font       = "Helvetica"
	margin     = 20.0
	lineHeight = 5.5
	cellPad    = 1.5
)

// Document renders report layout calls onto an A4 page flow.
type Document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

var _ reports.Document = (*Document)(nil)

func New() *Document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(font, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 6, strconv.Itoa(pdf.PageNo())+" / {nb}", "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return &Document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// Factory adapts New to reports.DocumentFactory.
func Factory() reports.Document { return New() }

func (d *Document) Title(text string) {
	d.pdf.SetFont(font, "B", 20)
	d.pdf.SetTextColor(31, 56, 100)
	d.pdf.CellFormat(0, 12, d.tr(text), "", 1, "C", false, 0, "")
}

func (d *Document) Heading(text string) {
	d.pdf.Ln(2)
	d.pdf.SetFont(font, "B", 14)
	d.pdf.SetTextColor(31, 56, 100)
	d.pdf.CellFormat(0, 9, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *Document) Subheading(text string) {
	d.pdf.SetFont(font, "B", 12)
	d.pdf.SetTextColor(40, 40, 40)
	d.pdf.CellFormat(0, 7, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *Document) Info(label, value string) {
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetFont(font, "B", 10)
	lbl := d.tr(label + ": ")
	d.pdf.CellFormat(d.pdf.GetStringWidth(lbl), lineHeight, lbl, "", 0, "L", false, 0, "")
	d.pdf.SetFont(font, "", 10)
	d.pdf.MultiCell(0, lineHeight, d.tr(value), "", "L", false)
}

func (d *Document) Text(text string) {
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetFont(font, "", 10)
	d.pdf.MultiCell(0, lineHeight, d.tr(text), "", "L", false)
}

func (d *Document) Bullet(label, text string) {
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetX(margin + 4)
	d.pdf.SetFont(font, "B", 10)
	lbl := d.tr("- " + label + " ")
	d.pdf.CellFormat(d.pdf.GetStringWidth(lbl), lineHeight, lbl, "", 0, "L", false, 0, "")
	d.pdf.SetFont(font, "", 10)
	d.pdf.MultiCell(0, lineHeight, d.tr(text), "", "L", false)
}

func (d *Document) Spacer(height float64) {
	d.pdf.Ln(height)
}

// Table wraps every cell to its column and repeats the header after a page break.
func (d *Document) Table(header []string, widths []float64, rows [][]string) {
	pageW, pageH := d.pdf.GetPageSize()
	usable := pageW - 2*margin
	cols := make([]float64, len(header))
	for i := range cols {
		if i < len(widths) {
			cols[i] = widths[i] * usable
		} else {
			cols[i] = usable / float64(len(header))
		}
	}

	d.pdf.SetDrawColor(180, 180, 180)
	d.pdf.SetLineWidth(0.2)
	d.row(header, cols, true)
	for _, r := range rows {
		d.pdf.SetFont(font, "", 9)
		if d.pdf.GetY()+d.rowHeight(r, cols) > pageH-margin {
			d.pdf.AddPage()
			d.row(header, cols, true)
		}
		d.row(r, cols, false)
	}
	d.pdf.Ln(2)
}

func (d *Document) rowHeight(cells []string, cols []float64) float64 {
	n := 1
	for i, c := range cells {
		if i >= len(cols) {
			break
		}
		if l := len(d.pdf.SplitText(d.tr(c), cols[i]-2*cellPad)); l > n {
			n = l
		}
	}
	return float64(n)*lineHeight + cellPad
}

func (d *Document) row(cells []string, cols []float64, head bool) {
	if head {
		d.pdf.SetFont(font, "B", 9)
		d.pdf.SetFillColor(31, 56, 100)
		d.pdf.SetTextColor(255, 255, 255)
	} else {
		d.pdf.SetFont(font, "", 9)
		d.pdf.SetTextColor(0, 0, 0)
	}

	h := d.rowHeight(cells, cols)
	x, y := d.pdf.GetX(), d.pdf.GetY()
	style := "D"
	if head {
		style = "FD"
	}
	for i, w := range cols {
		d.pdf.Rect(x, y, w, h, style)
		if i < len(cells) {
			for j, line := range d.pdf.SplitText(d.tr(cells[i]), w-2*cellPad) {
				d.pdf.SetXY(x+cellPad, y+cellPad/2+float64(j)*lineHeight)
				d.pdf.CellFormat(w-2*cellPad, lineHeight, line, "", 0, "L", false, 0, "")
			}
		}
		x += w
	}
	d.pdf.SetXY(margin, y+h)
}

func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "write pdf")
	}
	return buf.Bytes(), nil
}
