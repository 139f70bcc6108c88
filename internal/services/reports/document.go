package reports

// Document is the layout surface the renderer writes to.
// Implementations are single-use: Bytes finalizes the document.
type Document interface {
	Title(text string)
	Heading(text string)
	Subheading(text string)
	Info(label, value string)
	Text(text string)
	Bullet(label, text string)
	// Table draws a wrapped table; widths are fractions of the printable width.
	Table(header []string, widths []float64, rows [][]string)
	Spacer(height float64)
	Bytes() ([]byte, error)
}

type DocumentFactory func() Document
