package leads

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const timeLayout = "2006-01-02 15:04"

// Export writes every submission to an XLSX workbook, one sheet per form.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	quotes, err := s.repo.ListQuoteSubmissions(ctx)
	if err != nil {
		return err
	}
	contacts, err := s.repo.ListContactSubmissions(ctx)
	if err != nil {
		return err
	}
	screed, err := s.repo.ListLaserScreedSubmissions(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	quoteRows := make([][]any, 0, len(quotes))
	for _, q := range quotes {
		quoteRows = append(quoteRows, []any{q.ID, q.Name, q.Phone, q.Email, q.Location, q.SubmittedAt.Format(timeLayout)})
	}
	if err := writeSheet(f, "Quotes", []string{"ID", "Name", "Phone", "Email", "Location", "Submitted"}, quoteRows); err != nil {
		return err
	}

	contactRows := make([][]any, 0, len(contacts))
	for _, c := range contacts {
		contactRows = append(contactRows, []any{c.ID, c.Name, c.PhoneNumber, c.Email, c.Message, c.SubmittedAt.Format(timeLayout)})
	}
	if err := writeSheet(f, "Contacts", []string{"ID", "Name", "Phone", "Email", "Message", "Submitted"}, contactRows); err != nil {
		return err
	}

	screedRows := make([][]any, 0, len(screed))
	for _, l := range screed {
		screedRows = append(screedRows, []any{
			l.ID, l.Name, l.Email, l.Company, l.WhatsApp, strings.Join(l.Services, ", "),
			l.NeedTroweling, l.TrowelingColor, l.SqftRange, l.Status, l.CreatedAt.Format(timeLayout),
		})
	}
	screedHeader := []string{"ID", "Name", "Email", "Company", "WhatsApp", "Services", "Troweling", "Color", "Sqft", "Status", "Created"}
	if err := writeSheet(f, "Laser Screed", screedHeader, screedRows); err != nil {
		return err
	}

	// NewFile starts with Sheet1; drop it once the real sheets exist
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "delete default sheet")
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return errors.Wrapf(err, "new sheet %s", name)
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &head); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i, r := range rows {
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", i+2), &r); err != nil {
			return errors.Wrapf(err, "write row %d", i+2)
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return errors.Wrap(err, "column name")
	}
	if err := f.SetColWidth(name, "A", last, 18); err != nil {
		return errors.Wrap(err, "column width")
	}
	return nil
}
