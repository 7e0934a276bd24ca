package services

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"contact-book/internal/access"
)

const exportSheet = "Contacts"

var exportHeader = []any{"Name", "Phone Number", "Email", "Group", "Owner", "Created At"}

// Export writes the actor's visible contacts, filtered like the table, as an
// xlsx workbook.
func (s *ContactService) Export(ctx context.Context, actor access.Actor, search string, w io.Writer) (int, error) {
	contacts, err := s.Visible(ctx, actor, search)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for i, c := range contacts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := []any{
			c.Name,
			c.PhoneNumber,
			c.EmailValue(),
			c.ContactGroup.Name,
			c.Owner.Email,
			c.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "F", 22); err != nil {
		return 0, fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write workbook: %w", err)
	}
	return len(contacts), nil
}
