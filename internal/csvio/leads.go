package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"hoareca_growth_hub/internal/pipeline/domain"

	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	leadsSheet = "Leads"
	timeLayout = "2006-01-02 15:04"
)

var leadHeaders = []string{
	"ID", "Client Name", "Pincode", "Status", "Calls", "Visits", "Prospect ID", "Created At", "Remarks",
}

func leadRow(l domain.Lead, loc *time.Location) []string {
	return []string{
		l.ID.String(),
		l.ClientName,
		l.Pincode,
		l.Status,
		strconv.Itoa(l.CallCount),
		strconv.Itoa(l.VisitCount),
		prospectID(l),
		l.CreatedAt.In(loc).Format(timeLayout),
		l.Remarks,
	}
}

// WriteLeads writes leads in the given format. Times are rendered in loc.
func WriteLeads(w io.Writer, format string, leads []domain.Lead, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	switch format {
	case FormatCSV:
		return writeLeadsCSV(w, leads, loc)
	case FormatXLSX:
		return writeLeadsXLSX(w, leads, loc)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func writeLeadsCSV(w io.Writer, leads []domain.Lead, loc *time.Location) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(leadHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, l := range leads {
		if err := writer.Write(leadRow(l, loc)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeLeadsXLSX(w io.Writer, leads []domain.Lead, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leadsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := f.SetSheetRow(leadsSheet, "A1", &leadHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(leadHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(leadsSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, l := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			l.ID.String(), l.ClientName, l.Pincode, l.Status, l.CallCount, l.VisitCount,
			prospectID(l), l.CreatedAt.In(loc).Format(timeLayout), l.Remarks,
		}
		if err := f.SetSheetRow(leadsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(leadsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}

func prospectID(l domain.Lead) string {
	if l.ProspectID == nil {
		return ""
	}
	return l.ProspectID.String()
}
