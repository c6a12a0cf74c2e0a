package export

import (
	"fmt"
	"io"
	"time"

	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{"ID", "Item ID", "Item", "Booker ID", "Start", "End", "Status", "Period"}

// statusFills colours the status cell: yellow waiting, green approved,
// red rejected.
var statusFills = map[models.BookingStatus]string{
	models.StatusWaiting:  "FFEB9C",
	models.StatusApproved: "C6EFCE",
	models.StatusRejected: "FFC7CE",
}

// WriteBookings renders bookings as an xlsx workbook into w. The Period
// column classifies each booking against now.
func WriteBookings(w io.Writer, bookings []*models.Booking, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	statusStyles := make(map[models.BookingStatus]int, len(statusFills))
	for status, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return fmt.Errorf("error creating status style: %w", err)
		}
		statusStyles[status] = id
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	for i, b := range bookings {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			b.ID,
			b.ItemID,
			b.ItemName,
			b.BookerID,
			b.Start.UTC().Format("2006-01-02 15:04"),
			b.End.UTC().Format("2006-01-02 15:04"),
			string(b.Status),
			period(b, now),
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
		if style, ok := statusStyles[b.Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(7, row)
			_ = f.SetCellStyle(sheetName, statusCell, statusCell, style)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 10)
	_ = f.SetColWidth(sheetName, "C", "C", 28)
	_ = f.SetColWidth(sheetName, "D", "D", 10)
	_ = f.SetColWidth(sheetName, "E", "H", 18)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func period(b *models.Booking, now time.Time) string {
	for _, s := range []models.BookingState{models.StateCurrent, models.StatePast, models.StateFuture} {
		if s.Matches(b, now) {
			return string(s)
		}
	}
	return ""
}
