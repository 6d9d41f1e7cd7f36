package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{
	"conversation_id", "captured_at",
	"agent_path", "agent_size_mb", "agent_duration_min",
	"customer_path", "customer_size_mb", "customer_duration_min",
	"total_size_mb", "total_duration_hours",
}

func exportRow(r ConversationRecord) []string {
	return []string{
		r.ConversationID,
		r.CapturedAt.Format(time.RFC3339),
		r.Agent.StoragePath,
		formatFloat(float64(r.Agent.SizeBytes) / (1024 * 1024)),
		formatFloat(r.Agent.DurationSeconds / 60),
		r.Customer.StoragePath,
		formatFloat(float64(r.Customer.SizeBytes) / (1024 * 1024)),
		formatFloat(r.Customer.DurationSeconds / 60),
		formatFloat(float64(r.Total.SizeBytes) / (1024 * 1024)),
		strconv.FormatFloat(r.Total.DurationSeconds/3600, 'f', 4, 64),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ExportCSV writes a flattened one-row-per-conversation snapshot.
// Read-only on the ledger itself.
func (l *Ledger) ExportCSV(outputPath string) (int, error) {
	records, err := l.All()
	if err != nil {
		return 0, err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	for _, r := range records {
		if err := w.Write(exportRow(r)); err != nil {
			return 0, fmt.Errorf("write export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(records), nil
}

// ExportXLSX writes the same flattened snapshot as a spreadsheet.
func (l *Ledger) ExportXLSX(outputPath string) (int, error) {
	records, err := l.All()
	if err != nil {
		return 0, err
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, name := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return 0, fmt.Errorf("write export: %w", err)
		}
	}
	for i, r := range records {
		for col, v := range exportRow(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return 0, fmt.Errorf("write export: %w", err)
			}
		}
	}
	if err := f.SaveAs(outputPath); err != nil {
		return 0, fmt.Errorf("save export: %w", err)
	}
	return len(records), nil
}
