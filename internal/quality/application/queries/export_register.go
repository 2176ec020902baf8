package queries

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/xuri/excelize/v2"
)

const (
	// FormatCSV exports the register as comma-separated values.
	FormatCSV = "csv"
	// FormatXLSX exports the register as an Excel workbook.
	FormatXLSX = "xlsx"

	exportSheetName  = "Quality Register"
	exportDateLayout = "2006-01-02"
)

// ErrUnknownExportFormat is returned for formats other than csv and xlsx.
var ErrUnknownExportFormat = fmt.Errorf("unknown export format (want %s or %s)", FormatCSV, FormatXLSX)

// ExportRegisterQuery contains the parameters for exporting the record
// register.
type ExportRegisterQuery struct {
	Kind   string // empty exports every kind
	Status string // empty exports every status
	Format string // csv (default) or xlsx
}

// ExportResult is a rendered register ready to hand to a download or a file.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportRegisterHandler handles the ExportRegisterQuery.
type ExportRegisterHandler struct {
	recordRepo record.Repository
}

// NewExportRegisterHandler creates a new ExportRegisterHandler.
func NewExportRegisterHandler(recordRepo record.Repository) *ExportRegisterHandler {
	return &ExportRegisterHandler{recordRepo: recordRepo}
}

// Handle executes the ExportRegisterQuery.
func (h *ExportRegisterHandler) Handle(ctx context.Context, query ExportRegisterQuery) (*ExportResult, error) {
	format := query.Format
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, ErrUnknownExportFormat
	}

	filter := record.Filter{}
	if query.Kind != "" {
		kind, err := lifecycle.ParseKind(query.Kind)
		if err != nil {
			return nil, err
		}
		filter.Kind = &kind
	}
	if query.Status != "" {
		status := lifecycle.Status(query.Status)
		filter.Status = &status
	}

	records, err := h.recordRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	headers := []string{
		"ID", "Kind", "Status", "Title", "Severity", "Owner",
		"Supplier", "Part Number", "Lot Numbers", "Tags",
		"Created", "Closed",
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID().String(),
			rec.Kind().String(),
			string(rec.Status()),
			rec.Title(),
			rec.Severity().String(),
			rec.Owner(),
			rec.Supplier(),
			rec.PartNumber(),
			strings.Join(rec.LotNumbers(), "; "),
			strings.Join(rec.Tags(), "; "),
			rec.CreatedAt().Format(exportDateLayout),
			formatExportDate(rec.MilestoneDate(lifecycle.DateClosed)),
		})
	}

	basename := "quality_register"
	if query.Kind != "" {
		basename = strings.ToLower(query.Kind) + "_register"
	}

	switch format {
	case FormatXLSX:
		data, err := renderXLSX(headers, rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Filename:    basename + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		data, err := renderCSV(headers, rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Filename:    basename + ".csv",
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}

func formatExportDate(at *time.Time) string {
	if at == nil {
		return ""
	}
	return at.Format(exportDateLayout)
}

func renderCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(exportSheetName, cell, header)
		f.SetCellStyle(exportSheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(exportSheetName, cell, value)
		}
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(exportSheetName, col, col, 18)
	}

	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
