package encoder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pmplanner/pkg/plan"
)

const (
	// ExcelFilename is the download name of every workbook.
	ExcelFilename = "PM_Plan.xlsx"
	// ExcelMIME is the spreadsheetml content type.
	ExcelMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "Sheet1"
)

// Workbook lays the plan out as a table: one header row with the union of
// task keys in first-seen order, then one row per task. Keys a task lacks
// stay empty. The caller closes the returned file.
func Workbook(p plan.Plan) (*excelize.File, error) {
	f := excelize.NewFile()

	cols := p.Columns()
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if len(cols) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create header style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(cols), 1)
		if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	for r, t := range p {
		for c, key := range cols {
			v, ok := t.Get(key)
			if !ok || v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, cellValue(v)); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}
	return f, nil
}

// WriteExcel streams the workbook for p to w.
func WriteExcel(w io.Writer, p plan.Plan) error {
	f, err := Workbook(p)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cellValue flattens a decoded JSON value into something a cell can hold.
// Lists of scalars are joined with ", "; nested structures stay JSON.
func cellValue(v any) interface{} {
	switch x := v.(type) {
	case string, bool:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			switch e.(type) {
			case []any, map[string]any:
				return jsonText(x)
			}
			parts = append(parts, scalarText(e))
		}
		return strings.Join(parts, ", ")
	default:
		return jsonText(x)
	}
}

func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Exporter writes workbooks to disk. Each export gets its own file, so
// concurrent requests never share an output path.
type Exporter struct {
	dir    string
	keep   bool
	logger *zap.Logger
}

// NewExporter writes into dir (created on demand). With keep set, exported
// files survive Release.
func NewExporter(dir string, keep bool, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &Exporter{dir: dir, keep: keep, logger: logger}
}

// Export writes p to a new file and returns its path.
func (e *Exporter) Export(p plan.Plan) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := Workbook(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(e.dir, "pm_plan_"+uuid.NewString()+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	e.logger.Debug("Workbook exported", zap.String("path", path), zap.Int("tasks", len(p)))
	return path, nil
}

// Release removes an exported file unless the exporter keeps exports.
func (e *Exporter) Release(path string) {
	if e.keep || path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.logger.Warn("Failed to remove exported workbook", zap.String("path", path), zap.Error(err))
	}
}
