package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"brewsignal/pkg/contracts/domain"
)

// maxSheetNameLen is the Excel limit on sheet names
const maxSheetNameLen = 31

// EntityPlan is the launch plan of one ranked entity
type EntityPlan struct {
	EntityID string
	Plan     domain.LaunchPlan
}

// Report is the content of one workbook
type Report struct {
	Ranking []domain.RankEntry
	Plans   []EntityPlan
}

// Sheet is one named worksheet
type Sheet struct {
	Name  string
	Table Table
}

// XLSXWriter writes reports as Excel workbooks
type XLSXWriter struct {
	baseDir    string
	sheetName  string
	timeFormat string
	logger     *slog.Logger
}

// NewXLSXWriter creates a writer; relative paths resolve against baseDir
func NewXLSXWriter(baseDir, sheetName, timeFormat string, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if sheetName == "" {
		sheetName = "Ranking"
	}
	if timeFormat == "" {
		timeFormat = time.DateOnly
	}
	return &XLSXWriter{
		baseDir:    baseDir,
		sheetName:  sheetName,
		timeFormat: timeFormat,
		logger:     logger.With(slog.String("component", "xlsx_exporter")),
	}
}

// Sheets lays the report out as worksheets: the ranking first, then a grid
// sheet and a milestone sheet per non-empty launch plan.
func (w *XLSXWriter) Sheets(r Report) []Sheet {
	sheets := []Sheet{{Name: w.sheetName, Table: RankingTable(r.Ranking, w.timeFormat)}}
	used := map[string]bool{strings.ToLower(w.sheetName): true}

	for _, p := range r.Plans {
		if p.Plan.Empty {
			continue
		}
		name := uniqueSheetName(sanitizeSheetName("Plan "+p.EntityID), used)
		sheets = append(sheets, Sheet{Name: name, Table: GridTable(p.Plan, w.timeFormat)})
		name = uniqueSheetName(sanitizeSheetName("Milestones "+p.EntityID), used)
		sheets = append(sheets, Sheet{Name: name, Table: MilestoneTable(p.Plan, w.timeFormat)})
	}
	return sheets
}

// WriteReport writes the report workbook to filePath
func (w *XLSXWriter) WriteReport(filePath string, r Report) error {
	fullPath := resolvePath(w.baseDir, filePath)

	w.logger.Info("writing XLSX report",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("entities", len(r.Ranking)),
		slog.Int("plans", len(r.Plans)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	if err := EncodeXLSX(file, w.Sheets(r)); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// EncodeXLSX writes sheets as a workbook to out
func EncodeXLSX(out io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("create sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return fmt.Errorf("write sheet %q: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s Sheet, headerStyle int) error {
	t := s.Table
	if len(t.Headers) == 0 {
		return nil
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(s.Name, 1, 1, headerStyle); err != nil {
		return err
	}

	for r, record := range t.Records {
		row := make([]interface{}, len(record))
		for c, v := range record {
			row[c] = cellValue(t, c, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(s.Name, "A", lastCol, 18); err != nil {
		return err
	}
	if err := f.AutoFilter(s.Name, "A1:"+lastCol+"1", nil); err != nil {
		return err
	}
	return f.SetPanes(s.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue stores numeric columns as numbers; blanks stay blank
func cellValue(t Table, col int, v string) interface{} {
	if v == "" || !t.IsNumeric(col) {
		return v
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:maxSheetNameLen])
	}
	return name
}

// uniqueSheetName suffixes name until it is unused; Excel compares names case-insensitively
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := " (" + strconv.Itoa(i) + ")"
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetNameLen {
			base = base[:maxSheetNameLen-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
