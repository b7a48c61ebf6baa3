package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter provides CSV export into a base directory
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a writer; relative paths resolve against baseDir
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "csv_exporter")),
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM for Excel
}

// WriteCSV writes one CSV file, replacing any previous content
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := resolvePath(w.baseDir, filePath)

	w.logger.Info("writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}

	if err := EncodeCSV(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteTable writes t with a BOM prefix
func (w *CSVWriter) WriteTable(filePath string, t Table) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   t.Headers,
		Records:   t.Records,
		BOMPrefix: true,
	})
}

// EncodeCSV writes headers and records to out
func EncodeCSV(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func resolvePath(baseDir, filePath string) string {
	if filepath.IsAbs(filePath) || baseDir == "" {
		return filePath
	}
	return filepath.Join(baseDir, filePath)
}
