package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/christian-hnz/functime/pkg/frame"
)

// Supported on-disk formats.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// ErrUnsupportedFormat indicates a file extension or format name that is
// neither parquet nor csv.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// csvHeader is the fixed column order of CSV panel files.
var csvHeader = []string{ColumnEntity, ColumnTimestamp, ColumnValue}

// ReadFile loads a panel dataset, picking the format from the file
// extension.
func ReadFile(path string) (*frame.Frame, error) {
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case FormatParquet:
		return ReadParquet(path)
	case FormatCSV:
		return ReadCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// WriteFile stores a panel frame, picking the format from the file
// extension.
func WriteFile(path string, f *frame.Frame) error {
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case FormatParquet:
		return WriteParquet(path, f)
	case FormatCSV:
		return WriteCSV(path, f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadParquet loads a long-format parquet panel file.
func ReadParquet(path string) (*frame.Frame, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet %s: %w", path, err)
	}
	return ToFrame(rows)
}

// WriteParquet stores a panel frame as a long-format parquet file.
func WriteParquet(path string, f *frame.Frame) error {
	rows, err := FromFrame(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet %s: %w", path, err)
	}
	return nil
}

// ReadCSV loads a long-format CSV panel file. The file must start with
// the header entity,timestamp,value; timestamps are RFC 3339.
func ReadCSV(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := parseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv %s: %w", path, err)
	}
	return ToFrame(rows)
}

// WriteCSV stores a panel frame as a long-format CSV file.
func WriteCSV(path string, f *frame.Frame) error {
	rows, err := FromFrame(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Entity,
			r.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatFloat(r.Value, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv %s: %w", path, err)
	}
	return nil
}

func parseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected header %v, want %v", header, csvHeader)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad timestamp %q: %w", line, record[1], err)
		}
		value, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad value %q: %w", line, record[2], err)
		}
		rows = append(rows, Row{Entity: record[0], Timestamp: ts, Value: value})
	}
	return rows, nil
}
