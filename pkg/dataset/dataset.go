// Package dataset reads and writes panel datasets in the long format the
// split tooling works with: one observation per row, identified by
// entity and ordered by position within the entity. Frames produced here
// carry the columns entity, timestamp, value, with entity first.
package dataset

import (
	"fmt"
	"time"

	"github.com/christian-hnz/functime/pkg/frame"
)

// Column names of the long panel format.
const (
	ColumnEntity    = "entity"
	ColumnTimestamp = "timestamp"
	ColumnValue     = "value"
)

// Row is one observation of a long-format panel dataset.
type Row struct {
	Entity    string    `parquet:"entity" json:"entity"`
	Timestamp time.Time `parquet:"timestamp" json:"timestamp"`
	Value     float64   `parquet:"value" json:"value"`
}

// ToFrame builds a panel frame from long-format rows. Row order is kept
// as given; callers are responsible for rows being time-ordered within
// each entity.
func ToFrame(rows []Row) (*frame.Frame, error) {
	entities := make([]any, len(rows))
	timestamps := make([]any, len(rows))
	values := make([]any, len(rows))
	for i, r := range rows {
		entities[i] = r.Entity
		timestamps[i] = r.Timestamp
		values[i] = r.Value
	}
	return frame.New(
		frame.Series{Name: ColumnEntity, Values: entities},
		frame.Series{Name: ColumnTimestamp, Values: timestamps},
		frame.Series{Name: ColumnValue, Values: values},
	)
}

// FromFrame converts a panel frame back into long-format rows. The frame
// must carry the entity, timestamp and value columns.
func FromFrame(f *frame.Frame) ([]Row, error) {
	entity, err := f.Column(ColumnEntity)
	if err != nil {
		return nil, fmt.Errorf("dataset schema: %w", err)
	}
	timestamp, err := f.Column(ColumnTimestamp)
	if err != nil {
		return nil, fmt.Errorf("dataset schema: %w", err)
	}
	value, err := f.Column(ColumnValue)
	if err != nil {
		return nil, fmt.Errorf("dataset schema: %w", err)
	}

	rows := make([]Row, f.NumRows())
	for i := range rows {
		ts, ok := cellTime(timestamp.Values[i])
		if !ok {
			return nil, fmt.Errorf("row %d: timestamp cell %v is not a time", i, timestamp.Values[i])
		}
		v, ok := cellFloat(value.Values[i])
		if !ok {
			return nil, fmt.Errorf("row %d: value cell %v is not numeric", i, value.Values[i])
		}
		rows[i] = Row{
			Entity:    cellString(entity.Values[i]),
			Timestamp: ts,
			Value:     v,
		}
	}
	return rows, nil
}

func cellString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func cellTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

func cellFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
