package index

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Row is a cataloged query with the run that wrote it.
type Row struct {
	Seq   int64
	RunID string
	Entry
}

const selectQueries = `
	SELECT seq, run_id, slot, function_name, description, source_path,
		line, byte_offset, raw_query, cleaned_query, formatted, diagnostics
	FROM queries ORDER BY seq`

// StreamQueries calls fn for every cataloged query in insertion order.
// Only one row is alive at a time.
func StreamQueries(dbPath string, fn func(Row) error) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.Query(selectQueries)
	if err != nil {
		return fmt.Errorf("query catalog: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var (
			r                                    Row
			desc, src, raw, formatted, diagnosis sql.NullString
			line, offset                         sql.NullInt64
		)
		if err := rows.Scan(&r.Seq, &r.RunID, &r.Slot, &r.Function, &desc, &src,
			&line, &offset, &raw, &r.CleanedQuery, &formatted, &diagnosis); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		r.Description = desc.String
		r.SourcePath = src.String
		r.RawQuery = raw.String
		r.Formatted = formatted.String
		r.Line = int(line.Int64)
		r.Offset = int(offset.Int64)
		if diagnosis.Valid && diagnosis.String != "" {
			if err := json.Unmarshal([]byte(diagnosis.String), &r.Diagnostics); err != nil {
				return fmt.Errorf("parse diagnostics of %s: %w", r.Slot, err)
			}
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// LoadQueries returns every cataloged query in insertion order.
func LoadQueries(dbPath string) ([]Row, error) {
	var out []Row
	err := StreamQueries(dbPath, func(r Row) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
