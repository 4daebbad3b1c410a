package timeseries

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite loggers store readings as
//
//	CREATE TABLE readings (sensor TEXT, taken_at TEXT, temperature REAL)
//
// with RFC3339 timestamps. ReadingsSchema is exported so writers (fluxgen)
// and readers agree on it.
const ReadingsSchema = `CREATE TABLE IF NOT EXISTS readings (
	sensor TEXT NOT NULL,
	taken_at TEXT NOT NULL,
	temperature REAL NOT NULL
)`

// LoadSQLite reads every sensor's series from a logger database, ordered
// by time.
func LoadSQLite(path string) ([]Series, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("timeseries: opening SQLite database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("timeseries: pinging SQLite database: %w", err)
	}

	rows, err := db.Query(`SELECT sensor, taken_at, temperature FROM readings ORDER BY sensor, taken_at`)
	if err != nil {
		return nil, fmt.Errorf("timeseries: querying readings: %w", err)
	}
	defer rows.Close()

	var series []Series
	var current *Series
	for rows.Next() {
		var sensor, takenAt string
		var temp float64
		if err := rows.Scan(&sensor, &takenAt, &temp); err != nil {
			return nil, fmt.Errorf("timeseries: scanning reading: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, takenAt)
		if err != nil {
			return nil, fmt.Errorf("timeseries: sensor %q: bad timestamp %q: %w", sensor, takenAt, err)
		}
		if current == nil || current.Sensor != sensor {
			series = append(series, Series{Sensor: sensor})
			current = &series[len(series)-1]
		}
		current.Samples = append(current.Samples, Sample{Time: ts, Temperature: temp})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("timeseries: iterating readings: %w", err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("timeseries: no readings in %s", path)
	}

	for _, s := range series {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return series, nil
}

// WriteSQLite creates (if needed) and fills a readings table from the given
// series. Used by the synthetic-data generator.
func WriteSQLite(path string, series []Series) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("timeseries: opening SQLite database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(ReadingsSchema); err != nil {
		return fmt.Errorf("timeseries: creating readings table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("timeseries: beginning transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO readings (sensor, taken_at, temperature) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("timeseries: preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range series {
		for _, sm := range s.Samples {
			if _, err := stmt.Exec(s.Sensor, sm.Time.Format(time.RFC3339), sm.Temperature); err != nil {
				tx.Rollback()
				return fmt.Errorf("timeseries: inserting reading for %q: %w", s.Sensor, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("timeseries: committing readings: %w", err)
	}
	return nil
}
