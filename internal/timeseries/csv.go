package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// LoadCSV reads a wide CSV file: first column RFC3339 timestamps, one
// further column per sensor, named in the header. Every row must be fully
// populated; gaps are the loader's caller's problem to fill before export,
// not ours to guess at.
func LoadCSV(path string) ([]Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("timeseries: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses the wide CSV format from any reader.
func ReadCSV(r io.Reader) ([]Series, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("timeseries: reading CSV header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("timeseries: CSV needs a timestamp column and at least one sensor column")
	}

	series := make([]Series, len(header)-1)
	for i, name := range header[1:] {
		series[i].Sensor = name
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("timeseries: reading CSV: %w", err)
		}
		line++
		if len(record) != len(header) {
			return nil, fmt.Errorf("timeseries: CSV line %d has %d fields, expected %d", line, len(record), len(header))
		}

		ts, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			return nil, fmt.Errorf("timeseries: CSV line %d: bad timestamp %q: %w", line, record[0], err)
		}
		for i, field := range record[1:] {
			temp, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("timeseries: CSV line %d, sensor %q: bad temperature %q: %w",
					line, series[i].Sensor, field, err)
			}
			series[i].Samples = append(series[i].Samples, Sample{Time: ts, Temperature: temp})
		}
	}

	for _, s := range series {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return series, nil
}
