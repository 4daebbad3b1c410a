package config

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	if err := s.db.QueryRow(
		`SELECT conductivity, sediment_heat_capacity, water_heat_capacity FROM medium LIMIT 1`,
	).Scan(&config.Medium.Conductivity, &config.Medium.SedimentHeatCapacity, &config.Medium.WaterHeatCapacity); err != nil {
		return nil, fmt.Errorf("failed to load medium: %w", err)
	}

	rows, err := s.db.Query(`SELECT name, depth FROM sensors ORDER BY depth`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sensor SensorData
		if err := rows.Scan(&sensor.Name, &sensor.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan sensor: %w", err)
		}
		config.Sensors = append(config.Sensors, sensor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensors: %w", err)
	}

	pairRows, err := s.db.Query(`SELECT COALESCE(name, ''), shallow, deep FROM pairs`)
	if err != nil {
		return nil, fmt.Errorf("failed to load pairs: %w", err)
	}
	defer pairRows.Close()
	for pairRows.Next() {
		var pair PairData
		if err := pairRows.Scan(&pair.Name, &pair.Shallow, &pair.Deep); err != nil {
			return nil, fmt.Errorf("failed to scan pair: %w", err)
		}
		config.Pairs = append(config.Pairs, pair)
	}
	if err := pairRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pairs: %w", err)
	}

	if err := s.db.QueryRow(
		`SELECT kind, path, COALESCE(resample_minutes, 0) FROM input LIMIT 1`,
	).Scan(&config.Input.Kind, &config.Input.Path, &config.Input.ResampleMinutes); err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}

	// Optional sections
	var periodHours float64
	var maxIter int
	err = s.db.QueryRow(`SELECT COALESCE(period_hours, 0), COALESCE(max_fit_iterations, 0) FROM analysis LIMIT 1`).
		Scan(&periodHours, &maxIter)
	if err == nil {
		config.Analysis = AnalysisData{PeriodHours: periodHours, MaxFitIterations: maxIter}
	} else if err != sql.ErrNoRows {
		// Missing table is fine too; anything else is a real failure.
		if !isMissingTable(err) {
			return nil, fmt.Errorf("failed to load analysis settings: %w", err)
		}
	}

	var connString string
	err = s.db.QueryRow(`SELECT connection_string FROM storage_timescaledb LIMIT 1`).Scan(&connString)
	if err == nil {
		config.Storage = &StorageData{TimescaleDB: &TimescaleDBData{ConnectionString: connString}}
	} else if err != sql.ErrNoRows && !isMissingTable(err) {
		return nil, fmt.Errorf("failed to load storage settings: %w", err)
	}

	var listenAddr string
	var port int
	err = s.db.QueryRow(`SELECT COALESCE(listen_addr, ''), port FROM rest LIMIT 1`).Scan(&listenAddr, &port)
	if err == nil {
		config.REST = &RESTData{ListenAddr: listenAddr, Port: port}
	} else if err != sql.ErrNoRows && !isMissingTable(err) {
		return nil, fmt.Errorf("failed to load REST settings: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// IsReadOnly returns false since SQLite configurations are editable
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
