// Package config loads analysis configuration from YAML files or SQLite
// databases behind a common provider interface.
package config

import "fmt"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration for an analysis run
type ConfigData struct {
	Medium   MediumData   `json:"medium" yaml:"medium"`
	Sensors  []SensorData `json:"sensors" yaml:"sensors"`
	Pairs    []PairData   `json:"pairs" yaml:"pairs"`
	Input    InputData    `json:"input" yaml:"input"`
	Analysis AnalysisData `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Storage  *StorageData `json:"storage,omitempty" yaml:"storage,omitempty"`
	REST     *RESTData    `json:"rest,omitempty" yaml:"rest,omitempty"`
}

// MediumData holds the thermal constants of the sediment bed
type MediumData struct {
	Conductivity         float64 `json:"conductivity" yaml:"conductivity"`                      // W/(m·K)
	SedimentHeatCapacity float64 `json:"sediment_heat_capacity" yaml:"sediment_heat_capacity"` // J/(m³·K)
	WaterHeatCapacity    float64 `json:"water_heat_capacity" yaml:"water_heat_capacity"`       // J/(m³·K)
}

// SensorData places one temperature sensor
type SensorData struct {
	Name  string  `json:"name" yaml:"name"`
	Depth float64 `json:"depth" yaml:"depth"` // m below the sediment-water interface
}

// PairData names a shallow/deep sensor pairing to invert
type PairData struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Shallow string `json:"shallow" yaml:"shallow"`
	Deep    string `json:"deep" yaml:"deep"`
}

// InputData points at the sensor data source
type InputData struct {
	Kind            string `json:"kind" yaml:"kind"` // "csv" or "sqlite"
	Path            string `json:"path" yaml:"path"`
	ResampleMinutes int    `json:"resample_minutes,omitempty" yaml:"resample_minutes,omitempty"`
}

// AnalysisData tunes the harmonic fit. By default the fit is initialized
// from the known diurnal period (24 h); FFTInit switches to spectrum
// peak-picking, which needs records long enough for a clean peak.
type AnalysisData struct {
	PeriodHours      float64 `json:"period_hours,omitempty" yaml:"period_hours,omitempty"` // default 24
	FFTInit          bool    `json:"fft_init,omitempty" yaml:"fft_init,omitempty"`
	MaxFitIterations int     `json:"max_fit_iterations,omitempty" yaml:"max_fit_iterations,omitempty"`
}

// StorageData holds the configuration for result persistence backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
}

// TimescaleDBData configures the TimescaleDB result sink
type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

// RESTData configures the result REST server
type RESTData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	Port       int    `json:"port" yaml:"port"`
}

// Validate checks the configuration for the mistakes that would otherwise
// surface deep inside the engine: non-physical constants, pairs that
// reference unknown sensors, or pairs that are not shallow-over-deep.
func (c *ConfigData) Validate() error {
	if c.Medium.Conductivity <= 0 || c.Medium.SedimentHeatCapacity <= 0 || c.Medium.WaterHeatCapacity <= 0 {
		return fmt.Errorf("config: thermal medium constants must all be positive")
	}
	if len(c.Sensors) < 2 {
		return fmt.Errorf("config: at least two sensors are required, got %d", len(c.Sensors))
	}
	depths := make(map[string]float64, len(c.Sensors))
	for _, s := range c.Sensors {
		if s.Name == "" {
			return fmt.Errorf("config: sensor with empty name")
		}
		if _, dup := depths[s.Name]; dup {
			return fmt.Errorf("config: duplicate sensor %q", s.Name)
		}
		depths[s.Name] = s.Depth
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("config: at least one sensor pair is required")
	}
	for i, p := range c.Pairs {
		shallow, ok := depths[p.Shallow]
		if !ok {
			return fmt.Errorf("config: pair %d references unknown sensor %q", i, p.Shallow)
		}
		deep, ok := depths[p.Deep]
		if !ok {
			return fmt.Errorf("config: pair %d references unknown sensor %q", i, p.Deep)
		}
		if deep <= shallow {
			return fmt.Errorf("config: pair %d: %q (%g m) must be deeper than %q (%g m)", i, p.Deep, deep, p.Shallow, shallow)
		}
	}
	switch c.Input.Kind {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("config: unsupported input kind %q (use 'csv' or 'sqlite')", c.Input.Kind)
	}
	return nil
}

// PairName returns the pair's configured name or a derived "shallow-deep"
// label.
func (p PairData) PairName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Shallow + "-" + p.Deep
}
