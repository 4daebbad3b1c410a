// Command fluxgen writes synthetic temperature series for a known target
// flux, so analysis runs can be validated end to end against an answer
// that is known analytically.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hydrotherm/vflux/internal/log"
	"github.com/hydrotherm/vflux/internal/synthetic"
	"github.com/hydrotherm/vflux/internal/timeseries"
	"github.com/hydrotherm/vflux/pkg/thermal"
)

func main() {
	flux := flag.Float64("flux", 5.0, "Target Darcy flux in mm/day (positive = downward)")
	conductivity := flag.Float64("conductivity", 2.0, "Sediment thermal conductivity, W/(m·K)")
	sedimentCap := flag.Float64("sediment-heat-capacity", 2.5e6, "Sediment volumetric heat capacity, J/(m³·K)")
	waterCap := flag.Float64("water-heat-capacity", 4.18e6, "Water volumetric heat capacity, J/(m³·K)")
	amplitude := flag.Float64("amplitude", 3.0, "Diurnal amplitude at the shallowest sensor, °C")
	meanTemp := flag.Float64("mean", 20.0, "Mean temperature at the shallowest sensor, °C")
	days := flag.Int("days", 3, "Days of data to generate")
	intervalMin := flag.Int("interval", 15, "Sample interval in minutes")
	noise := flag.Float64("noise", 0, "Gaussian noise standard deviation, °C")
	seed := flag.Int64("seed", 1, "Random seed for noise")
	out := flag.String("out", "readings.csv", "Output path (.csv or .db)")
	format := flag.String("format", "csv", "Output format: 'csv' or 'sqlite'")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	medium, err := thermal.NewMedium(*conductivity, *sedimentCap, *waterCap)
	if err != nil {
		log.Errorf("Invalid medium: %v", err)
		os.Exit(1)
	}

	interval := time.Duration(*intervalMin) * time.Minute
	samples := int(time.Duration(*days) * 24 * time.Hour / interval)

	params := synthetic.Params{
		Medium:           medium,
		FluxMMPerDay:     *flux,
		SurfaceAmplitude: *amplitude,
		Sensors: []synthetic.SensorSpec{
			{Name: "sensor_10cm", Depth: 0.10, Mean: *meanTemp},
			{Name: "sensor_20cm", Depth: 0.20, Mean: *meanTemp - 1},
			{Name: "sensor_30cm", Depth: 0.30, Mean: *meanTemp - 2},
		},
		Start:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:    interval,
		Samples:     samples,
		NoiseStdDev: *noise,
		Seed:        *seed,
	}

	series, err := synthetic.Generate(params)
	if err != nil {
		log.Errorf("Generation failed: %v", err)
		os.Exit(1)
	}

	for i := 1; i < len(params.Sensors); i++ {
		dz := params.Sensors[i].Depth - params.Sensors[0].Depth
		lag, _ := synthetic.PhaseLag(medium, 0, dz, *flux/1000/86400)
		log.Infof("%s: Δz=%.2f m, phase lag %.4f rad (conductive %.4f + advective %.4f)",
			params.Sensors[i].Name, dz, lag.Total, lag.Conductive, lag.Advective)
	}

	switch *format {
	case "csv":
		err = writeCSV(*out, series)
	case "sqlite":
		err = timeseries.WriteSQLite(*out, series)
	default:
		log.Errorf("Unsupported format %q (use 'csv' or 'sqlite')", *format)
		os.Exit(1)
	}
	if err != nil {
		log.Errorf("Failed to write output: %v", err)
		os.Exit(1)
	}
	log.Infof("wrote %d samples per sensor to %s", samples, *out)
}

func writeCSV(path string, series []timeseries.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"timestamp"}
	for _, s := range series {
		header = append(header, s.Sensor)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range series[0].Samples {
		record := []string{series[0].Samples[i].Time.Format(time.RFC3339)}
		for _, s := range series {
			record = append(record, strconv.FormatFloat(s.Samples[i].Temperature, 'f', 6, 64))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
