// Command vfluxd runs a vertical-flux analysis over configured sensor
// series: it fits the diurnal harmonic per sensor, inverts every configured
// sensor pair through the five-method bank, and then reports, stores,
// and/or serves the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/hydrotherm/vflux/internal/analysis"
	"github.com/hydrotherm/vflux/internal/controllers/restserver"
	"github.com/hydrotherm/vflux/internal/log"
	"github.com/hydrotherm/vflux/internal/report"
	"github.com/hydrotherm/vflux/internal/storage"
	"github.com/hydrotherm/vflux/internal/timeseries"
	"github.com/hydrotherm/vflux/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source (YAML file or SQLite database)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	oneshot := flag.Bool("oneshot", false, "Run the analysis once, print the report, and exit")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vfluxd %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	series, err := loadSeries(cfgData)
	if err != nil {
		log.Errorf("Failed to load sensor series: %v", err)
		os.Exit(1)
	}

	run, err := analysis.Run(cfgData, series)
	if err != nil {
		log.Errorf("Analysis failed: %v", err)
		os.Exit(1)
	}

	if *oneshot {
		if err := report.Render(os.Stdout, run); err != nil {
			log.Errorf("Failed to render report: %v", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfgData.Storage != nil && cfgData.Storage.TimescaleDB != nil {
		sink, err := storage.New(ctx, cfgData.Storage.TimescaleDB)
		if err != nil {
			log.Errorf("Failed to set up result storage: %v", err)
			os.Exit(1)
		}
		if err := sink.StoreRun(ctx, run); err != nil {
			log.Errorf("Failed to store run: %v", err)
			os.Exit(1)
		}
	}

	if cfgData.REST == nil {
		log.Info("no REST server configured; done")
		return
	}

	ctrl, err := restserver.NewController(*cfgData.REST, log.GetSugaredLogger())
	if err != nil {
		log.Errorf("Failed to create REST controller: %v", err)
		os.Exit(1)
	}
	ctrl.SetResult(run)

	var wg sync.WaitGroup
	if err := ctrl.StartController(ctx, &wg); err != nil {
		log.Errorf("REST server error: %v", err)
		os.Exit(1)
	}
	wg.Wait()
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config. Did you pass the -config flag? Run with -h for help: %w", err)
	}
	return cfgData, nil
}

func loadSeries(cfg *config.ConfigData) ([]timeseries.Series, error) {
	switch cfg.Input.Kind {
	case "csv":
		return timeseries.LoadCSV(cfg.Input.Path)
	case "sqlite":
		return timeseries.LoadSQLite(cfg.Input.Path)
	default:
		return nil, fmt.Errorf("unsupported input kind %q", cfg.Input.Kind)
	}
}
