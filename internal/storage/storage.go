// Package storage persists flux-estimate results to TimescaleDB. Each run
// fans out to one row per sensor pair per method, hypertabled on
// computed_at so long-running monitoring deployments can query flux history
// the same way they query the raw sensor data.
package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hydrotherm/vflux/internal/analysis"
	"github.com/hydrotherm/vflux/internal/database"
	"github.com/hydrotherm/vflux/internal/log"
	"github.com/hydrotherm/vflux/pkg/config"
	"github.com/hydrotherm/vflux/pkg/vflux"
	"gorm.io/gorm"
)

const createHypertableSQL = `SELECT create_hypertable('flux_estimates', 'computed_at', if_not_exists => TRUE)`

// FluxRecord is one method's estimate for one pair in one run. Undefined
// velocities are stored as NULL, never as zero.
type FluxRecord struct {
	RunID           string    `gorm:"column:run_id;index"`
	PairName        string    `gorm:"column:pair_name"`
	ShallowSensor   string    `gorm:"column:shallow_sensor"`
	DeepSensor      string    `gorm:"column:deep_sensor"`
	DepthDifference float64   `gorm:"column:depth_difference"`
	Method          string    `gorm:"column:method"`
	ComputedAt      time.Time `gorm:"column:computed_at;index"`
	VelocityMS      *float64  `gorm:"column:velocity_ms"`
	MMPerDay        *float64  `gorm:"column:mm_per_day"`
	Defined         bool      `gorm:"column:defined"`
	Reason          string    `gorm:"column:reason"`
	FallbackUsed    bool      `gorm:"column:fallback_used"`
	Provisional     bool      `gorm:"column:provisional"`
	Diffusivity     float64   `gorm:"column:diffusivity"`
}

// TableName customizes the table name for GORM
func (FluxRecord) TableName() string {
	return "flux_estimates"
}

// Storage is the TimescaleDB result sink.
type Storage struct {
	db *gorm.DB
}

// New connects to TimescaleDB and prepares the flux_estimates hypertable.
func New(ctx context.Context, cfg *config.TimescaleDBData) (*Storage, error) {
	db, err := database.CreateConnection(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).AutoMigrate(&FluxRecord{}); err != nil {
		return nil, fmt.Errorf("storage: migrating flux_estimates: %w", err)
	}
	if err := db.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		// Plain Postgres without the extension still works, just without
		// hypertable chunking.
		log.Warnf("could not create hypertable (TimescaleDB extension missing?): %v", err)
	}

	return &Storage{db: db}, nil
}

// StoreRun writes every pair/method estimate of a run.
func (s *Storage) StoreRun(ctx context.Context, run *analysis.RunResult) error {
	records := RecordsFromRun(run)
	if len(records) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("storage: storing run %s: %w", run.ID, err)
	}
	log.Infof("stored %d flux estimates for run %s", len(records), run.ID)
	return nil
}

// RecordsFromRun flattens a run into rows. Pairs that failed their harmonic
// fit contribute nothing; undefined estimates are kept, with NULL
// velocities and their reason code.
func RecordsFromRun(run *analysis.RunResult) []FluxRecord {
	var records []FluxRecord
	for _, pr := range run.Pairs {
		if pr.FitError != "" {
			continue
		}
		for _, m := range vflux.Methods {
			est := pr.Result.Estimates[m]
			records = append(records, FluxRecord{
				RunID:           run.ID.String(),
				PairName:        pr.Name,
				ShallowSensor:   pr.Shallow,
				DeepSensor:      pr.Deep,
				DepthDifference: pr.DepthDifference,
				Method:          string(est.Method),
				ComputedAt:      run.CompletedAt,
				VelocityMS:      nullableFloat(est.VelocityMS),
				MMPerDay:        nullableFloat(est.MMPerDay),
				Defined:         est.Defined,
				Reason:          string(est.Reason),
				FallbackUsed:    est.FallbackUsed,
				Provisional:     est.Provisional,
				Diffusivity:     pr.Result.Diffusivity,
			})
		}
	}
	return records
}

func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
