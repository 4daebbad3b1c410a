// Package restserver exposes analysis results over HTTP. It serves the
// most recent run as JSON; computation happens elsewhere and is handed in
// via SetResult.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hydrotherm/vflux/internal/analysis"
	"github.com/hydrotherm/vflux/internal/log"
	"github.com/hydrotherm/vflux/pkg/config"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	restConfig config.RESTData
	Server     http.Server
	logger     *zap.SugaredLogger

	mu     sync.RWMutex
	latest *analysis.RunResult
}

// NewController creates a new REST server controller
func NewController(rc config.RESTData, logger *zap.SugaredLogger) (*Controller, error) {
	if rc.Port == 0 {
		return nil, fmt.Errorf("restserver: port must be configured")
	}

	ctrl := &Controller{
		restConfig: rc,
		logger:     logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/runs/latest", ctrl.handleLatestRun).Methods("GET")
	router.HandleFunc("/api/v1/health", ctrl.handleHealth).Methods("GET")

	ctrl.Server = http.Server{
		Addr:         fmt.Sprintf("%s:%d", rc.ListenAddr, rc.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return ctrl, nil
}

// SetResult publishes a completed run to HTTP clients.
func (c *Controller) SetResult(run *analysis.RunResult) {
	c.mu.Lock()
	c.latest = run
	c.mu.Unlock()
}

// StartController runs the HTTP server until the context is cancelled.
func (c *Controller) StartController(ctx context.Context, wg *sync.WaitGroup) error {
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Errorf("REST server shutdown: %v", err)
		}
	}()

	log.Infof("starting REST server on %s", c.Server.Addr)
	if err := c.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("restserver: %w", err)
	}
	return nil
}
