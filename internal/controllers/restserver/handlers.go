package restserver

import (
	"encoding/json"
	"net/http"
)

func (c *Controller) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	run := c.latest
	c.mu.RUnlock()

	if run == nil {
		http.Error(w, `{"error": "no analysis run available yet"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(transformRun(run)); err != nil {
		c.logger.Errorf("encoding run %s: %v", run.ID, err)
	}
}

func (c *Controller) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	hasRun := c.latest != nil
	c.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"has_run": hasRun,
	})
}
