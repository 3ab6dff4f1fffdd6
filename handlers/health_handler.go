package handlers

import (
	"net/http"
	"time"

	"github.com/medreconcile/medreconcile-api/interfaces"
)

// Health reports service health, reference data freshness and the next
// scheduled refresh.
func Health(checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, details, httpStatus := checker.HealthCheck()

		payload := map[string]any{
			"status":       status,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
			"next_refresh": checker.CalculateNextRefresh().UTC().Format(time.RFC3339),
		}
		for k, v := range details {
			payload[k] = v
		}
		RespondWithJSON(w, r, httpStatus, payload)
	}
}
