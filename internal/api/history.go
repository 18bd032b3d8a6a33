package api

import (
	"errors"
	"net/http"

	"github.com/ferritewatch/ferrite-core/internal/monitor"
	"github.com/ferritewatch/ferrite-core/internal/warehouse"
)

// handleHistory serves metric history for one monitor.
//
// Query parameters:
//   - app: application category the monitor belongs to (required)
//   - metrics: metric-set name (required)
//   - metric: column to read (required)
//   - label: pins the result to one instance signature; omit to fan out
//     across all instances ("" selects the unlabeled series)
//   - lookback: window such as "6h" or "30d", defaults server-side
//   - interval: "true" returns 4-hour aggregate buckets instead of raw
//     samples
//
// The monitor must be registered; an unknown id is a 404. A warehouse
// that never became available answers 503 rather than an empty result,
// so dashboards can tell "no data" from "no store".
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := monitorID(w, r)
	if !ok {
		return
	}

	if _, err := s.repo.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, monitor.ErrNotFound) {
			writeNotFound(w, "monitor not found")
			return
		}
		s.logger.Error("fetching monitor failed", "monitor_id", id, "error", err)
		writeInternalError(w, "failed to fetch monitor")
		return
	}

	params := r.URL.Query()
	app := params.Get("app")
	metricsName := params.Get("metrics")
	metric := params.Get("metric")
	if app == "" || metricsName == "" || metric == "" {
		writeBadRequest(w, "app, metrics and metric are required")
		return
	}

	if s.store == nil || !s.store.Available() {
		writeUnavailable(w, "history store is not available")
		return
	}

	query := warehouse.HistoryQuery{
		MonitorID: id,
		App:       app,
		Metrics:   metricsName,
		Metric:    metric,
		Lookback:  params.Get("lookback"),
	}
	if params.Has("label") {
		label := params.Get("label")
		query.Label = &label
	}

	var instances any
	if params.Get("interval") == "true" {
		instances = s.store.GetHistoryInterval(r.Context(), query)
	} else {
		instances = s.store.GetHistory(r.Context(), query)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"monitor_id": id,
		"metrics":    metricsName,
		"metric":     metric,
		"instances":  instances,
	})
}
