package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ferritewatch/ferrite-core/internal/monitor"
)

// handleListMonitors returns all registered monitors, optionally filtered
// by the app query parameter.
func (s *Server) handleListMonitors(w http.ResponseWriter, r *http.Request) {
	monitors, err := s.repo.List(r.Context(), r.URL.Query().Get("app"))
	if err != nil {
		s.logger.Error("listing monitors failed", "error", err)
		writeInternalError(w, "failed to list monitors")
		return
	}
	if monitors == nil {
		monitors = []monitor.Monitor{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"monitors": monitors,
		"count":    len(monitors),
	})
}

// handleCreateMonitor registers a monitor ahead of its first snapshot.
func (s *Server) handleCreateMonitor(w http.ResponseWriter, r *http.Request) {
	var m monitor.Monitor
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if m.ID <= 0 {
		writeBadRequest(w, "id must be a positive integer")
		return
	}
	if m.App == "" {
		writeBadRequest(w, "app is required")
		return
	}
	m.Status = monitor.StatusUnknown
	m.LastSeen = nil

	if err := s.repo.Create(r.Context(), &m); err != nil {
		if errors.Is(err, monitor.ErrExists) {
			writeConflict(w, "monitor already exists")
			return
		}
		s.logger.Error("creating monitor failed", "monitor_id", m.ID, "error", err)
		writeInternalError(w, "failed to create monitor")
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// handleGetMonitor returns one monitor by id.
func (s *Server) handleGetMonitor(w http.ResponseWriter, r *http.Request) {
	id, ok := monitorID(w, r)
	if !ok {
		return
	}

	m, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, monitor.ErrNotFound) {
			writeNotFound(w, "monitor not found")
			return
		}
		s.logger.Error("fetching monitor failed", "monitor_id", id, "error", err)
		writeInternalError(w, "failed to fetch monitor")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// handleDeleteMonitor removes a monitor registration. History already
// written stays in the warehouse until its retention expires.
func (s *Server) handleDeleteMonitor(w http.ResponseWriter, r *http.Request) {
	id, ok := monitorID(w, r)
	if !ok {
		return
	}

	if err := s.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, monitor.ErrNotFound) {
			writeNotFound(w, "monitor not found")
			return
		}
		s.logger.Error("deleting monitor failed", "monitor_id", id, "error", err)
		writeInternalError(w, "failed to delete monitor")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// monitorID parses the {id} route parameter, writing a 400 on failure.
func monitorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
