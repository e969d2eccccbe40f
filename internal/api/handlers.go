package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nvandessel/neurodash/internal/dataset"
	"github.com/nvandessel/neurodash/internal/models"
	"github.com/nvandessel/neurodash/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps store errors to HTTP status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrInvalid) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("store operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// respond writes rec, or 404 when it is nil.
func respond[T any](w http.ResponseWriter, rec *T, what string) {
	if rec == nil {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"dataset": s.currentCatalog() != nil,
	})
}

// Sessions

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.SessionFilter{
		Subject: q.Get("subject"),
		Status:  q.Get("status"),
		Task:    q.Get("task"),
		Search:  q.Get("search"),
	}
	if filter.Status != "" && !models.Contains(models.SessionStatuses, filter.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", filter.Status))
		return
	}
	sessions, err := s.store.ListSessions(r.Context(), filter)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	respond(w, rec, "session")
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var in store.SessionCreate
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.store.CreateSession(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	var in store.SessionUpdate
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.store.UpdateSession(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	respond(w, rec, "session")
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.DeleteSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	respond(w, rec, "session")
}

// Features

func (s *Server) listFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := s.store.ListFeatures(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, features)
}

func (s *Server) extractFeatures(w http.ResponseWriter, r *http.Request) {
	var req store.ExtractRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	features, err := s.store.ExtractFeatures(r.Context(), req)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, features)
}

// Training

func (s *Server) listTrainingJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListTrainingJobs(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) startTraining(w http.ResponseWriter, r *http.Request) {
	var req store.TrainingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.store.StartTraining(r.Context(), req)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) getTrainingJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.GetTrainingJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	respond(w, job, "training job")
}

func (s *Server) updateTrainingStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.store.UpdateTrainingStatus(r.Context(), mux.Vars(r)["id"], body.Status)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	respond(w, job, "training job")
}

// Experiments and registry

func (s *Server) listExperiments(w http.ResponseWriter, r *http.Request) {
	exps, err := s.store.ListExperiments(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exps)
}

func (s *Server) createExperiment(w http.ResponseWriter, r *http.Request) {
	var in store.ExperimentCreate
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.store.CreateExperiment(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listRegistry(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListRegistryRecords(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) createRegistry(w http.ResponseWriter, r *http.Request) {
	var in store.RegistryCreate
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.store.CreateRegistryRecord(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Dataset

// withCatalog answers 503 when no dataset is loaded.
func (s *Server) withCatalog(w http.ResponseWriter, fn func(*dataset.Catalog)) {
	c := s.currentCatalog()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "no dataset loaded; run `neurodash generate` first")
		return
	}
	fn(c)
}

func (s *Server) datasetStatistics(w http.ResponseWriter, r *http.Request) {
	s.withCatalog(w, func(c *dataset.Catalog) {
		writeJSON(w, http.StatusOK, c.Statistics())
	})
}

func (s *Server) datasetSessionMetrics(w http.ResponseWriter, r *http.Request) {
	s.withCatalog(w, func(c *dataset.Catalog) {
		m, ok := c.SessionMetrics(mux.Vars(r)["id"])
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
}

func (s *Server) datasetQualityAverage(w http.ResponseWriter, r *http.Request) {
	metricType := mux.Vars(r)["metricType"]
	if _, ok := models.MetricRanges[metricType]; !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown metric type %q", metricType))
		return
	}
	s.withCatalog(w, func(c *dataset.Catalog) {
		writeJSON(w, http.StatusOK, map[string]any{
			"metricType": metricType,
			"average":    c.AverageQualityMetric(metricType),
			"count":      len(c.QualityMetricsByType(metricType)),
		})
	})
}

func (s *Server) datasetTasks(w http.ResponseWriter, r *http.Request) {
	s.withCatalog(w, func(c *dataset.Catalog) {
		writeJSON(w, http.StatusOK, c.TaskAnalysis())
	})
}

func (s *Server) datasetSubjects(w http.ResponseWriter, r *http.Request) {
	s.withCatalog(w, func(c *dataset.Catalog) {
		writeJSON(w, http.StatusOK, c.SubjectAnalysis())
	})
}

func (s *Server) datasetBestRun(w http.ResponseWriter, r *http.Request) {
	s.withCatalog(w, func(c *dataset.Catalog) {
		run, ok := c.BestTrainingRun()
		if !ok {
			writeError(w, http.StatusNotFound, "no training runs")
			return
		}
		writeJSON(w, http.StatusOK, run)
	})
}
