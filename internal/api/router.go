package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handler builds the router with every route and middleware attached.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	if s.opts.FixturesDir != "" {
		r.PathPrefix("/mock-data/").Handler(
			http.StripPrefix("/mock-data/", http.FileServer(http.Dir(s.opts.FixturesDir)))).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimit)

	// Lab backend records
	api.HandleFunc("/sessions", s.listSessions).Methods("GET")
	api.HandleFunc("/sessions", s.createSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", s.getSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.updateSession).Methods("PATCH")
	api.HandleFunc("/sessions/{id}", s.deleteSession).Methods("DELETE")

	api.HandleFunc("/features", s.listFeatures).Methods("GET")
	api.HandleFunc("/features/extract", s.extractFeatures).Methods("POST")

	api.HandleFunc("/training", s.listTrainingJobs).Methods("GET")
	api.HandleFunc("/training", s.startTraining).Methods("POST")
	api.HandleFunc("/training/{id}", s.getTrainingJob).Methods("GET")
	api.HandleFunc("/training/{id}/status", s.updateTrainingStatus).Methods("PATCH")

	api.HandleFunc("/experiments", s.listExperiments).Methods("GET")
	api.HandleFunc("/experiments", s.createExperiment).Methods("POST")

	api.HandleFunc("/registry", s.listRegistry).Methods("GET")
	api.HandleFunc("/registry", s.createRegistry).Methods("POST")

	// Generated dataset
	ds := api.PathPrefix("/dataset").Subrouter()
	ds.HandleFunc("/statistics", s.datasetStatistics).Methods("GET")
	ds.HandleFunc("/sessions/{id}/metrics", s.datasetSessionMetrics).Methods("GET")
	ds.HandleFunc("/quality/{metricType}/average", s.datasetQualityAverage).Methods("GET")
	ds.HandleFunc("/tasks", s.datasetTasks).Methods("GET")
	ds.HandleFunc("/subjects", s.datasetSubjects).Methods("GET")
	ds.HandleFunc("/training-runs/best", s.datasetBestRun).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}
