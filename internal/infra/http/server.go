package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"plant-advisor/internal/domain"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/repository"
	"plant-advisor/internal/infra/logging"
	"plant-advisor/internal/infra/metrics"
)

// Queue is what the admin surface reads for one work type.
type Queue struct {
	Requests    repository.RequestQueue
	Results     repository.ResultStore
	DeadLetters repository.DeadLetterStore
}

type queueView struct {
	WorkType    string `json:"work_type"`
	Requests    int    `json:"requests"`
	Processed   int    `json:"processed"`
	Pending     int    `json:"pending"`
	Results     int    `json:"results"`
	DeadLetters int    `json:"dead_letters"`
}

// Server is the read-only admin endpoint of the consumer process.
type Server struct {
	port   int
	queues map[model.WorkType]Queue
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(port int, queues map[model.WorkType]Queue, logger *zerolog.Logger) *Server {
	l := logging.Component(logger, "AdminHTTP")
	return &Server{port: port, queues: queues, log: l}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthCheck)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/queues", s.handleQueues)
	r.Get("/queues/{workType}", s.handleQueue)
	r.Get("/queues/{workType}/dead-letters", s.handleDeadLetters)
	r.Get("/results/{workType}/{id}", s.handleResult)
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.port).Msg("admin HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) view(ctx context.Context, wt model.WorkType, q Queue) (queueView, error) {
	v := queueView{WorkType: wt.String()}
	st, err := q.Requests.Stats(ctx)
	if err != nil && !errors.Is(err, domain.ErrStoreReset) {
		return v, err
	}
	v.Requests, v.Processed, v.Pending = st.Requests, st.Processed, st.Pending
	if v.Results, err = q.Results.Count(ctx); err != nil {
		return v, err
	}
	if q.DeadLetters != nil {
		dls, err := q.DeadLetters.List(ctx)
		if err != nil {
			return v, err
		}
		v.DeadLetters = len(dls)
	}
	return v, nil
}

func (s *Server) handleQueues(w http.ResponseWriter, r *http.Request) {
	out := make([]queueView, 0, len(s.queues))
	for _, wt := range model.WorkTypes {
		q, ok := s.queues[wt]
		if !ok {
			continue
		}
		v, err := s.view(r.Context(), wt, q)
		if err != nil {
			s.fail(w, err)
			return
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) queue(w http.ResponseWriter, r *http.Request) (model.WorkType, Queue, bool) {
	wt, ok := model.ParseWorkType(chi.URLParam(r, "workType"))
	q, found := s.queues[wt]
	if !ok || !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown work type"})
		return "", Queue{}, false
	}
	return wt, q, true
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	wt, q, ok := s.queue(w, r)
	if !ok {
		return
	}
	v, err := s.view(r.Context(), wt, q)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	_, q, ok := s.queue(w, r)
	if !ok {
		return
	}
	dls := []model.DeadLetter{}
	if q.DeadLetters != nil {
		list, err := q.DeadLetters.List(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		dls = append(dls, list...)
	}
	writeJSON(w, http.StatusOK, dls)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	_, q, ok := s.queue(w, r)
	if !ok {
		return
	}
	res, found, err := q.Results.PollResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("admin request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
