// Package dashboard serves the report as an HTML page with a category multi-select,
// the histogram as a PNG, and the report JSON.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"sla-overage-report/internal/chart"
	"sla-overage-report/internal/crosstab"
	"sla-overage-report/internal/report"
)

// Server renders every request from one immutable binned table.
type Server struct {
	table  report.Table
	source string
	logger zerolog.Logger
	page   *template.Template
}

func New(table report.Table, source string, logger zerolog.Logger) *Server {
	return &Server{
		table:  table,
		source: source,
		logger: logger,
		page:   template.Must(template.New("dashboard").Funcs(pageFuncs).Parse(pageHTML)),
	}
}

// Handler returns the routed handler with logging and security headers applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.index).Methods(http.MethodGet)
	r.HandleFunc("/histogram.png", s.histogram).Methods(http.MethodGet)
	r.HandleFunc("/api/report", s.apiReport).Methods(http.MethodGet)
	r.HandleFunc("/api/records.csv", s.recordsCSV).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.Use(s.logRequests, securityHeaders)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("source", s.source).Msg("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info().Msg("dashboard shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// submittedParam is a hidden form field that tells a submitted empty multi-select
// apart from a first visit.
const submittedParam = "sel"

// choice reads the multi-select from repeated category query values. A request with
// neither values nor submittedParam selects All, matching the page default.
func choice(r *http.Request) crosstab.Choice {
	query := r.URL.Query()
	values := query["category"]
	if len(values) == 0 {
		if query.Has(submittedParam) {
			return crosstab.Choice{}
		}
		return crosstab.Choice{All: true}
	}
	return crosstab.ParseChoice(values)
}

func (s *Server) build(r *http.Request) report.Report {
	return s.table.Build(choice(r), report.Options{})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	rep := s.build(r)
	data := newPageData(s.table, rep, s.source, r.URL.RawQuery)

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error().Err(err).Msg("render dashboard failed")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) histogram(w http.ResponseWriter, r *http.Request) {
	counts := crosstab.LongForm(s.table.Records, s.table.Scheme)

	var buf bytes.Buffer
	if err := chart.Histogram(&buf, counts, s.table.Scheme.Labels); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error().Err(err).Msg("render histogram failed")
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) apiReport(w http.ResponseWriter, r *http.Request) {
	rep := s.build(r)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		s.logger.Error().Err(err).Msg("encode report failed")
	}
}

func (s *Server) recordsCSV(w http.ResponseWriter, r *http.Request) {
	rep := s.build(r)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)
	if err := report.WriteRecordsCSV(w, rep.Records); err != nil {
		s.logger.Error().Err(err).Msg("write records csv failed")
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"records": len(s.table.Records),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
