package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// noDataMessage is reported by the dashboard route when the upstream feed
// returned nothing at all.
const noDataMessage = "no data available"

// envelope wraps single-view responses with the snapshot they were computed
// from, so a client can tell whether two responses are consistent.
type envelope struct {
	SnapshotID string    `json:"snapshot_id"`
	FetchedAt  time.Time `json:"fetched_at"`
	Data       any       `json:"data"`
}

type dashboardResponse struct {
	pipeline.View
	Detections []domain.Detection `json:"detections"`
	Timelapse  []domain.Frame     `json:"timelapse"`
	Message    string             `json:"message,omitempty"`
}

func (s *Server) routes(r chi.Router) {
	r.Get("/detections", s.view("detections", func(v pipeline.View) any { return v.Detections }))
	r.Get("/summary", s.view("summary", func(v pipeline.View) any { return v.Summary }))
	r.Get("/top", s.view("top", func(v pipeline.View) any { return v.TopThreats }))
	r.Get("/hourly", s.view("hourly", func(v pipeline.View) any { return v.Hourly }))
	r.Get("/regions", s.view("regions", func(v pipeline.View) any { return v.Regions }))
	r.Get("/regions/density", s.view("density", func(v pipeline.View) any { return v.Density }))
	r.Get("/timelapse", s.view("timelapse", func(v pipeline.View) any { return v.Timelapse }))
	r.Get("/filters", s.view("filters", func(v pipeline.View) any { return v.Bounds }))
	r.Get("/focus", s.view("focus", func(v pipeline.View) any { return v.Focus }))
	r.Get("/export.csv", s.handleExport)
	r.Get("/dashboard", s.handleDashboard)
}

func (s *Server) view(name string, pick func(pipeline.View) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := s.query(w, r, name)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, envelope{
			SnapshotID: v.SnapshotID,
			FetchedAt:  v.FetchedAt,
			Data:       pick(v),
		})
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v, ok := s.query(w, r, "dashboard")
	if !ok {
		return
	}
	resp := dashboardResponse{
		View:       v,
		Detections: v.Detections,
		Timelapse:  v.Timelapse,
	}
	if v.NoData {
		resp.Message = noDataMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	v, ok := s.query(w, r, "export")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "fire-detections-"+v.SnapshotID+".csv"))
	w.WriteHeader(http.StatusOK)
	if err := domain.WriteCSV(w, v.Detections); err != nil {
		s.logger.Warn("csv export interrupted",
			"snapshot_id", v.SnapshotID,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
}

// query parses the request, evaluates it and writes the error response when
// it fails. The bool reports whether the caller should write a body.
func (s *Server) query(w http.ResponseWriter, r *http.Request, name string) (pipeline.View, bool) {
	s.metrics.Queries.WithLabelValues(name).Inc()

	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return pipeline.View{}, false
	}

	v, err := s.queries.Query(r.Context(), q)
	switch {
	case errors.Is(err, pipeline.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
		return pipeline.View{}, false
	case err != nil:
		s.logger.Warn("dashboard query failed",
			"view", name,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusServiceUnavailable, "detections unavailable")
		return pipeline.View{}, false
	}
	return v, true
}

// parseQuery maps URL parameters onto a pipeline.Query. An absent parameter
// leaves the default in place; a present but empty list parameter selects
// nothing.
func parseQuery(values url.Values) (pipeline.Query, error) {
	var (
		q   pipeline.Query
		err error
	)
	if q.MinFRP, err = floatParam(values, "min_frp"); err != nil {
		return q, err
	}
	if q.HourMin, err = intParam(values, "hour_min"); err != nil {
		return q, err
	}
	if q.HourMax, err = intParam(values, "hour_max"); err != nil {
		return q, err
	}
	if q.TopN, err = intParam(values, "n"); err != nil {
		return q, err
	}
	if q.FocusIndex, err = intParam(values, "index"); err != nil {
		return q, err
	}
	if q.Dense, err = boolParam(values, "dense"); err != nil {
		return q, err
	}
	if q.ExcludeOther, err = boolParam(values, "exclude_other"); err != nil {
		return q, err
	}

	q.DayNight = listParam(values, "daynight")
	for i, code := range q.DayNight {
		q.DayNight[i] = strings.ToUpper(code)
	}
	q.Regions = listParam(values, "region")

	if raw, ok := lookup(values, "grouping"); ok {
		g, err := domain.ParseGrouping(raw)
		if err != nil {
			return q, fmt.Errorf("invalid grouping: %w", err)
		}
		q.Grouping = &g
	}
	return q, nil
}

func lookup(values url.Values, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return strings.TrimSpace(vs[0]), true
}

func floatParam(values url.Values, key string) (*float64, error) {
	raw, ok := lookup(values, key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: must be a number", key, raw)
	}
	return &v, nil
}

func intParam(values url.Values, key string) (*int, error) {
	raw, ok := lookup(values, key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: must be an integer", key, raw)
	}
	return &v, nil
}

func boolParam(values url.Values, key string) (*bool, error) {
	raw, ok := lookup(values, key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: must be true or false", key, raw)
	}
	return &v, nil
}

// listParam returns nil when key is absent and a non-nil slice otherwise.
// Repeated keys and comma-separated values are merged.
func listParam(values url.Values, key string) []string {
	vs, ok := values[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range vs {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
