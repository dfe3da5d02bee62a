package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/dashboard"
	"Mansoor88-6/labor-cost-dashboard/internal/models"
	"Mansoor88-6/labor-cost-dashboard/internal/processor"

	"go.uber.org/zap"
)

// HealthChecker reports whether the upstream API is usable
type HealthChecker interface {
	HealthCheck() error
}

type DashboardHandler struct {
	service  *dashboard.Service
	upstream HealthChecker
	now      func() time.Time
	logger   *zap.Logger
}

func NewDashboardHandler(service *dashboard.Service, upstream HealthChecker, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		upstream: upstream,
		now:      time.Now,
		logger:   logger,
	}
}

// DashboardResponse pairs the effective filter with the overview
type DashboardResponse struct {
	State    *dashboard.State   `json:"state"`
	Overview dashboard.Overview `json:"overview"`
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state, rows, ok := h.load(w, r)
	if !ok {
		return
	}
	session, _ := SessionFromContext(r.Context())
	state.Session = session
	state.DataLoaded = true

	writeJSON(w, http.StatusOK, DashboardResponse{
		State:    state,
		Overview: h.service.Overview(rows, session.Role),
	})
}

func (h *DashboardHandler) Projects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tree, err := h.service.ProjectTree()
	if err != nil {
		writeUpstreamError(w, h.logger, "Failed to get projects", err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *DashboardHandler) TimeEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, rows, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, processor.FilterTimeEntries(rows, filter))
}

func (h *DashboardHandler) Segments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	groupBy := splitList(q.Get("group_by"))
	if len(groupBy) == 0 {
		writeError(w, http.StatusBadRequest, "Missing group_by parameter")
		return
	}
	aggs, err := parseAggregations(q["agg"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, rows, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, processor.SegmentTimeEntries(rows, groupBy, aggs, nil))
}

func (h *DashboardHandler) Quality(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, rows, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Quality(rows, h.now()))
}

func (h *DashboardHandler) ProjectStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		writeError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	state, err := parseState(r, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.service.LoadData(state.StartDate, state.EndDate, []int{id})
	if err != nil {
		writeUpstreamError(w, h.logger, "Failed to load time entries", err)
		return
	}
	status, err := h.service.ProjectStatus(id, rows, h.now())
	if err != nil {
		writeUpstreamError(w, h.logger, "Failed to analyze project", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *DashboardHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := r.URL.Query().Get("key")
	h.service.InvalidateData(key)

	session, _ := SessionFromContext(r.Context())
	h.logger.Info("Cache invalidated",
		zap.String("key", key),
		zap.String("username", session.Username),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DashboardHandler) UpstreamHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.upstream.HealthCheck(); err != nil {
		h.logger.Warn("Redmine health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *DashboardHandler) load(w http.ResponseWriter, r *http.Request) (*dashboard.State, []models.TimeEntryRow, bool) {
	state, err := parseState(r, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	rows, err := h.service.LoadData(state.StartDate, state.EndDate, state.SelectedProjects)
	if err != nil {
		writeUpstreamError(w, h.logger, "Failed to load time entries", err)
		return nil, nil, false
	}
	return state, rows, true
}

// parseState reads range, from, to and project_id. Explicit dates imply a
// custom range; a missing side keeps the default.
func parseState(r *http.Request, now time.Time) (*dashboard.State, error) {
	q := r.URL.Query()
	state := dashboard.NewState(now)

	from, to := state.StartDate, state.EndDate
	custom := false
	if v := q.Get("from"); v != "" {
		d, ok := models.ParseDate(v)
		if !ok {
			return nil, fmt.Errorf("invalid from date %q", v)
		}
		from, custom = d.Time, true
	}
	if v := q.Get("to"); v != "" {
		d, ok := models.ParseDate(v)
		if !ok {
			return nil, fmt.Errorf("invalid to date %q", v)
		}
		to, custom = d.Time, true
	}

	preset := dashboard.RangePreset(q.Get("range"))
	switch {
	case custom || preset == dashboard.RangeCustom:
		if err := state.ApplyRange(dashboard.RangeCustom, now, from, to); err != nil {
			return nil, err
		}
	case preset != "":
		if err := state.ApplyRange(preset, now, time.Time{}, time.Time{}); err != nil {
			return nil, err
		}
	}

	var ids []int
	for _, raw := range q["project_id"] {
		for _, part := range splitList(raw) {
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid project_id %q", part)
			}
			ids = append(ids, id)
		}
	}
	state.SelectProjects(ids)
	return state, nil
}

func parseFilter(r *http.Request) (processor.TimeEntryFilter, error) {
	q := r.URL.Query()
	filter := processor.TimeEntryFilter{
		ProjectName: q.Get("project"),
		UserName:    q.Get("user"),
	}
	if v := q.Get("paid"); v != "" {
		paid, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid paid value %q", v)
		}
		filter.PaymentStatus = &paid
	}
	for name, dst := range map[string]**float64{"min_hours": &filter.MinHours, "max_hours": &filter.MaxHours} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid %s value %q", name, v)
		}
		*dst = &f
	}
	return filter, nil
}

// parseAggregations reads agg values of the form column:fn1,fn2. With no
// agg parameter, hours are summed.
func parseAggregations(values []string) ([]processor.Aggregation, error) {
	if len(values) == 0 {
		return []processor.Aggregation{{Column: "hours", Funcs: []string{processor.AggSum}}}, nil
	}
	aggs := make([]processor.Aggregation, 0, len(values))
	for _, v := range values {
		column, funcs, found := strings.Cut(v, ":")
		if !found || column == "" {
			return nil, fmt.Errorf("invalid agg %q, want column:func[,func]", v)
		}
		aggs = append(aggs, processor.Aggregation{Column: column, Funcs: splitList(funcs)})
	}
	return aggs, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

