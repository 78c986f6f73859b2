package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adlens/ads-audit/internal/audit"
	"github.com/adlens/ads-audit/internal/config"
	"github.com/adlens/ads-audit/internal/domain"
	"github.com/adlens/ads-audit/internal/gads"
	"github.com/adlens/ads-audit/internal/pkg/logger"
	"github.com/adlens/ads-audit/internal/report/assemble"
	"github.com/adlens/ads-audit/internal/storage"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	auditService *audit.Service
	storage      *storage.Storage
	reportStore  *storage.ReportStore
	recordCache  *gads.CachedFetcher
	config       *config.Config
	startedAt    time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(auditService *audit.Service, store *storage.Storage, cfg *config.Config) *Handlers {
	return &Handlers{
		auditService: auditService,
		storage:      store,
		config:       cfg,
		startedAt:    time.Now().UTC(),
	}
}

// SetReportStore sets the optional Postgres report store
func (h *Handlers) SetReportStore(rs *storage.ReportStore) {
	h.reportStore = rs
}

// SetRecordCache sets the Redis record cache, enabling refresh=true on
// audit runs.
func (h *Handlers) SetRecordCache(c *gads.CachedFetcher) {
	h.recordCache = c
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// parseWindow extracts the reporting window from query parameters.
// Explicit start_date/end_date win; otherwise the configured lookback
// window applies.
func (h *Handlers) parseWindow(r *http.Request) (gads.DateRange, error) {
	startStr := r.URL.Query().Get("start_date")
	endStr := r.URL.Query().Get("end_date")

	if startStr == "" && endStr == "" {
		return gads.LastNDays(h.config.Audit.LookbackDays), nil
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return gads.DateRange{}, err
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return gads.DateRange{}, err
	}
	window := gads.DateRange{Start: start, End: end}
	return window, window.Validate()
}

// Health check

// HealthCheck returns the health status of the API
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	lastRun := h.auditService.LastRun()

	// Consider degraded when the scheduled run is overdue
	if !lastRun.IsZero() && time.Since(lastRun) > 2*h.config.Audit.Interval() {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"last_run":  lastRun,
		"uptime":    time.Since(h.startedAt).String(),
		"storage":   h.storage.GetCacheStats(),
	})
}

// lookupReport reads a report from the archive, falling back to the
// Postgres store for runs that aged out of the archive.
func (h *Handlers) lookupReport(r *http.Request, id string) (*assemble.Report, error) {
	report, err := h.storage.GetReport(r.Context(), id)
	if err == nil {
		return report, nil
	}
	if h.reportStore != nil {
		return h.reportStore.Get(r.Context(), id)
	}
	return nil, err
}

// Audit handlers

// RunAudit executes an audit run synchronously and archives the report.
// With refresh=true, cached records are dropped so the run fetches fresh
// data from the vendor API.
// POST /api/audits
func (h *Handlers) RunAudit(w http.ResponseWriter, r *http.Request) {
	window, err := h.parseWindow(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date range: "+err.Error())
		return
	}

	if r.URL.Query().Get("refresh") == "true" && h.recordCache != nil {
		for _, kind := range domain.Kinds() {
			if err := h.recordCache.Invalidate(r.Context(), kind); err != nil {
				logger.Warn("record cache invalidation failed",
					"kind", string(kind), "error", err.Error())
			}
		}
	}

	report, err := h.auditService.RunWindow(r.Context(), window)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "audit run failed: "+err.Error())
		return
	}

	if err := h.storage.SaveReport(r.Context(), report); err != nil {
		logger.Error("archiving report failed", "report_id", report.ID, "error", err.Error())
	}
	if h.reportStore != nil {
		if err := h.reportStore.Save(r.Context(), report); err != nil {
			logger.Error("persisting report failed", "report_id", report.ID, "error", err.Error())
		}
	}

	respondJSON(w, http.StatusCreated, report)
}

// ListAudits returns archived report summaries, newest first.
// GET /api/audits?customer_id=...&limit=...
func (h *Handlers) ListAudits(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		customerID = h.config.GoogleAds.CustomerID
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	summaries, err := h.storage.ListReports(r.Context(), customerID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The archive only holds recent runs; Postgres keeps full history
	if len(summaries) == 0 && h.reportStore != nil {
		summaries, err = h.reportStore.List(r.Context(), customerID, limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"audits": summaries,
		"total":  len(summaries),
	})
}

// GetAudit returns one archived report by ID.
// GET /api/audits/{id}
func (h *Handlers) GetAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.lookupReport(r, id)
	if err != nil {
		respondError(w, http.StatusNotFound, "report not found")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// DeleteAudit removes an archived report.
// DELETE /api/audits/{id}
func (h *Handlers) DeleteAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.storage.DeleteReport(r.Context(), id)
	if err != nil && err != storage.ErrNotFound {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	found := err == nil

	if h.reportStore != nil {
		switch err := h.reportStore.Delete(r.Context(), id); err {
		case nil:
			found = true
		case storage.ErrNotFound:
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if !found {
		respondError(w, http.StatusNotFound, "report not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// GetAuditSection returns one section of an archived report.
// GET /api/audits/{id}/sections/{name}
func (h *Handlers) GetAuditSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")

	report, err := h.lookupReport(r, id)
	if err != nil {
		respondError(w, http.StatusNotFound, "report not found")
		return
	}

	section := report.Section(name)
	if section == nil {
		respondError(w, http.StatusNotFound, "section not found")
		return
	}
	respondJSON(w, http.StatusOK, section)
}

// GetRecommendations returns the latest report's recommendations, optionally
// filtered by category and minimum priority.
// GET /api/recommendations?customer_id=...&category=...&min_priority=...
func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		customerID = h.config.GoogleAds.CustomerID
	}

	report, err := h.storage.LatestReport(r.Context(), customerID)
	if err != nil {
		respondError(w, http.StatusNotFound, "no reports for customer")
		return
	}

	category := r.URL.Query().Get("category")
	minPriority := 0
	if raw := r.URL.Query().Get("min_priority"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid min_priority")
			return
		}
		minPriority = n
	}

	all := report.Recommendations()
	filtered := all[:0:0]
	for _, rec := range all {
		if category != "" && rec.Category != category {
			continue
		}
		if rec.Priority < minPriority {
			continue
		}
		filtered = append(filtered, rec)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"report_id":       report.ID,
		"generated_at":    report.GeneratedAt,
		"recommendations": filtered,
		"total":           len(filtered),
	})
}

// GetSections lists the available audit sections.
// GET /api/sections
func (h *Handlers) GetSections(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sections": audit.SectionNames(),
	})
}
