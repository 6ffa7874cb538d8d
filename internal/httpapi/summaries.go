package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/report"
)

func (a *API) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := a.service.ListSummaries(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func (a *API) handleClearSummaries(w http.ResponseWriter, r *http.Request) {
	if err := a.service.ClearSummaries(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.GetSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":              summary,
		"average_ticket_cents": summary.AverageTicketCents(),
	})
}

func (a *API) handleDeleteSummary(w http.ResponseWriter, r *http.Request) {
	deleted, err := a.service.DeleteSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, errors.New("summary not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "pdf"
	}
	if format != "pdf" && format != "csv" {
		writeError(w, http.StatusBadRequest, errors.New("format must be pdf or csv"))
		return
	}

	summary, err := a.service.GetSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var (
		body        []byte
		filename    string
		contentType string
	)
	switch format {
	case "csv":
		body, filename, err = report.SummaryCSV(summary)
		contentType = "text/csv; charset=utf-8"
	default:
		body, filename, err = a.summaryPDF(r, summary)
		contentType = "application/pdf"
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (a *API) summaryPDF(r *http.Request, summary domain.HistoricalSummary) ([]byte, string, error) {
	settings, err := a.service.GetSettings(r.Context())
	if err != nil {
		return nil, "", err
	}
	return report.SummaryPDF(summary, settings.CompanyName)
}

// handleReset wipes every collection. The body must confirm the intent.
func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if !bind(w, r, &req) {
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusBadRequest, errors.New("reset requires confirm=true"))
		return
	}
	if err := a.service.ClearEverything(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
