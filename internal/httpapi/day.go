package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"brasa/backend/internal/domain"
)

func (a *API) handleCurrentDay(w http.ResponseWriter, r *http.Request) {
	day, err := a.service.CurrentDay(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": day})
}

func (a *API) handleOpenDay(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenDayRequest
	if !bind(w, r, &req) {
		return
	}
	day, err := a.service.OpenDay(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if day == nil {
		writeNotApplied(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"day": day})
}

func (a *API) handleCloseDay(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.CloseDay(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if summary == nil {
		writeNotApplied(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (a *API) handleAddStock(w http.ResponseWriter, r *http.Request) {
	var req domain.AddStockRequest
	if !bind(w, r, &req) {
		return
	}
	entry, err := a.service.AddStock(r.Context(), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entry == nil {
		writeNotApplied(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stock": entry})
}

// handleLowStock reads an optional threshold; without one the configured
// default applies.
func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := -1
	if raw := strings.TrimSpace(r.URL.Query().Get("threshold")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, errors.New("threshold must be a non-negative integer"))
			return
		}
		threshold = parsed
	}
	alerts, err := a.service.LowStock(r.Context(), threshold)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (a *API) handleAddOrderItem(w http.ResponseWriter, r *http.Request) {
	var req domain.AddOrderItemRequest
	if !bind(w, r, &req) {
		return
	}
	order, err := a.service.AddOrderItem(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if order == nil {
		writeNotApplied(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"order": order})
}

func (a *API) handleStartPreparation(w http.ResponseWriter, r *http.Request) {
	a.writeOrderResult(w, r, a.service.StartPreparation)
}

func (a *API) handleDeliverOrder(w http.ResponseWriter, r *http.Request) {
	a.writeOrderResult(w, r, a.service.DeliverOrder)
}

func (a *API) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	a.writeOrderResult(w, r, a.service.CancelAwaitingOrder)
}

func (a *API) writeOrderResult(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, orderID string) (*domain.Order, error)) {
	order, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if order == nil {
		writeNotApplied(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handlePreviewCancellation(w http.ResponseWriter, r *http.Request) {
	preview, err := a.service.PreviewCancellation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if preview == nil {
		writeNotApplied(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preview": preview})
}

func (a *API) handlePendingSettlements(w http.ResponseWriter, r *http.Request) {
	groups, err := a.service.PendingSettlements(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": groups})
}

func (a *API) handleSettlePayment(w http.ResponseWriter, r *http.Request) {
	var req domain.SettlePaymentRequest
	if !bind(w, r, &req) {
		return
	}
	payment, err := a.service.SettlePayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if payment == nil {
		writeNotApplied(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"payment": payment})
}
