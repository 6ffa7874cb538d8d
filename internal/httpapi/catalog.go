package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"brasa/backend/internal/domain"
)

type settingsRequest struct {
	AllowStartWithoutBalance bool   `json:"allow_start_without_balance"`
	ControlStock             bool   `json:"control_stock"`
	CompanyName              string `json:"company_name" validate:"max=120"`
	PixKey                   string `json:"pix_key" validate:"max=140"`
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.service.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (a *API) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !bind(w, r, &req) {
		return
	}
	settings, err := a.service.UpdateSettings(r.Context(), domain.Settings{
		AllowStartWithoutBalance: req.AllowStartWithoutBalance,
		ControlStock:             req.ControlStock,
		CompanyName:              req.CompanyName,
		PixKey:                   req.PixKey,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductDraft
	if !bind(w, r, &req) {
		return
	}
	product, err := a.service.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (a *API) handleEditProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductPatch
	if !bind(w, r, &req) {
		return
	}
	product, err := a.service.EditProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, errors.New("product not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleRemoveProduct(w http.ResponseWriter, r *http.Request) {
	removed, err := a.service.RemoveProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, errors.New("product not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := a.service.ListCustomers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (a *API) handleAddCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerDraft
	if !bind(w, r, &req) {
		return
	}
	customer, err := a.service.AddCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
}

func (a *API) handleEditCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerPatch
	if !bind(w, r, &req) {
		return
	}
	customer, err := a.service.EditCustomer(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if customer == nil {
		writeError(w, http.StatusNotFound, errors.New("customer not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (a *API) handleRemoveCustomer(w http.ResponseWriter, r *http.Request) {
	removed, err := a.service.RemoveCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, errors.New("customer not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCustomerSalesCount(w http.ResponseWriter, r *http.Request) {
	count, err := a.service.CustomerSalesCount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales_count": count})
}
