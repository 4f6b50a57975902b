package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// FindByApplicationNumber returns the patent, product, exclusivity and
// Purple Book rows of one application
func (h *HTTPHandlerImpl) FindByApplicationNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	canonical, err := h.validator.ValidateApplicationNumber(number)
	if err != nil {
		h.badRequest(w, "application number", number, err)
		return
	}

	bundle, err := h.orangebook.ByApplicationNumber(r.Context(), canonical)
	h.respondWith(w, r, bundle, err)
}

// FindByNDC resolves an NDC to its application, then behaves like FindByApplicationNumber
func (h *HTTPHandlerImpl) FindByNDC(w http.ResponseWriter, r *http.Request) {
	ndc, err := h.validator.ValidateNDC(chi.URLParam(r, "ndc"))
	if err != nil {
		h.badRequest(w, "ndc", chi.URLParam(r, "ndc"), err)
		return
	}

	bundle, err := h.orangebook.ByNDC(r.Context(), ndc)
	h.respondWith(w, r, bundle, err)
}

// FindProducts returns the Orange Book products of an active ingredient
func (h *HTTPHandlerImpl) FindProducts(w http.ResponseWriter, r *http.Request) {
	ingredient := r.URL.Query().Get("ingredient")
	if ingredient == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing ingredient")
		return
	}
	if err := h.validator.ValidateSearchTerm(ingredient); err != nil {
		h.badRequest(w, "ingredient", ingredient, err)
		return
	}

	products, err := h.orangebook.ProductsByIngredient(r.Context(), ingredient)
	h.respondWith(w, r, products, err)
}
