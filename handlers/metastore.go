package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListSchemas returns the schema names of the metastore
func (h *HTTPHandlerImpl) ListSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.metastore.ListSchemas(r.Context())
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, schemas)
}

// GetSchema returns the JSON schema document of one schema
func (h *HTTPHandlerImpl) GetSchema(w http.ResponseWriter, r *http.Request) {
	schema := chi.URLParam(r, "schema")
	if err := h.validator.ValidateSchema(schema); err != nil {
		h.badRequest(w, "schema", schema, err)
		return
	}

	doc, err := h.metastore.GetSchema(r.Context(), schema)
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, doc)
}

// ListItems returns every item of a schema, unmodified
func (h *HTTPHandlerImpl) ListItems(w http.ResponseWriter, r *http.Request) {
	schema := chi.URLParam(r, "schema")
	if err := h.validator.ValidateSchema(schema); err != nil {
		h.badRequest(w, "schema", schema, err)
		return
	}

	items, err := h.metastore.ListItems(r.Context(), schema)
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, items)
}

// GetItem returns a single item of a schema
func (h *HTTPHandlerImpl) GetItem(w http.ResponseWriter, r *http.Request) {
	schema := chi.URLParam(r, "schema")
	if err := h.validator.ValidateSchema(schema); err != nil {
		h.badRequest(w, "schema", schema, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateIdentifier(id); err != nil {
		h.badRequest(w, "id", id, err)
		return
	}

	item, err := h.metastore.GetItem(r.Context(), schema, id)
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, item)
}

// DatasetURLs returns the download URL of every dataset
func (h *HTTPHandlerImpl) DatasetURLs(w http.ResponseWriter, r *http.Request) {
	urls, err := h.metastore.AllDatasetURLs(r.Context())
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, urls)
}

// singleParam returns the only non-empty query parameter among names
func singleParam(r *http.Request, names ...string) (name, value string, err error) {
	q := r.URL.Query()
	for _, n := range names {
		v := q.Get(n)
		if v == "" {
			continue
		}
		if name != "" {
			return "", "", fmt.Errorf("only one of %v can be given", names)
		}
		name, value = n, v
	}
	if name == "" {
		return "", "", fmt.Errorf("one of %v is required", names)
	}
	return name, value, nil
}

// SearchDatasets matches datasets on exactly one of title, keyword,
// description or download url
func (h *HTTPHandlerImpl) SearchDatasets(w http.ResponseWriter, r *http.Request) {
	field, value, err := singleParam(r, "title", "keyword", "description", "url")
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if field == "url" {
		err = h.validator.ValidateURL(value)
	} else {
		err = h.validator.ValidateSearchTerm(value)
	}
	if err != nil {
		h.badRequest(w, field, value, err)
		return
	}

	ctx := r.Context()
	switch field {
	case "title":
		datasets, err := h.metastore.DatasetsByTitle(ctx, value)
		h.respondWith(w, r, datasets, err)
	case "keyword":
		datasets, err := h.metastore.DatasetsByKeyword(ctx, value)
		h.respondWith(w, r, datasets, err)
	case "description":
		datasets, err := h.metastore.DatasetsByDescription(ctx, value)
		h.respondWith(w, r, datasets, err)
	default:
		datasets, err := h.metastore.DatasetsByDownloadURL(ctx, value)
		h.respondWith(w, r, datasets, err)
	}
}

// DatasetToDistribution converts a dataset identifier to its distribution identifier
func (h *HTTPHandlerImpl) DatasetToDistribution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateIdentifier(id); err != nil {
		h.badRequest(w, "id", id, err)
		return
	}

	distributionID, err := h.metastore.DatasetToDistributionID(r.Context(), id)
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, map[string]string{
		"dataset_id":      id,
		"distribution_id": distributionID,
	})
}

// DistributionToDataset converts a distribution identifier to its dataset identifier
func (h *HTTPHandlerImpl) DistributionToDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateIdentifier(id); err != nil {
		h.badRequest(w, "id", id, err)
		return
	}

	datasetID, err := h.metastore.DistributionToDatasetID(r.Context(), id)
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, map[string]string{
		"distribution_id": id,
		"dataset_id":      datasetID,
	})
}

// SearchDistributions matches distributions on their download url
func (h *HTTPHandlerImpl) SearchDistributions(w http.ResponseWriter, r *http.Request) {
	downloadURL := r.URL.Query().Get("url")
	if downloadURL == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing url")
		return
	}
	if err := h.validator.ValidateURL(downloadURL); err != nil {
		h.badRequest(w, "url", downloadURL, err)
		return
	}

	distributions, err := h.metastore.DistributionsByDownloadURL(r.Context(), downloadURL)
	h.respondWith(w, r, distributions, err)
}

// respondWith answers 200 with payload, or the mapped error
func (h *HTTPHandlerImpl) respondWith(w http.ResponseWriter, r *http.Request, payload any, err error) {
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, payload)
}
