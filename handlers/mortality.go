package handlers

import (
	"fmt"
	"net/http"

	"github.com/giygas/govdata-api/chart"
	"github.com/giygas/govdata-api/mortality"
)

// mortalityQuery reads from, to and jurisdiction from the query string
func (h *HTTPHandlerImpl) mortalityQuery(r *http.Request) (mortality.Query, string, error) {
	var q mortality.Query
	params := r.URL.Query()

	if from := params.Get("from"); from != "" {
		t, err := h.validator.ValidateDate(from)
		if err != nil {
			return q, "from", err
		}
		q.From = t
	}
	if to := params.Get("to"); to != "" {
		t, err := h.validator.ValidateDate(to)
		if err != nil {
			return q, "to", err
		}
		q.To = t
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, "to", fmt.Errorf("to is before from")
	}

	if j := params.Get("jurisdiction"); j != "" {
		if err := h.validator.ValidateInput(j); err != nil {
			return q, "jurisdiction", err
		}
		q.Jurisdiction = j
	}

	return q, "", nil
}

// ServeMortality returns the merged weekly death counts matching the query
func (h *HTTPHandlerImpl) ServeMortality(w http.ResponseWriter, r *http.Request) {
	q, param, err := h.mortalityQuery(r)
	if err != nil {
		h.badRequest(w, param, r.URL.Query().Get(param), err)
		return
	}

	records, err := h.mortality.Obtain(r.Context())
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, mortality.Filter(records, q))
}

// ServeMortalityChart returns a Plotly figure of one or more causes
// (repeatable cause parameter), with an optional overlay cause plotted on a
// secondary axis
func (h *HTTPHandlerImpl) ServeMortalityChart(w http.ResponseWriter, r *http.Request) {
	q, param, err := h.mortalityQuery(r)
	if err != nil {
		h.badRequest(w, param, r.URL.Query().Get(param), err)
		return
	}

	causes := r.URL.Query()["cause"]
	if len(causes) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "At least one cause is required")
		return
	}
	for _, c := range causes {
		if err := h.validator.ValidateIdentifier(c); err != nil {
			h.badRequest(w, "cause", c, err)
			return
		}
	}
	overlayCause := r.URL.Query().Get("overlay")
	if overlayCause != "" {
		if err := h.validator.ValidateIdentifier(overlayCause); err != nil {
			h.badRequest(w, "overlay", overlayCause, err)
			return
		}
	}

	records, err := h.mortality.Obtain(r.Context())
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}

	var overlay *chart.Series
	if overlayCause != "" {
		s, err := mortality.Series(mortality.Filter(records, q), overlayCause)
		if err != nil {
			h.respondWithAppError(w, r, err)
			return
		}
		overlay = &s
	}

	fig, err := mortality.Chart(records, q, causes, overlay)
	if err != nil {
		h.respondWithAppError(w, r, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, fig)
}
