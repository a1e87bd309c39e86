package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quintor/shopdesk/internal/search"
)

func handleLookup(lookups *search.LookupProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lookupID := chi.URLParam(r, "lookupId")
		query := r.URL.Query().Get("q")

		resp, err := lookups.GetLookup(r.Context(), lookupID, query)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
