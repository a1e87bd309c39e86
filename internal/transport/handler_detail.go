package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quintor/shopdesk/internal/metadata"
)

func handleGetDetail(details *metadata.DetailProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detailID := chi.URLParam(r, "detailId")
		entityID := chi.URLParam(r, "entityId")

		desc, err := details.GetDetail(r.Context(), detailID, entityID)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}
