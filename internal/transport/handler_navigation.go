package transport

import (
	"net/http"

	"github.com/quintor/shopdesk/internal/metadata"
)

func handleNavigation(nav *metadata.NavigationProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, nav.GetNavigation())
	}
}
