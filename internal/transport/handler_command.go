package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quintor/shopdesk/internal/command"
	"github.com/quintor/shopdesk/model"
)

func handleCommand(executor *command.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commandID := chi.URLParam(r, "commandId")

		var input model.CommandInput
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
				WriteError(w, model.NewBadRequestError("invalid JSON body"))
				return
			}
		}

		resp, err := executor.Execute(r.Context(), commandID, input)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
