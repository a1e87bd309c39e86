package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quintor/shopdesk/internal/forms"
	"github.com/quintor/shopdesk/model"
)

// openFormRequest is the body for opening a form session. EntityID is
// empty or "new" for create mode.
type openFormRequest struct {
	EntityID string `json:"entity_id"`
}

// setFieldRequest is the body for a field write.
type setFieldRequest struct {
	Value any `json:"value"`
}

func handleOpenForm(engine *forms.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "formId")

		var req openFormRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteError(w, model.NewBadRequestError("invalid JSON body"))
				return
			}
		}

		desc, err := engine.Open(r.Context(), formID, req.EntityID)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, desc)
	}
}

func handleGetForm(engine *forms.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, err := engine.Get(chi.URLParam(r, "sessionId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

func handleRefreshForm(engine *forms.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, err := engine.Refresh(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

func handleSetField(engine *forms.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")
		field := chi.URLParam(r, "field")

		var req setFieldRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, model.NewBadRequestError("invalid JSON body"))
			return
		}

		desc, err := engine.SetField(r.Context(), sessionID, field, req.Value)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

func handleSubmitForm(engine *forms.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := engine.Submit(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, result)
	}
}
