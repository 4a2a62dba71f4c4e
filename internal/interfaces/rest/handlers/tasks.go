package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hromada-tools/backoffice/internal/interfaces/rest"
)

type taskRequest struct {
	CommunityName string `json:"community_name"`
}

// resolveCommunity picks the community for a task request: JSON body first,
// then the ?community query parameter, then the configured default. A missing
// or malformed body is not an error here; the services validate whatever
// comes out.
func (h *Handlers) resolveCommunity(r *http.Request) string {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.CommunityName != "" {
		return req.CommunityName
	}

	if community := r.URL.Query().Get("community"); community != "" {
		return community
	}
	return h.defaultCommunity
}

func (h *Handlers) ProcessDebtorRegister(w http.ResponseWriter, r *http.Request) {
	community := h.resolveCommunity(r)

	result, err := h.tasks.ProcessDebtorRegister(r.Context(), community)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	community := h.resolveCommunity(r)

	result, err := h.tasks.SendEmail(r.Context(), community)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) UpdateDatabaseCheck(w http.ResponseWriter, r *http.Request) {
	community := h.resolveCommunity(r)

	result, err := h.tasks.PreviewDatabaseUpdate(r.Context(), community)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) UpdateDatabaseExecute(w http.ResponseWriter, r *http.Request) {
	community := h.resolveCommunity(r)

	result, err := h.tasks.UpdateDatabaseExecute(r.Context(), community)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) DatabasePreview(w http.ResponseWriter, r *http.Request) {
	community := h.resolveCommunity(r)

	result, err := h.tasks.PreviewDatabaseUpdate(r.Context(), community)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}
