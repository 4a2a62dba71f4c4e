package handlers

import (
	"net/http"

	"github.com/hromada-tools/backoffice/internal/domain"
	"github.com/hromada-tools/backoffice/internal/interfaces/rest"
)

type communitiesResponse struct {
	Success     bool                       `json:"success"`
	Communities []domain.CommunitySettings `json:"communities"`
}

func (h *Handlers) ListCommunities(w http.ResponseWriter, r *http.Request) {
	communities, err := h.communities.AvailableCommunities(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, communitiesResponse{
		Success:     true,
		Communities: communities,
	})
}
