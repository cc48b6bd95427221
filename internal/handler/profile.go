package handler

import (
	"net/http"

	"github.com/keygate-dev/keygate/internal/domain"
	"github.com/keygate-dev/keygate/internal/middleware"
	"github.com/keygate-dev/keygate/internal/utils"
)

type profileResponse struct {
	Message string               `json:"message"`
	User    domain.PublicAccount `json:"user"`
}

// Profile returns the authenticated account. The guard already resolved the
// token to a live, sanitized account.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromContext(r)
	if account == nil {
		utils.WriteMessage(w, http.StatusUnauthorized, "Please sign in")
		return
	}

	utils.WriteJSON(w, http.StatusOK, profileResponse{
		Message: "OK",
		User:    account.Public(),
	})
}
