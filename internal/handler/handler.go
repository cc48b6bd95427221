package handler

import (
	"context"
	"net/http"

	"github.com/keygate-dev/keygate/internal/config"
	"github.com/keygate-dev/keygate/internal/service"
	"github.com/keygate-dev/keygate/internal/utils"
)

// Pinger reports storage reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth   service.AuthService
	reset  service.ResetService
	health Pinger
	cfg    *config.Config
}

func New(auth service.AuthService, reset service.ResetService, health Pinger, cfg *config.Config) *Handler {
	return &Handler{auth, reset, health, cfg}
}

// Root is a liveness banner, kept for parity with the original service.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	utils.WriteMessage(w, http.StatusOK, "keygate API is running")
}
