package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kiez-net/kiez/internal/config"
	"github.com/kiez-net/kiez/internal/logger"
	"github.com/kiez-net/kiez/internal/service"
)

// Pinger is the readiness-probe view of the storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth          service.AuthService
	community     service.CommunityService
	membership    service.MembershipService
	post          service.PostService
	comments      service.CommentService
	reports       service.ReportService
	modlog        service.ModLogService
	notifications service.NotificationService
	health        Pinger
	cfg           *config.Config
}

func New(
	auth service.AuthService,
	community service.CommunityService,
	membership service.MembershipService,
	post service.PostService,
	comments service.CommentService,
	reports service.ReportService,
	modlog service.ModLogService,
	notifications service.NotificationService,
	health Pinger,
	cfg *config.Config,
) *Handler {
	return &Handler{auth, community, membership, post, comments, reports, modlog, notifications, health, cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "err", err)
	}
}
