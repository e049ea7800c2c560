package handler

import (
	"net/http"

	"github.com/kiez-net/kiez/internal/api"
	mw "github.com/kiez-net/kiez/internal/middleware"
	"github.com/kiez-net/kiez/internal/utils"
)

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, total, err := h.notifications.List(user, unreadOnly, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.NotificationListResponse{Total: total, Notifications: notifications})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "notificationId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.notifications.MarkRead(id, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}
