package handler

import (
	"net/http"

	"github.com/kiez-net/kiez/internal/api"
	"github.com/kiez-net/kiez/internal/domain"
	mw "github.com/kiez-net/kiez/internal/middleware"
	"github.com/kiez-net/kiez/internal/utils"
)

func (h *Handler) JoinCommunity(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	if err := h.membership.Join(slugParam(r), user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) LeaveCommunity(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	if err := h.membership.Leave(slugParam(r), user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	members, total, err := h.membership.Members(slugParam(r), mw.GetUserFromContext(r), page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.MemberListResponse{
		Total:   total,
		Page:    page,
		Limit:   h.cfg.Public.MembersPerPage,
		Members: members,
	})
}

func (h *Handler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	targetId, err := idParam(r, "userId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.ChangeRoleRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.membership.ChangeRole(slugParam(r), targetId, body.Role, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	targetId, err := idParam(r, "userId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.membership.RemoveMember(slugParam(r), targetId, r.URL.Query().Get("reason"), user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) GetBans(w http.ResponseWriter, r *http.Request) {
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

	bans, total, err := h.membership.Bans(slugParam(r), user, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.BanListResponse{
		Total: total,
		Page:  page,
		Limit: h.cfg.Public.MembersPerPage,
		Bans:  bans,
	})
}

func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	var body api.BanRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if body.Status == "" {
		body.Status = domain.BanPermanent
	}
	if body.Status == domain.BanTemporary && body.Days == 0 {
		http.Error(w, "Dauer der Sperre fehlt", http.StatusBadRequest)
		return
	}

	ban := domain.Ban{
		UserId: body.UserId,
		Reason: body.Reason,
		Status: body.Status,
	}
	if err := h.membership.Ban(slugParam(r), ban, body.Days, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	targetId, err := parseIntParam(r.URL.Query().Get("userId"), "userId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.membership.Unban(slugParam(r), int64(targetId), user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}
