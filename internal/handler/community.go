package handler

import (
	"net/http"

	"github.com/kiez-net/kiez/internal/api"
	"github.com/kiez-net/kiez/internal/domain"
	mw "github.com/kiez-net/kiez/internal/middleware"
	"github.com/kiez-net/kiez/internal/utils"
)

func (h *Handler) CreateCommunity(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	var body api.CreateCommunityRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if body.Type == "" {
		body.Type = domain.CommunityPublic
	}

	community, err := h.community.Create(domain.CommunityCreationData{
		Name:        body.Name,
		Description: body.Description,
		Type:        body.Type,
		IsNSFW:      body.IsNSFW,
		CreatorId:   user.Id,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, api.CommunityResponse{Ok: true, Community: community})
}

func (h *Handler) GetCommunity(w http.ResponseWriter, r *http.Request) {
	community, membership, moderators, rules, err := h.community.Get(slugParam(r), mw.GetUserFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.CommunityDetailResponse{
		Community:  community,
		Membership: membership,
		Moderators: moderators,
		Rules:      rules,
	})
}

func (h *Handler) GetCommunities(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	communities, total, err := h.community.List(query.Get("q"), query.Get("sort"), query.Get("type"), page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.CommunityListResponse{
		Total:       total,
		Page:        page,
		Limit:       h.cfg.Public.CommunitiesPerPage,
		Communities: communities,
	})
}

func (h *Handler) UpdateCommunity(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	var body api.UpdateCommunityRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err := h.community.Update(slugParam(r), domain.CommunityUpdate{
		Name:        body.Name,
		Description: body.Description,
		Sidebar:     body.Sidebar,
		Type:        body.Type,
		IsNSFW:      body.IsNSFW,
	}, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) ArchiveCommunity(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	if err := h.community.Archive(slugParam(r), user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.community.Rules(slugParam(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.RuleListResponse{Rules: rules})
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	var body api.CreateRuleRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	rule, err := h.community.CreateRule(slugParam(r), body.Title, body.Description, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, api.RuleResponse{Ok: true, Rule: rule})
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	ruleId, err := idParam(r, "ruleId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.CreateRuleRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.community.UpdateRule(slugParam(r), ruleId, body.Title, body.Description, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	ruleId, err := idParam(r, "ruleId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.community.DeleteRule(slugParam(r), ruleId, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) GetFlairs(w http.ResponseWriter, r *http.Request) {
	flairs, err := h.community.Flairs(slugParam(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.FlairListResponse{Flairs: flairs})
}

func (h *Handler) CreateFlair(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	var body api.CreateFlairRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	flair, err := h.community.CreateFlair(slugParam(r), body.Name, body.Color, body.TextColor, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, api.FlairResponse{Ok: true, Flair: flair})
}

func (h *Handler) DeleteFlair(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	flairId, err := idParam(r, "flairId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.community.DeleteFlair(slugParam(r), flairId, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}
