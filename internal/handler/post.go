package handler

import (
	"net/http"

	"github.com/kiez-net/kiez/internal/api"
	"github.com/kiez-net/kiez/internal/domain"
	mw "github.com/kiez-net/kiez/internal/middleware"
	"github.com/kiez-net/kiez/internal/utils"
)

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	var body api.CreatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.post.Create(slugParam(r), domain.PostCreationData{
		Type:        body.Type,
		Title:       body.Title,
		Content:     body.Content,
		LinkURL:     body.LinkURL,
		FlairId:     body.FlairId,
		PollOptions: body.PollOptions,
	}, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, api.PostResponse{Ok: true, Post: domain.Post{Id: id}})
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	detail, err := h.post.Get(id, mw.GetUserFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.PostDetailResponse{Post: detail})
}

func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var flairId domain.FlairId
	if raw := r.URL.Query().Get("flair"); raw != "" {
		flairId, err = parseInt64(raw, "flair")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	posts, total, err := h.post.List(slugParam(r), mw.GetUserFromContext(r), flairId, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.PostListResponse{
		Total: total,
		Page:  page,
		Limit: h.cfg.Public.PostsPerPage,
		Posts: posts,
	})
}

func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.EditPostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.post.Edit(id, body.Title, body.Content, body.FlairId, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.post.Delete(id, r.URL.Query().Get("reason"), user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) PinPost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pinned, err := h.post.TogglePin(id, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.PinResponse{Ok: true, IsPinned: pinned})
}

func (h *Handler) LockPost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	locked, err := h.post.ToggleLock(id, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.LockResponse{Ok: true, IsLocked: locked})
}

func (h *Handler) SavePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.post.ToggleSave(id, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.SaveResponse{Ok: true, Saved: saved})
}

func (h *Handler) VotePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.PostVoteRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	score, err := h.post.Vote(id, body.Type, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.VoteResponse{Ok: true, Score: score})
}

func (h *Handler) VotePoll(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.PollVoteRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	results, err := h.post.PollVote(id, body.OptionId, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.PollVoteResponse{Ok: true, Results: results})
}

func (h *Handler) GetSavedPosts(w http.ResponseWriter, r *http.Request) {
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

	posts, total, err := h.post.Saved(user, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.PostListResponse{
		Total: total,
		Page:  page,
		Limit: h.cfg.Public.PostsPerPage,
		Posts: posts,
	})
}
