package handler

import (
	"net/http"

	"github.com/kiez-net/kiez/internal/api"
	mw "github.com/kiez-net/kiez/internal/middleware"
	"github.com/kiez-net/kiez/internal/utils"
)

func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	comments, total, err := h.comments.List(id, r.URL.Query().Get("sort"), mw.GetUserFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.CommentListResponse{Total: total, Comments: comments})
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
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

	var body api.CreateCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	comment, err := h.comments.Create(id, body.Content, body.ParentId, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, api.CommentResponse{Ok: true, Comment: comment})
}

func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "commentId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.EditCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.comments.Edit(id, body.Content, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "commentId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.comments.Delete(id, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) VoteComment(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "commentId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.PostVoteRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	score, err := h.comments.Vote(id, body.Type, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.VoteResponse{Ok: true, Score: score})
}
