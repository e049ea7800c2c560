package api

import "github.com/kiez-net/kiez/internal/domain"

type CreateCommentRequest struct {
	Content  string            `json:"content" validate:"required,max=10000"`
	ParentId *domain.CommentId `json:"parentId"`
}

type EditCommentRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// Response DTOs

type CommentResponse struct {
	Ok      bool           `json:"ok"`
	Comment domain.Comment `json:"comment"`
}

type CommentListResponse struct {
	Total    int              `json:"total"`
	Comments []domain.Comment `json:"comments"`
}
