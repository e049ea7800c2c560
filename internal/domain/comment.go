package domain

import "time"

// Comment sorting. Controversial surfaces the lowest-scored threads first.
const (
	CommentSortBest          = "best"
	CommentSortNew           = "new"
	CommentSortOld           = "old"
	CommentSortControversial = "controversial"
)

type CommentCreationData struct {
	PostId   PostId
	ParentId *CommentId
	AuthorId UserId
	Content  string
}

type Comment struct {
	Id         CommentId  `json:"id"`
	PostId     PostId     `json:"postId"`
	ParentId   *CommentId `json:"parentId,omitempty"`
	AuthorId   UserId     `json:"authorId"`
	AuthorName string     `json:"authorName,omitempty"`
	Content    string     `json:"content"`
	IsDeleted  bool       `json:"isDeleted"`
	IsRemoved  bool       `json:"isRemoved"`
	Score      int        `json:"score"`
	UserVote   string     `json:"userVote,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Children   []Comment  `json:"children,omitempty"`
}
