package service

import (
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
	"github.com/kiez-net/kiez/internal/logger"
	"github.com/kiez-net/kiez/internal/markdown"
	"github.com/kiez-net/kiez/internal/middleware/metrics"
)

// to mock service in tests
type CommentService interface {
	Create(postId domain.PostId, content string, parentId *domain.CommentId, author *domain.User) (domain.Comment, error)
	List(postId domain.PostId, sort string, viewer *domain.User) ([]domain.Comment, int, error)
	Edit(id domain.CommentId, content string, actor *domain.User) error
	Delete(id domain.CommentId, actor *domain.User) error
	Vote(id domain.CommentId, direction string, actor *domain.User) (int, error)
}

type Comments struct {
	storage CommentStorage
	roles   *Roles
}

type CommentStorage interface {
	CommunityById(id domain.CommunityId) (domain.Community, error)
	PostById(id domain.PostId) (domain.Post, error)

	CreateComment(c domain.CommentCreationData) (domain.Comment, error)
	CommentById(id domain.CommentId) (domain.Comment, error)
	Comments(postId domain.PostId, sort string, userId domain.UserId) ([]domain.Comment, error)
	EditComment(id domain.CommentId, content string) error
	SoftDeleteComment(id domain.CommentId, postId domain.PostId) error
	RemoveComment(id domain.CommentId, postId domain.PostId, communityId domain.CommunityId, authorId, moderatorId domain.UserId) error
	CastCommentVote(commentId domain.CommentId, userId, authorId domain.UserId, value int, adjustAuthor bool) (int, error)

	CreateNotification(n domain.Notification) error
}

func NewComments(storage CommentStorage, roles *Roles) *Comments {
	return &Comments{storage, roles}
}

// Create adds a comment under a post. Locked posts reject new comments;
// restricted and private communities require membership. The post author and,
// for replies, the parent author get a notification.
func (c *Comments) Create(postId domain.PostId, content string, parentId *domain.CommentId, author *domain.User) (domain.Comment, error) {
	post, err := c.storage.PostById(postId)
	if err != nil {
		return domain.Comment{}, err
	}
	if post.IsDeleted || post.IsRemoved {
		return domain.Comment{}, notFound("Beitrag nicht gefunden")
	}
	if post.IsLocked {
		return domain.Comment{}, &internal_errors.ErrorWithStatusCode{Message: "Der Beitrag ist gesperrt", StatusCode: http.StatusForbidden}
	}

	community, err := c.storage.CommunityById(post.CommunityId)
	if err != nil {
		return domain.Comment{}, err
	}
	if community.IsArchived {
		return domain.Comment{}, notFound("Community nicht gefunden")
	}
	if err := c.roles.EnsureNotBanned(community.Id, author.Id); err != nil {
		return domain.Comment{}, err
	}
	if community.Type != domain.CommunityPublic {
		role, err := c.roles.RoleOf(community.Id, author)
		if err != nil {
			return domain.Comment{}, err
		}
		if role == domain.RoleNone {
			return domain.Comment{}, &internal_errors.ErrorWithStatusCode{Message: "Nur Mitglieder können hier kommentieren", StatusCode: http.StatusForbidden}
		}
	}

	content = markdown.StripTags(content)
	if content == "" {
		return domain.Comment{}, &internal_errors.ErrorWithStatusCode{Message: "Kommentar darf nicht leer sein", StatusCode: http.StatusBadRequest}
	}

	comment, err := c.storage.CreateComment(domain.CommentCreationData{
		PostId:   postId,
		ParentId: parentId,
		AuthorId: author.Id,
		Content:  content,
	})
	if err != nil {
		return domain.Comment{}, err
	}

	if post.AuthorId != author.Id {
		c.notify(domain.Notification{
			UserId: post.AuthorId,
			Kind:   "COMMENT",
			Title:  "Neuer Kommentar",
			Body:   fmt.Sprintf("%s hat deinen Beitrag kommentiert", author.DisplayName),
		})
	}
	if parentId != nil {
		parent, err := c.storage.CommentById(*parentId)
		if err == nil && parent.AuthorId != author.Id && parent.AuthorId != post.AuthorId {
			c.notify(domain.Notification{
				UserId: parent.AuthorId,
				Kind:   "COMMENT_REPLY",
				Title:  "Antwort auf deinen Kommentar",
				Body:   fmt.Sprintf("%s hat auf deinen Kommentar geantwortet", author.DisplayName),
			})
		}
	}
	return comment, nil
}

// List returns a post's comments as a tree, sorted per child level. The total
// counts every comment, not just the roots.
func (c *Comments) List(postId domain.PostId, sort string, viewer *domain.User) ([]domain.Comment, int, error) {
	post, err := c.storage.PostById(postId)
	if err != nil {
		return nil, 0, err
	}
	if post.IsDeleted {
		return nil, 0, notFound("Beitrag nicht gefunden")
	}
	community, err := c.storage.CommunityById(post.CommunityId)
	if err != nil {
		return nil, 0, err
	}
	if err := c.roles.EnsureVisible(community, viewer); err != nil {
		return nil, 0, err
	}

	var viewerId domain.UserId
	if viewer != nil {
		viewerId = viewer.Id
	}
	flat, err := c.storage.Comments(postId, sort, viewerId)
	if err != nil {
		return nil, 0, err
	}
	return buildCommentTree(flat), len(flat), nil
}

// Edit replaces a comment's text. Author only; deleted and removed comments
// cannot be edited.
func (c *Comments) Edit(id domain.CommentId, content string, actor *domain.User) error {
	comment, err := c.storage.CommentById(id)
	if err != nil {
		return err
	}
	if comment.AuthorId != actor.Id {
		return &internal_errors.ErrorWithStatusCode{Message: "Nur der Autor kann den Kommentar bearbeiten", StatusCode: http.StatusForbidden}
	}

	content = markdown.StripTags(content)
	if content == "" {
		return &internal_errors.ErrorWithStatusCode{Message: "Kommentar darf nicht leer sein", StatusCode: http.StatusBadRequest}
	}
	return c.storage.EditComment(id, content)
}

// Delete is a soft delete for the author and a logged removal for moderators.
func (c *Comments) Delete(id domain.CommentId, actor *domain.User) error {
	comment, err := c.storage.CommentById(id)
	if err != nil {
		return err
	}
	if comment.AuthorId == actor.Id {
		return c.storage.SoftDeleteComment(id, comment.PostId)
	}

	post, err := c.storage.PostById(comment.PostId)
	if err != nil {
		return err
	}
	if err := c.roles.RequireModerator(post.CommunityId, actor); err != nil {
		return err
	}
	if err := c.storage.RemoveComment(id, comment.PostId, post.CommunityId, comment.AuthorId, actor.Id); err != nil {
		return err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionRemoveComment).Inc()
	return nil
}

// Vote applies an up, down or neutral vote and returns the new score. The
// author's karma follows the score, except for self-votes.
func (c *Comments) Vote(id domain.CommentId, direction string, actor *domain.User) (int, error) {
	comment, err := c.storage.CommentById(id)
	if err != nil {
		return 0, err
	}
	if comment.IsDeleted || comment.IsRemoved {
		return 0, notFound("Kommentar nicht gefunden")
	}

	var value int
	switch direction {
	case domain.VoteUp:
		value = 1
	case domain.VoteDown:
		value = -1
	}
	return c.storage.CastCommentVote(id, actor.Id, comment.AuthorId, value, comment.AuthorId != actor.Id)
}

// buildCommentTree links a flat, pre-sorted list into parent/child threads.
// Children inherit the list's order. Comments whose parent is missing from
// the slice become roots rather than vanishing.
func buildCommentTree(flat []domain.Comment) []domain.Comment {
	byId := make(map[domain.CommentId]*domain.Comment, len(flat))
	nodes := make([]*domain.Comment, len(flat))
	for i := range flat {
		nodes[i] = &flat[i]
		byId[flat[i].Id] = nodes[i]
	}

	var roots []*domain.Comment
	for _, n := range nodes {
		if n.ParentId != nil {
			if parent, ok := byId[*n.ParentId]; ok {
				parent.Children = append(parent.Children, *n)
				continue
			}
		}
		roots = append(roots, n)
	}

	// The append above copies children bottom-up only if parents come later
	// in the slice, so resolve the tree from the map instead.
	tree := make([]domain.Comment, 0, len(roots))
	for _, r := range roots {
		tree = append(tree, resolveChildren(*r, byId))
	}
	return tree
}

func resolveChildren(c domain.Comment, byId map[domain.CommentId]*domain.Comment) domain.Comment {
	resolved := make([]domain.Comment, 0, len(c.Children))
	for _, child := range c.Children {
		resolved = append(resolved, resolveChildren(*byId[child.Id], byId))
	}
	if len(resolved) == 0 {
		c.Children = nil
	} else {
		c.Children = resolved
	}
	return c
}

// notify is best effort: a failed notification never fails the comment that
// triggered it.
func (c *Comments) notify(n domain.Notification) {
	if err := c.storage.CreateNotification(n); err != nil {
		logger.Log.Error("failed to create notification", "err", err, "user", n.UserId)
	}
}
