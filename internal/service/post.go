package service

import (
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
	"github.com/kiez-net/kiez/internal/markdown"
	"github.com/kiez-net/kiez/internal/middleware/metrics"
)

// to mock service in tests
type PostService interface {
	Create(slug domain.CommunitySlug, data domain.PostCreationData, author *domain.User) (domain.PostId, error)
	Get(id domain.PostId, viewer *domain.User) (domain.PostDetail, error)
	List(slug domain.CommunitySlug, viewer *domain.User, flairId domain.FlairId, page int) ([]domain.Post, int, error)
	Edit(id domain.PostId, title, content *string, flair *domain.FlairId, actor *domain.User) error
	Delete(id domain.PostId, reason string, actor *domain.User) error

	TogglePin(id domain.PostId, actor *domain.User) (bool, error)
	ToggleLock(id domain.PostId, actor *domain.User) (bool, error)
	ToggleSave(id domain.PostId, actor *domain.User) (bool, error)
	Vote(id domain.PostId, direction string, actor *domain.User) (int, error)
	PollVote(id domain.PostId, optionId domain.OptionId, actor *domain.User) ([]domain.PollOption, error)
	Saved(actor *domain.User, page int) ([]domain.Post, int, error)
}

type Post struct {
	storage PostStorage
	roles   *Roles
	cfg     PostConfig
}

type PostConfig struct {
	PostsPerPage   int
	MaxPollOptions int
}

type PostStorage interface {
	CommunityBySlug(slug domain.CommunitySlug) (domain.Community, error)
	CommunityById(id domain.CommunityId) (domain.Community, error)

	CreatePost(p domain.PostCreationData) (domain.PostId, error)
	PostById(id domain.PostId) (domain.Post, error)
	PostDetail(id domain.PostId, userId domain.UserId) (domain.PostDetail, error)
	Posts(communityId domain.CommunityId, flairId domain.FlairId, page, limit int) ([]domain.Post, int, error)
	SavedPosts(userId domain.UserId, page, limit int) ([]domain.Post, int, error)
	EditPost(id domain.PostId, title, content *string, flair *domain.FlairId) error
	FlairById(id domain.FlairId) (domain.Flair, error)
	SoftDeletePost(id domain.PostId) error
	RemovePost(id domain.PostId, communityId domain.CommunityId, moderatorId domain.UserId, reason string) error

	SetPinned(id domain.PostId, communityId domain.CommunityId, pinned bool, moderatorId domain.UserId) error
	SetLocked(id domain.PostId, communityId domain.CommunityId, locked bool, moderatorId domain.UserId) error
	ToggleSaved(id domain.PostId, userId domain.UserId) (bool, error)
	CastPostVote(postId domain.PostId, userId, authorId domain.UserId, value int, adjustAuthor bool) (int, error)
	CastPollVote(postId domain.PostId, optionId domain.OptionId, userId domain.UserId) ([]domain.PollOption, error)
}

func NewPost(storage PostStorage, roles *Roles, cfg PostConfig) *Post {
	return &Post{storage, roles, cfg}
}

// Create publishes a post. Restricted and private communities require
// membership; banned users are rejected everywhere. Polls carry 2 to
// MaxPollOptions options.
func (p *Post) Create(slug domain.CommunitySlug, data domain.PostCreationData, author *domain.User) (domain.PostId, error) {
	community, err := p.storage.CommunityBySlug(slug)
	if err != nil {
		return 0, err
	}
	if community.IsArchived {
		return 0, notFound("Community nicht gefunden")
	}
	if err := p.roles.EnsureNotBanned(community.Id, author.Id); err != nil {
		return 0, err
	}
	if community.Type != domain.CommunityPublic {
		role, err := p.roles.RoleOf(community.Id, author)
		if err != nil {
			return 0, err
		}
		if role == domain.RoleNone {
			return 0, &internal_errors.ErrorWithStatusCode{Message: "Nur Mitglieder können hier posten", StatusCode: http.StatusForbidden}
		}
	}

	switch data.Type {
	case domain.PostPoll:
		if len(data.PollOptions) < 2 || len(data.PollOptions) > p.cfg.MaxPollOptions {
			return 0, &internal_errors.ErrorWithStatusCode{
				Message:    fmt.Sprintf("Eine Umfrage braucht 2 bis %d Antwortoptionen", p.cfg.MaxPollOptions),
				StatusCode: http.StatusBadRequest,
			}
		}
	case domain.PostLink:
		if data.LinkURL == "" {
			return 0, &internal_errors.ErrorWithStatusCode{Message: "Link fehlt", StatusCode: http.StatusBadRequest}
		}
	}

	if err := p.checkFlair(community.Id, data.FlairId); err != nil {
		return 0, err
	}

	data.CommunityId = community.Id
	data.AuthorId = author.Id
	return p.storage.CreatePost(data)
}

// Get returns the post detail with rendered content. Deleted posts read as
// gone; removed posts stay visible to moderators.
func (p *Post) Get(id domain.PostId, viewer *domain.User) (domain.PostDetail, error) {
	var viewerId domain.UserId
	if viewer != nil {
		viewerId = viewer.Id
	}
	detail, err := p.storage.PostDetail(id, viewerId)
	if err != nil {
		return domain.PostDetail{}, err
	}

	community, err := p.storage.CommunityById(detail.CommunityId)
	if err != nil {
		return domain.PostDetail{}, err
	}
	if err := p.roles.EnsureVisible(community, viewer); err != nil {
		return domain.PostDetail{}, err
	}

	if detail.IsDeleted {
		return domain.PostDetail{}, notFound("Beitrag nicht gefunden")
	}
	if detail.IsRemoved {
		if err := p.roles.RequireModerator(community.Id, viewer); err != nil {
			return domain.PostDetail{}, notFound("Beitrag nicht gefunden")
		}
	}

	detail.ContentHTML = markdown.Render(detail.Content)
	return detail, nil
}

func (p *Post) List(slug domain.CommunitySlug, viewer *domain.User, flairId domain.FlairId, page int) ([]domain.Post, int, error) {
	community, err := p.storage.CommunityBySlug(slug)
	if err != nil {
		return nil, 0, err
	}
	if err := p.roles.EnsureVisible(community, viewer); err != nil {
		return nil, 0, err
	}
	return p.storage.Posts(community.Id, flairId, max(1, page), p.cfg.PostsPerPage)
}

// Edit updates title, content and flair. Author only.
func (p *Post) Edit(id domain.PostId, title, content *string, flair *domain.FlairId, actor *domain.User) error {
	post, err := p.storage.PostById(id)
	if err != nil {
		return err
	}
	if post.AuthorId != actor.Id {
		return &internal_errors.ErrorWithStatusCode{Message: "Nur der Autor kann den Beitrag bearbeiten", StatusCode: http.StatusForbidden}
	}
	if post.IsLocked {
		return &internal_errors.ErrorWithStatusCode{Message: "Der Beitrag ist gesperrt", StatusCode: http.StatusForbidden}
	}
	if err := p.checkFlair(post.CommunityId, flair); err != nil {
		return err
	}
	return p.storage.EditPost(id, title, content, flair)
}

// checkFlair rejects flairs that belong to another community. nil and 0
// (clear) always pass.
func (p *Post) checkFlair(communityId domain.CommunityId, flair *domain.FlairId) error {
	if flair == nil || *flair == 0 {
		return nil
	}
	f, err := p.storage.FlairById(*flair)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return &internal_errors.ErrorWithStatusCode{Message: "Ungültiger Flair", StatusCode: http.StatusBadRequest}
		}
		return err
	}
	if f.CommunityId != communityId {
		return &internal_errors.ErrorWithStatusCode{Message: "Ungültiger Flair", StatusCode: http.StatusBadRequest}
	}
	return nil
}

// Delete is a soft delete for the author and a logged removal for moderators.
func (p *Post) Delete(id domain.PostId, reason string, actor *domain.User) error {
	post, err := p.storage.PostById(id)
	if err != nil {
		return err
	}
	if post.AuthorId == actor.Id {
		return p.storage.SoftDeletePost(id)
	}

	if err := p.roles.RequireModerator(post.CommunityId, actor); err != nil {
		return err
	}
	if err := p.storage.RemovePost(id, post.CommunityId, actor.Id, reason); err != nil {
		return err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionRemovePost).Inc()
	return nil
}

// TogglePin flips the pin flag and returns the new state. The pinned cap is
// enforced by storage under a community row lock.
func (p *Post) TogglePin(id domain.PostId, actor *domain.User) (bool, error) {
	post, err := p.storage.PostById(id)
	if err != nil {
		return false, err
	}
	if err := p.roles.RequireModerator(post.CommunityId, actor); err != nil {
		return false, err
	}

	pinned := !post.IsPinned
	if err := p.storage.SetPinned(id, post.CommunityId, pinned, actor.Id); err != nil {
		return post.IsPinned, err
	}
	action := domain.ActionPinPost
	if !pinned {
		action = domain.ActionUnpinPost
	}
	metrics.ModActionsTotal.WithLabelValues(action).Inc()
	return pinned, nil
}

// ToggleLock flips the lock flag and returns the new state.
func (p *Post) ToggleLock(id domain.PostId, actor *domain.User) (bool, error) {
	post, err := p.storage.PostById(id)
	if err != nil {
		return false, err
	}
	if err := p.roles.RequireModerator(post.CommunityId, actor); err != nil {
		return false, err
	}

	locked := !post.IsLocked
	if err := p.storage.SetLocked(id, post.CommunityId, locked, actor.Id); err != nil {
		return post.IsLocked, err
	}
	action := domain.ActionLockPost
	if !locked {
		action = domain.ActionUnlockPost
	}
	metrics.ModActionsTotal.WithLabelValues(action).Inc()
	return locked, nil
}

func (p *Post) ToggleSave(id domain.PostId, actor *domain.User) (bool, error) {
	if _, err := p.storage.PostById(id); err != nil {
		return false, err
	}
	return p.storage.ToggleSaved(id, actor.Id)
}

// Vote applies an up, down or neutral vote and returns the new score. The
// author's karma follows the score, except for self-votes.
func (p *Post) Vote(id domain.PostId, direction string, actor *domain.User) (int, error) {
	post, err := p.storage.PostById(id)
	if err != nil {
		return 0, err
	}
	if post.IsLocked {
		return 0, &internal_errors.ErrorWithStatusCode{Message: "Der Beitrag ist gesperrt", StatusCode: http.StatusForbidden}
	}

	var value int
	switch direction {
	case domain.VoteUp:
		value = 1
	case domain.VoteDown:
		value = -1
	}
	return p.storage.CastPostVote(id, actor.Id, post.AuthorId, value, post.AuthorId != actor.Id)
}

// PollVote casts the caller's single poll vote and returns fresh tallies.
func (p *Post) PollVote(id domain.PostId, optionId domain.OptionId, actor *domain.User) ([]domain.PollOption, error) {
	post, err := p.storage.PostById(id)
	if err != nil {
		return nil, err
	}
	if post.Type != domain.PostPoll {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Dieser Beitrag ist keine Umfrage", StatusCode: http.StatusBadRequest}
	}
	if post.IsLocked {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Der Beitrag ist gesperrt", StatusCode: http.StatusForbidden}
	}
	return p.storage.CastPollVote(id, optionId, actor.Id)
}

func (p *Post) Saved(actor *domain.User, page int) ([]domain.Post, int, error) {
	return p.storage.SavedPosts(actor.Id, max(1, page), p.cfg.PostsPerPage)
}
