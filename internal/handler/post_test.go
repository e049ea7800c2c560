package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiez-net/kiez/internal/api"
	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

type MockPostService struct {
	MockCreate    func(slug domain.CommunitySlug, data domain.PostCreationData, author *domain.User) (domain.PostId, error)
	MockTogglePin func(id domain.PostId, actor *domain.User) (bool, error)
	MockVote      func(id domain.PostId, direction string, actor *domain.User) (int, error)
	MockPollVote  func(id domain.PostId, optionId domain.OptionId, actor *domain.User) ([]domain.PollOption, error)
}

func (m *MockPostService) Create(slug domain.CommunitySlug, data domain.PostCreationData, author *domain.User) (domain.PostId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(slug, data, author)
	}
	return 1, nil
}

func (m *MockPostService) Get(id domain.PostId, viewer *domain.User) (domain.PostDetail, error) {
	return domain.PostDetail{Post: domain.Post{Id: id}}, nil
}

func (m *MockPostService) List(slug domain.CommunitySlug, viewer *domain.User, flairId domain.FlairId, page int) ([]domain.Post, int, error) {
	return nil, 0, nil
}

func (m *MockPostService) Edit(id domain.PostId, title, content *string, flair *domain.FlairId, actor *domain.User) error {
	return nil
}

func (m *MockPostService) Delete(id domain.PostId, reason string, actor *domain.User) error {
	return nil
}

func (m *MockPostService) TogglePin(id domain.PostId, actor *domain.User) (bool, error) {
	if m.MockTogglePin != nil {
		return m.MockTogglePin(id, actor)
	}
	return true, nil
}

func (m *MockPostService) ToggleLock(id domain.PostId, actor *domain.User) (bool, error) {
	return true, nil
}

func (m *MockPostService) ToggleSave(id domain.PostId, actor *domain.User) (bool, error) {
	return true, nil
}

func (m *MockPostService) Vote(id domain.PostId, direction string, actor *domain.User) (int, error) {
	if m.MockVote != nil {
		return m.MockVote(id, direction, actor)
	}
	return 1, nil
}

func (m *MockPostService) PollVote(id domain.PostId, optionId domain.OptionId, actor *domain.User) ([]domain.PollOption, error) {
	if m.MockPollVote != nil {
		return m.MockPollVote(id, optionId, actor)
	}
	return nil, nil
}

func (m *MockPostService) Saved(actor *domain.User, page int) ([]domain.Post, int, error) {
	return nil, 0, nil
}

func TestCreatePostHandler(t *testing.T) {
	h := &Handler{cfg: testConfig()}
	router := chi.NewRouter()
	router.Post("/v1/communities/{slug}/posts", h.CreatePost)

	t.Run("successful request", func(t *testing.T) {
		h.post = &MockPostService{
			MockCreate: func(slug domain.CommunitySlug, data domain.PostCreationData, author *domain.User) (domain.PostId, error) {
				assert.Equal(t, domain.CommunitySlug("testkiez"), slug)
				assert.Equal(t, "TEXT", data.Type)
				assert.Equal(t, domain.UserId(7), author.Id)
				return 42, nil
			},
		}
		body := []byte(`{"type": "TEXT", "title": "Hallo Kiez", "content": "Erster Beitrag"}`)
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/communities/testkiez/posts", bytes.NewBuffer(body)), &domain.User{Id: 7})
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp api.PostResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, domain.PostId(42), resp.Post.Id)
	})

	t.Run("unknown post type fails validation", func(t *testing.T) {
		h.post = &MockPostService{}
		body := []byte(`{"type": "VIDEO", "title": "Hallo"}`)
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/communities/testkiez/posts", bytes.NewBuffer(body)), &domain.User{Id: 7})
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing user", func(t *testing.T) {
		h.post = &MockPostService{}
		req := httptest.NewRequest(http.MethodPost, "/v1/communities/testkiez/posts", bytes.NewBufferString(`{"type": "TEXT", "title": "Hallo"}`))
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestPinPostHandler(t *testing.T) {
	h := &Handler{cfg: testConfig()}
	router := chi.NewRouter()
	router.Post("/v1/posts/{postId}/pin", h.PinPost)

	t.Run("pin toggles", func(t *testing.T) {
		h.post = &MockPostService{
			MockTogglePin: func(id domain.PostId, actor *domain.User) (bool, error) {
				assert.Equal(t, domain.PostId(5), id)
				return true, nil
			},
		}
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/posts/5/pin", nil), &domain.User{Id: 7})
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.PinResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.True(t, resp.IsPinned)
	})

	t.Run("pin limit reached", func(t *testing.T) {
		h.post = &MockPostService{
			MockTogglePin: func(id domain.PostId, actor *domain.User) (bool, error) {
				return false, &internal_errors.ErrorWithStatusCode{Message: "Maximal 2 Beiträge können angeheftet werden", StatusCode: 400}
			},
		}
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/posts/5/pin", nil), &domain.User{Id: 7})
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Maximal")
	})

	t.Run("non-numeric id", func(t *testing.T) {
		h.post = &MockPostService{}
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/posts/abc/pin", nil), &domain.User{Id: 7})
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestVotePostHandler(t *testing.T) {
	h := &Handler{cfg: testConfig()}
	router := chi.NewRouter()
	router.Post("/v1/posts/{postId}/vote", h.VotePost)

	t.Run("upvote returns new score", func(t *testing.T) {
		h.post = &MockPostService{
			MockVote: func(id domain.PostId, direction string, actor *domain.User) (int, error) {
				assert.Equal(t, "UP", direction)
				return 3, nil
			},
		}
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/posts/5/vote", bytes.NewBufferString(`{"type": "UP"}`)), &domain.User{Id: 7})
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.VoteResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 3, resp.Score)
	})

	t.Run("invalid direction fails validation", func(t *testing.T) {
		h.post = &MockPostService{}
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/posts/5/vote", bytes.NewBufferString(`{"type": "SIDEWAYS"}`)), &domain.User{Id: 7})
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestVotePollHandler(t *testing.T) {
	h := &Handler{cfg: testConfig()}
	router := chi.NewRouter()
	router.Post("/v1/posts/{postId}/poll/vote", h.VotePoll)

	t.Run("vote returns tallies", func(t *testing.T) {
		h.post = &MockPostService{
			MockPollVote: func(id domain.PostId, optionId domain.OptionId, actor *domain.User) ([]domain.PollOption, error) {
				assert.Equal(t, domain.OptionId(2), optionId)
				return []domain.PollOption{{Id: 1, VoteCount: 0}, {Id: 2, VoteCount: 1}}, nil
			},
		}
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/posts/5/poll/vote", bytes.NewBufferString(`{"optionId": 2}`)), &domain.User{Id: 7})
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.PollVoteResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.Len(t, resp.Results, 2)
		assert.Equal(t, 1, resp.Results[1].VoteCount)
	})

	t.Run("double vote", func(t *testing.T) {
		h.post = &MockPostService{
			MockPollVote: func(id domain.PostId, optionId domain.OptionId, actor *domain.User) ([]domain.PollOption, error) {
				return nil, &internal_errors.ErrorWithStatusCode{Message: "Du hast bereits abgestimmt", StatusCode: 400}
			},
		}
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/posts/5/poll/vote", bytes.NewBufferString(`{"optionId": 2}`)), &domain.User{Id: 7})
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "bereits abgestimmt")
	})
}

