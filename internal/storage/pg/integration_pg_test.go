package pg

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kiez-net/kiez/internal/config"
	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

var storage *Storage

func TestMain(m *testing.M) {
	ctx := context.Background()
	var container *postgres.PostgresContainer
	storage, container = mustSetup(ctx)
	defer teardown(ctx, storage, container)

	exitCode := m.Run()
	os.Exit(exitCode)
}

func mustSetup(ctx context.Context) (*Storage, *postgres.PostgresContainer) {
	dbName := "kiez"
	dbUser := "user"
	dbPassword := "password"
	container, err := postgres.Run(ctx,
		"postgres:15.3-alpine",
		postgres.WithInitScripts(filepath.Join("migrations", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			// First, we wait for the container to log readiness twice.
			// This is because it will restart itself after the first startup.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}
	containerPort, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("failed to obtain container port: %s", err)
	}
	port, err := strconv.Atoi(containerPort.Port())
	if err != nil {
		log.Fatalf("failed to obtain int container port: %s", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("failed to obtain container host: %s", err)
	}

	storage, err := New(&config.Config{
		Public:  config.Public{PostsPerPage: 25, MembersPerPage: 50, MaxPinnedPosts: 2, MaxPollOptions: 10},
		Private: config.Private{Pg: config.Pg{Host: host, Port: port, User: dbUser, Password: dbPassword, Dbname: dbName}},
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres container: %s", err)
	}
	return storage, container
}

func teardown(ctx context.Context, storage *Storage, container *postgres.PostgresContainer) {
	if err := storage.Cleanup(); err != nil {
		log.Printf("failed to close storage connection: %s", err)
	}
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

// test fixtures; unique emails and slugs keep tests independent

func mustUser(t *testing.T) domain.User {
	t.Helper()
	email := fmt.Sprintf("%s@example.com", uuid.NewString()[:8])
	id, err := storage.SaveUser(domain.User{Email: email, DisplayName: "Tester", PassHash: "hash"})
	require.NoError(t, err)
	return domain.User{Id: id, Email: email}
}

func mustCommunity(t *testing.T, ownerId domain.UserId) domain.Community {
	t.Helper()
	slug := "kiez-" + uuid.NewString()[:8]
	id, err := storage.CreateCommunity(domain.CommunityCreationData{
		Name:      slug,
		Type:      domain.CommunityPublic,
		CreatorId: ownerId,
	}, slug)
	require.NoError(t, err)
	c, err := storage.CommunityById(id)
	require.NoError(t, err)
	return c
}

func mustPost(t *testing.T, communityId domain.CommunityId, authorId domain.UserId, postType string, pollOptions []string) domain.Post {
	t.Helper()
	id, err := storage.CreatePost(domain.PostCreationData{
		CommunityId: communityId,
		AuthorId:    authorId,
		Type:        postType,
		Title:       "Testbeitrag",
		Content:     "Inhalt",
		PollOptions: pollOptions,
	})
	require.NoError(t, err)
	p, err := storage.PostById(id)
	require.NoError(t, err)
	return p
}

func errStatus(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	statusErr, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok, "expected ErrorWithStatusCode, got %T: %v", err, err)
	return statusErr.StatusCode
}

func TestCreateCommunity(t *testing.T) {
	owner := mustUser(t)
	community := mustCommunity(t, owner.Id)

	t.Run("creator becomes owner", func(t *testing.T) {
		member, err := storage.Membership(community.Id, owner.Id)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleOwner, member.Role)
		assert.Equal(t, 1, community.MemberCount)
	})

	t.Run("duplicate slug rejected", func(t *testing.T) {
		_, err := storage.CreateCommunity(domain.CommunityCreationData{
			Name:      community.Name,
			Type:      domain.CommunityPublic,
			CreatorId: owner.Id,
		}, community.Slug)
		assert.Equal(t, 409, errStatus(t, err))
	})

	t.Run("second owner insert violates index", func(t *testing.T) {
		other := mustUser(t)
		_, err := storage.db.Exec(
			"INSERT INTO community_members (community_id, user_id, role) VALUES ($1, $2, 'OWNER')",
			community.Id, other.Id)
		require.Error(t, err)
		assert.True(t, isUniqueViolation(err, "community_members_one_owner"))
	})
}

func TestCommunityListing(t *testing.T) {
	owner := mustUser(t)
	token := uuid.NewString()[:8]

	ids := make([]domain.CommunityId, 0, 2)
	for _, c := range []struct {
		name string
		typ  string
	}{
		{"Alpha " + token, domain.CommunityPublic},
		{"Beta " + token, domain.CommunityPrivate},
	} {
		id, err := storage.CreateCommunity(domain.CommunityCreationData{
			Name:      c.name,
			Type:      c.typ,
			CreatorId: owner.Id,
		}, "kiez-"+uuid.NewString()[:8])
		require.NoError(t, err)
		ids = append(ids, id)
	}

	t.Run("search matches by name", func(t *testing.T) {
		communities, total, err := storage.Communities(token, "name", "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, communities, 2)
		assert.Equal(t, ids[0], communities[0].Id, "name sort puts Alpha first")
	})

	t.Run("type filter", func(t *testing.T) {
		communities, total, err := storage.Communities(token, "new", domain.CommunityPrivate, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, communities, 1)
		assert.Equal(t, ids[1], communities[0].Id)
	})

	t.Run("archived communities are hidden", func(t *testing.T) {
		require.NoError(t, storage.ArchiveCommunity(ids[0]))
		_, total, err := storage.Communities(token, "popular", "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})
}

func TestMembershipLifecycle(t *testing.T) {
	owner := mustUser(t)
	member := mustUser(t)
	community := mustCommunity(t, owner.Id)

	t.Run("join recounts members", func(t *testing.T) {
		require.NoError(t, storage.AddMember(community.Id, member.Id))
		c, err := storage.CommunityById(community.Id)
		require.NoError(t, err)
		assert.Equal(t, 2, c.MemberCount)
	})

	t.Run("rejoining is a no-op", func(t *testing.T) {
		require.NoError(t, storage.AddMember(community.Id, member.Id))
		c, err := storage.CommunityById(community.Id)
		require.NoError(t, err)
		assert.Equal(t, 2, c.MemberCount)
	})

	t.Run("moderators listed first", func(t *testing.T) {
		require.NoError(t, storage.ChangeRole(community.Id, member.Id, domain.RoleModerator, owner.Id))
		members, total, err := storage.Members(community.Id, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, domain.RoleOwner, members[0].Role)
		assert.Equal(t, domain.RoleModerator, members[1].Role)
	})

	t.Run("leave recounts members", func(t *testing.T) {
		require.NoError(t, storage.RemoveMembership(community.Id, member.Id))
		c, err := storage.CommunityById(community.Id)
		require.NoError(t, err)
		assert.Equal(t, 1, c.MemberCount)
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		err := storage.RemoveMembership(community.Id, owner.Id)
		assert.Equal(t, 404, errStatus(t, err))
	})
}

func TestBans(t *testing.T) {
	owner := mustUser(t)
	target := mustUser(t)
	community := mustCommunity(t, owner.Id)
	require.NoError(t, storage.AddMember(community.Id, target.Id))

	t.Run("ban drops membership and recounts", func(t *testing.T) {
		err := storage.BanUser(domain.Ban{
			CommunityId: community.Id,
			UserId:      target.Id,
			BannedBy:    owner.Id,
			Reason:      "Spam",
			Status:      domain.BanPermanent,
		})
		require.NoError(t, err)

		_, err = storage.Membership(community.Id, target.Id)
		assert.Equal(t, 404, errStatus(t, err))

		c, err := storage.CommunityById(community.Id)
		require.NoError(t, err)
		assert.Equal(t, 1, c.MemberCount)

		ban, active, err := storage.ActiveBan(community.Id, target.Id)
		require.NoError(t, err)
		assert.True(t, active)
		assert.Equal(t, owner.Id, ban.BannedBy)
	})

	t.Run("expired temporary ban is cleared lazily", func(t *testing.T) {
		expired := time.Now().Add(-time.Hour)
		err := storage.BanUser(domain.Ban{
			CommunityId: community.Id,
			UserId:      target.Id,
			BannedBy:    owner.Id,
			Status:      domain.BanTemporary,
			ExpiresAt:   &expired,
		})
		require.NoError(t, err)

		_, active, err := storage.ActiveBan(community.Id, target.Id)
		require.NoError(t, err)
		assert.False(t, active)

		// the lazy cleanup deleted the row, so unban now misses
		err = storage.UnbanUser(community.Id, target.Id, owner.Id)
		assert.Equal(t, 404, errStatus(t, err))
	})

	t.Run("unban removes active ban", func(t *testing.T) {
		err := storage.BanUser(domain.Ban{
			CommunityId: community.Id,
			UserId:      target.Id,
			BannedBy:    owner.Id,
			Status:      domain.BanPermanent,
		})
		require.NoError(t, err)
		require.NoError(t, storage.UnbanUser(community.Id, target.Id, owner.Id))

		_, active, err := storage.ActiveBan(community.Id, target.Id)
		require.NoError(t, err)
		assert.False(t, active)
	})
}

func TestPinLimit(t *testing.T) {
	owner := mustUser(t)
	community := mustCommunity(t, owner.Id)

	first := mustPost(t, community.Id, owner.Id, domain.PostText, nil)
	second := mustPost(t, community.Id, owner.Id, domain.PostText, nil)
	third := mustPost(t, community.Id, owner.Id, domain.PostText, nil)

	require.NoError(t, storage.SetPinned(first.Id, community.Id, true, owner.Id))
	require.NoError(t, storage.SetPinned(second.Id, community.Id, true, owner.Id))

	err := storage.SetPinned(third.Id, community.Id, true, owner.Id)
	assert.Equal(t, 400, errStatus(t, err))
	assert.Contains(t, err.Error(), "Maximal 2")

	// re-pinning an already pinned post stays within the limit
	require.NoError(t, storage.SetPinned(first.Id, community.Id, true, owner.Id))

	// unpinning frees a slot
	require.NoError(t, storage.SetPinned(second.Id, community.Id, false, owner.Id))
	require.NoError(t, storage.SetPinned(third.Id, community.Id, true, owner.Id))
}

func TestPollVotes(t *testing.T) {
	owner := mustUser(t)
	voter := mustUser(t)
	community := mustCommunity(t, owner.Id)
	post := mustPost(t, community.Id, owner.Id, domain.PostPoll, []string{"Ja", "Nein"})

	options, err := storage.PollResults(post.Id)
	require.NoError(t, err)
	require.Len(t, options, 2)

	t.Run("vote bumps tally", func(t *testing.T) {
		results, err := storage.CastPollVote(post.Id, options[0].Id, voter.Id)
		require.NoError(t, err)
		assert.Equal(t, 1, results[0].VoteCount)
		assert.Equal(t, 0, results[1].VoteCount)
	})

	t.Run("second vote rejected", func(t *testing.T) {
		_, err := storage.CastPollVote(post.Id, options[1].Id, voter.Id)
		assert.Equal(t, 400, errStatus(t, err))
		assert.Contains(t, err.Error(), "bereits abgestimmt")
	})

	t.Run("foreign option rejected", func(t *testing.T) {
		otherPost := mustPost(t, community.Id, owner.Id, domain.PostPoll, []string{"A", "B"})
		_, err := storage.CastPollVote(otherPost.Id, options[0].Id, voter.Id)
		assert.Equal(t, 400, errStatus(t, err))
	})
}

func TestPostVotes(t *testing.T) {
	author := mustUser(t)
	voter := mustUser(t)
	community := mustCommunity(t, author.Id)
	post := mustPost(t, community.Id, author.Id, domain.PostText, nil)

	t.Run("upvote adjusts score and karma", func(t *testing.T) {
		score, err := storage.CastPostVote(post.Id, voter.Id, author.Id, 1, true)
		require.NoError(t, err)
		assert.Equal(t, 1, score)

		u, err := storage.UserById(author.Id)
		require.NoError(t, err)
		assert.Equal(t, 1, u.Karma)
	})

	t.Run("switching to downvote swings by two", func(t *testing.T) {
		score, err := storage.CastPostVote(post.Id, voter.Id, author.Id, -1, true)
		require.NoError(t, err)
		assert.Equal(t, -1, score)

		u, err := storage.UserById(author.Id)
		require.NoError(t, err)
		assert.Equal(t, -1, u.Karma)
	})

	t.Run("clearing the vote restores zero", func(t *testing.T) {
		score, err := storage.CastPostVote(post.Id, voter.Id, author.Id, 0, true)
		require.NoError(t, err)
		assert.Equal(t, 0, score)

		u, err := storage.UserById(author.Id)
		require.NoError(t, err)
		assert.Equal(t, 0, u.Karma)
	})

	t.Run("self vote without karma adjustment", func(t *testing.T) {
		score, err := storage.CastPostVote(post.Id, author.Id, author.Id, 1, false)
		require.NoError(t, err)
		assert.Equal(t, 1, score)

		u, err := storage.UserById(author.Id)
		require.NoError(t, err)
		assert.Equal(t, 0, u.Karma)
	})
}

func TestReports(t *testing.T) {
	owner := mustUser(t)
	reporter := mustUser(t)
	community := mustCommunity(t, owner.Id)
	post := mustPost(t, community.Id, owner.Id, domain.PostText, nil)

	report := domain.Report{
		CommunityId: community.Id,
		ReporterId:  reporter.Id,
		PostId:      &post.Id,
		Reason:      "Beleidigung",
	}

	reportId, err := storage.CreateReport(report)
	require.NoError(t, err)

	t.Run("duplicate open report rejected", func(t *testing.T) {
		_, err := storage.CreateReport(report)
		assert.Equal(t, 400, errStatus(t, err))
		assert.Contains(t, err.Error(), "bereits gemeldet")
	})

	t.Run("resolving stamps the resolver", func(t *testing.T) {
		require.NoError(t, storage.SetReportStatus(reportId, community.Id, domain.ReportResolved, owner.Id))
		r, err := storage.ReportById(reportId)
		require.NoError(t, err)
		assert.Equal(t, domain.ReportResolved, r.Status)
		require.NotNil(t, r.ResolvedBy)
		assert.Equal(t, owner.Id, *r.ResolvedBy)
		assert.NotNil(t, r.ResolvedAt)
	})

	t.Run("re-report allowed after resolution", func(t *testing.T) {
		_, err := storage.CreateReport(report)
		require.NoError(t, err)
	})

	t.Run("status filter", func(t *testing.T) {
		open, _, err := storage.Reports(community.Id, domain.ReportOpen, 1, 50)
		require.NoError(t, err)
		require.Len(t, open, 1)

		all, total, err := storage.Reports(community.Id, "", 1, 50)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		assert.Equal(t, 2, total)
	})
}

func TestModLog(t *testing.T) {
	owner := mustUser(t)
	member := mustUser(t)
	community := mustCommunity(t, owner.Id)
	require.NoError(t, storage.AddMember(community.Id, member.Id))

	require.NoError(t, storage.ChangeRole(community.Id, member.Id, domain.RoleModerator, owner.Id))
	require.NoError(t, storage.RemoveMember(community.Id, member.Id, owner.Id, "Inaktiv"))

	t.Run("entries newest first", func(t *testing.T) {
		entries, total, err := storage.ModLog(community.Id, "", 1, 50)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.ActionRemoveMember, entries[0].Action)
		assert.Equal(t, domain.ActionChangeRole, entries[1].Action)
	})

	t.Run("action filter", func(t *testing.T) {
		entries, total, err := storage.ModLog(community.Id, domain.ActionChangeRole, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, entries, 1)
		require.NotNil(t, entries[0].TargetUserId)
		assert.Equal(t, member.Id, *entries[0].TargetUserId)
		assert.Contains(t, entries[0].Metadata, "MODERATOR")
	})
}

func TestSavedPosts(t *testing.T) {
	user := mustUser(t)
	community := mustCommunity(t, user.Id)
	post := mustPost(t, community.Id, user.Id, domain.PostText, nil)

	saved, err := storage.ToggleSaved(post.Id, user.Id)
	require.NoError(t, err)
	assert.True(t, saved)

	posts, total, err := storage.SavedPosts(user.Id, 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, posts, 1)
	assert.Equal(t, post.Id, posts[0].Id)

	saved, err = storage.ToggleSaved(post.Id, user.Id)
	require.NoError(t, err)
	assert.False(t, saved)

	_, total, err = storage.SavedPosts(user.Id, 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestNotifications(t *testing.T) {
	user := mustUser(t)
	other := mustUser(t)

	require.NoError(t, storage.CreateNotification(domain.Notification{
		UserId: user.Id,
		Kind:   "BANNED",
		Title:  "Du wurdest gesperrt",
		Body:   "Grund: Spam",
	}))

	notifications, total, err := storage.Notifications(user.Id, true, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].IsRead)

	t.Run("only the recipient can mark read", func(t *testing.T) {
		err := storage.MarkNotificationRead(notifications[0].Id, other.Id)
		assert.Equal(t, 404, errStatus(t, err))

		require.NoError(t, storage.MarkNotificationRead(notifications[0].Id, user.Id))
		_, total, err := storage.Notifications(user.Id, true, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})
}

func TestArchivedCommunityRejectsUpdates(t *testing.T) {
	owner := mustUser(t)
	community := mustCommunity(t, owner.Id)
	require.NoError(t, storage.ArchiveCommunity(community.Id))

	description := "Neue Beschreibung"
	err := storage.UpdateCommunity(community.Id, domain.CommunityUpdate{Description: &description}, owner.Id)
	assert.Equal(t, 404, errStatus(t, err))

	c, err := storage.CommunityById(community.Id)
	require.NoError(t, err)
	assert.True(t, c.IsArchived)
}

func TestPinAndLockAreLogged(t *testing.T) {
	owner := mustUser(t)
	community := mustCommunity(t, owner.Id)
	post := mustPost(t, community.Id, owner.Id, domain.PostText, nil)

	require.NoError(t, storage.SetLocked(post.Id, community.Id, true, owner.Id))
	require.NoError(t, storage.SetLocked(post.Id, community.Id, false, owner.Id))
	require.NoError(t, storage.SetPinned(post.Id, community.Id, true, owner.Id))
	require.NoError(t, storage.SetPinned(post.Id, community.Id, false, owner.Id))

	entries, total, err := storage.ModLog(community.Id, "", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, entries, 4)

	// newest first
	actions := []string{entries[0].Action, entries[1].Action, entries[2].Action, entries[3].Action}
	assert.Equal(t, []string{
		domain.ActionUnpinPost,
		domain.ActionPinPost,
		domain.ActionUnlockPost,
		domain.ActionLockPost,
	}, actions)

	for _, entry := range entries {
		assert.Equal(t, owner.Id, entry.ModeratorId)
		require.NotNil(t, entry.TargetPostId)
		assert.Equal(t, post.Id, *entry.TargetPostId)
	}
}

func TestComments(t *testing.T) {
	author := mustUser(t)
	replier := mustUser(t)
	community := mustCommunity(t, author.Id)
	post := mustPost(t, community.Id, author.Id, domain.PostText, nil)

	comment, err := storage.CreateComment(domain.CommentCreationData{
		PostId:   post.Id,
		AuthorId: author.Id,
		Content:  "Erster Kommentar",
	})
	require.NoError(t, err)

	t.Run("new comment starts with the author's upvote", func(t *testing.T) {
		assert.Equal(t, 1, comment.Score)
		assert.Equal(t, 1, comment.UserVote)

		p, err := storage.PostById(post.Id)
		require.NoError(t, err)
		assert.Equal(t, 1, p.CommentCount)
	})

	t.Run("parent from another post rejected", func(t *testing.T) {
		otherPost := mustPost(t, community.Id, author.Id, domain.PostText, nil)
		_, err := storage.CreateComment(domain.CommentCreationData{
			PostId:   otherPost.Id,
			ParentId: &comment.Id,
			AuthorId: replier.Id,
			Content:  "Falscher Baum",
		})
		assert.Equal(t, 400, errStatus(t, err))
	})

	reply, err := storage.CreateComment(domain.CommentCreationData{
		PostId:   post.Id,
		ParentId: &comment.Id,
		AuthorId: replier.Id,
		Content:  "Eine Antwort",
	})
	require.NoError(t, err)

	t.Run("listing returns flat rows with the caller's vote", func(t *testing.T) {
		comments, err := storage.Comments(post.Id, domain.CommentSortOld, author.Id)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, comment.Id, comments[0].Id)
		assert.Equal(t, 1, comments[0].UserVote)
		require.NotNil(t, comments[1].ParentId)
		assert.Equal(t, comment.Id, *comments[1].ParentId)
		assert.Equal(t, 0, comments[1].UserVote)
	})

	t.Run("voting adjusts score and karma", func(t *testing.T) {
		score, err := storage.CastCommentVote(reply.Id, author.Id, replier.Id, 1, true)
		require.NoError(t, err)
		assert.Equal(t, 2, score)

		u, err := storage.UserById(replier.Id)
		require.NoError(t, err)
		assert.Equal(t, 1, u.Karma)
	})

	t.Run("edit updates the content", func(t *testing.T) {
		require.NoError(t, storage.EditComment(reply.Id, "Eine bessere Antwort"))
		c, err := storage.CommentById(reply.Id)
		require.NoError(t, err)
		assert.Equal(t, "Eine bessere Antwort", c.Content)
	})

	t.Run("author delete decrements the cached count", func(t *testing.T) {
		require.NoError(t, storage.SoftDeleteComment(reply.Id, post.Id))
		c, err := storage.CommentById(reply.Id)
		require.NoError(t, err)
		assert.True(t, c.IsDeleted)

		p, err := storage.PostById(post.Id)
		require.NoError(t, err)
		assert.Equal(t, 1, p.CommentCount)
	})

	t.Run("moderator removal is logged", func(t *testing.T) {
		require.NoError(t, storage.RemoveComment(comment.Id, post.Id, community.Id, author.Id, author.Id))

		c, err := storage.CommentById(comment.Id)
		require.NoError(t, err)
		assert.True(t, c.IsRemoved)

		entries, total, err := storage.ModLog(community.Id, domain.ActionRemoveComment, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, entries, 1)
		require.NotNil(t, entries[0].TargetPostId)
		assert.Equal(t, post.Id, *entries[0].TargetPostId)
		assert.Contains(t, entries[0].Metadata, fmt.Sprintf("%d", comment.Id))
	})
}

func TestFlairs(t *testing.T) {
	owner := mustUser(t)
	community := mustCommunity(t, owner.Id)

	frage, err := storage.CreateFlair(domain.Flair{
		CommunityId: community.Id,
		Name:        "Frage",
		Color:       "#FF0000",
		TextColor:   "#FFFFFF",
	})
	require.NoError(t, err)
	diskussion, err := storage.CreateFlair(domain.Flair{
		CommunityId: community.Id,
		Name:        "Diskussion",
		Color:       "#6B7280",
		TextColor:   "#FFFFFF",
	})
	require.NoError(t, err)

	t.Run("listing is name ordered", func(t *testing.T) {
		flairs, err := storage.Flairs(community.Id)
		require.NoError(t, err)
		require.Len(t, flairs, 2)
		assert.Equal(t, "Diskussion", flairs[0].Name)
		assert.Equal(t, "Frage", flairs[1].Name)
	})

	postId, err := storage.CreatePost(domain.PostCreationData{
		CommunityId: community.Id,
		AuthorId:    owner.Id,
		Type:        domain.PostText,
		Title:       "Mit Flair",
		Content:     "Inhalt",
		FlairId:     &frage.Id,
	})
	require.NoError(t, err)
	mustPost(t, community.Id, owner.Id, domain.PostText, nil)

	t.Run("flair filter narrows the listing", func(t *testing.T) {
		posts, total, err := storage.Posts(community.Id, frage.Id, 1, 25)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, posts, 1)
		assert.Equal(t, postId, posts[0].Id)

		_, total, err = storage.Posts(community.Id, 0, 1, 25)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("editing with zero clears the flair", func(t *testing.T) {
		var clear domain.FlairId = 0
		require.NoError(t, storage.EditPost(postId, nil, nil, &clear))
		p, err := storage.PostById(postId)
		require.NoError(t, err)
		assert.Nil(t, p.FlairId)
	})

	t.Run("deleting an unknown flair is a 404", func(t *testing.T) {
		require.NoError(t, storage.DeleteFlair(community.Id, diskussion.Id))
		err := storage.DeleteFlair(community.Id, diskussion.Id)
		assert.Equal(t, 404, errStatus(t, err))
	})
}
