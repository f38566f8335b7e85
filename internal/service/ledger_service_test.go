package service

import (
	"context"
	"errors"
	"testing"

	"postchain/internal/ledger"
	"postchain/internal/models"
	"postchain/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgerRepoStub is a stub for repository.LedgerRepository.
type ledgerRepoStub struct {
	initMetaFn         func(context.Context, string) (*models.LedgerMeta, error)
	loadSnapshotFn     func(context.Context) (*ledger.Snapshot, uint64, error)
	commitCreatePostFn func(context.Context, *models.Post, uint64) error
	commitLikeFn       func(context.Context, uint64, string, uint64, uint64) error
	commitUnlikeFn     func(context.Context, uint64, string, uint64, uint64) error
	commitPausedFn     func(context.Context, bool, uint64) error
}

var _ repository.LedgerRepository = (*ledgerRepoStub)(nil)

func (s *ledgerRepoStub) InitMeta(ctx context.Context, owner string) (*models.LedgerMeta, error) {
	return s.initMetaFn(ctx, owner)
}
func (s *ledgerRepoStub) LoadSnapshot(ctx context.Context) (*ledger.Snapshot, uint64, error) {
	return s.loadSnapshotFn(ctx)
}
func (s *ledgerRepoStub) CommitCreatePost(ctx context.Context, post *models.Post, sequence uint64) error {
	return s.commitCreatePostFn(ctx, post, sequence)
}
func (s *ledgerRepoStub) CommitLike(ctx context.Context, postID uint64, principal string, likeCount, sequence uint64) error {
	return s.commitLikeFn(ctx, postID, principal, likeCount, sequence)
}
func (s *ledgerRepoStub) CommitUnlike(ctx context.Context, postID uint64, principal string, likeCount, sequence uint64) error {
	return s.commitUnlikeFn(ctx, postID, principal, likeCount, sequence)
}
func (s *ledgerRepoStub) CommitPaused(ctx context.Context, paused bool, sequence uint64) error {
	return s.commitPausedFn(ctx, paused, sequence)
}

func noopLedgerRepo() *ledgerRepoStub {
	return &ledgerRepoStub{
		initMetaFn: func(_ context.Context, owner string) (*models.LedgerMeta, error) {
			return &models.LedgerMeta{Owner: owner}, nil
		},
		loadSnapshotFn: func(_ context.Context) (*ledger.Snapshot, uint64, error) {
			return &ledger.Snapshot{Owner: "owner", PostCounts: map[ledger.Principal]uint64{}}, 0, nil
		},
		commitCreatePostFn: func(_ context.Context, _ *models.Post, _ uint64) error { return nil },
		commitLikeFn:       func(_ context.Context, _ uint64, _ string, _, _ uint64) error { return nil },
		commitUnlikeFn:     func(_ context.Context, _ uint64, _ string, _, _ uint64) error { return nil },
		commitPausedFn:     func(_ context.Context, _ bool, _ uint64) error { return nil },
	}
}

// publisherStub records published events.
type publisherStub struct {
	events []*ledger.Event
	err    error
}

func (p *publisherStub) PublishEvent(_ context.Context, event *ledger.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func newTestService(t *testing.T, repo *ledgerRepoStub, pub *publisherStub) *LedgerService {
	t.Helper()
	var publisher EventPublisher
	if pub != nil {
		publisher = pub
	}
	svc, err := NewLedgerService(context.Background(), repo, publisher, "owner")
	require.NoError(t, err)
	return svc
}

func TestLedgerService_CreatePost(t *testing.T) {
	t.Parallel()
	repo := noopLedgerRepo()
	var committed []*models.Post
	repo.commitCreatePostFn = func(_ context.Context, post *models.Post, sequence uint64) error {
		committed = append(committed, post)
		assert.Equal(t, post.CreatedAt, sequence)
		return nil
	}
	pub := &publisherStub{}
	svc := newTestService(t, repo, pub)

	id, err := svc.CreatePost(context.Background(), "alice", "cid123")
	require.NoError(t, err)
	assert.Equal(t, ledger.PostID(1), id)

	require.Len(t, committed, 1)
	assert.Equal(t, "alice", committed[0].Creator)
	assert.Equal(t, uint64(1), committed[0].CreatedAt, "first sequence number is 1")

	require.Len(t, pub.events, 1)
	assert.Equal(t, ledger.EventPostCreated, pub.events[0].Type)
}

func TestLedgerService_SequenceMonotonic(t *testing.T) {
	t.Parallel()
	repo := noopLedgerRepo()
	var sequences []uint64
	repo.commitCreatePostFn = func(_ context.Context, _ *models.Post, sequence uint64) error {
		sequences = append(sequences, sequence)
		return nil
	}
	repo.commitLikeFn = func(_ context.Context, _ uint64, _ string, _, sequence uint64) error {
		sequences = append(sequences, sequence)
		return nil
	}
	svc := newTestService(t, repo, nil)

	ctx := context.Background()
	_, err := svc.CreatePost(ctx, "alice", "cid-1")
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, "alice", "cid-2")
	require.NoError(t, err)
	require.NoError(t, svc.LikePost(ctx, "bob", 1))

	assert.Equal(t, []uint64{1, 2, 3}, sequences)
	assert.Equal(t, uint64(3), svc.Status(ctx).Sequence)
}

func TestLedgerService_RejectionPublishesNothing(t *testing.T) {
	t.Parallel()
	pub := &publisherStub{}
	svc := newTestService(t, noopLedgerRepo(), pub)

	err := svc.LikePost(context.Background(), "bob", 42)
	var lerr *ledger.Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "POST_NOT_FOUND", lerr.Code)
	assert.Empty(t, pub.events, "no event on failure")
}

func TestLedgerService_ResyncOnCommitFailure(t *testing.T) {
	t.Parallel()
	repo := noopLedgerRepo()
	loads := 0
	repo.loadSnapshotFn = func(_ context.Context) (*ledger.Snapshot, uint64, error) {
		loads++
		return &ledger.Snapshot{Owner: "owner", PostCounts: map[ledger.Principal]uint64{}}, 0, nil
	}
	repo.commitCreatePostFn = func(_ context.Context, _ *models.Post, _ uint64) error {
		return errors.New("disk full")
	}
	pub := &publisherStub{}
	svc := newTestService(t, repo, pub)

	ctx := context.Background()
	_, err := svc.CreatePost(ctx, "alice", "cid123")
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)

	// core must have been rolled back to the durable state
	assert.Equal(t, 2, loads, "boot load plus resync load")
	assert.Zero(t, svc.GetTotalPosts(ctx))
	assert.Zero(t, svc.Status(ctx).Sequence)
	assert.Empty(t, pub.events)

	// and the ledger still works once the store recovers
	repo.commitCreatePostFn = func(_ context.Context, _ *models.Post, _ uint64) error { return nil }
	id, err := svc.CreatePost(ctx, "alice", "cid123")
	require.NoError(t, err)
	assert.Equal(t, ledger.PostID(1), id)
}

func TestLedgerService_PauseGating(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, noopLedgerRepo(), nil)
	ctx := context.Background()

	err := svc.Pause(ctx, "mallory")
	var lerr *ledger.Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "NOT_AUTHORIZED", lerr.Code)

	require.NoError(t, svc.Pause(ctx, "owner"))
	assert.True(t, svc.Status(ctx).Paused)

	_, err = svc.CreatePost(ctx, "alice", "cid123")
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "CONTRACT_PAUSED", lerr.Code)

	require.NoError(t, svc.Unpause(ctx, "owner"))
	_, err = svc.CreatePost(ctx, "alice", "cid123")
	require.NoError(t, err)
}

func TestLedgerService_Queries(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, noopLedgerRepo(), nil)
	ctx := context.Background()

	id, err := svc.CreatePost(ctx, "alice", "cid123")
	require.NoError(t, err)
	require.NoError(t, svc.LikePost(ctx, "bob", id))

	post, err := svc.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cid123", post.ContentRef)
	assert.Equal(t, uint64(1), post.LikeCount)

	assert.Equal(t, uint64(1), svc.GetTotalPosts(ctx))
	assert.Equal(t, uint64(1), svc.GetUserPostCount(ctx, "alice"))
	assert.True(t, svc.HasUserLiked(ctx, id, "bob"))
	assert.False(t, svc.HasUserLiked(ctx, id, "carol"))

	got, err := svc.GetUserPostAt(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = svc.GetPost(ctx, 99)
	var lerr *ledger.Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "POST_NOT_FOUND", lerr.Code)
}

func TestLedgerService_RestoresFromSnapshot(t *testing.T) {
	t.Parallel()
	repo := noopLedgerRepo()
	repo.loadSnapshotFn = func(_ context.Context) (*ledger.Snapshot, uint64, error) {
		return &ledger.Snapshot{
			Owner:      "owner",
			TotalPosts: 2,
			Posts: []ledger.Post{
				{ID: 1, Creator: "alice", ContentRef: "cid-1", CreatedAt: 1, LikeCount: 1},
				{ID: 2, Creator: "bob", ContentRef: "cid-2", CreatedAt: 2},
			},
			PostRefs: []ledger.PostRefEntry{
				{User: "alice", Index: 0, PostID: 1},
				{User: "bob", Index: 0, PostID: 2},
			},
			PostCounts: map[ledger.Principal]uint64{"alice": 1, "bob": 1},
			Likes:      []ledger.LikeEntry{{PostID: 1, User: "bob", Liked: true}},
		}, 5, nil
	}
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	assert.Equal(t, uint64(2), svc.GetTotalPosts(ctx))
	assert.Equal(t, uint64(5), svc.Status(ctx).Sequence)
	assert.True(t, svc.HasUserLiked(ctx, 1, "bob"))

	// next created post continues the dense id space and the sequence
	var gotSeq uint64
	repo.commitCreatePostFn = func(_ context.Context, post *models.Post, sequence uint64) error {
		gotSeq = sequence
		assert.Equal(t, uint64(3), post.ID)
		return nil
	}
	id, err := svc.CreatePost(ctx, "carol", "cid-3")
	require.NoError(t, err)
	assert.Equal(t, ledger.PostID(3), id)
	assert.Equal(t, uint64(6), gotSeq)
}
