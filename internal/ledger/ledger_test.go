package ledger

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = Principal("owner")

// assertLedgerCode asserts that err is a *ledger.Error with the given code.
func assertLedgerCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var lerr *Error
	require.True(t, errors.As(err, &lerr), "expected ledger.Error, got %T: %v", err, err)
	assert.Equal(t, code, lerr.Code)
}

func TestNew(t *testing.T) {
	t.Parallel()
	l := New(owner)

	assert.Equal(t, owner, l.Owner())
	assert.False(t, l.IsPaused())
	assert.Zero(t, l.TotalPosts())
}

func TestCreatePost_MonotonicDenseIDs(t *testing.T) {
	t.Parallel()
	l := New(owner)

	for i := 1; i <= 5; i++ {
		id, ev, err := l.CreatePost("alice", fmt.Sprintf("cid-%d", i), SequenceNumber(i))
		require.NoError(t, err)
		assert.Equal(t, PostID(i), id, "ids must be assigned densely in call order")
		require.NotNil(t, ev)
		assert.Equal(t, EventPostCreated, ev.Type)
		assert.Equal(t, id, ev.PostID)
		assert.Equal(t, uint64(i), l.TotalPosts())
	}
}

func TestCreatePost_PerUserIndexContiguity(t *testing.T) {
	t.Parallel()
	l := New(owner)

	var wantIDs []PostID
	for i := 0; i < 3; i++ {
		id, _, err := l.CreatePost("alice", "cid-a", 1)
		require.NoError(t, err)
		wantIDs = append(wantIDs, id)
		// interleave another author; alice's indices must stay contiguous
		_, _, err = l.CreatePost("bob", "cid-b", 1)
		require.NoError(t, err)
	}

	assert.Equal(t, uint64(3), l.UserPostCount("alice"))
	assert.Equal(t, uint64(3), l.UserPostCount("bob"))
	assert.Zero(t, l.UserPostCount("carol"))

	for i, want := range wantIDs {
		got, err := l.UserPostAt("alice", uint64(i))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := l.UserPostAt("alice", 3)
	assertLedgerCode(t, err, "POST_NOT_FOUND")
}

func TestCreatePost_ContentBounds(t *testing.T) {
	t.Parallel()
	l := New(owner)

	_, _, err := l.CreatePost("alice", "", 1)
	assertLedgerCode(t, err, "INVALID_CONTENT")
	assert.Zero(t, l.TotalPosts(), "rejected create must leave state unchanged")
	assert.Zero(t, l.UserPostCount("alice"))

	_, _, err = l.CreatePost("alice", strings.Repeat("x", MaxContentRefLen+1), 1)
	assertLedgerCode(t, err, "INVALID_CONTENT")

	// bounds are code points, not bytes: 256 multi-byte runes must pass
	id, _, err := l.CreatePost("alice", strings.Repeat("日", MaxContentRefLen), 1)
	require.NoError(t, err)
	assert.Equal(t, PostID(1), id)
}

func TestLikePost(t *testing.T) {
	t.Parallel()
	l := New(owner)
	id, _, err := l.CreatePost("alice", "cid123", 1)
	require.NoError(t, err)

	ev, err := l.LikePost("bob", id)
	require.NoError(t, err)
	assert.Equal(t, EventPostLiked, ev.Type)
	assert.Equal(t, Principal("bob"), ev.User)

	post, err := l.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), post.LikeCount)
	assert.True(t, l.HasUserLiked(id, "bob"))
	assert.False(t, l.HasUserLiked(id, "alice"))
}

func TestLikePost_IdempotenceGuard(t *testing.T) {
	t.Parallel()
	l := New(owner)
	id, _, err := l.CreatePost("alice", "cid123", 1)
	require.NoError(t, err)

	_, err = l.LikePost("bob", id)
	require.NoError(t, err)

	ev, err := l.LikePost("bob", id)
	assertLedgerCode(t, err, "ALREADY_LIKED")
	assert.Nil(t, ev, "no event on failure")

	post, _ := l.GetPost(id)
	assert.Equal(t, uint64(1), post.LikeCount, "double like must not double count")
}

func TestLikePost_NotFound(t *testing.T) {
	t.Parallel()
	l := New(owner)

	_, err := l.LikePost("bob", 42)
	assertLedgerCode(t, err, "POST_NOT_FOUND")
}

func TestUnlikePost_RequiresPriorLike(t *testing.T) {
	t.Parallel()
	l := New(owner)
	id, _, err := l.CreatePost("alice", "cid123", 1)
	require.NoError(t, err)

	_, err = l.UnlikePost("bob", id)
	assertLedgerCode(t, err, "NOT_LIKED")

	post, _ := l.GetPost(id)
	assert.Zero(t, post.LikeCount)

	_, err = l.UnlikePost("bob", 42)
	assertLedgerCode(t, err, "POST_NOT_FOUND")
}

func TestLikeUnlike_RoundTrip(t *testing.T) {
	t.Parallel()
	l := New(owner)
	id, _, err := l.CreatePost("alice", "cid123", 1)
	require.NoError(t, err)

	_, err = l.LikePost("bob", id)
	require.NoError(t, err)
	ev, err := l.UnlikePost("bob", id)
	require.NoError(t, err)
	assert.Equal(t, EventPostUnliked, ev.Type)

	post, _ := l.GetPost(id)
	assert.Zero(t, post.LikeCount)
	assert.False(t, l.HasUserLiked(id, "bob"))

	// unliked is a tombstone: a second unlike still fails
	_, err = l.UnlikePost("bob", id)
	assertLedgerCode(t, err, "NOT_LIKED")

	// and the user may like again afterwards
	_, err = l.LikePost("bob", id)
	require.NoError(t, err)
	post, _ = l.GetPost(id)
	assert.Equal(t, uint64(1), post.LikeCount)
}

func TestPause_OwnerOnly(t *testing.T) {
	t.Parallel()
	l := New(owner)

	_, err := l.Pause("mallory")
	assertLedgerCode(t, err, "NOT_AUTHORIZED")
	assert.False(t, l.IsPaused())

	ev, err := l.Pause(owner)
	require.NoError(t, err)
	assert.Equal(t, EventContractPaused, ev.Type)
	assert.True(t, l.IsPaused())

	// pausing an already-paused ledger succeeds silently
	_, err = l.Pause(owner)
	require.NoError(t, err)

	_, err = l.Unpause("mallory")
	assertLedgerCode(t, err, "NOT_AUTHORIZED")
	assert.True(t, l.IsPaused())

	ev, err = l.Unpause(owner)
	require.NoError(t, err)
	assert.Equal(t, EventContractUnpaused, ev.Type)
	assert.False(t, l.IsPaused())
}

func TestPause_GatesMutations(t *testing.T) {
	t.Parallel()
	l := New(owner)
	id, _, err := l.CreatePost("alice", "cid123", 1)
	require.NoError(t, err)
	_, err = l.LikePost("bob", id)
	require.NoError(t, err)

	_, err = l.Pause(owner)
	require.NoError(t, err)

	_, _, err = l.CreatePost("alice", "cid456", 2)
	assertLedgerCode(t, err, "CONTRACT_PAUSED")
	_, err = l.LikePost("carol", id)
	assertLedgerCode(t, err, "CONTRACT_PAUSED")
	_, err = l.UnlikePost("bob", id)
	assertLedgerCode(t, err, "CONTRACT_PAUSED")

	// read-only queries keep working while paused
	post, err := l.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, "cid123", post.ContentRef)
	assert.Equal(t, uint64(1), l.TotalPosts())
	assert.Equal(t, uint64(1), l.UserPostCount("alice"))
	assert.True(t, l.HasUserLiked(id, "bob"))

	// unpause reopens the ledger and ids stay dense
	_, err = l.Unpause(owner)
	require.NoError(t, err)
	id2, _, err := l.CreatePost("alice", "cid456", 3)
	require.NoError(t, err)
	assert.Equal(t, PostID(2), id2)
}

// TestScenario walks the end-to-end scenario: one owner post, a like, a
// rejected double like, an unlike, failed and successful pauses.
func TestScenario(t *testing.T) {
	t.Parallel()
	l := New("O")

	id, _, err := l.CreatePost("O", "cid123", 10)
	require.NoError(t, err)
	require.Equal(t, PostID(1), id)

	post, err := l.GetPost(1)
	require.NoError(t, err)
	assert.Equal(t, Post{ID: 1, Creator: "O", ContentRef: "cid123", CreatedAt: 10}, post)

	_, err = l.LikePost("A", 1)
	require.NoError(t, err)
	post, _ = l.GetPost(1)
	assert.Equal(t, uint64(1), post.LikeCount)
	assert.True(t, l.HasUserLiked(1, "A"))

	_, err = l.LikePost("A", 1)
	assertLedgerCode(t, err, "ALREADY_LIKED")
	post, _ = l.GetPost(1)
	assert.Equal(t, uint64(1), post.LikeCount)

	_, err = l.UnlikePost("A", 1)
	require.NoError(t, err)
	post, _ = l.GetPost(1)
	assert.Zero(t, post.LikeCount)
	assert.False(t, l.HasUserLiked(1, "A"))

	_, err = l.Pause("A")
	assertLedgerCode(t, err, "NOT_AUTHORIZED")

	_, err = l.Pause("O")
	require.NoError(t, err)
	_, _, err = l.CreatePost("A", "cid999", 11)
	assertLedgerCode(t, err, "CONTRACT_PAUSED")
}

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()
	l := New(owner)
	id1, _, err := l.CreatePost("alice", "cid-1", 5)
	require.NoError(t, err)
	id2, _, err := l.CreatePost("bob", "cid-2", 6)
	require.NoError(t, err)
	_, err = l.LikePost("bob", id1)
	require.NoError(t, err)
	_, err = l.LikePost("alice", id2)
	require.NoError(t, err)
	_, err = l.UnlikePost("alice", id2)
	require.NoError(t, err)
	_, err = l.Pause(owner)
	require.NoError(t, err)

	restored := FromSnapshot(l.Snapshot())

	assert.Equal(t, l.Owner(), restored.Owner())
	assert.True(t, restored.IsPaused())
	assert.Equal(t, l.TotalPosts(), restored.TotalPosts())

	post, err := restored.GetPost(id1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), post.LikeCount)
	assert.True(t, restored.HasUserLiked(id1, "bob"))
	assert.False(t, restored.HasUserLiked(id2, "alice"))

	got, err := restored.UserPostAt("alice", 0)
	require.NoError(t, err)
	assert.Equal(t, id1, got)

	// tombstone must survive the round trip: unlike again still fails
	_, err = restored.Unpause(owner)
	require.NoError(t, err)
	_, err = restored.UnlikePost("alice", id2)
	assertLedgerCode(t, err, "NOT_LIKED")
}
