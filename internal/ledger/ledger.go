// Package ledger implements the deterministic post-ledger state machine:
// posts, per-user post indices, like bookkeeping, and the owner-controlled
// pause switch. The ledger is a pure synchronous state transition core; the
// host supplies caller identity and sequence numbers, serializes calls into
// a total order, and persists committed transitions.
package ledger

import "unicode/utf8"

// Principal is an opaque authenticated caller identity supplied by the host.
// The ledger treats it as a comparable token with no internal structure.
type Principal string

// PostID is a dense, monotonically increasing post identifier starting at 1.
type PostID uint64

// SequenceNumber is a host-supplied monotonic ordering value (e.g. a block
// height) recorded verbatim as a post's creation time.
type SequenceNumber uint64

// MaxContentRefLen is the upper bound on content references, measured in
// Unicode code points rather than bytes.
const MaxContentRefLen = 256

// Post is a published content reference. ContentRef is never interpreted.
type Post struct {
	ID         PostID         `json:"id"`
	Creator    Principal      `json:"creator"`
	ContentRef string         `json:"content_ref"`
	CreatedAt  SequenceNumber `json:"created_at"`
	LikeCount  uint64         `json:"like_count"`
}

// userPostKey addresses one entry of a user's append-only post list.
type userPostKey struct {
	User  Principal
	Index uint64
}

// likeKey addresses one (post, user) like record.
type likeKey struct {
	PostID PostID
	User   Principal
}

// Ledger holds the full mutable state of one post ledger. It is not safe
// for concurrent use; the host must serialize calls into a total order.
type Ledger struct {
	owner      Principal
	paused     bool
	totalPosts uint64

	posts         map[PostID]Post
	userPostCount map[Principal]uint64
	userPosts     map[userPostKey]PostID
	postLikes     map[likeKey]bool
}

// New initializes a fresh ledger owned by the given principal.
func New(owner Principal) *Ledger {
	return &Ledger{
		owner:         owner,
		posts:         make(map[PostID]Post),
		userPostCount: make(map[Principal]uint64),
		userPosts:     make(map[userPostKey]PostID),
		postLikes:     make(map[likeKey]bool),
	}
}

// CreatePost assigns the next dense PostID to a new post by caller and
// appends it to the caller's post list. It returns the assigned id and the
// post-created event. All preconditions are checked before any mutation.
func (l *Ledger) CreatePost(caller Principal, contentRef string, now SequenceNumber) (PostID, *Event, error) {
	if l.paused {
		return 0, nil, ErrContractPaused
	}
	n := utf8.RuneCountInString(contentRef)
	if n == 0 || n > MaxContentRefLen {
		return 0, nil, ErrInvalidContent
	}

	id := PostID(l.totalPosts + 1)
	l.posts[id] = Post{
		ID:         id,
		Creator:    caller,
		ContentRef: contentRef,
		CreatedAt:  now,
	}
	count := l.userPostCount[caller]
	l.userPosts[userPostKey{User: caller, Index: count}] = id
	l.userPostCount[caller] = count + 1
	l.totalPosts = uint64(id)

	return id, newPostCreatedEvent(id, caller, contentRef, now), nil
}

// LikePost records that caller currently likes the post. A caller can hold
// at most one live like per post.
func (l *Ledger) LikePost(caller Principal, id PostID) (*Event, error) {
	if l.paused {
		return nil, ErrContractPaused
	}
	post, ok := l.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	key := likeKey{PostID: id, User: caller}
	if l.postLikes[key] {
		return nil, ErrAlreadyLiked
	}

	post.LikeCount++
	l.posts[id] = post
	l.postLikes[key] = true

	return newPostLikedEvent(id, caller), nil
}

// UnlikePost withdraws a live like. The record is set to false rather than
// deleted: "liked then unliked" stays distinguishable from "never liked".
func (l *Ledger) UnlikePost(caller Principal, id PostID) (*Event, error) {
	if l.paused {
		return nil, ErrContractPaused
	}
	post, ok := l.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	key := likeKey{PostID: id, User: caller}
	if !l.postLikes[key] {
		return nil, ErrNotLiked
	}

	post.LikeCount--
	l.posts[id] = post
	l.postLikes[key] = false

	return newPostUnlikedEvent(id, caller), nil
}

// Pause stops all mutating operations except Unpause. Owner only.
// Pausing an already-paused ledger succeeds.
func (l *Ledger) Pause(caller Principal) (*Event, error) {
	if caller != l.owner {
		return nil, ErrNotAuthorized
	}
	l.paused = true
	return newPauseEvent(EventContractPaused), nil
}

// Unpause resumes mutating operations. Owner only, and allowed while paused.
func (l *Ledger) Unpause(caller Principal) (*Event, error) {
	if caller != l.owner {
		return nil, ErrNotAuthorized
	}
	l.paused = false
	return newPauseEvent(EventContractUnpaused), nil
}

// GetPost returns a copy of the post, or ErrPostNotFound.
func (l *Ledger) GetPost(id PostID) (Post, error) {
	post, ok := l.posts[id]
	if !ok {
		return Post{}, ErrPostNotFound
	}
	return post, nil
}

// TotalPosts returns the number of posts ever created, which equals the
// highest assigned PostID.
func (l *Ledger) TotalPosts() uint64 { return l.totalPosts }

// UserPostCount returns how many posts user has authored, 0 if none.
func (l *Ledger) UserPostCount(user Principal) uint64 {
	return l.userPostCount[user]
}

// UserPostAt resolves the id of user's index-th post (zero based).
func (l *Ledger) UserPostAt(user Principal, index uint64) (PostID, error) {
	id, ok := l.userPosts[userPostKey{User: user, Index: index}]
	if !ok {
		return 0, ErrPostNotFound
	}
	return id, nil
}

// HasUserLiked reports whether user currently likes the post. Both a false
// tombstone and an absent record read as false.
func (l *Ledger) HasUserLiked(id PostID, user Principal) bool {
	return l.postLikes[likeKey{PostID: id, User: user}]
}

// IsPaused reports whether the ledger is paused.
func (l *Ledger) IsPaused() bool { return l.paused }

// Owner returns the principal fixed at construction.
func (l *Ledger) Owner() Principal { return l.owner }
