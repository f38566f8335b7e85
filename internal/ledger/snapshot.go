package ledger

// LikeEntry is one (post, user) like record in a snapshot. Liked false is a
// tombstone, not an absent record.
type LikeEntry struct {
	PostID PostID
	User   Principal
	Liked  bool
}

// PostRefEntry is one entry of a user's append-only post list.
type PostRefEntry struct {
	User   Principal
	Index  uint64
	PostID PostID
}

// Snapshot is a value copy of the full ledger state, the five logical tables
// flattened for a host store. FromSnapshot rebuilds an identical machine.
type Snapshot struct {
	Owner      Principal
	Paused     bool
	TotalPosts uint64
	Posts      []Post
	PostRefs   []PostRefEntry
	PostCounts map[Principal]uint64
	Likes      []LikeEntry
}

// Snapshot copies the current state out of the ledger.
func (l *Ledger) Snapshot() *Snapshot {
	snap := &Snapshot{
		Owner:      l.owner,
		Paused:     l.paused,
		TotalPosts: l.totalPosts,
		Posts:      make([]Post, 0, len(l.posts)),
		PostRefs:   make([]PostRefEntry, 0, len(l.userPosts)),
		PostCounts: make(map[Principal]uint64, len(l.userPostCount)),
		Likes:      make([]LikeEntry, 0, len(l.postLikes)),
	}
	for _, p := range l.posts {
		snap.Posts = append(snap.Posts, p)
	}
	for k, id := range l.userPosts {
		snap.PostRefs = append(snap.PostRefs, PostRefEntry{User: k.User, Index: k.Index, PostID: id})
	}
	for user, n := range l.userPostCount {
		snap.PostCounts[user] = n
	}
	for k, liked := range l.postLikes {
		snap.Likes = append(snap.Likes, LikeEntry{PostID: k.PostID, User: k.User, Liked: liked})
	}
	return snap
}

// FromSnapshot rebuilds a ledger from a previously captured state.
func FromSnapshot(snap *Snapshot) *Ledger {
	l := New(snap.Owner)
	l.paused = snap.Paused
	l.totalPosts = snap.TotalPosts
	for _, p := range snap.Posts {
		l.posts[p.ID] = p
	}
	for _, ref := range snap.PostRefs {
		l.userPosts[userPostKey{User: ref.User, Index: ref.Index}] = ref.PostID
	}
	for user, n := range snap.PostCounts {
		l.userPostCount[user] = n
	}
	for _, like := range snap.Likes {
		l.postLikes[likeKey{PostID: like.PostID, User: like.User}] = like.Liked
	}
	return l
}
