// Package service hosts the ledger core: it serializes calls into a total
// order, supplies sequence numbers, persists committed transitions, and
// relays emitted events.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"postchain/internal/cache"
	"postchain/internal/ledger"
	"postchain/internal/middleware"
	"postchain/internal/models"
	"postchain/internal/observability"
	"postchain/internal/repository"
)

// EventPublisher relays committed ledger events to subscribers. Delivery is
// best-effort; publish failures never fail the committed operation.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *ledger.Event) error
}

// LedgerStatus is the externally visible singleton state.
type LedgerStatus struct {
	Owner      string `json:"owner"`
	Paused     bool   `json:"paused"`
	TotalPosts uint64 `json:"total_posts"`
	Sequence   uint64 `json:"sequence"`
}

// LedgerService applies operations one at a time against the core and writes
// each transition through to the repository before acknowledging it.
type LedgerService struct {
	mu        sync.Mutex
	core      *ledger.Ledger
	sequence  uint64
	repo      repository.LedgerRepository
	publisher EventPublisher
}

// NewLedgerService restores the ledger from the repository, initializing the
// meta row with the configured owner on first boot.
func NewLedgerService(ctx context.Context, repo repository.LedgerRepository, publisher EventPublisher, owner string) (*LedgerService, error) {
	if _, err := repo.InitMeta(ctx, owner); err != nil {
		return nil, err
	}
	snap, sequence, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &LedgerService{
		core:      ledger.FromSnapshot(snap),
		sequence:  sequence,
		repo:      repo,
		publisher: publisher,
	}, nil
}

// CreatePost publishes a content reference for the caller and returns the
// assigned post id.
func (s *LedgerService) CreatePost(ctx context.Context, caller ledger.Principal, contentRef string) (ledger.PostID, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.sequence + 1
	id, event, err := s.core.CreatePost(caller, contentRef, ledger.SequenceNumber(next))
	if err != nil {
		observability.ObserveApply("create_post", errOutcome(err), start)
		return 0, err
	}

	post := &models.Post{
		ID:         uint64(id),
		Creator:    string(caller),
		ContentRef: contentRef,
		CreatedAt:  next,
	}
	if err := s.repo.CommitCreatePost(ctx, post, next); err != nil {
		s.resync(ctx)
		observability.ObserveApply("create_post", "commit_failed", start)
		return 0, models.NewInternalError(err)
	}
	s.sequence = next

	cache.InvalidateTotals(ctx)
	cache.InvalidateUserCount(ctx, string(caller))
	s.publish(ctx, event)
	observability.ObserveApply("create_post", "ok", start)
	return id, nil
}

// LikePost records the caller's like on a post.
func (s *LedgerService) LikePost(ctx context.Context, caller ledger.Principal, id ledger.PostID) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.sequence + 1
	event, err := s.core.LikePost(caller, id)
	if err != nil {
		observability.ObserveApply("like_post", errOutcome(err), start)
		return err
	}

	post, _ := s.core.GetPost(id)
	if err := s.repo.CommitLike(ctx, uint64(id), string(caller), post.LikeCount, next); err != nil {
		s.resync(ctx)
		observability.ObserveApply("like_post", "commit_failed", start)
		return models.NewInternalError(err)
	}
	s.sequence = next

	cache.InvalidatePost(ctx, uint64(id))
	s.publish(ctx, event)
	observability.ObserveApply("like_post", "ok", start)
	return nil
}

// UnlikePost withdraws the caller's like on a post.
func (s *LedgerService) UnlikePost(ctx context.Context, caller ledger.Principal, id ledger.PostID) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.sequence + 1
	event, err := s.core.UnlikePost(caller, id)
	if err != nil {
		observability.ObserveApply("unlike_post", errOutcome(err), start)
		return err
	}

	post, _ := s.core.GetPost(id)
	if err := s.repo.CommitUnlike(ctx, uint64(id), string(caller), post.LikeCount, next); err != nil {
		s.resync(ctx)
		observability.ObserveApply("unlike_post", "commit_failed", start)
		return models.NewInternalError(err)
	}
	s.sequence = next

	cache.InvalidatePost(ctx, uint64(id))
	s.publish(ctx, event)
	observability.ObserveApply("unlike_post", "ok", start)
	return nil
}

// Pause stops all mutating operations. Owner only.
func (s *LedgerService) Pause(ctx context.Context, caller ledger.Principal) error {
	return s.setPaused(ctx, caller, true)
}

// Unpause resumes mutating operations. Owner only.
func (s *LedgerService) Unpause(ctx context.Context, caller ledger.Principal) error {
	return s.setPaused(ctx, caller, false)
}

func (s *LedgerService) setPaused(ctx context.Context, caller ledger.Principal, paused bool) error {
	op := "pause"
	if !paused {
		op = "unpause"
	}
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.sequence + 1
	var event *ledger.Event
	var err error
	if paused {
		event, err = s.core.Pause(caller)
	} else {
		event, err = s.core.Unpause(caller)
	}
	if err != nil {
		observability.ObserveApply(op, errOutcome(err), start)
		return err
	}

	if err := s.repo.CommitPaused(ctx, paused, next); err != nil {
		s.resync(ctx)
		observability.ObserveApply(op, "commit_failed", start)
		return models.NewInternalError(err)
	}
	s.sequence = next

	s.publish(ctx, event)
	observability.ObserveApply(op, "ok", start)
	return nil
}

// GetPost returns a copy of the post, through the cache when available.
func (s *LedgerService) GetPost(ctx context.Context, id ledger.PostID) (ledger.Post, error) {
	var post ledger.Post
	err := cache.Aside(ctx, cache.PostKey(uint64(id)), &post, cache.PostTTL, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		var fetchErr error
		post, fetchErr = s.core.GetPost(id)
		return fetchErr
	})
	return post, err
}

// GetTotalPosts returns the number of posts ever created.
func (s *LedgerService) GetTotalPosts(ctx context.Context) uint64 {
	var total uint64
	_ = cache.Aside(ctx, cache.TotalPostsKey, &total, cache.TotalTTL, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		total = s.core.TotalPosts()
		return nil
	})
	return total
}

// GetUserPostCount returns how many posts the user has authored, 0 if none.
func (s *LedgerService) GetUserPostCount(ctx context.Context, user ledger.Principal) uint64 {
	var count uint64
	_ = cache.Aside(ctx, cache.UserCountKey(string(user)), &count, cache.UserCountTTL, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		count = s.core.UserPostCount(user)
		return nil
	})
	return count
}

// GetUserPostAt resolves the id of the user's index-th post.
func (s *LedgerService) GetUserPostAt(ctx context.Context, user ledger.Principal, index uint64) (ledger.PostID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.UserPostAt(user, index)
}

// HasUserLiked reports whether the user currently likes the post.
func (s *LedgerService) HasUserLiked(ctx context.Context, id ledger.PostID, user ledger.Principal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.HasUserLiked(id, user)
}

// Status returns the singleton ledger state.
func (s *LedgerService) Status(ctx context.Context) LedgerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LedgerStatus{
		Owner:      string(s.core.Owner()),
		Paused:     s.core.IsPaused(),
		TotalPosts: s.core.TotalPosts(),
		Sequence:   s.sequence,
	}
}

// publish hands the event to the notifier. Failures are logged, not returned:
// the transition is already committed and delivery is a host-side concern.
func (s *LedgerService) publish(ctx context.Context, event *ledger.Event) {
	if s.publisher == nil || event == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		middleware.Logger.ErrorContext(ctx, "event publish failed",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.LedgerEventsPublished.WithLabelValues(string(event.Type)).Inc()
}

// resync reloads the core from the store after a failed commit so memory
// never runs ahead of the durable state.
func (s *LedgerService) resync(ctx context.Context) {
	observability.LedgerResyncsTotal.Inc()
	snap, sequence, err := s.repo.LoadSnapshot(ctx)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "ledger resync failed; state may be stale until restart",
			slog.String("error", err.Error()),
		)
		return
	}
	s.core = ledger.FromSnapshot(snap)
	s.sequence = sequence
}

func errOutcome(err error) string {
	if lerr, ok := err.(*ledger.Error); ok {
		return lerr.Code
	}
	return "error"
}
