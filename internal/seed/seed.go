package seed

import (
	"context"
	"fmt"
	"log"

	"postchain/internal/ledger"
	"postchain/internal/service"
)

// Options configures the seeder.
type Options struct {
	NumUsers int
	NumPosts int
	// LikeRate is the probability that a given (user, post) pair likes the
	// post. Self-likes are allowed; the ledger does not forbid them.
	LikeRate float64
	// UnlikeRate is the probability that an existing like is toggled back
	// off, leaving a tombstone behind.
	UnlikeRate float64
	Seed       int64
}

// DefaultOptions returns a small demo data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:   10,
		NumPosts:   50,
		LikeRate:   0.2,
		UnlikeRate: 0.1,
	}
}

// Run seeds the ledger through the service layer. Every operation commits,
// persists, and publishes exactly like a real API call.
func Run(ctx context.Context, svc *service.LedgerService, opts Options) error {
	if opts.NumUsers <= 0 || opts.NumPosts <= 0 {
		return fmt.Errorf("seed: NumUsers and NumPosts must be positive")
	}

	f := NewFactory(opts.Seed)

	users := make([]ledger.Principal, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		users = append(users, f.Principal())
	}

	posts := make([]ledger.PostID, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		id, err := svc.CreatePost(ctx, f.Pick(users), f.ContentRef())
		if err != nil {
			return fmt.Errorf("seed: create post: %w", err)
		}
		posts = append(posts, id)
	}

	likes, unlikes := 0, 0
	for _, post := range posts {
		for _, user := range users {
			if !f.Chance(opts.LikeRate) {
				continue
			}
			if err := svc.LikePost(ctx, user, post); err != nil {
				return fmt.Errorf("seed: like post %d: %w", post, err)
			}
			likes++
			if f.Chance(opts.UnlikeRate) {
				if err := svc.UnlikePost(ctx, user, post); err != nil {
					return fmt.Errorf("seed: unlike post %d: %w", post, err)
				}
				unlikes++
			}
		}
	}

	log.Printf("seeded %d users, %d posts, %d likes (%d toggled back off)",
		len(users), len(posts), likes, unlikes)
	return nil
}
