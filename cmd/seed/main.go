// Command main seeds the ledger with demo posts and likes.
package main

import (
	"context"
	"flag"
	"log"

	"postchain/internal/config"
	"postchain/internal/database"
	"postchain/internal/repository"
	"postchain/internal/seed"
	"postchain/internal/service"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of principals to fabricate")
	numPosts := flag.Int("posts", 50, "Number of posts to create")
	likeRate := flag.Float64("like-rate", 0.2, "Probability a principal likes a given post")
	unlikeRate := flag.Float64("unlike-rate", 0.1, "Probability a like is toggled back off")
	seedVal := flag.Int64("seed", 0, "RNG seed (0 = derive from clock)")
	flag.Parse()

	log.Println("Ledger Seeder")
	log.Printf("Target: %d users, %d posts, like-rate=%.2f\n", *numUsers, *numPosts, *likeRate)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	repo := repository.NewLedgerRepository(db)
	svc, err := service.NewLedgerService(ctx, repo, nil, cfg.OwnerPrincipal)
	if err != nil {
		log.Fatalf("Failed to restore ledger: %v", err)
	}

	opts := seed.Options{
		NumUsers:   *numUsers,
		NumPosts:   *numPosts,
		LikeRate:   *likeRate,
		UnlikeRate: *unlikeRate,
		Seed:       *seedVal,
	}
	if err := seed.Run(ctx, svc, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	status := svc.Status(ctx)
	log.Printf("Done. total_posts=%d sequence=%d", status.TotalPosts, status.Sequence)
}
