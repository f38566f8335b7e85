// Package repository provides the data access layer for the durable ledger
// tables. The in-memory core is authoritative during a call; each commit
// method persists one already-validated transition atomically.
package repository

import (
	"context"
	"errors"

	"postchain/internal/ledger"
	"postchain/internal/models"
	"postchain/internal/observability"

	"gorm.io/gorm"
)

// LedgerRepository persists ledger transitions and restores snapshots.
type LedgerRepository interface {
	// InitMeta creates the singleton meta row on first boot. If a row
	// already exists it is returned unchanged, preserving the original
	// owner across restarts.
	InitMeta(ctx context.Context, owner string) (*models.LedgerMeta, error)
	// LoadSnapshot reads the full durable state for core reconstruction.
	LoadSnapshot(ctx context.Context) (*ledger.Snapshot, uint64, error)
	CommitCreatePost(ctx context.Context, post *models.Post, sequence uint64) error
	CommitLike(ctx context.Context, postID uint64, principal string, likeCount uint64, sequence uint64) error
	CommitUnlike(ctx context.Context, postID uint64, principal string, likeCount uint64, sequence uint64) error
	CommitPaused(ctx context.Context, paused bool, sequence uint64) error
}

type ledgerRepository struct {
	db      *gorm.DB
	repoLog *observability.RepoLogger
}

// NewLedgerRepository creates a new GORM-backed ledger repository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{
		db:      db,
		repoLog: observability.NewRepoLogger("ledger"),
	}
}

func (r *ledgerRepository) InitMeta(ctx context.Context, owner string) (*models.LedgerMeta, error) {
	var meta models.LedgerMeta
	err := r.db.WithContext(ctx).First(&meta).Error
	if err == nil {
		return &meta, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.repoLog.LogError(ctx, err, "init_meta")
		return nil, err
	}

	meta = models.LedgerMeta{Owner: owner}
	if err := r.db.WithContext(ctx).Create(&meta).Error; err != nil {
		r.repoLog.LogError(ctx, err, "init_meta")
		return nil, err
	}
	r.repoLog.LogCommit(ctx, "init_meta", map[string]interface{}{"owner": owner})
	return &meta, nil
}

func (r *ledgerRepository) LoadSnapshot(ctx context.Context) (*ledger.Snapshot, uint64, error) {
	var meta models.LedgerMeta
	if err := r.db.WithContext(ctx).First(&meta).Error; err != nil {
		r.repoLog.LogError(ctx, err, "load_snapshot")
		return nil, 0, err
	}

	snap := &ledger.Snapshot{
		Owner:      ledger.Principal(meta.Owner),
		Paused:     meta.Paused,
		TotalPosts: meta.TotalPosts,
		PostCounts: make(map[ledger.Principal]uint64),
	}

	var posts []models.Post
	if err := r.db.WithContext(ctx).Order("id").Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	for _, p := range posts {
		snap.Posts = append(snap.Posts, ledger.Post{
			ID:         ledger.PostID(p.ID),
			Creator:    ledger.Principal(p.Creator),
			ContentRef: p.ContentRef,
			CreatedAt:  ledger.SequenceNumber(p.CreatedAt),
			LikeCount:  p.LikeCount,
		})
	}

	var refs []models.UserPostRef
	if err := r.db.WithContext(ctx).Order("principal, post_id").Find(&refs).Error; err != nil {
		return nil, 0, err
	}
	for _, ref := range refs {
		snap.PostRefs = append(snap.PostRefs, ledger.PostRefEntry{
			User:   ledger.Principal(ref.Principal),
			Index:  ref.Index,
			PostID: ledger.PostID(ref.PostID),
		})
	}

	var counts []models.UserPostCount
	if err := r.db.WithContext(ctx).Find(&counts).Error; err != nil {
		return nil, 0, err
	}
	for _, c := range counts {
		snap.PostCounts[ledger.Principal(c.Principal)] = c.Count
	}

	var likes []models.LikeRecord
	if err := r.db.WithContext(ctx).Find(&likes).Error; err != nil {
		return nil, 0, err
	}
	for _, like := range likes {
		snap.Likes = append(snap.Likes, ledger.LikeEntry{
			PostID: ledger.PostID(like.PostID),
			User:   ledger.Principal(like.Principal),
			Liked:  like.Liked,
		})
	}

	return snap, meta.Sequence, nil
}

func (r *ledgerRepository) CommitCreatePost(ctx context.Context, post *models.Post, sequence uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}

		var count models.UserPostCount
		err := tx.Where("principal = ?", post.Creator).First(&count).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			count = models.UserPostCount{Principal: post.Creator}
		case err != nil:
			return err
		}

		ref := models.UserPostRef{
			Principal: post.Creator,
			Index:     count.Count,
			PostID:    post.ID,
		}
		if err := tx.Create(&ref).Error; err != nil {
			return err
		}

		count.Count++
		if err := tx.Save(&count).Error; err != nil {
			return err
		}

		return tx.Model(&models.LedgerMeta{}).
			Where("1 = 1").
			Updates(map[string]interface{}{"total_posts": post.ID, "sequence": sequence}).Error
	})
	if err != nil {
		r.repoLog.LogError(ctx, err, "create_post")
		return err
	}
	r.repoLog.LogCommit(ctx, "create_post", map[string]interface{}{
		"post_id": post.ID,
		"creator": post.Creator,
	})
	return nil
}

func (r *ledgerRepository) CommitLike(ctx context.Context, postID uint64, principal string, likeCount uint64, sequence uint64) error {
	return r.commitLikeState(ctx, "like", postID, principal, true, likeCount, sequence)
}

func (r *ledgerRepository) CommitUnlike(ctx context.Context, postID uint64, principal string, likeCount uint64, sequence uint64) error {
	// The row flips to a false tombstone; it is never deleted.
	return r.commitLikeState(ctx, "unlike", postID, principal, false, likeCount, sequence)
}

func (r *ledgerRepository) commitLikeState(ctx context.Context, op string, postID uint64, principal string, liked bool, likeCount uint64, sequence uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.LikeRecord
		err := tx.Where("post_id = ? AND principal = ?", postID, principal).First(&record).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = models.LikeRecord{PostID: postID, Principal: principal}
		case err != nil:
			return err
		}
		record.Liked = liked
		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).
			Where("id = ?", postID).
			Update("like_count", likeCount).Error; err != nil {
			return err
		}

		return tx.Model(&models.LedgerMeta{}).
			Where("1 = 1").
			Update("sequence", sequence).Error
	})
	if err != nil {
		r.repoLog.LogError(ctx, err, op)
		return err
	}
	r.repoLog.LogCommit(ctx, op, map[string]interface{}{
		"post_id":   postID,
		"principal": principal,
	})
	return nil
}

func (r *ledgerRepository) CommitPaused(ctx context.Context, paused bool, sequence uint64) error {
	err := r.db.WithContext(ctx).Model(&models.LedgerMeta{}).
		Where("1 = 1").
		Updates(map[string]interface{}{"paused": paused, "sequence": sequence}).Error
	if err != nil {
		r.repoLog.LogError(ctx, err, "set_paused")
		return err
	}
	r.repoLog.LogCommit(ctx, "set_paused", map[string]interface{}{"paused": paused})
	return nil
}
