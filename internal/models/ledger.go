// Package models contains the persisted row types for the ledger tables and
// shared API response structures.
package models

import "time"

// Post is the durable row for one ledger post. Rows are append-only; only
// LikeCount is ever updated.
type Post struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Creator    string `gorm:"not null;index" json:"creator"`
	ContentRef string `gorm:"type:varchar(1024);not null" json:"content_ref"`
	CreatedAt  uint64 `gorm:"not null" json:"created_at"`
	LikeCount  uint64 `gorm:"not null;default:0" json:"like_count"`
}

// UserPostRef maps (principal, zero-based index) to a post id, forming each
// user's append-only ordered post list.
type UserPostRef struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	Principal string `gorm:"not null;uniqueIndex:idx_principal_index" json:"principal"`
	Index     uint64 `gorm:"not null;uniqueIndex:idx_principal_index" json:"index"`
	PostID    uint64 `gorm:"not null" json:"post_id"`
}

// UserPostCount is the per-principal count of posts authored. Monotonically
// incremented, never deleted.
type UserPostCount struct {
	Principal string `gorm:"primaryKey" json:"principal"`
	Count     uint64 `gorm:"not null;default:0" json:"count"`
}

// LikeRecord is one (post, principal) like flag. Liked=false rows are
// explicit tombstones and must not be deleted on unlike.
type LikeRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PostID    uint64    `gorm:"not null;uniqueIndex:idx_post_principal" json:"post_id"`
	Principal string    `gorm:"not null;uniqueIndex:idx_post_principal" json:"principal"`
	Liked     bool      `gorm:"not null" json:"liked"`
	UpdatedAt time.Time `json:"-"`
}

// LedgerMeta is the singleton ledger state row. Sequence is the host-side
// monotonic counter handed to the core as each post's creation time.
type LedgerMeta struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	Owner      string `gorm:"not null" json:"owner"`
	Paused     bool   `gorm:"not null;default:false" json:"paused"`
	TotalPosts uint64 `gorm:"not null;default:0" json:"total_posts"`
	Sequence   uint64 `gorm:"not null;default:0" json:"sequence"`
}
