package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostKeyPrefix      = "post:%d"
	TotalPostsKey      = "posts:total"
	UserCountKeyPrefix = "user:%s:count"
)

const (
	// Posts never change except for their like counter, so the TTL mostly
	// bounds staleness after missed invalidations.
	PostTTL      = 30 * time.Minute
	TotalTTL     = 1 * time.Minute
	UserCountTTL = 5 * time.Minute
)

func PostKey(postID uint64) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func UserCountKey(principal string) string {
	return fmt.Sprintf(UserCountKeyPrefix, principal)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePost(ctx context.Context, postID uint64) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateTotals(ctx context.Context) {
	Invalidate(ctx, TotalPostsKey)
}

func InvalidateUserCount(ctx context.Context, principal string) {
	Invalidate(ctx, UserCountKey(principal))
}
