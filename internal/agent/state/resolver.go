package state

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// ============================================================================
//                              目的地址解析缓存
// ============================================================================

// ResolverCache 目的地址 → 节点 ID 的解析缓存（LRU + TTL）
//
// 只缓存成功的解析结果；失败的解析每次都重新查询，
// 这样目的节点一旦出现就能立即被解析到。
type ResolverCache struct {
	cache *expirable.LRU[types.Address, types.NodeID]

	hits   atomic.Int64
	misses atomic.Int64
}

// ResolverCacheStats 缓存统计
type ResolverCacheStats struct {
	Size    int
	Hits    int64
	Misses  int64
	HitRate float64
}

// NewResolverCache 创建解析缓存
//
// size <= 0 时返回 nil，nil 缓存的所有方法都直接透传到环境。
func NewResolverCache(size int, ttl time.Duration) *ResolverCache {
	if size <= 0 {
		return nil
	}
	return &ResolverCache{
		cache: expirable.NewLRU[types.Address, types.NodeID](size, nil, ttl),
	}
}

// Resolve 解析目的地址
//
// 环境未实现 AddressResolver、地址为空或解析失败时返回 (NoNode, false)。
func (rc *ResolverCache) Resolve(env interfaces.NodeContext, dest types.Address) (types.NodeID, bool) {
	if env == nil || dest.IsEmpty() {
		return types.NoNode, false
	}

	if rc != nil {
		if id, ok := rc.cache.Get(dest); ok {
			rc.hits.Add(1)
			return id, true
		}
		rc.misses.Add(1)
	}

	resolver, ok := env.(interfaces.AddressResolver)
	if !ok {
		return types.NoNode, false
	}
	id, ok := resolver.Resolve(dest)
	if !ok || id.IsNone() {
		return types.NoNode, false
	}

	if rc != nil {
		rc.cache.Add(dest, id)
	}
	return id, true
}

// Invalidate 使某个地址的缓存失效
func (rc *ResolverCache) Invalidate(dest types.Address) {
	if rc == nil {
		return
	}
	rc.cache.Remove(dest)
}

// Purge 清空缓存（重新绑定环境时调用）
func (rc *ResolverCache) Purge() {
	if rc == nil {
		return
	}
	rc.cache.Purge()
}

// Stats 获取统计
func (rc *ResolverCache) Stats() ResolverCacheStats {
	if rc == nil {
		return ResolverCacheStats{}
	}
	hits, misses := rc.hits.Load(), rc.misses.Load()
	stats := ResolverCacheStats{
		Size:   rc.cache.Len(),
		Hits:   hits,
		Misses: misses,
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}
