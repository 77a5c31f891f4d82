package catalogue

import (
	"hash/maphash"
	"sync"
)

const shardCount = 64

type shard[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

// shardedMap is a map partitioned into independently locked shards so that
// concurrent inserts only contend when they touch the same shard.
type shardedMap[K comparable, V any] struct {
	seed   maphash.Seed
	shards [shardCount]shard[K, V]
}

func newShardedMap[K comparable, V any]() *shardedMap[K, V] {
	s := &shardedMap[K, V]{seed: maphash.MakeSeed()}
	for i := range s.shards {
		s.shards[i].m = make(map[K]V)
	}
	return s
}

func (s *shardedMap[K, V]) shardOf(key K) int {
	return int(maphash.Comparable(s.seed, key) % shardCount)
}

// update replaces the value for key with fn(current). A missing key passes
// the zero V.
func (s *shardedMap[K, V]) update(key K, fn func(V) V) {
	sh := &s.shards[s.shardOf(key)]
	sh.mu.Lock()
	sh.m[key] = fn(sh.m[key])
	sh.mu.Unlock()
}

// updatePair updates two keys as one step: no other update observes one
// side written without the other. Shard locks are taken in index order.
func (s *shardedMap[K, V]) updatePair(a, b K, fa, fb func(V) V) {
	ia, ib := s.shardOf(a), s.shardOf(b)
	first, second := ia, ib
	if first > second {
		first, second = second, first
	}

	s.shards[first].mu.Lock()
	if second != first {
		s.shards[second].mu.Lock()
	}

	sa, sb := &s.shards[ia], &s.shards[ib]
	sa.m[a] = fa(sa.m[a])
	sb.m[b] = fb(sb.m[b])

	if second != first {
		s.shards[second].mu.Unlock()
	}
	s.shards[first].mu.Unlock()
}

// drain moves every entry into a plain map. It must only be called once
// inserts have stopped.
func (s *shardedMap[K, V]) drain() map[K]V {
	n := 0
	for i := range s.shards {
		n += len(s.shards[i].m)
	}
	out := make(map[K]V, n)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, v := range sh.m {
			out[k] = v
		}
		sh.m = make(map[K]V)
		sh.mu.Unlock()
	}
	return out
}
