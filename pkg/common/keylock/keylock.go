package keylock

import (
	"hash/fnv"
	"sync"
)

const DefaultShards = 256

// Sharded hands out a mutex per key. Keys hashing to the same shard share a
// lock, so unrelated keys contend only on collision.
type Sharded struct {
	shards []sync.Mutex
}

func New(shards int) *Sharded {
	if shards <= 0 {
		shards = DefaultShards
	}
	return &Sharded{shards: make([]sync.Mutex, shards)}
}

// Index maps key onto one of n shards.
func Index(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

func (s *Sharded) shard(key string) *sync.Mutex {
	return &s.shards[Index(key, len(s.shards))]
}

func (s *Sharded) Lock(key string) {
	s.shard(key).Lock()
}

func (s *Sharded) Unlock(key string) {
	s.shard(key).Unlock()
}

// With runs fn while holding the lock for key.
func (s *Sharded) With(key string, fn func()) {
	m := s.shard(key)
	m.Lock()
	defer m.Unlock()
	fn()
}
