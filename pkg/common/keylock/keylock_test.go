package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharded_SerializesSameKey(t *testing.T) {
	locks := New(8)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.With("203.0.113.5", func() {
				counter++
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, counter)
}

func TestSharded_SameKeySameShard(t *testing.T) {
	locks := New(0)
	assert.Len(t, locks.shards, DefaultShards)
	assert.Same(t, locks.shard("10.0.0.1"), locks.shard("10.0.0.1"))
}
