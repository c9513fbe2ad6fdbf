package providers

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSDK struct{ key string }

func TestPool_BuildsOncePerKey(t *testing.T) {
	var pool Pool[*fakeSDK]
	var builds atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cli, err := pool.Get("key-a", func() (*fakeSDK, error) {
				builds.Add(1)
				return &fakeSDK{key: "key-a"}, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "key-a", cli.key)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, 1, pool.Len())
}

func TestPool_BuildErrorIsNotCached(t *testing.T) {
	var pool Pool[*fakeSDK]

	_, err := pool.Get("k", func() (*fakeSDK, error) { return nil, errors.New("bad credentials") })
	require.Error(t, err)
	assert.Equal(t, 0, pool.Len())

	cli, err := pool.Get("k", func() (*fakeSDK, error) { return &fakeSDK{key: "k"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "k", cli.key)
}

func TestSystemText(t *testing.T) {
	assert.Equal(t, "", SystemText(&Config{}))
	assert.Equal(t, "score ips", SystemText(&Config{SystemPrompt: "score ips"}))
	assert.Equal(t,
		"score ips\n\n[Instructions]\n- json only\n",
		SystemText(&Config{SystemPrompt: "score ips", Instructions: []string{"json only"}}),
	)
}
