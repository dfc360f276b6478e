package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talecache/talecache/internal/storage/memory"
	"github.com/talecache/talecache/pkg/errors"
)

func TestWithCommit(t *testing.T) {
	pool, _ := newMemoryPool(t)

	err := WithCommit(pool, func(p ItemPool) error {
		return NewGateway(p).Set("k", "v", 0)
	})
	require.NoError(t, err)
	assert.True(t, pool.Adapter().Has("k"))
}

func TestWithCommit_CommitsOnError(t *testing.T) {
	pool, _ := newMemoryPool(t)
	boom := fmt.Errorf("boom")

	err := WithCommit(pool, func(p ItemPool) error {
		if err := NewGateway(p).Set("k", "v", 0); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)
	assert.True(t, pool.Adapter().Has("k"), "queued items are committed on error")
}

func TestWithCommit_CommitFailure(t *testing.T) {
	pool := NewPool(&flakyAdapter{Adapter: memory.New(), failSet: true})

	err := WithCommit(pool, func(p ItemPool) error {
		return NewGateway(p).Set("k", "v", 0)
	})
	assert.True(t, errors.Is(err, errors.ErrCommitFailed))
}
