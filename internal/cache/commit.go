package cache

import (
	"github.com/talecache/talecache/pkg/errors"
)

// WithCommit runs fn and then commits pool, also when fn fails. A failed
// commit is reported only if fn itself succeeded.
func WithCommit(pool ItemPool, fn func(ItemPool) error) error {
	err := fn(pool)
	if !pool.Commit() && err == nil {
		return errors.NewError(errors.ErrCodeCommitFailed, "failed to commit deferred items").
			WithComponent("pool").
			WithOperation("commit")
	}
	return err
}
