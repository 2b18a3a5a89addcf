package upstream

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

// SharedTimeout bounds a lookup shared by concurrent callers
const SharedTimeout = 20 * time.Second

// Shared runs fn once per key for all concurrent callers. fn gets a
// context that keeps ctx's values but not its cancellation, so one caller
// going away does not fail the others. Each caller still stops waiting
// when its own ctx ends.
func Shared[T any](ctx context.Context, group *singleflight.Group, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ch := group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), SharedTimeout)
		defer cancel()
		return fn(shared)
	})

	select {
	case <-ctx.Done():
		return zero, apperrors.NewExternalError("request cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
