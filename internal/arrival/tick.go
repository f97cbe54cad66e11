package arrival

import (
	"context"
	"time"
)

// Tick calls fn immediately and then once per interval until ctx is done or
// fn returns false. The ticker is stopped before Tick returns.
func Tick(ctx context.Context, interval time.Duration, now func() time.Time, fn func(time.Time) bool) {
	if !fn(now()) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !fn(now()) {
				return
			}
		}
	}
}
