package listview

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff waits attempt*step before each retry: step, 2*step, 3*step.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

var _ backoff.BackOff = (*linearBackOff)(nil)

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() { b.attempt = 0 }
