package shared

import (
	"context"
	"time"
)

// WithOptionalTimeout bounds the context by timeout when timeout is positive.
func WithOptionalTimeout(parentContext context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parentContext)
	}
	return context.WithTimeout(parentContext, timeout)
}
