package translate

import (
	"context"

	"github.com/google/uuid"
)

type attemptKey struct{}

// withAttempt returns ctx tagged with an attempt id, reusing one set by an
// enclosing chain.
func withAttempt(ctx context.Context) (context.Context, string) {
	if id, ok := ctx.Value(attemptKey{}).(string); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return context.WithValue(ctx, attemptKey{}, id), id
}

// AttemptID returns the attempt id carried by ctx, if any.
func AttemptID(ctx context.Context) string {
	id, _ := ctx.Value(attemptKey{}).(string)
	return id
}
