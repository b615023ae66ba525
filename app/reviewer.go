package app

import "context"

const AnonymousReviewer = "anonymous"

type reviewerKey struct{}

func WithReviewer(ctx context.Context, reviewer string) context.Context {
	return context.WithValue(ctx, reviewerKey{}, reviewer)
}

func ReviewerFromContext(ctx context.Context) string {
	if reviewer, ok := ctx.Value(reviewerKey{}).(string); ok && reviewer != "" {
		return reviewer
	}
	return AnonymousReviewer
}
