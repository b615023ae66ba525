package app

import (
	"context"
	"errors"

	"imagematch/domain"
)

// DefaultBatchSize is how many images one review page shows.
const DefaultBatchSize = 50

var ErrInvalidBatchLimit = errors.New("batch limit must be positive")

// SelectUnlabeledBatch returns up to limit images that have no category yet,
// in insertion order.
func SelectUnlabeledBatch(ctx context.Context, repository Repository, limit int) ([]domain.Image, error) {
	if limit <= 0 {
		return nil, ErrInvalidBatchLimit
	}

	return repository.GetUnlabeledImages(ctx, limit)
}
