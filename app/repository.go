package app

import (
	"context"

	"imagematch/domain"
)

type Repository interface {
	Close() error
	Ping(ctx context.Context) error
	CreateImage(ctx context.Context, zillowID, url string) (domain.Image, error)
	GetImage(ctx context.Context, id int64) (domain.Image, error)
	GetUnlabeledImages(ctx context.Context, limit int) ([]domain.Image, error)
	UpdateImageCategory(ctx context.Context, id int64, category domain.Category) error
	EachLabeledImage(ctx context.Context, fn func(domain.Image) error) error
	CountUnlabeledImages(ctx context.Context) (int, error)
	CountImagesByCategory(ctx context.Context) ([]domain.CategoryCount, error)
}
