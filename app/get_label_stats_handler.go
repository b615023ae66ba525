package app

import (
	"context"

	"imagematch/domain"
	"imagematch/pkg/httperror"
)

type GetLabelStatsHandler struct {
	repository Repository
}

func NewGetLabelStatsHandler(repository Repository) *GetLabelStatsHandler {
	return &GetLabelStatsHandler{
		repository: repository,
	}
}

type GetLabelStatsRequest struct{}

type GetLabelStatsResponse struct {
	Unlabeled  int                    `json:"unlabeled"`
	Labeled    int                    `json:"labeled"`
	Categories []domain.CategoryCount `json:"categories"`
}

// Handle reports labeling progress. Every category appears in the output,
// including those with no images yet.
func (h *GetLabelStatsHandler) Handle(ctx context.Context, req *GetLabelStatsRequest) (*GetLabelStatsResponse, error) {
	unlabeled, err := h.repository.CountUnlabeledImages(ctx)
	if err != nil {
		return nil, httperror.InternalServerError(
			"review.stats.count_unlabeled_failed",
			"Failed to count unlabeled images",
			nil,
		)
	}

	counts, err := h.repository.CountImagesByCategory(ctx)
	if err != nil {
		return nil, httperror.InternalServerError(
			"review.stats.count_categories_failed",
			"Failed to count labeled images",
			nil,
		)
	}

	byCategory := make(map[domain.Category]int, len(counts))
	for _, c := range counts {
		byCategory[c.Category] = c.Count
	}

	res := &GetLabelStatsResponse{Unlabeled: unlabeled}
	for _, c := range domain.Categories() {
		res.Categories = append(res.Categories, domain.CategoryCount{Category: c, Count: byCategory[c]})
		res.Labeled += byCategory[c]
	}

	return res, nil
}
