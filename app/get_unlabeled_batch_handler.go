package app

import (
	"context"

	"imagematch/pkg/httperror"
)

type GetUnlabeledBatchHandler struct {
	repository Repository
	batchSize  int
}

func NewGetUnlabeledBatchHandler(repository Repository, batchSize int) *GetUnlabeledBatchHandler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &GetUnlabeledBatchHandler{
		repository: repository,
		batchSize:  batchSize,
	}
}

type GetUnlabeledBatchRequest struct {
	Limit int `query:"limit"`
}

type GetUnlabeledBatchResponse struct {
	Form ReviewForm `json:"form"`
}

func (h *GetUnlabeledBatchHandler) Handle(ctx context.Context, req *GetUnlabeledBatchRequest) (*GetUnlabeledBatchResponse, error) {
	limit := req.Limit
	if limit < 1 || limit > h.batchSize {
		limit = h.batchSize
	}

	images, err := SelectUnlabeledBatch(ctx, h.repository, limit)
	if err != nil {
		return nil, httperror.InternalServerError(
			"review.batch.failed",
			"Failed to retrieve unlabeled images",
			nil,
		)
	}

	return &GetUnlabeledBatchResponse{
		Form: RenderBatch(images),
	}, nil
}
